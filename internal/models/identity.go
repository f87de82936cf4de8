package models

// Tier records how an ingredient identity was established.
type Tier string

const (
	TierCatalog    Tier = "catalog"
	TierCanonical  Tier = "canonical"
	TierFuzzy      Tier = "fuzzy"
	TierUnresolved Tier = "unresolved"
)

// Identity is the aggregation key attached to a line item. Key is stable for
// a canonical ingredient no matter which recipe or nesting path produced it.
type Identity struct {
	Key          string `json:"key"`
	Tier         Tier   `json:"tier"`
	IngredientID int64  `json:"ingredient_id,omitempty"`
	CatalogID    string `json:"catalog_id,omitempty"`
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
}
