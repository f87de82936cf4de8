package models

import "github.com/starford/larder/internal/quantity"

// Amount is a quantity with its unit and display form.
type Amount struct {
	Quantity quantity.Quantity `json:"quantity"`
	Unit     string            `json:"unit,omitempty"`
	Display  string            `json:"display"`
}

// Measurement is one contributing line, kept verbatim with its provenance.
type Measurement struct {
	Quantity   quantity.Quantity `json:"quantity"`
	Unit       string            `json:"unit,omitempty"`
	Size       string            `json:"size,omitempty"`
	Descriptor string            `json:"descriptor,omitempty"`
	RecipeID   int64             `json:"recipe_id"`
	RecipeName string            `json:"recipe_name"`
}

// AggregatedItem is every line of one identity folded together. Totals[0] is
// the combined amount in the primary unit; further entries hold amounts whose
// units could not be converted into it.
type AggregatedItem struct {
	Identity     Identity      `json:"identity"`
	DisplayName  string        `json:"display_name"`
	Totals       []Amount      `json:"totals"`
	Measurements []Measurement `json:"measurements"`
}

// Primary returns the total in the primary unit.
func (a AggregatedItem) Primary() Amount {
	if len(a.Totals) == 0 {
		return Amount{}
	}
	return a.Totals[0]
}

// SectionGroup is one store section with the items bucketed into it.
type SectionGroup struct {
	SectionID int64            `json:"section_id,omitempty"`
	Name      string           `json:"name"`
	Order     int              `json:"order"`
	Items     []AggregatedItem `json:"items"`
}

// NoticeKind classifies a non-fatal event raised while building a list.
type NoticeKind string

const (
	NoticeCycle         NoticeKind = "cycle"
	NoticeMissingRecipe NoticeKind = "missing_recipe"
	NoticeBadQuantity   NoticeKind = "bad_quantity"
)

// Notice surfaces data that was skipped or truncated.
type Notice struct {
	Kind     NoticeKind `json:"kind"`
	RecipeID int64      `json:"recipe_id,omitempty"`
	Ref      string     `json:"ref,omitempty"`
	Path     []int64    `json:"path,omitempty"`
	Message  string     `json:"message"`
}

// ShoppingList is the categorized output of the full pipeline.
type ShoppingList struct {
	StoreID  int64          `json:"store_id,omitempty"`
	Store    string         `json:"store,omitempty"`
	Sections []SectionGroup `json:"sections"`
	Notices  []Notice       `json:"notices,omitempty"`
}
