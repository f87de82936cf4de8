package identity

import (
	"fmt"
	"strings"

	"github.com/starford/larder/internal/models"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithThreshold overrides the fuzzy similarity threshold.
func WithThreshold(th float64) Option {
	return func(r *Resolver) {
		if th > 0 && th <= 1 {
			r.threshold = th
		}
	}
}

// Resolver attaches identities to line items against a fixed snapshot of
// canonical ingredients. It never fails: unmatched names become their own
// unresolved identity.
type Resolver struct {
	norm        *Normalizer
	threshold   float64
	ingredients []models.Ingredient
	names       []string
	byID        map[int64]int
	byCatalog   map[string]int
}

// NewResolver indexes the known canonical ingredients.
func NewResolver(ingredients []models.Ingredient, opts ...Option) *Resolver {
	r := &Resolver{
		norm:      std,
		threshold: DefaultThreshold,
		byID:      make(map[int64]int, len(ingredients)),
		byCatalog: make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.ingredients = ingredients
	r.names = make([]string, len(ingredients))
	for i, ing := range ingredients {
		r.names[i] = r.norm.Normalize(ing.Name)
		r.byID[ing.ID] = i
		if ing.CatalogID != "" {
			if _, dup := r.byCatalog[ing.CatalogID]; !dup {
				r.byCatalog[ing.CatalogID] = i
			}
		}
	}
	return r
}

// Resolve returns the identity of item: an attached catalog id first, then
// an attached canonical ingredient id, then a fuzzy match of the normalized
// name against the known ingredients.
func (r *Resolver) Resolve(item models.LineItem) models.Identity {
	normalized := r.norm.Normalize(item.Name)

	if item.CatalogID != "" {
		id := models.Identity{
			Key:         CatalogKey(item.CatalogID),
			Tier:        models.TierCatalog,
			CatalogID:   item.CatalogID,
			Name:        normalized,
			DisplayName: displayName(item.Name, normalized),
		}
		if i, ok := r.byCatalog[item.CatalogID]; ok {
			ing := r.ingredients[i]
			id.IngredientID = ing.ID
			id.Name = r.names[i]
			id.DisplayName = ing.Label()
		}
		return id
	}

	if item.IngredientID != 0 {
		if i, ok := r.byID[item.IngredientID]; ok {
			return r.identityOf(i, models.TierCanonical)
		}
	}

	if i, ok := Match(normalized, r.names, r.threshold); ok {
		return r.identityOf(i, models.TierFuzzy)
	}

	return models.Identity{
		Key:         NameKey(normalized, item.Name),
		Tier:        models.TierUnresolved,
		Name:        normalized,
		DisplayName: displayName(item.Name, normalized),
	}
}

// ResolveAll attaches an identity to every item that lacks one.
func (r *Resolver) ResolveAll(items []models.LineItem) []models.LineItem {
	out := make([]models.LineItem, len(items))
	for i, it := range items {
		if it.Identity == nil {
			id := r.Resolve(it)
			it.Identity = &id
		}
		out[i] = it
	}
	return out
}

func (r *Resolver) identityOf(i int, tier models.Tier) models.Identity {
	ing := r.ingredients[i]
	return models.Identity{
		Key:          KeyOf(ing),
		Tier:         tier,
		IngredientID: ing.ID,
		CatalogID:    ing.CatalogID,
		Name:         r.names[i],
		DisplayName:  ing.Label(),
	}
}

// KeyOf is the aggregation key of a canonical ingredient. Ingredients that
// carry a catalog id share the key of that catalog entry.
func KeyOf(ing models.Ingredient) string {
	if ing.CatalogID != "" {
		return CatalogKey(ing.CatalogID)
	}
	return fmt.Sprintf("ingredient:%d", ing.ID)
}

// CatalogKey is the aggregation key for an external catalog id.
func CatalogKey(catalogID string) string { return "catalog:" + catalogID }

// NameKey is the aggregation key for an unresolved name.
func NameKey(normalized, raw string) string {
	if normalized == "" {
		normalized = strings.ToLower(strings.TrimSpace(raw))
	}
	return "name:" + normalized
}

func displayName(raw, normalized string) string {
	if s := strings.TrimSpace(raw); s != "" {
		return s
	}
	return normalized
}
