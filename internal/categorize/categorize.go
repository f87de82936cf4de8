// Package categorize buckets aggregated items into the ordered sections of a store.
package categorize

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/starford/larder/internal/aggregate"
	"github.com/starford/larder/internal/identity"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/quantity"
)

// Layout is the store data a categorization pass reads.
type Layout struct {
	Sections    []models.Section
	Assignments []models.Assignment
	Ingredients []models.Ingredient
}

// Option configures a Categorizer.
type Option func(*Categorizer)

// WithThreshold overrides the fuzzy similarity threshold.
func WithThreshold(th float64) Option {
	return func(c *Categorizer) {
		if th > 0 && th <= 1 {
			c.threshold = th
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Categorizer) { c.logger = l }
}

// Categorizer assigns items to sections.
type Categorizer struct {
	threshold float64
	logger    *slog.Logger
}

// New creates a categorizer.
func New(opts ...Option) *Categorizer {
	c := &Categorizer{threshold: identity.DefaultThreshold, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type index struct {
	sections map[int64]models.Section
	byIng    map[int64]int64 // ingredient -> section
	byCat    map[string]int64
	names    []string
	nameSec  []int64
}

func buildIndex(l Layout) *index {
	ix := &index{
		sections: make(map[int64]models.Section, len(l.Sections)),
		byIng:    make(map[int64]int64),
		byCat:    make(map[string]int64),
	}
	for _, s := range l.Sections {
		ix.sections[s.ID] = s
	}
	for _, a := range l.Assignments {
		if _, ok := ix.sections[a.SectionID]; !ok {
			continue
		}
		if _, dup := ix.byIng[a.IngredientID]; !dup {
			ix.byIng[a.IngredientID] = a.SectionID
		}
	}
	for _, ing := range l.Ingredients {
		sec, ok := ix.byIng[ing.ID]
		if !ok {
			continue
		}
		if ing.CatalogID != "" {
			if _, dup := ix.byCat[ing.CatalogID]; !dup {
				ix.byCat[ing.CatalogID] = sec
			}
		}
		ix.names = append(ix.names, identity.Normalize(ing.Name))
		ix.nameSec = append(ix.nameSec, sec)
	}
	return ix
}

// sectionFor tries the item's own assignment, then an assignment of another
// ingredient row with the same catalog id, then a fuzzy name match against
// ingredients that already have a section.
func (c *Categorizer) sectionFor(ix *index, it models.AggregatedItem) (int64, bool) {
	id := it.Identity
	if id.IngredientID != 0 {
		if sec, ok := ix.byIng[id.IngredientID]; ok {
			return sec, true
		}
	}
	if id.CatalogID != "" {
		if sec, ok := ix.byCat[id.CatalogID]; ok {
			return sec, true
		}
	}
	name := id.Name
	if name == "" {
		name = identity.Normalize(it.DisplayName)
	}
	if i, ok := identity.Match(name, ix.names, c.threshold); ok {
		return ix.nameSec[i], true
	}
	return 0, false
}

// Categorize returns the non-empty sections of the layout in ascending order,
// followed by a synthetic "Uncategorized" bucket when any item matched no
// section. Within a section, items whose display names collide
// case-insensitively are merged into the first one seen.
func (c *Categorizer) Categorize(items []models.AggregatedItem, l Layout) []models.SectionGroup {
	ix := buildIndex(l)

	buckets := make(map[int64]*models.SectionGroup)
	var uncategorized *models.SectionGroup

	for _, it := range items {
		sec, ok := c.sectionFor(ix, it)
		var g *models.SectionGroup
		switch {
		case ok && !isUncategorized(ix.sections[sec].Name):
			g = buckets[sec]
			if g == nil {
				s := ix.sections[sec]
				g = &models.SectionGroup{SectionID: s.ID, Name: s.Name, Order: s.Order}
				buckets[sec] = g
			}
		default:
			if uncategorized == nil {
				uncategorized = &models.SectionGroup{Name: models.UncategorizedName, Order: models.UncategorizedOrder}
			}
			g = uncategorized
			if !ok {
				c.logger.Debug("categorize: no section", slog.String("item", it.DisplayName))
			}
		}
		g.Items = addDeduped(g.Items, it)
	}

	out := make([]models.SectionGroup, 0, len(buckets)+1)
	for _, g := range buckets {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b models.SectionGroup) int {
		if n := cmp.Compare(a.Order, b.Order); n != 0 {
			return n
		}
		return cmp.Compare(a.SectionID, b.SectionID)
	})
	if uncategorized != nil {
		out = append(out, *uncategorized)
	}
	return out
}

func isUncategorized(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), models.UncategorizedName)
}

func addDeduped(items []models.AggregatedItem, it models.AggregatedItem) []models.AggregatedItem {
	for i := range items {
		if strings.EqualFold(items[i].DisplayName, it.DisplayName) {
			items[i] = merge(items[i], it)
			return items
		}
	}
	return append(items, it)
}

// merge folds b into a, keeping a's identity and display name.
func merge(a, b models.AggregatedItem) models.AggregatedItem {
	totals := slices.Clone(a.Totals)
	for _, t := range b.Totals {
		merged := false
		for i := range totals {
			if totals[i].Unit == t.Unit {
				totals[i] = aggregate.Amount(quantity.Combine(totals[i].Quantity, t.Quantity), t.Unit)
				merged = true
				break
			}
		}
		if !merged {
			totals = append(totals, t)
		}
	}
	a.Totals = totals
	a.Measurements = append(slices.Clone(a.Measurements), b.Measurements...)
	return a
}
