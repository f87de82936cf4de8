// Package aggregate folds resolved line items that share an ingredient
// identity into one shopping-list entry.
package aggregate

import (
	"log/slog"
	"strings"

	"github.com/starford/larder/internal/identity"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/quantity"
)

// Converter is the unit table as seen by the aggregator.
type Converter interface {
	Canonical(unit string) string
	Convert(q quantity.Quantity, from, to string) (quantity.Quantity, bool)
	ConvertFor(ingredient string, q quantity.Quantity, from, to string) (quantity.Quantity, bool)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithPrecision sets the fractional digits shown for decimal totals.
func WithPrecision(places int32) Option {
	return func(a *Aggregator) { a.places = places }
}

// Aggregator combines line items per identity. It is stateless between calls.
type Aggregator struct {
	conv   Converter
	logger *slog.Logger
	places int32
}

// New creates an aggregator using conv for unit handling.
func New(conv Converter, opts ...Option) *Aggregator {
	a := &Aggregator{conv: conv, logger: slog.Default(), places: quantity.DisplayPlaces}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type total struct {
	q    quantity.Quantity
	unit string
}

type group struct {
	item   models.AggregatedItem
	totals []total
}

// Aggregate groups items by identity key in first-seen order. The first unit
// seen for an identity becomes its primary unit; later amounts are added in
// that unit when it is the same, when a general conversion exists, or when
// the ingredient has a specific conversion. Anything else is kept as an
// additional total in its own unit, so no amount is ever dropped.
func (a *Aggregator) Aggregate(items []models.LineItem) []models.AggregatedItem {
	var order []string
	groups := make(map[string]*group)

	for _, it := range items {
		id := identityOf(it)
		g, ok := groups[id.Key]
		if !ok {
			g = &group{item: models.AggregatedItem{
				Identity:    id,
				DisplayName: id.DisplayName,
			}}
			groups[id.Key] = g
			order = append(order, id.Key)
		}

		g.item.Measurements = append(g.item.Measurements, models.Measurement{
			Quantity:   it.Quantity,
			Unit:       it.Unit,
			Size:       it.Size,
			Descriptor: it.Descriptor,
			RecipeID:   it.RecipeID,
			RecipeName: it.RecipeName,
		})
		a.add(g, id.Name, it.Quantity, a.conv.Canonical(it.Unit))
	}

	out := make([]models.AggregatedItem, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.item.Totals = make([]models.Amount, len(g.totals))
		for i, t := range g.totals {
			g.item.Totals[i] = AmountPlaces(t.q, t.unit, a.places)
		}
		if len(g.totals) > 1 {
			a.logger.Debug("aggregate: incompatible units retained",
				slog.String("key", key),
				slog.Int("totals", len(g.totals)))
		}
		out = append(out, g.item)
	}
	return out
}

func (a *Aggregator) add(g *group, name string, q quantity.Quantity, unit string) {
	for i := range g.totals {
		if a.absorb(&g.totals[i], name, q, unit) {
			return
		}
	}
	g.totals = append(g.totals, total{q: q, unit: unit})
}

func (a *Aggregator) absorb(t *total, name string, q quantity.Quantity, unit string) bool {
	switch {
	case t.q.IsNone() && t.unit == "":
		// a bare "to taste" entry takes on the first real amount
		t.q, t.unit = q, unit
		return true
	case q.IsNone() && unit == "":
		return true
	case unit == t.unit:
		t.q = quantity.Combine(t.q, q)
		return true
	}
	if c, ok := a.conv.Convert(q, unit, t.unit); ok {
		t.q = quantity.Combine(t.q, c)
		return true
	}
	if c, ok := a.conv.ConvertFor(name, q, unit, t.unit); ok {
		t.q = quantity.Combine(t.q, c)
		return true
	}
	return false
}

// Amount builds a display amount such as "1 1/2 cup".
func Amount(q quantity.Quantity, unit string) models.Amount {
	return AmountPlaces(q, unit, quantity.DisplayPlaces)
}

// AmountPlaces is Amount with decimals shown to places fractional digits.
func AmountPlaces(q quantity.Quantity, unit string, places int32) models.Amount {
	return models.Amount{
		Quantity: q,
		Unit:     unit,
		Display:  strings.TrimSpace(quantity.FormatPlaces(q, places) + " " + unit),
	}
}

func identityOf(it models.LineItem) models.Identity {
	if it.Identity != nil {
		return *it.Identity
	}
	n := identity.Normalize(it.Name)
	return models.Identity{
		Key:         identity.NameKey(n, it.Name),
		Tier:        models.TierUnresolved,
		Name:        n,
		DisplayName: strings.TrimSpace(it.Name),
	}
}
