// Package units holds the fixed unit-conversion table: closed measurement
// groups with ratios to a base unit, spelling aliases, and per-ingredient
// exception edges such as "1 clove of garlic is about 5 g".
package units

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/cockroachdb/apd/v3"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/larder/internal/quantity"
)

//go:embed units.yaml
var defaultTable []byte

// DefaultPrecision is the number of fractional digits kept after a conversion.
const DefaultPrecision = 3

// Document is the YAML shape of a conversion table.
type Document struct {
	Groups      map[string]GroupDoc  `yaml:"groups"`
	Aliases     map[string]string    `yaml:"aliases"`
	Ingredients map[string][]EdgeDoc `yaml:"ingredients"`
}

// GroupDoc describes one measurement group.
type GroupDoc struct {
	Base  string            `yaml:"base"`
	Units map[string]string `yaml:"units"`
}

// EdgeDoc is one ingredient-specific conversion: 1 From equals Factor To.
type EdgeDoc struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Factor string `yaml:"factor"`
}

// Validate checks the document structure.
func (d *Document) Validate() error {
	if err := validation.ValidateStruct(d,
		validation.Field(&d.Groups, validation.Required),
	); err != nil {
		return err
	}
	for name, g := range d.Groups {
		if err := validation.ValidateStruct(&g,
			validation.Field(&g.Base, validation.Required),
			validation.Field(&g.Units, validation.Required),
		); err != nil {
			return fmt.Errorf("group %s: %w", name, err)
		}
		if _, ok := g.Units[g.Base]; !ok {
			return fmt.Errorf("group %s: base unit %q has no ratio", name, g.Base)
		}
	}
	for name, edges := range d.Ingredients {
		for i := range edges {
			e := &edges[i]
			if err := validation.ValidateStruct(e,
				validation.Field(&e.To, validation.Required),
				validation.Field(&e.Factor, validation.Required),
			); err != nil {
				return fmt.Errorf("ingredient %s edge %d: %w", name, i, err)
			}
		}
	}
	return nil
}

// Table is an immutable conversion table. It is safe for concurrent use.
type Table struct {
	group   map[string]string       // unit -> group name
	ratio   map[string]*apd.Decimal // unit -> amount of base unit
	aliases map[string]string
	edges   map[string]map[string]map[string]*apd.Decimal // ingredient -> from -> to -> factor
	places  int32
}

var ctx = apd.BaseContext.WithPrecision(34)

var defaultTbl *Table

func init() {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("units: built-in table: %v", err))
	}
	defaultTbl = t
}

// Default returns the built-in table.
func Default() *Table { return defaultTbl }

// Load reads a YAML table from disk.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("units: read %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("units: %s: %w", path, err)
	}
	return t, nil
}

// Parse builds a table from YAML.
func Parse(data []byte) (*Table, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("units: parse: %w", err)
	}
	return New(doc)
}

// New builds a table from a decoded document.
func New(doc Document) (*Table, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("units: %w", err)
	}

	t := &Table{
		group:   make(map[string]string),
		ratio:   make(map[string]*apd.Decimal),
		aliases: make(map[string]string, len(doc.Aliases)),
		edges:   make(map[string]map[string]map[string]*apd.Decimal),
		places:  DefaultPrecision,
	}

	for alias, unit := range doc.Aliases {
		t.aliases[clean(alias)] = clean(unit)
	}

	for name, g := range doc.Groups {
		for unit, raw := range g.Units {
			u := t.Canonical(unit)
			if prev, ok := t.group[u]; ok && prev != name {
				return nil, fmt.Errorf("units: %q belongs to both %s and %s", u, prev, name)
			}
			r, err := positive(raw)
			if err != nil {
				return nil, fmt.Errorf("units: %s/%s: %w", name, unit, err)
			}
			t.group[u] = name
			t.ratio[u] = r
		}
	}

	for ingredient, list := range doc.Ingredients {
		key := strings.ToLower(strings.TrimSpace(ingredient))
		m := make(map[string]map[string]*apd.Decimal)
		t.edges[key] = m
		for _, e := range list {
			f, err := positive(e.Factor)
			if err != nil {
				return nil, fmt.Errorf("units: %s %s->%s: %w", ingredient, e.From, e.To, err)
			}
			setEdge(m, t.Canonical(e.From), t.Canonical(e.To), f)
		}
		// derive inverses after all explicit edges are in place
		for _, e := range list {
			from, to := t.Canonical(e.From), t.Canonical(e.To)
			if _, ok := m[to][from]; ok {
				continue
			}
			inv := new(apd.Decimal)
			if _, err := ctx.Quo(inv, apd.New(1, 0), m[from][to]); err != nil {
				return nil, fmt.Errorf("units: invert %s %s->%s: %w", ingredient, from, to, err)
			}
			setEdge(m, to, from, inv)
		}
	}

	return t, nil
}

func setEdge(m map[string]map[string]*apd.Decimal, from, to string, f *apd.Decimal) {
	if m[from] == nil {
		m[from] = make(map[string]*apd.Decimal)
	}
	m[from][to] = f
}

func positive(raw string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("bad factor %q: %w", raw, err)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("factor %q must be positive", raw)
	}
	return d, nil
}

func clean(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.TrimSuffix(u, ".")
	return strings.Join(strings.Fields(u), " ")
}

// WithPrecision returns a copy of t that rounds conversions to places digits.
func (t *Table) WithPrecision(places int32) *Table {
	c := *t
	c.places = places
	return &c
}

// Precision reports the rounding applied to converted amounts.
func (t *Table) Precision() int32 { return t.places }

// Canonical maps a unit spelling to its canonical form ("Tablespoons" → "tbsp").
// Count words such as "each" and "whole" map to the empty unit.
// Unknown units are returned lower-cased and trimmed.
func (t *Table) Canonical(unit string) string {
	u := clean(unit)
	if c, ok := t.aliases[u]; ok {
		return c
	}
	return u
}

// GroupOf returns the measurement group of unit.
func (t *Table) GroupOf(unit string) (string, bool) {
	g, ok := t.group[t.Canonical(unit)]
	return g, ok
}

// CanConvert reports whether both units belong to the same group.
func (t *Table) CanConvert(from, to string) bool {
	_, ok := t.factor(t.Canonical(from), t.Canonical(to))
	return ok
}

// Convert converts q between units of the same group via the base unit.
// The boolean is false when no general conversion exists.
func (t *Table) Convert(q quantity.Quantity, from, to string) (quantity.Quantity, bool) {
	from, to = t.Canonical(from), t.Canonical(to)
	if from == to {
		return q, true
	}
	f, ok := t.factor(from, to)
	if !ok {
		return quantity.Quantity{}, false
	}
	return t.apply(q, f)
}

// ConvertFor converts q for a specific ingredient. A general conversion is
// used when available; otherwise the ingredient's exception edges are tried,
// directly or through at most one intermediate unit.
func (t *Table) ConvertFor(ingredient string, q quantity.Quantity, from, to string) (quantity.Quantity, bool) {
	from, to = t.Canonical(from), t.Canonical(to)
	if from == to {
		return q, true
	}
	if f, ok := t.factor(from, to); ok {
		return t.apply(q, f)
	}

	edges := t.edges[strings.ToLower(strings.TrimSpace(ingredient))]
	if edges == nil {
		return quantity.Quantity{}, false
	}
	if f, ok := edges[from][to]; ok {
		return t.apply(q, f)
	}

	for _, mid := range t.intermediates(edges) {
		if mid == from || mid == to {
			continue
		}
		f1, ex1 := t.leg(edges, from, mid)
		if f1 == nil {
			continue
		}
		f2, ex2 := t.leg(edges, mid, to)
		if f2 == nil || (!ex1 && !ex2) {
			continue
		}
		f := new(apd.Decimal)
		if _, err := ctx.Mul(f, f1, f2); err != nil {
			continue
		}
		return t.apply(q, f)
	}
	return quantity.Quantity{}, false
}

// leg returns the factor for one hop and whether it came from an exception edge.
func (t *Table) leg(edges map[string]map[string]*apd.Decimal, from, to string) (*apd.Decimal, bool) {
	if f, ok := edges[from][to]; ok {
		return f, true
	}
	if f, ok := t.factor(from, to); ok {
		return f, false
	}
	return nil, false
}

// intermediates lists every unit an exception edge touches plus every
// general unit, sorted so the chosen path is deterministic.
func (t *Table) intermediates(edges map[string]map[string]*apd.Decimal) []string {
	seen := make(map[string]struct{})
	for from, tos := range edges {
		seen[from] = struct{}{}
		for to := range tos {
			seen[to] = struct{}{}
		}
	}
	for u := range t.ratio {
		seen[u] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

func (t *Table) factor(from, to string) (*apd.Decimal, bool) {
	gf, ok1 := t.group[from]
	gt, ok2 := t.group[to]
	if !ok1 || !ok2 || gf != gt {
		return nil, false
	}
	if from == to {
		return apd.New(1, 0), true
	}
	f := new(apd.Decimal)
	if _, err := ctx.Quo(f, t.ratio[from], t.ratio[to]); err != nil {
		return nil, false
	}
	return f, true
}

func (t *Table) apply(q quantity.Quantity, f *apd.Decimal) (quantity.Quantity, bool) {
	out, err := quantity.Rescale(q, f, apd.New(1, 0), t.places)
	if err != nil {
		return quantity.Quantity{}, false
	}
	return out, true
}
