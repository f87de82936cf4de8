package aggregate

import (
	"testing"

	"github.com/starford/larder/internal/identity"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/quantity"
	"github.com/starford/larder/internal/units"
)

func line(name, qty, unit string, recipe int64) models.LineItem {
	return models.LineItem{
		Name:       name,
		Quantity:   quantity.MustParse(qty),
		Unit:       unit,
		RecipeID:   recipe,
		RecipeName: "recipe",
	}
}

func resolved(items ...models.LineItem) []models.LineItem {
	r := identity.NewResolver([]models.Ingredient{
		{ID: 1, Name: "garlic", DisplayName: "Garlic"},
		{ID: 2, Name: "tomato", DisplayName: "Tomatoes"},
		{ID: 3, Name: "milk"},
		{ID: 4, Name: "salt"},
	})
	return r.ResolveAll(items)
}

func displays(it models.AggregatedItem) []string {
	out := make([]string, len(it.Totals))
	for i, a := range it.Totals {
		out[i] = a.Display
	}
	return out
}

func TestAggregate_SameUnitSums(t *testing.T) {
	agg := New(units.Default())
	got := agg.Aggregate(resolved(
		line("tomato", "1/2", "cup", 1),
		line("Tomatoes", "1 1/4", "cups", 2),
	))
	if len(got) != 1 {
		t.Fatalf("got %d items, want 1", len(got))
	}
	if d := displays(got[0]); len(d) != 1 || d[0] != "1 3/4 cup" {
		t.Errorf("totals = %v, want [1 3/4 cup]", d)
	}
	if got[0].DisplayName != "Tomatoes" {
		t.Errorf("display name = %q", got[0].DisplayName)
	}
	if len(got[0].Measurements) != 2 || got[0].Measurements[1].RecipeID != 2 {
		t.Errorf("measurements = %+v", got[0].Measurements)
	}
}

func TestAggregate_GeneralConversion(t *testing.T) {
	got := New(units.Default()).Aggregate(resolved(
		line("milk", "1", "cup", 1),
		line("milk", "2", "tbsp", 2),
	))
	// 2 tbsp = 29.574 ml = 0.125 cup after rounding
	if d := displays(got[0]); len(d) != 1 || d[0] != "1.125 cup" {
		t.Errorf("totals = %v, want [1.125 cup]", d)
	}
}

func TestAggregate_IngredientConversion(t *testing.T) {
	got := New(units.Default()).Aggregate(resolved(
		line("garlic", "2", "cloves", 1),
		line("garlic", "5", "g", 2),
	))
	if d := displays(got[0]); len(d) != 1 || d[0] != "3 clove" {
		t.Errorf("totals = %v, want [3 clove]", d)
	}
}

func TestAggregate_IncompatibleUnitsRetained(t *testing.T) {
	got := New(units.Default()).Aggregate(resolved(
		line("tomato", "2", "", 1),
		line("tomato", "1", "cup", 2),
		line("tomato", "3", "", 3),
		line("tomato", "100", "ml", 4),
	))
	if len(got) != 1 {
		t.Fatalf("got %d items, want 1", len(got))
	}
	d := displays(got[0])
	if len(d) != 2 || d[0] != "5" || d[1] != "1.423 cup" {
		t.Errorf("totals = %v, want [5 1.423 cup]", d)
	}
	if len(got[0].Measurements) != 4 {
		t.Errorf("all measurements must be kept, got %d", len(got[0].Measurements))
	}
}

func TestAggregate_NoQuantity(t *testing.T) {
	got := New(units.Default()).Aggregate(resolved(
		line("salt", "", "", 1),
		line("salt", "1", "tsp", 2),
		line("salt", "", "", 3),
	))
	if d := displays(got[0]); len(d) != 1 || d[0] != "1 tsp" {
		t.Errorf("totals = %v, want [1 tsp]", d)
	}

	got = New(units.Default()).Aggregate(resolved(line("salt", "", "", 1)))
	if d := displays(got[0]); len(d) != 1 || d[0] != "" {
		t.Errorf("totals = %v, want one empty amount", d)
	}
}

func TestAggregate_FirstSeenOrder(t *testing.T) {
	got := New(units.Default()).Aggregate(resolved(
		line("salt", "1", "tsp", 1),
		line("garlic", "1", "clove", 1),
		line("saffron", "1", "pinch", 1),
		line("salt", "1", "tsp", 2),
	))
	if len(got) != 3 {
		t.Fatalf("got %d items, want 3", len(got))
	}
	if got[0].Identity.Key != "ingredient:4" || got[1].Identity.Key != "ingredient:1" || got[2].Identity.Key != "name:saffron" {
		t.Errorf("order = %s, %s, %s", got[0].Identity.Key, got[1].Identity.Key, got[2].Identity.Key)
	}
}

func TestAggregate_CommutativeForDecimals(t *testing.T) {
	a := []models.LineItem{line("milk", "0.5", "l", 1), line("milk", "1.25", "l", 2), line("milk", "2", "l", 3)}
	b := []models.LineItem{a[2], a[0], a[1]}
	agg := New(units.Default())
	x := agg.Aggregate(resolved(a...))[0].Primary()
	y := agg.Aggregate(resolved(b...))[0].Primary()
	if !x.Quantity.Equal(y.Quantity) || x.Display != "3.75 l" {
		t.Errorf("order changed the sum: %q vs %q", x.Display, y.Display)
	}
}

func TestAggregate_WithoutIdentityGroupsByName(t *testing.T) {
	got := New(units.Default()).Aggregate([]models.LineItem{
		line("Onions", "1", "", 1),
		line("onion", "2", "", 2),
	})
	if len(got) != 1 || got[0].Identity.Key != "name:onion" {
		t.Fatalf("got %+v", got)
	}
	if got[0].Primary().Display != "3" {
		t.Errorf("total = %q", got[0].Primary().Display)
	}
}
