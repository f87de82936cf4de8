package categorize

import (
	"testing"

	"github.com/starford/larder/internal/aggregate"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/quantity"
)

func item(key, name, display string, ingID int64, catalogID string, qty, unit string) models.AggregatedItem {
	return models.AggregatedItem{
		Identity: models.Identity{
			Key:          key,
			IngredientID: ingID,
			CatalogID:    catalogID,
			Name:         name,
			DisplayName:  display,
		},
		DisplayName: display,
		Totals:      []models.Amount{aggregate.Amount(quantity.MustParse(qty), unit)},
		Measurements: []models.Measurement{
			{Quantity: quantity.MustParse(qty), Unit: unit, RecipeID: 1},
		},
	}
}

func layout() Layout {
	return Layout{
		Sections: []models.Section{
			{ID: 10, StoreID: 1, Name: "Dairy", Order: 3},
			{ID: 11, StoreID: 1, Name: "Produce", Order: 1},
			{ID: 12, StoreID: 1, Name: "Pantry", Order: 2},
			{ID: 13, StoreID: 1, Name: "Bakery", Order: 1},
		},
		Assignments: []models.Assignment{
			{IngredientID: 1, SectionID: 11, StoreID: 1},
			{IngredientID: 2, SectionID: 10, StoreID: 1},
			{IngredientID: 3, SectionID: 12, StoreID: 1},
			{IngredientID: 99, SectionID: 500, StoreID: 2},
		},
		Ingredients: []models.Ingredient{
			{ID: 1, Name: "tomato"},
			{ID: 2, Name: "milk", CatalogID: "usda-1077"},
			{ID: 3, Name: "olive oil"},
			{ID: 4, Name: "whole milk", CatalogID: "usda-1077"},
		},
	}
}

func names(groups []models.SectionGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Name
	}
	return out
}

func TestCategorize_MatchOrder(t *testing.T) {
	items := []models.AggregatedItem{
		item("ingredient:1", "tomato", "Tomato", 1, "", "2", ""),
		item("catalog:usda-1077", "whole milk", "Whole milk", 4, "usda-1077", "1", "l"),
		item("name:extra virgin olive oil", "extra virgin olive oil", "EVOO", 0, "", "1", "tbsp"),
		item("name:saffron", "saffron", "Saffron", 0, "", "1", "pinch"),
	}
	got := New().Categorize(items, layout())

	want := []string{"Produce", "Pantry", "Dairy", models.UncategorizedName}
	if g := names(got); len(g) != len(want) {
		t.Fatalf("sections = %v, want %v", g, want)
	}
	for i, w := range want {
		if got[i].Name != w {
			t.Errorf("section %d = %q, want %q", i, got[i].Name, w)
		}
	}
	if got[1].Items[0].DisplayName != "EVOO" {
		t.Errorf("fuzzy match should place olive oil in pantry: %+v", got[1].Items)
	}
	if got[2].Items[0].DisplayName != "Whole milk" {
		t.Errorf("catalog id should place whole milk in dairy: %+v", got[2].Items)
	}
	if got[3].Order != models.UncategorizedOrder || got[3].Items[0].DisplayName != "Saffron" {
		t.Errorf("uncategorized = %+v", got[3])
	}
}

func TestCategorize_EmptySectionsOmitted(t *testing.T) {
	got := New().Categorize([]models.AggregatedItem{
		item("ingredient:1", "tomato", "Tomato", 1, "", "1", ""),
	}, layout())
	if len(got) != 1 || got[0].Name != "Produce" {
		t.Errorf("sections = %v, want [Produce]", names(got))
	}
}

func TestCategorize_NoUncategorizedWhenAllMatched(t *testing.T) {
	got := New().Categorize(nil, layout())
	if len(got) != 0 {
		t.Errorf("no items should give no sections, got %v", names(got))
	}
}

func TestCategorize_EqualOrderSortsByID(t *testing.T) {
	l := layout()
	l.Assignments = append(l.Assignments, models.Assignment{IngredientID: 5, SectionID: 13, StoreID: 1})
	l.Ingredients = append(l.Ingredients, models.Ingredient{ID: 5, Name: "bread"})
	got := New().Categorize([]models.AggregatedItem{
		item("ingredient:5", "bread", "Bread", 5, "", "1", ""),
		item("ingredient:1", "tomato", "Tomato", 1, "", "1", ""),
	}, l)
	if g := names(got); len(g) != 2 || g[0] != "Produce" || g[1] != "Bakery" {
		t.Errorf("sections = %v, want [Produce Bakery]", g)
	}
}

func TestCategorize_AssignmentToForeignSectionIgnored(t *testing.T) {
	got := New().Categorize([]models.AggregatedItem{
		item("ingredient:99", "caviar", "Caviar", 99, "", "1", "jar"),
	}, layout())
	if len(got) != 1 || got[0].Name != models.UncategorizedName {
		t.Errorf("sections = %v, want only Uncategorized", names(got))
	}
}

func TestCategorize_DedupeMergesIntoFirst(t *testing.T) {
	got := New().Categorize([]models.AggregatedItem{
		item("ingredient:1", "tomato", "Tomato", 1, "", "2", ""),
		item("name:tomato", "tomato", "tomato", 0, "", "1", ""),
		item("name:tomato can", "tomato", "TOMATO", 0, "", "1", "can"),
	}, layout())
	if len(got) != 1 || len(got[0].Items) != 1 {
		t.Fatalf("got %+v", got)
	}
	it := got[0].Items[0]
	if it.DisplayName != "Tomato" || it.Identity.Key != "ingredient:1" {
		t.Errorf("first seen should win, got %q %q", it.DisplayName, it.Identity.Key)
	}
	if len(it.Totals) != 2 || it.Totals[0].Display != "3" || it.Totals[1].Display != "1 can" {
		t.Errorf("totals = %+v", it.Totals)
	}
	if len(it.Measurements) != 3 {
		t.Errorf("measurements = %d, want 3", len(it.Measurements))
	}
}

func TestCategorize_RealUncategorizedSectionFoldsIntoBucket(t *testing.T) {
	l := layout()
	l.Sections = append(l.Sections, models.Section{ID: 14, StoreID: 1, Name: "uncategorized", Order: 0})
	l.Assignments = append(l.Assignments, models.Assignment{IngredientID: 6, SectionID: 14, StoreID: 1})
	l.Ingredients = append(l.Ingredients, models.Ingredient{ID: 6, Name: "twine"})

	got := New().Categorize([]models.AggregatedItem{
		item("ingredient:6", "twine", "Twine", 6, "", "1", ""),
		item("ingredient:1", "tomato", "Tomato", 1, "", "1", ""),
	}, l)
	if g := names(got); len(g) != 2 || g[0] != "Produce" || g[1] != models.UncategorizedName {
		t.Errorf("sections = %v, want [Produce Uncategorized]", g)
	}
}
