package sqlstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/recipefile"
	"github.com/starford/larder/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "larder-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func importRecipe(t *testing.T, db *DB, slug, doc string) int64 {
	t.Helper()
	d, err := recipefile.ParseRecipe([]byte(doc))
	if err != nil {
		t.Fatalf("parse %s: %v", slug, err)
	}
	id, err := db.ImportRecipe(context.Background(), recipefile.RecipePath(slug), "cs-"+slug, d)
	if err != nil {
		t.Fatalf("import %s: %v", slug, err)
	}
	return id
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"files", "ingredients", "recipes", "recipe_lines", "recipe_links",
		"stores", "sections", "ingredient_sections", "weekly_plans", "meal_slots"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Errorf("%s table missing: %v", table, err)
		}
	}
}

func TestImportAndLookupRecipe(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	reg, _ := recipefile.ParseIngredients([]byte("ingredients:\n  - name: Garlic\n    display_name: Garlic\n"))
	if err := db.ImportIngredients(ctx, recipefile.IngredientsPath, "reg", reg); err != nil {
		t.Fatal(err)
	}

	bake := importRecipe(t, db, "pasta-bake", `name: Pasta Bake
ingredients:
  - recipe: tomato-sauce
    quantity: 0.5
  - item: pasta
    quantity: 1
    unit: lb
`)
	sauce := importRecipe(t, db, "tomato-sauce", `name: Tomato Sauce
ingredients:
  - item: fresh garlic
    quantity: 1
    unit: clove
`)

	r, err := db.LookupRecipe(ctx, bake)
	if err != nil {
		t.Fatalf("LookupRecipe: %v", err)
	}
	if r.Slug != "pasta-bake" || len(r.Lines) != 2 {
		t.Fatalf("recipe = %+v", r)
	}
	// the component was imported after its parent and is still joined
	if r.Lines[0].Kind != models.LineRecipe || r.Lines[0].SubRecipeID != sauce || r.Lines[0].Quantity != "0.5" {
		t.Errorf("sub-recipe line = %+v", r.Lines[0])
	}
	if r.Lines[1].IngredientID != 0 {
		t.Errorf("pasta has no canonical row, got id %d", r.Lines[1].IngredientID)
	}

	s, err := db.LookupRecipeBySlug(ctx, "tomato-sauce")
	if err != nil {
		t.Fatal(err)
	}
	if s.Lines[0].IngredientID == 0 {
		t.Error("fresh garlic should join the registry entry for garlic")
	}
}

func TestReimportKeepsID(t *testing.T) {
	db := testDB(t)
	first := importRecipe(t, db, "soup", "name: Soup\ningredients:\n  - item: water\n")
	second := importRecipe(t, db, "soup", "name: Better Soup\ningredients:\n  - item: stock\n  - item: salt\n")
	if first != second {
		t.Errorf("id changed on reimport: %d -> %d", first, second)
	}
	r, _ := db.LookupRecipe(context.Background(), first)
	if r.Name != "Better Soup" || len(r.Lines) != 2 {
		t.Errorf("recipe = %+v", r)
	}
}

func TestDanglingReference(t *testing.T) {
	db := testDB(t)
	id := importRecipe(t, db, "top", "name: Top\ningredients:\n  - recipe: nowhere\ncomponents:\n  - recipe: also-nowhere\n    quantity: 2\n")
	r, err := db.LookupRecipe(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if r.Lines[0].SubRecipeID != 0 || r.Lines[0].SubRecipeSlug != "nowhere" {
		t.Errorf("line = %+v", r.Lines[0])
	}
	if len(r.Links) != 1 || r.Links[0].ChildID != 0 || r.Links[0].ChildSlug != "also-nowhere" {
		t.Errorf("links = %+v", r.Links)
	}
}

func TestLookupMissing(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if _, err := db.LookupRecipe(ctx, 404); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("LookupRecipe = %v", err)
	}
	if _, err := db.DefaultStore(ctx); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("DefaultStore = %v", err)
	}
	if _, err := db.LookupIngredientByCatalogID(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("LookupIngredientByCatalogID = %v", err)
	}
}

func TestImportStore(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	doc, err := recipefile.ParseStore([]byte(`name: Corner Shop
sections:
  - name: Produce
    items: [Tomatoes, garlic]
  - name: Dairy
    items: [milk, tomato]
`))
	if err != nil {
		t.Fatal(err)
	}
	first, err := db.ImportStore(ctx, recipefile.StorePath("corner"), "c1", doc)
	if err != nil {
		t.Fatal(err)
	}
	doc2, _ := recipefile.ParseStore([]byte("name: Big Mart\ndefault: true\nsections:\n  - name: Everything\n    items: [milk]\n"))
	second, err := db.ImportStore(ctx, recipefile.StorePath("big-mart"), "b1", doc2)
	if err != nil {
		t.Fatal(err)
	}

	s, err := db.LookupStore(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Sections) != 2 || s.Sections[0].Name != "Produce" || s.Sections[0].Order != 1 || s.Sections[1].Order != 2 {
		t.Errorf("sections = %+v", s.Sections)
	}

	as, err := db.LookupAssignments(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	// tomato is listed twice; the first section keeps it
	if len(as) != 3 {
		t.Fatalf("assignments = %+v, want 3", as)
	}
	ings, _ := db.ListIngredients(ctx)
	if len(ings) != 3 || ings[0].Name != "tomato" || ings[0].DisplayName != "Tomatoes" {
		t.Errorf("ingredients = %+v", ings)
	}
	if as[0].SectionID != s.Sections[0].ID {
		t.Errorf("tomato should stay in Produce, got section %d", as[0].SectionID)
	}

	def, err := db.DefaultStore(ctx)
	if err != nil || def.ID != second {
		t.Errorf("DefaultStore = %+v, %v", def, err)
	}
	bySlug, err := db.LookupStoreBySlug(ctx, "big-mart")
	if err != nil || bySlug.ID != second {
		t.Errorf("LookupStoreBySlug = %+v, %v", bySlug, err)
	}
	all, _ := db.ListStores(ctx)
	if len(all) != 2 {
		t.Errorf("ListStores = %d", len(all))
	}

	if err := db.DeletePath(ctx, recipefile.StorePath("corner")); err != nil {
		t.Fatal(err)
	}
	if _, err := db.LookupStore(ctx, first); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("store should be gone, got %v", err)
	}
}

func TestCatalogIDSharedByRows(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	reg, _ := recipefile.ParseIngredients([]byte(`ingredients:
  - name: whole milk
    catalog_id: usda-1077
  - name: milk
    catalog_id: usda-1077
`))
	if err := db.ImportIngredients(ctx, recipefile.IngredientsPath, "r", reg); err != nil {
		t.Fatal(err)
	}
	got, err := db.LookupIngredientByCatalogID(ctx, "usda-1077")
	if err != nil || len(got) != 2 {
		t.Errorf("got %+v, %v", got, err)
	}
	ing, err := db.LookupIngredient(ctx, got[0].ID)
	if err != nil || ing.Name != "whole milk" {
		t.Errorf("LookupIngredient = %+v, %v", ing, err)
	}
}

func TestListRecipes(t *testing.T) {
	db := testDB(t)
	importRecipe(t, db, "tomato-sauce", "name: Tomato Sauce\ningredients: []\n")
	importRecipe(t, db, "pesto", "name: Pesto\ningredients: []\n")
	importRecipe(t, db, "tomato-soup", "name: tomato soup\ningredients: []\n")

	rows, total, err := db.ListRecipes(context.Background(), "tomato", 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(rows) != 1 || rows[0].Name != "Tomato Sauce" || rows[0].Checksum != "cs-tomato-sauce" {
		t.Errorf("rows = %+v total = %d", rows, total)
	}
}

func TestFindCycles(t *testing.T) {
	db := testDB(t)
	importRecipe(t, db, "a", "name: A\ningredients:\n  - recipe: b\n")
	importRecipe(t, db, "b", "name: B\ningredients: []\ncomponents:\n  - recipe: a\n")
	importRecipe(t, db, "c", "name: C\ningredients:\n  - recipe: a\n")
	importRecipe(t, db, "d", "name: D\ningredients:\n  - recipe: d\n")

	cycles, err := db.FindCycles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cycles) != 2 {
		t.Fatalf("cycles = %v, want 2", cycles)
	}
	if got := cycles[0]; len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "a" {
		t.Errorf("first cycle = %v", got)
	}
	if got := cycles[1]; len(got) != 2 || got[0] != "d" {
		t.Errorf("self loop = %v", got)
	}
}

func TestPlans(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	p := models.WeeklyPlan{
		ID: "plan-1", Name: "Week 42", CreatedAt: now, UpdatedAt: now,
		Meals: []models.MealSlot{
			{Day: "monday", Meal: "dinner", RecipeSlug: "pasta-bake", Multiplier: "2"},
			{Day: "tuesday", Meal: "lunch", RecipeSlug: "pesto"},
		},
	}
	if err := db.CreatePlan(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := db.CreatePlan(ctx, p); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create = %v", err)
	}
	got, err := db.GetPlan(ctx, "plan-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Week 42" || len(got.Meals) != 2 || got.Meals[0].Multiplier != "2" || !got.CreatedAt.Equal(now) {
		t.Errorf("plan = %+v", got)
	}
	list, _ := db.ListPlans(ctx)
	if len(list) != 1 {
		t.Errorf("ListPlans = %d", len(list))
	}
	if err := db.DeletePlan(ctx, "plan-1"); err != nil {
		t.Fatal(err)
	}
	if err := db.DeletePlan(ctx, "plan-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_ = fs.Write("ingredients.yaml", []byte("ingredients:\n  - name: basil\n"))
	_ = fs.Write("recipes/pesto.yaml", []byte("name: Pesto\ningredients:\n  - item: fresh basil\n    quantity: 2\n    unit: cup\n"))
	_ = fs.Write("recipes/broken.yaml", []byte("ingredients: []\n"))
	_ = fs.Write("stores/shop.yaml", []byte("name: Shop\nsections:\n  - name: Herbs\n    items: [basil]\n"))
	_ = fs.Write("notes.yaml", []byte("ignored: true\n"))

	if err := Sync(ctx, db, fs, quiet()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	sums, _ := db.AllChecksums()
	if len(sums) != 3 {
		t.Errorf("imported %v, want 3 files", sums)
	}
	r, err := db.LookupRecipeBySlug(ctx, "pesto")
	if err != nil {
		t.Fatal(err)
	}
	if r.Lines[0].IngredientID == 0 {
		t.Error("fresh basil should join the basil row")
	}

	_ = fs.Delete("recipes/pesto.yaml")
	if err := Sync(ctx, db, fs, quiet()); err != nil {
		t.Fatal(err)
	}
	if _, err := db.LookupRecipeBySlug(ctx, "pesto"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stale recipe kept: %v", err)
	}
}
