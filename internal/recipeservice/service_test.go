package recipeservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/recipefile"
	"github.com/starford/larder/internal/testutil"
)

func newService(t *testing.T) *Service {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	testutil.SeedVault(t, store, db, testutil.KitchenFiles)
	return NewService(store, db)
}

func TestGet(t *testing.T) {
	svc := newService(t)
	d, err := svc.Get(context.Background(), "pasta-bake")
	if err != nil {
		t.Fatal(err)
	}
	if d.ID == 0 || d.Recipe.Name != "Pasta Bake" || d.Checksum == "" || len(d.Missing) != 0 {
		t.Errorf("detail = %+v", d)
	}
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing = %v", err)
	}
	if _, err := svc.Get(context.Background(), "../ingredients"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("traversal = %v", err)
	}
}

func TestCreate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	doc := recipefile.RecipeDoc{
		Name: "Garlic Bread",
		Ingredients: []recipefile.LineDoc{
			{Item: "baguette", Quantity: "1"},
			{Recipe: "garlic-butter", Quantity: "1/2"},
		},
	}
	d, err := svc.Create(ctx, "", doc)
	if err != nil {
		t.Fatal(err)
	}
	if d.Slug != "garlic-bread" || d.Path != "recipes/garlic-bread.yaml" || d.ID == 0 {
		t.Errorf("detail = %+v", d)
	}
	if len(d.Missing) != 1 || d.Missing[0] != "garlic-butter" {
		t.Errorf("missing = %v", d.Missing)
	}
	if _, err := svc.Create(ctx, "garlic-bread", doc); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate = %v", err)
	}

	bad := recipefile.RecipeDoc{Name: "Stew", Ingredients: []recipefile.LineDoc{{Item: "beef", Quantity: "lots"}}}
	if _, err := svc.Create(ctx, "", bad); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad quantity = %v", err)
	}
	if _, err := svc.Create(ctx, "Bad Slug", doc); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad slug = %v", err)
	}
}

func TestUpdate_IfMatch(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	cur, err := svc.Get(ctx, "pesto")
	if err != nil {
		t.Fatal(err)
	}
	doc := cur.Recipe
	doc.Servings = 6

	if _, err := svc.Update(ctx, "pesto", doc, "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale If-Match = %v", err)
	}
	up, err := svc.Update(ctx, "pesto", doc, cur.Checksum)
	if err != nil {
		t.Fatal(err)
	}
	if up.Recipe.Servings != 6 || up.Checksum == cur.Checksum || up.ID != cur.ID {
		t.Errorf("updated = %+v", up)
	}
	if _, err := svc.Update(ctx, "nope", doc, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing = %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	if err := svc.Delete(ctx, "tomato-sauce"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Lookup(ctx, "tomato-sauce"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("catalog still has it: %v", err)
	}
	d, err := svc.Get(ctx, "pasta-bake")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Missing) != 1 || d.Missing[0] != "tomato-sauce" {
		t.Errorf("parent should now show a dangling reference: %v", d.Missing)
	}
	if err := svc.Delete(ctx, "tomato-sauce"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestList(t *testing.T) {
	svc := newService(t)
	rows, total, err := svc.List(context.Background(), "", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(rows) != 3 || rows[0].Name != "Pasta Bake" {
		t.Errorf("rows = %+v total = %d", rows, total)
	}
}

func TestCreate_SelfReference(t *testing.T) {
	svc := newService(t)
	doc := recipefile.RecipeDoc{
		Name:        "Stock",
		Ingredients: []recipefile.LineDoc{{Item: "bones", Quantity: "1", Unit: "lb"}},
		Components:  []recipefile.ComponentDoc{{Recipe: "stock", Quantity: "1"}},
	}
	if _, err := svc.Create(context.Background(), "stock", doc); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("self reference = %v, want ErrInvalid", err)
	}
}

func TestUpdate_IndirectCycleRejected(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	cur, err := svc.Get(ctx, "tomato-sauce")
	if err != nil {
		t.Fatal(err)
	}

	// pasta-bake already uses tomato-sauce.
	doc := cur.Recipe
	doc.Components = append(doc.Components, recipefile.ComponentDoc{Recipe: "pasta-bake", Quantity: "1"})
	if _, err := svc.Update(ctx, "tomato-sauce", doc, cur.Checksum); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("cycle through pasta-bake = %v, want ErrInvalid", err)
	}

	// The file is untouched.
	after, err := svc.Get(ctx, "tomato-sauce")
	if err != nil {
		t.Fatal(err)
	}
	if after.Checksum != cur.Checksum {
		t.Error("rejected update changed the file")
	}

	// A reference that does not lead back is fine.
	doc = cur.Recipe
	doc.Components = []recipefile.ComponentDoc{{Recipe: "pesto", Quantity: "1/2"}}
	if _, err := svc.Update(ctx, "tomato-sauce", doc, cur.Checksum); err != nil {
		t.Errorf("acyclic update = %v", err)
	}
}
