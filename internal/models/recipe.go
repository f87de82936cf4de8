package models

import (
	"errors"
	"fmt"

	"github.com/starford/larder/internal/quantity"
)

// LineKind tags the variant held by an IngredientLine.
type LineKind string

const (
	LineIngredient LineKind = "ingredient"
	LineRecipe     LineKind = "recipe"
)

// Recipe is a named list of ingredient lines and links to component recipes.
type Recipe struct {
	ID       int64            `json:"id"`
	Slug     string           `json:"slug"`
	Name     string           `json:"name"`
	Servings int              `json:"servings,omitempty"`
	Lines    []IngredientLine `json:"lines"`
	Links    []SubRecipeLink  `json:"links,omitempty"`
}

// IngredientLine is either an ingredient amount or a reference to another
// recipe, never both. Kind selects which fields are meaningful.
type IngredientLine struct {
	Kind LineKind `json:"kind"`

	// LineIngredient fields.
	IngredientID int64  `json:"ingredient_id,omitempty"`
	CatalogID    string `json:"catalog_id,omitempty"`
	Name         string `json:"name,omitempty"`
	Unit         string `json:"unit,omitempty"`
	Size         string `json:"size,omitempty"`
	Descriptor   string `json:"descriptor,omitempty"`

	// LineRecipe fields. SubRecipeID is zero when the reference dangles.
	SubRecipeID   int64  `json:"sub_recipe_id,omitempty"`
	SubRecipeSlug string `json:"sub_recipe,omitempty"`

	// Quantity is kept as written; for LineRecipe it is the multiplier.
	Quantity string `json:"quantity,omitempty"`
}

// ErrMixedLine is returned for a line whose fields do not match its Kind.
var ErrMixedLine = errors.New("models: line must hold exactly one variant")

// IngredientItem returns an ingredient line.
func IngredientItem(name, qty, unit string) IngredientLine {
	return IngredientLine{Kind: LineIngredient, Name: name, Quantity: qty, Unit: unit}
}

// RecipeRef returns a line that uses another recipe scaled by multiplier.
func RecipeRef(slug, multiplier string) IngredientLine {
	return IngredientLine{Kind: LineRecipe, SubRecipeSlug: slug, Quantity: multiplier}
}

// Validate checks that only the fields of the line's variant are set.
func (l IngredientLine) Validate() error {
	switch l.Kind {
	case LineIngredient:
		if l.Name == "" {
			return fmt.Errorf("%w: ingredient line without a name", ErrMixedLine)
		}
		if l.SubRecipeID != 0 || l.SubRecipeSlug != "" {
			return fmt.Errorf("%w: ingredient %q also references a recipe", ErrMixedLine, l.Name)
		}
	case LineRecipe:
		if l.SubRecipeSlug == "" && l.SubRecipeID == 0 {
			return fmt.Errorf("%w: recipe line without a reference", ErrMixedLine)
		}
		if l.Name != "" || l.IngredientID != 0 || l.CatalogID != "" || l.Unit != "" || l.Size != "" || l.Descriptor != "" {
			return fmt.Errorf("%w: recipe line %q carries ingredient fields", ErrMixedLine, l.SubRecipeSlug)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMixedLine, l.Kind)
	}
	return nil
}

// SubRecipeLink composes ChildID into ParentID, scaled by Quantity.
type SubRecipeLink struct {
	ParentID  int64  `json:"parent_id"`
	ChildID   int64  `json:"child_id,omitempty"`
	ChildSlug string `json:"child"`
	Quantity  string `json:"quantity,omitempty"`
}

// Ingredient is a canonical ingredient shared by every recipe.
type Ingredient struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CatalogID   string `json:"catalog_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Label returns the display name, falling back to the normalized name.
func (i Ingredient) Label() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Name
}

// LineItem is one flattened, scaled ingredient produced by recipe resolution.
type LineItem struct {
	IngredientID int64             `json:"ingredient_id,omitempty"`
	CatalogID    string            `json:"catalog_id,omitempty"`
	Name         string            `json:"name"`
	Quantity     quantity.Quantity `json:"quantity"`
	Unit         string            `json:"unit,omitempty"`
	Size         string            `json:"size,omitempty"`
	Descriptor   string            `json:"descriptor,omitempty"`

	// Provenance: the recipe that declared the line, the root that was
	// requested, and the chain of recipe ids between them.
	RecipeID     int64   `json:"recipe_id"`
	RecipeName   string  `json:"recipe_name"`
	RootRecipeID int64   `json:"root_recipe_id"`
	Path         []int64 `json:"path,omitempty"`

	Identity *Identity `json:"identity,omitempty"`
}
