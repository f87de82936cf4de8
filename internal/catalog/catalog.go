// Package catalog defines the read-only data source the shopping-list
// pipeline consumes, plus an in-memory implementation.
package catalog

import (
	"context"

	"github.com/starford/larder/internal/models"
)

// Catalog is the read-only view of recipes, ingredients and stores used while
// building a list. Lookups of missing entities return an error wrapping
// apperr.ErrNotFound.
type Catalog interface {
	LookupRecipe(ctx context.Context, id int64) (*models.Recipe, error)
	LookupRecipeBySlug(ctx context.Context, slug string) (*models.Recipe, error)
	LookupIngredient(ctx context.Context, id int64) (*models.Ingredient, error)
	LookupIngredientByCatalogID(ctx context.Context, catalogID string) ([]models.Ingredient, error)
	ListIngredients(ctx context.Context) ([]models.Ingredient, error)
	LookupStore(ctx context.Context, id int64) (*models.Store, error)
	DefaultStore(ctx context.Context) (*models.Store, error)
	LookupSections(ctx context.Context, storeID int64) ([]models.Section, error)
	LookupAssignments(ctx context.Context, storeID int64) ([]models.Assignment, error)
}
