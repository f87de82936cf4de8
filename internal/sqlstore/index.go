package sqlstore

import (
	"context"

	"github.com/starford/larder/internal/catalog"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/recipefile"
)

// Index is the full set of catalog-store operations. Consumers that only
// read should depend on catalog.Catalog instead.
type Index interface {
	catalog.Catalog

	ImportIngredients(ctx context.Context, path, checksum string, doc *recipefile.IngredientsDoc) error
	ImportRecipe(ctx context.Context, path, checksum string, doc *recipefile.RecipeDoc) (int64, error)
	ImportStore(ctx context.Context, path, checksum string, doc *recipefile.StoreDoc) (int64, error)
	DeletePath(ctx context.Context, path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	FindCycles(ctx context.Context) ([][]string, error)

	ListRecipes(ctx context.Context, query string, limit, offset int) ([]RecipeRow, int, error)
	RecipePath(ctx context.Context, slug string) (string, error)
	ListStores(ctx context.Context) ([]models.Store, error)
	LookupStoreBySlug(ctx context.Context, slug string) (*models.Store, error)

	CreatePlan(ctx context.Context, p models.WeeklyPlan) error
	GetPlan(ctx context.Context, id string) (*models.WeeklyPlan, error)
	ListPlans(ctx context.Context) ([]models.WeeklyPlan, error)
	DeletePlan(ctx context.Context, id string) error

	Ping() error
	Close() error
}

// Verify *DB satisfies Index at compile time.
var _ Index = (*DB)(nil)
