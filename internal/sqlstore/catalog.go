package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/models"
)

// RecipeRow is a lightweight recipe listing entry.
type RecipeRow struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	Servings int    `json:"servings,omitempty"`
	Checksum string `json:"checksum"`
}

func notFound(err error, what string, key any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlstore: %s %v: %w", what, key, apperr.ErrNotFound)
	}
	return fmt.Errorf("sqlstore: %s %v: %w", what, key, err)
}

// LookupRecipe loads a recipe with its lines and links. Sub-recipe slugs
// and ingredient names are joined at read time, so a reference to a recipe
// that is not imported comes back with a zero id.
func (db *DB) LookupRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	r := &models.Recipe{}
	err := db.conn.QueryRowContext(ctx, `SELECT id, slug, name, servings FROM recipes WHERE id = ?`, id).
		Scan(&r.ID, &r.Slug, &r.Name, &r.Servings)
	if err != nil {
		return nil, notFound(err, "recipe", id)
	}
	if err := db.loadComposition(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// LookupRecipeBySlug loads a recipe by file slug.
func (db *DB) LookupRecipeBySlug(ctx context.Context, slug string) (*models.Recipe, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx, `SELECT id FROM recipes WHERE slug = ?`, slug).Scan(&id)
	if err != nil {
		return nil, notFound(err, "recipe", slug)
	}
	return db.LookupRecipe(ctx, id)
}

func (db *DB) loadComposition(ctx context.Context, r *models.Recipe) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT l.kind, l.name, l.catalog_id, l.quantity, l.unit, l.size, l.descriptor,
		       l.sub_recipe_slug, COALESCE(i.id, 0), COALESCE(c.id, 0)
		FROM recipe_lines l
		LEFT JOIN ingredients i ON l.kind = 'ingredient' AND i.name = l.norm_name
		LEFT JOIN recipes c ON l.kind = 'recipe' AND c.slug = l.sub_recipe_slug
		WHERE l.recipe_id = ?
		ORDER BY l.position
	`, r.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: recipe lines: %w", err)
	}
	defer rows.Close()

	r.Lines = []models.IngredientLine{}
	for rows.Next() {
		var l models.IngredientLine
		var kind string
		if err := rows.Scan(&kind, &l.Name, &l.CatalogID, &l.Quantity, &l.Unit, &l.Size, &l.Descriptor,
			&l.SubRecipeSlug, &l.IngredientID, &l.SubRecipeID); err != nil {
			return err
		}
		l.Kind = models.LineKind(kind)
		r.Lines = append(r.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	links, err := db.conn.QueryContext(ctx, `
		SELECT k.child_slug, k.quantity, COALESCE(c.id, 0)
		FROM recipe_links k
		LEFT JOIN recipes c ON c.slug = k.child_slug
		WHERE k.parent_id = ?
		ORDER BY k.position
	`, r.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: recipe links: %w", err)
	}
	defer links.Close()
	for links.Next() {
		ln := models.SubRecipeLink{ParentID: r.ID}
		if err := links.Scan(&ln.ChildSlug, &ln.Quantity, &ln.ChildID); err != nil {
			return err
		}
		r.Links = append(r.Links, ln)
	}
	return links.Err()
}

// ListRecipes returns recipes whose name or slug contains query, ordered by
// name, plus the total number of matches.
func (db *DB) ListRecipes(ctx context.Context, query string, limit, offset int) ([]RecipeRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	like := "%" + query + "%"

	var total int
	err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM recipes WHERE name LIKE ? OR slug LIKE ?`, like, like).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlstore: count recipes: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT r.id, r.slug, r.path, r.name, r.servings, COALESCE(f.checksum, '')
		FROM recipes r
		LEFT JOIN files f ON f.path = r.path
		WHERE r.name LIKE ? OR r.slug LIKE ?
		ORDER BY r.name COLLATE NOCASE, r.id
		LIMIT ? OFFSET ?
	`, like, like, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlstore: list recipes: %w", err)
	}
	defer rows.Close()

	out := []RecipeRow{}
	for rows.Next() {
		var r RecipeRow
		if err := rows.Scan(&r.ID, &r.Slug, &r.Path, &r.Name, &r.Servings, &r.Checksum); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// LookupIngredient loads one canonical ingredient.
func (db *DB) LookupIngredient(ctx context.Context, id int64) (*models.Ingredient, error) {
	var ing models.Ingredient
	err := db.conn.QueryRowContext(ctx, `SELECT id, name, catalog_id, display_name FROM ingredients WHERE id = ?`, id).
		Scan(&ing.ID, &ing.Name, &ing.CatalogID, &ing.DisplayName)
	if err != nil {
		return nil, notFound(err, "ingredient", id)
	}
	return &ing, nil
}

// LookupIngredientByCatalogID returns every ingredient row carrying catalogID.
func (db *DB) LookupIngredientByCatalogID(ctx context.Context, catalogID string) ([]models.Ingredient, error) {
	out, err := db.queryIngredients(ctx, `WHERE catalog_id = ?`, catalogID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sqlstore: catalog id %q: %w", catalogID, apperr.ErrNotFound)
	}
	return out, nil
}

// ListIngredients returns every canonical ingredient in id order.
func (db *DB) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	return db.queryIngredients(ctx, "")
}

func (db *DB) queryIngredients(ctx context.Context, where string, args ...any) ([]models.Ingredient, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, catalog_id, display_name FROM ingredients `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: ingredients: %w", err)
	}
	defer rows.Close()
	out := []models.Ingredient{}
	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.CatalogID, &ing.DisplayName); err != nil {
			return nil, err
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

// RecipePath returns the vault path a recipe slug was imported from.
func (db *DB) RecipePath(ctx context.Context, slug string) (string, error) {
	var p string
	if err := db.conn.QueryRowContext(ctx, `SELECT path FROM recipes WHERE slug = ?`, slug).Scan(&p); err != nil {
		return "", notFound(err, "recipe", slug)
	}
	return p, nil
}
