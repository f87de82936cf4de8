package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/larder/internal/identity"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/recipefile"
)

// ImportIngredients upserts every registry entry, keyed by normalized name.
func (db *DB) ImportIngredients(ctx context.Context, path, checksum string, doc *recipefile.IngredientsDoc) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ingredients (name, catalog_id, display_name)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			catalog_id   = excluded.catalog_id,
			display_name = excluded.display_name
	`)
	if err != nil {
		return fmt.Errorf("sqlstore: prepare ingredient upsert: %w", err)
	}
	defer stmt.Close()

	for _, ing := range doc.Ingredients {
		name := identity.Normalize(ing.Name)
		if name == "" {
			continue
		}
		display := strings.TrimSpace(ing.DisplayName)
		if display == "" {
			display = strings.TrimSpace(ing.Name)
		}
		if _, err := stmt.ExecContext(ctx, name, strings.TrimSpace(ing.CatalogID), display); err != nil {
			return fmt.Errorf("sqlstore: upsert ingredient %q: %w", name, err)
		}
	}
	if err := upsertFile(ctx, tx, path, checksum); err != nil {
		return err
	}
	return tx.Commit()
}

// ImportRecipe replaces the recipe stored for path. The recipe id is stable
// across re-imports of the same slug.
func (db *DB) ImportRecipe(ctx context.Context, path, checksum string, doc *recipefile.RecipeDoc) (int64, error) {
	slug := recipefile.SlugOf(path)
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (slug, path, name, servings)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			path     = excluded.path,
			name     = excluded.name,
			servings = excluded.servings
	`, slug, path, strings.TrimSpace(doc.Name), doc.Servings)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: upsert recipe: %w", err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM recipes WHERE slug = ?`, slug).Scan(&id); err != nil {
		return 0, fmt.Errorf("sqlstore: recipe id: %w", err)
	}

	// Replace lines and links: delete old then bulk insert.
	_, _ = tx.ExecContext(ctx, `DELETE FROM recipe_lines WHERE recipe_id = ?`, id)
	_, _ = tx.ExecContext(ctx, `DELETE FROM recipe_links WHERE parent_id = ?`, id)

	if err := insertLines(ctx, tx, id, doc.Lines()); err != nil {
		return 0, err
	}
	if err := insertLinks(ctx, tx, id, doc.Links()); err != nil {
		return 0, err
	}
	if err := upsertFile(ctx, tx, path, checksum); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

func insertLines(ctx context.Context, tx *sql.Tx, recipeID int64, lines []models.IngredientLine) error {
	if len(lines) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recipe_lines
			(recipe_id, position, kind, name, norm_name, catalog_id, quantity, unit, size, descriptor, sub_recipe_slug)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlstore: prepare line insert: %w", err)
	}
	defer stmt.Close()
	for i, l := range lines {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("sqlstore: line %d: %w", i, err)
		}
		var norm string
		if l.Kind == models.LineIngredient {
			norm = identity.Normalize(l.Name)
		}
		_, err := stmt.ExecContext(ctx, recipeID, i, string(l.Kind), l.Name, norm, l.CatalogID,
			l.Quantity, l.Unit, l.Size, l.Descriptor, l.SubRecipeSlug)
		if err != nil {
			return fmt.Errorf("sqlstore: insert line: %w", err)
		}
	}
	return nil
}

func insertLinks(ctx context.Context, tx *sql.Tx, parentID int64, links []models.SubRecipeLink) error {
	if len(links) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO recipe_links (parent_id, position, child_slug, quantity) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlstore: prepare link insert: %w", err)
	}
	defer stmt.Close()
	for i, ln := range links {
		if _, err := stmt.ExecContext(ctx, parentID, i, ln.ChildSlug, ln.Quantity); err != nil {
			return fmt.Errorf("sqlstore: insert link: %w", err)
		}
	}
	return nil
}

// ImportStore replaces the store stored for path. Section items create
// canonical ingredient rows when no ingredient with that normalized name
// exists yet. When an ingredient is listed twice the first section wins.
func (db *DB) ImportStore(ctx context.Context, path, checksum string, doc *recipefile.StoreDoc) (int64, error) {
	slug := recipefile.SlugOf(path)
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stores (slug, path, name, is_default)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			path       = excluded.path,
			name       = excluded.name,
			is_default = excluded.is_default
	`, slug, path, strings.TrimSpace(doc.Name), doc.Default)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: upsert store: %w", err)
	}
	var storeID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM stores WHERE slug = ?`, slug).Scan(&storeID); err != nil {
		return 0, fmt.Errorf("sqlstore: store id: %w", err)
	}
	// Sections cascade to their assignments.
	if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE store_id = ?`, storeID); err != nil {
		return 0, fmt.Errorf("sqlstore: clear sections: %w", err)
	}

	for pos, sec := range doc.Sections {
		res, err := tx.ExecContext(ctx, `INSERT INTO sections (store_id, name, position) VALUES (?, ?, ?)`,
			storeID, strings.TrimSpace(sec.Name), pos+1)
		if err != nil {
			return 0, fmt.Errorf("sqlstore: insert section: %w", err)
		}
		sectionID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("sqlstore: section id: %w", err)
		}
		for _, item := range sec.Items {
			ingID, err := ensureIngredient(ctx, tx, item)
			if err != nil {
				return 0, err
			}
			if ingID == 0 {
				continue
			}
			_, err = tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO ingredient_sections (ingredient_id, section_id, store_id)
				VALUES (?, ?, ?)
			`, ingID, sectionID, storeID)
			if err != nil {
				return 0, fmt.Errorf("sqlstore: assign %q: %w", item, err)
			}
		}
	}
	if err := upsertFile(ctx, tx, path, checksum); err != nil {
		return 0, err
	}
	return storeID, tx.Commit()
}

func ensureIngredient(ctx context.Context, tx *sql.Tx, raw string) (int64, error) {
	name := identity.Normalize(raw)
	if name == "" {
		return 0, nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ingredients (name, display_name) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("sqlstore: ensure ingredient %q: %w", name, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM ingredients WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("sqlstore: ingredient id: %w", err)
	}
	return id, nil
}
