package sqlstore

import (
	"context"
	"fmt"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/models"
)

// LookupStore loads a store with its sections.
func (db *DB) LookupStore(ctx context.Context, id int64) (*models.Store, error) {
	var s models.Store
	err := db.conn.QueryRowContext(ctx, `SELECT id, slug, name, is_default FROM stores WHERE id = ?`, id).
		Scan(&s.ID, &s.Slug, &s.Name, &s.IsDefault)
	if err != nil {
		return nil, notFound(err, "store", id)
	}
	secs, err := db.LookupSections(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Sections = secs
	return &s, nil
}

// LookupStoreBySlug loads a store by file slug.
func (db *DB) LookupStoreBySlug(ctx context.Context, slug string) (*models.Store, error) {
	var id int64
	if err := db.conn.QueryRowContext(ctx, `SELECT id FROM stores WHERE slug = ?`, slug).Scan(&id); err != nil {
		return nil, notFound(err, "store", slug)
	}
	return db.LookupStore(ctx, id)
}

// DefaultStore returns the store flagged as default, else the first store.
func (db *DB) DefaultStore(ctx context.Context) (*models.Store, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx, `SELECT id FROM stores ORDER BY is_default DESC, id LIMIT 1`).Scan(&id)
	if err != nil {
		return nil, notFound(err, "store", "default")
	}
	return db.LookupStore(ctx, id)
}

// ListStores returns every store with its sections.
func (db *DB) ListStores(ctx context.Context) ([]models.Store, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM stores ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list stores: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.Store, 0, len(ids))
	for _, id := range ids {
		s, err := db.LookupStore(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// LookupSections returns the sections of a store in walking order.
func (db *DB) LookupSections(ctx context.Context, storeID int64) ([]models.Section, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, store_id, name, position FROM sections WHERE store_id = ? ORDER BY position, id
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: sections: %w", err)
	}
	defer rows.Close()
	out := []models.Section{}
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.StoreID, &s.Name, &s.Order); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LookupAssignments returns the ingredient placements of a store.
func (db *DB) LookupAssignments(ctx context.Context, storeID int64) ([]models.Assignment, error) {
	var exists int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM stores WHERE id = ?`, storeID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("sqlstore: assignments: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("sqlstore: store %d: %w", storeID, apperr.ErrNotFound)
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT ingredient_id, section_id, store_id FROM ingredient_sections WHERE store_id = ? ORDER BY rowid
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: assignments: %w", err)
	}
	defer rows.Close()
	out := []models.Assignment{}
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.IngredientID, &a.SectionID, &a.StoreID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
