package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/larder/internal/recipefile"
)

func upsertFile(ctx context.Context, tx *sql.Tx, path, checksum string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO files (path, kind, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind       = excluded.kind,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, path, string(recipefile.KindOf(path)), checksum, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlstore: upsert file: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a vault file, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums maps every imported vault path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// DeletePath removes a vault file and whatever it imported. Ingredient rows
// are kept because other files may still refer to them.
func (db *DB) DeletePath(ctx context.Context, path string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	switch recipefile.KindOf(path) {
	case recipefile.KindRecipe:
		_, err = tx.ExecContext(ctx, `DELETE FROM recipes WHERE path = ?`, path)
	case recipefile.KindStore:
		_, err = tx.ExecContext(ctx, `DELETE FROM stores WHERE path = ?`, path)
	}
	if err != nil {
		return fmt.Errorf("sqlstore: delete %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("sqlstore: delete file row: %w", err)
	}
	return tx.Commit()
}
