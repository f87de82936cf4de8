// Package sqlstore is the SQLite-backed catalog of recipes, ingredients,
// stores and weekly plans, kept in step with the vault files.
package sqlstore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ingredients (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL UNIQUE,
	catalog_id   TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_ingredients_catalog ON ingredients(catalog_id);

CREATE TABLE IF NOT EXISTS recipes (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	slug     TEXT NOT NULL UNIQUE,
	path     TEXT NOT NULL UNIQUE,
	name     TEXT NOT NULL,
	servings INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS recipe_lines (
	recipe_id       INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	kind            TEXT NOT NULL CHECK (kind IN ('ingredient', 'recipe')),
	name            TEXT NOT NULL DEFAULT '',
	norm_name       TEXT NOT NULL DEFAULT '',
	catalog_id      TEXT NOT NULL DEFAULT '',
	quantity        TEXT NOT NULL DEFAULT '',
	unit            TEXT NOT NULL DEFAULT '',
	size            TEXT NOT NULL DEFAULT '',
	descriptor      TEXT NOT NULL DEFAULT '',
	sub_recipe_slug TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (recipe_id, position)
);

CREATE INDEX IF NOT EXISTS idx_recipe_lines_norm ON recipe_lines(norm_name);

CREATE TABLE IF NOT EXISTS recipe_links (
	parent_id  INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	child_slug TEXT NOT NULL,
	quantity   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (parent_id, position)
);

CREATE TABLE IF NOT EXISTS stores (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	slug       TEXT NOT NULL UNIQUE,
	path       TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	is_default INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sections (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	store_id INTEGER NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	name     TEXT NOT NULL,
	position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ingredient_sections (
	ingredient_id INTEGER NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
	section_id    INTEGER NOT NULL REFERENCES sections(id) ON DELETE CASCADE,
	store_id      INTEGER NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	UNIQUE(ingredient_id, store_id)
);

CREATE TABLE IF NOT EXISTS weekly_plans (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS meal_slots (
	plan_id     TEXT NOT NULL REFERENCES weekly_plans(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	day         TEXT NOT NULL DEFAULT '',
	meal        TEXT NOT NULL DEFAULT '',
	recipe_slug TEXT NOT NULL,
	multiplier  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (plan_id, position)
);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Ping checks the connection; used by the readiness probe.
func (db *DB) Ping() error { return db.conn.Ping() }

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
