// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/larder/internal/sqlstore"
	"github.com/starford/larder/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *sqlstore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "larder-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := sqlstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Quiet returns a logger that discards everything.
func Quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// KitchenFiles is a small vault: a pasta bake built on a tomato sauce, a
// pesto, and one store with three sections.
var KitchenFiles = map[string]string{
	"ingredients.yaml": `ingredients:
  - name: garlic
    display_name: Garlic
  - name: crushed tomato
    display_name: Crushed tomatoes
  - name: whole milk
    catalog_id: usda-1077
    display_name: Milk
`,
	"recipes/tomato-sauce.yaml": `name: Tomato Sauce
servings: 4
ingredients:
  - item: crushed tomatoes
    quantity: 2
    unit: cup
  - item: garlic
    quantity: 1
    unit: clove
`,
	"recipes/pasta-bake.yaml": `name: Pasta Bake
servings: 4
ingredients:
  - recipe: tomato-sauce
    quantity: 0.5
  - item: pasta
    quantity: 1
    unit: lb
`,
	"recipes/pesto.yaml": `name: Pesto
ingredients:
  - item: fresh basil
    quantity: 2
    unit: cup
  - item: garlic
    quantity: 2
    unit: cloves
  - item: pine nuts
    quantity: 1/4
    unit: cup
`,
	"stores/corner-shop.yaml": `name: Corner Shop
default: true
sections:
  - name: Produce
    items: [garlic, basil]
  - name: Pantry
    items: [pasta, crushed tomato, pine nuts]
  - name: Dairy
    items: [whole milk]
`,
}

// SeedVault writes files into store and syncs them into db.
func SeedVault(t *testing.T, store storage.Provider, db *sqlstore.DB, files map[string]string) {
	t.Helper()
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	if err := sqlstore.Sync(context.Background(), db, store, Quiet()); err != nil {
		t.Fatalf("sync: %v", err)
	}
}
