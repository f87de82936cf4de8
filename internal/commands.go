package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/larder/internal/grocery"
	"github.com/starford/larder/internal/mcpserver"
)

// Sync imports the vault into the catalog once and exits.
func Sync(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := app.logger()

	c, err := setup(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	_, total, err := c.recipes.List(ctx, "", 1, 0)
	if err != nil {
		return fmt.Errorf("count recipes: %w", err)
	}
	stores, err := c.db.ListStores(ctx)
	if err != nil {
		return fmt.Errorf("list stores: %w", err)
	}
	logger.Info("sync complete",
		slog.String("vault_path", app.config.Vault.Path),
		slog.Int("recipes", total),
		slog.Int("stores", len(stores)))
	return nil
}

// PrintList builds a shopping list for entries and prints it. An empty
// store slug selects the default store.
func PrintList(ctx context.Context, entries []grocery.Entry, store string, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := app.logger()

	c, err := setup(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	req := grocery.Request{Entries: entries}
	if store != "" {
		st, err := c.db.LookupStoreBySlug(ctx, store)
		if err != nil {
			return fmt.Errorf("store %q: %w", store, err)
		}
		req.StoreID = st.ID
	}
	list, err := c.lists.BuildList(ctx, req)
	if err != nil {
		return fmt.Errorf("build list: %w", err)
	}
	return grocery.WriteText(app.out, list)
}

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := app.logger()

	c, err := setup(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("MCP server starting", slog.String("vault_path", app.config.Vault.Path))
	return mcpserver.New(c.recipes, c.lists, c.db).ServeStdio()
}
