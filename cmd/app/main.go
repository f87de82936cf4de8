package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/larder/internal"
	"github.com/starford/larder/internal/grocery"
	pkgconfig "github.com/starford/larder/pkg/config"
)

// loadConfig reads the config file named by --config. A missing file leaves
// the defaults in place.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	err := pkgconfig.LoadWithDefaults(configPath, "", cfg)
	switch {
	case errors.Is(err, pkgconfig.ErrNotFound):
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func syncVault(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Sync(ctx, internal.WithConfig(cfg))
}

func list(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	entries := grocery.ParseEntries(strings.Join(cmd.Args().Slice(), " "))
	if len(entries) == 0 {
		return errors.New("list: at least one recipe slug is required")
	}
	return internal.PrintList(ctx, entries, cmd.String("store"),
		internal.WithConfig(cfg),
		internal.WithLogOutput(os.Stderr))
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func main() {
	cmd := &cli.Command{
		Name:   "larder",
		Usage:  "Recipe catalog and shopping-list builder backed by a folder of YAML files",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "sync",
				Usage:  "Import the vault into the catalog and exit",
				Action: syncVault,
			},
			{
				Name:      "list",
				Usage:     "Print a shopping list for recipes",
				ArgsUsage: "recipe[*multiplier]...",
				Action:    list,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "store",
						Aliases: []string{"s"},
						Usage:   "Store slug; the default store when empty",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
