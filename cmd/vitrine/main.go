package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vitrine/internal"
	"github.com/starford/vitrine/internal/catalog"
	"github.com/starford/vitrine/internal/filter"
	"github.com/starford/vitrine/internal/index"
	"github.com/starford/vitrine/internal/mcpserver"
	"github.com/starford/vitrine/internal/printer"
	"github.com/starford/vitrine/internal/selection"
	pkgconfig "github.com/starford/vitrine/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// loadCatalog fetches the configured catalog once.
func loadCatalog(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*catalog.Store, error) {
	src, err := internal.NewSource(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	cat := catalog.NewStore(logger)
	if err := cat.Load(ctx, src); err != nil {
		return nil, err
	}
	return cat, nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol.
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	src, err := internal.NewSource(cfg.Catalog)
	if err != nil {
		return err
	}
	cat := catalog.NewStore(logger)
	internal.MirrorTo(cat, db, logger)
	if err := cat.Load(ctx, src); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	logger.Info("MCP server starting", slog.Int("records", len(cat.All())))

	return mcpserver.New(cat, db).ServeStdio()
}

func list(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := internal.NewLogger(os.Stderr, slog.LevelWarn)
	cat, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	all := cat.All()
	shown := filter.Apply(all, cmd.String("search"), selection.Specific(cmd.StringSlice("category")...))

	printer.Records(color.Output, shown)
	printer.Summary(color.Output, len(shown), len(all))
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "vitrine",
		Usage:  "Filterable, searchable prompt catalog with lazily loaded previews",
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
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the catalog to MCP clients over stdio",
				Action: runMCP,
			},
			{
				Name:  "list",
				Usage: "Print the catalog filtered by search term and categories",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Case-insensitive substring of title, description or category",
					},
					&cli.StringSliceFlag{
						Name:  "category",
						Usage: "Category key to include (repeatable; \"all\" for every category)",
					},
				},
				Action: list,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
