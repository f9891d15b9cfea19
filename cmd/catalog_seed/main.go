package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	catalogapp "storefront/internal/application/catalog"
	"storefront/internal/config"
	"storefront/internal/domain/repository"
	"storefront/internal/infrastructure/http/catalogfeed"
	"storefront/internal/infrastructure/persistence/memory"
	"storefront/internal/infrastructure/persistence/postgres"
	"storefront/pkg/logger"
)

// Loads products into the catalog store from the embedded seed, a JSON file
// or the remote catalog feed.
func main() {
	app := &cli.App{
		Name:  "catalog_seed",
		Usage: "load products into the storefront catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "JSON file with a product array (defaults to the embedded seed)",
			},
			&cli.BoolFlag{
				Name:  "feed",
				Usage: "pull products from CATALOG_FEED_URL instead of a file",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "validate records without writing them",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("catalog seed failed: %v", err)
	}
}

func run(c *cli.Context) error {
	if c.IsSet("file") && c.Bool("feed") {
		return cli.Exit("--file and --feed are mutually exclusive", 2)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	appLog, err := logger.NewZapLogger(logger.Options{Service: cfg.App.Name, Env: cfg.App.Env, Level: cfg.App.LogLevel})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = appLog.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher, source, err := pickFetcher(c, cfg, appLog)
	if err != nil {
		return err
	}

	writer, closeWriter, err := openWriter(cfg, appLog)
	if err != nil {
		return err
	}
	defer closeWriter()

	dryRun := c.Bool("dry-run")
	appLog.Info("Seeding catalog",
		logger.String("source", source),
		logger.String("driver", cfg.Store.Driver),
		logger.Bool("dry_run", dryRun),
	)

	res, err := catalogapp.NewSyncService(fetcher, writer, appLog).Sync(ctx, dryRun)
	if err != nil {
		return err
	}
	appLog.Info("Catalog seed finished",
		logger.Int("fetched", res.Fetched),
		logger.Int("upserted", res.Upserted),
		logger.Int("skipped", res.Skipped),
	)
	return nil
}

func pickFetcher(c *cli.Context, cfg *config.Config, log logger.Logger) (catalogapp.ProductFetcher, string, error) {
	switch {
	case c.Bool("feed"):
		if cfg.Catalog.FeedURL == "" {
			return nil, "", cli.Exit("CATALOG_FEED_URL is empty", 2)
		}
		return catalogfeed.NewClient(cfg.Catalog, log), cfg.Catalog.FeedURL, nil
	case c.IsSet("file"):
		path := c.String("file")
		f, err := catalogapp.SeedFromFile(path)
		if err != nil {
			return nil, "", err
		}
		return f, path, nil
	default:
		return catalogapp.DefaultSeed(), "embedded", nil
	}
}

// openWriter returns the catalog writer for the configured driver. The
// memory driver only validates, since nothing outlives the process.
func openWriter(cfg *config.Config, log logger.Logger) (repository.CatalogWriter, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn("Memory store selected: products are validated but not kept")
		return memory.NewCatalogStore(), func() {}, nil
	}

	if cfg.DB.Migrate {
		if err := postgres.Migrate(cfg.DB); err != nil {
			return nil, nil, err
		}
	}
	pool, err := postgres.NewPool(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewProductRepository(pool), pool.Close, nil
}
