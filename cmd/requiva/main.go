// cmd/requiva/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/tobihealthops/requiva-go/internal/cache"
	"github.com/tobihealthops/requiva-go/internal/config"
	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/export"
	"github.com/tobihealthops/requiva-go/internal/importer"
	"github.com/tobihealthops/requiva-go/internal/service"
	"github.com/tobihealthops/requiva-go/internal/storage"
	"github.com/tobihealthops/requiva-go/internal/store/postgres"
	"github.com/tobihealthops/requiva-go/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "requiva",
		Usage: "Lab purchase order management and insights",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Create the orders table on the Postgres backend",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db-url",
						Usage:    "Database connection string",
						Required: true,
						EnvVars:  []string{"DATABASE_URL"},
					},
				},
				Action: runMigrate,
			},
			{
				Name:      "import",
				Usage:     "Import an order sheet (CSV or XLSX) into the store",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "mapping",
						Usage:   "YAML header-mapping profile",
						EnvVars: []string{"IMPORT_MAPPING_FILE"},
					},
				},
				Action: runImport,
			},
			{
				Name:  "seed",
				Usage: "Import every order sheet in a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing order sheets",
						Value:   "./data/seeds",
						EnvVars: []string{"SEED_DATA_DIR"},
					},
				},
				Action: runSeed,
			},
			{
				Name:  "export",
				Usage: "Write the order book to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output path (.csv or .xlsx)",
						Value: "orders.csv",
					},
				},
				Action: runExport,
			},
			{
				Name:   "insights",
				Usage:  "Print the full insight dashboard as JSON",
				Action: runInsights,
			},
			{
				Name:   "archive",
				Usage:  "Upload dated CSV/XLSX exports to the object store",
				Action: runArchive,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}

func runMigrate(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := postgres.EnsureSchema(c.Context, db); err != nil {
		return err
	}
	logger.Log.Info().Msg("orders table ready")
	return nil
}

func openOrders(ctx context.Context) (*service.OrderService, func(context.Context) error, error) {
	cfg := config.Load()
	st, closeStore, err := service.OpenOrderStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return service.NewOrderService(st), closeStore, nil
}

func runImport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	mapping, err := importer.LoadMapping(c.String("mapping"))
	if err != nil {
		return err
	}

	orders, closeStore, err := openOrders(c.Context)
	if err != nil {
		return err
	}
	defer closeStore(context.Background())

	return importOne(c.Context, orders, importer.New(mapping), path)
}

func runSeed(c *cli.Context) error {
	dir := c.String("data-dir")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read seed dir %s: %w", dir, err)
	}

	orders, closeStore, err := openOrders(c.Context)
	if err != nil {
		return err
	}
	defer closeStore(context.Background())

	im := importer.New(nil)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		if err := importOne(c.Context, orders, im, filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func importOne(ctx context.Context, orders *service.OrderService, im *importer.Importer, path string) error {
	recs, summary, err := im.ImportFile(path)
	if err != nil {
		return err
	}
	n, err := orders.BulkUpsert(ctx, recs)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	logger.Log.Info().Str("file", summary.File).Str("batch_id", summary.BatchID).Int("loaded", n).Msg("file imported")
	return nil
}

func runExport(c *cli.Context) error {
	out := c.String("out")

	orders, closeStore, err := openOrders(c.Context)
	if err != nil {
		return err
	}
	defer closeStore(context.Background())

	recs, err := orders.List(c.Context, domain.OrderFilter{})
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(out)) {
	case ".csv":
		err = export.WriteCSV(f, recs)
	case ".xlsx":
		err = export.WriteXLSX(f, recs)
	default:
		err = fmt.Errorf("unsupported export format %q", filepath.Ext(out))
	}
	if err != nil {
		return err
	}
	logger.Log.Info().Str("file", out).Int("orders", len(recs)).Msg("export written")
	return nil
}

func runInsights(c *cli.Context) error {
	cfg := config.Load()
	st, closeStore, err := service.OpenOrderStore(c.Context, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore(context.Background())

	insights := service.NewInsightService(st, cache.NewNoopInsightCache(), cfg.Analytics)
	dash, err := insights.Dashboard(c.Context)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(dash)
}

func runArchive(c *cli.Context) error {
	cfg := config.Load()

	client, err := storage.NewMinioClient(cfg.ObjectStore)
	if err != nil {
		return err
	}

	orders, closeStore, err := openOrders(c.Context)
	if err != nil {
		return err
	}
	defer closeStore(context.Background())

	recs, err := orders.List(c.Context, domain.OrderFilter{})
	if err != nil {
		return err
	}

	keys, err := storage.NewArchiver(client).Archive(c.Context, recs, time.Now())
	if err != nil {
		return err
	}
	logger.Log.Info().Strs("keys", keys).Msg("archive uploaded")
	return nil
}
