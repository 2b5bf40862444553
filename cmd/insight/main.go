package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/truthsource/insight-service/internal/anomaly"
	"github.com/truthsource/insight-service/internal/cache"
	"github.com/truthsource/insight-service/internal/config"
	"github.com/truthsource/insight-service/internal/domain"
	"github.com/truthsource/insight-service/internal/forecast"
	"github.com/truthsource/insight-service/internal/importer"
	"github.com/truthsource/insight-service/internal/reorder"
	"github.com/truthsource/insight-service/internal/repository/postgres"
	"github.com/truthsource/insight-service/internal/storage"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newOrgFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "org",
		Usage:    "Organization ID",
		Required: true,
	}
}

func openEngine(c *cli.Context) (*postgres.DB, *forecast.Engine, error) {
	db, err := postgres.NewDBFromURL(c.String("db-url"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	store := postgres.NewDataStore(db)
	engine := forecast.NewEngine(store, cache.NewNoopForecastCache(), config.Load().Analytics)
	return db, engine, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "insight",
		Usage: "Run analytics passes against the operational database",
		Commands: []*cli.Command{
			{
				Name:  "forecast",
				Usage: "Forecast demand for one product at one warehouse",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newOrgFlag(),
					&cli.StringFlag{Name: "product", Usage: "Product ID", Required: true},
					&cli.StringFlag{Name: "warehouse", Usage: "Warehouse ID", Required: true},
					&cli.IntFlag{Name: "horizon", Usage: "Forecast horizon in days", Value: 30},
				},
				Action: runForecast,
			},
			{
				Name:  "reorder",
				Usage: "Calculate reorder points for every inventory row",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newOrgFlag(),
				},
				Action: runReorder,
			},
			{
				Name:  "detect",
				Usage: "Run anomaly detection",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newOrgFlag(),
					&cli.StringFlag{Name: "scope", Usage: "Detection scope (all, inventory, orders, pricing)", Value: domain.ScopeAll},
				},
				Action: runDetect,
			},
			{
				Name:  "import",
				Usage: "Backfill order history from CSV exports",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newOrgFlag(),
					&cli.StringSliceFlag{Name: "file", Usage: "CSV export to import (repeatable)", Required: true},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent file workers", Value: 4},
				},
				Action: runImport,
			},
			{
				Name:  "archive",
				Usage: "List archived insight batches for an organization",
				Flags: []cli.Flag{
					newOrgFlag(),
				},
				Action: runArchiveList,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runForecast(c *cli.Context) error {
	db, engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := engine.ForecastDemand(c.Context, c.String("product"), c.String("warehouse"), c.String("org"), c.Int("horizon"))
	if err != nil {
		return fmt.Errorf("forecast failed: %w", err)
	}
	return printJSON(result)
}

func runReorder(c *cli.Context) error {
	db, engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := reorder.NewService(postgres.NewDataStore(db), engine, config.Load().Analytics)
	outcomes, err := svc.CalculateOutcomes(c.Context, c.String("org"))
	if err != nil {
		return fmt.Errorf("reorder calculation failed: %w", err)
	}
	return printJSON(outcomes)
}

func runDetect(c *cli.Context) error {
	db, err := postgres.NewDBFromURL(c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if _, ok := domain.ParseScope(c.String("scope")); !ok {
		return fmt.Errorf("unknown scope: %s", c.String("scope"))
	}

	detector := anomaly.NewDetector(postgres.NewDataStore(db))
	alerts, err := detector.DetectAnomalies(c.Context, c.String("org"), c.String("scope"))
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}
	return printJSON(alerts)
}

func runImport(c *cli.Context) error {
	db, err := postgres.NewDBFromURL(c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	imp := importer.NewImporter(db.DB, importer.Config{WorkerCount: c.Int("workers")})
	run, err := imp.ImportFiles(c.Context, c.String("org"), c.StringSlice("file"))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return printJSON(run)
}

func runArchiveList(c *cli.Context) error {
	cfg := config.Load()
	if !cfg.Archive.Enabled {
		return fmt.Errorf("archive is not enabled (set ARCHIVE_ENABLED=true)")
	}

	client, err := storage.NewMinioClient(cfg.Archive)
	if err != nil {
		return err
	}

	objects, err := storage.NewArchiver(client).ListArchived(c.Context, c.String("org"))
	if err != nil {
		return err
	}
	return printJSON(objects)
}
