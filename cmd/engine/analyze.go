package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/restockly/backend/internal/cache"
	"github.com/restockly/backend/internal/engine"
	"github.com/restockly/backend/internal/engine/report"
	"github.com/restockly/backend/internal/engine/reorder"
	"github.com/restockly/backend/internal/ingest"
	"github.com/restockly/backend/internal/repository/postgres"
	"github.com/restockly/backend/internal/service"
	"github.com/restockly/backend/pkg/logger"
	"github.com/urfave/cli/v2"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Run a full analysis over CSV snapshot files or a database snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "inventory",
				Usage:   "Path to the inventory snapshot CSV",
				EnvVars: []string{"ANALYZE_INVENTORY_CSV"},
			},
			&cli.StringFlag{
				Name:    "sales",
				Usage:   "Path to the sales history CSV",
				EnvVars: []string{"ANALYZE_SALES_CSV"},
			},
			&cli.StringFlag{
				Name:    "lead-times",
				Usage:   "Path to the supplier lead times CSV (optional)",
				EnvVars: []string{"ANALYZE_LEAD_TIMES_CSV"},
			},
			&cli.StringFlag{
				Name:    "discounts",
				Usage:   "Path to the discount tiers CSV (optional)",
				EnvVars: []string{"ANALYZE_DISCOUNTS_CSV"},
			},
			&cli.StringFlag{
				Name:    "db-url",
				Usage:   "Postgres URL; when set the snapshot is loaded from the database instead of CSVs",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.Float64Flag{
				Name:    "budget",
				Usage:   "Cash-flow ceiling per order (0 = unconstrained)",
				EnvVars: []string{"ANALYZE_BUDGET"},
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Usage:   "Directory for the report JSON and recommendations CSV",
				Value:   "./data/output",
				EnvVars: []string{"ANALYZE_OUTPUT_DIR"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "Number of concurrent SKU workers",
				Value:   runtime.NumCPU(),
				EnvVars: []string{"ENGINE_WORKERS"},
			},
			&cli.IntFlag{
				Name:    "default-lead-time",
				Usage:   "Lead time in days assumed for SKUs with no supplier data",
				Value:   7,
				EnvVars: []string{"ENGINE_DEFAULT_LEAD_TIME_DAYS"},
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(
		engine.Config{WorkerCount: c.Int("workers")},
		nil,
		reorder.CalculatorConfig{DefaultLeadTimeDays: c.Int("default-lead-time")},
		report.Config{},
	)

	var budget *float64
	if b := c.Float64("budget"); b > 0 {
		budget = &b
	}

	var result *engine.EvaluationResult
	var err error
	if dbURL := c.String("db-url"); dbURL != "" {
		result, err = analyzeFromDatabase(ctx, eng, dbURL, budget)
	} else {
		result, err = analyzeFromCSV(ctx, eng, c, budget)
	}
	if err != nil {
		return err
	}

	return writeOutputs(c.String("output-dir"), result)
}

func analyzeFromDatabase(ctx context.Context, eng *engine.Engine, dbURL string, budget *float64) (*engine.EvaluationResult, error) {
	db, err := postgres.NewDBFromURL("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	svc := service.NewAnalysisService(eng, cache.NewNoopAnalysisCache(),
		service.WithSnapshotRepository(postgres.NewSnapshotRepository(db)))
	return svc.RunStoredAnalysis(ctx, budget)
}

func analyzeFromCSV(ctx context.Context, eng *engine.Engine, c *cli.Context, budget *float64) (*engine.EvaluationResult, error) {
	inventoryPath := c.String("inventory")
	salesPath := c.String("sales")
	if inventoryPath == "" || salesPath == "" {
		return nil, fmt.Errorf("either --db-url or both --inventory and --sales are required")
	}

	req := engine.EvaluationRequest{BudgetConstraint: budget}

	var err error
	if req.Inventory, err = ingest.ReadInventory(inventoryPath); err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	if req.SalesHistory, err = ingest.ReadSalesHistory(salesPath); err != nil {
		return nil, fmt.Errorf("failed to read sales history: %w", err)
	}
	if path := c.String("lead-times"); path != "" {
		if req.LeadTimes, err = ingest.ReadLeadTimes(path); err != nil {
			return nil, fmt.Errorf("failed to read lead times: %w", err)
		}
	}
	if path := c.String("discounts"); path != "" {
		if req.DiscountTiers, err = ingest.ReadDiscountTiers(path); err != nil {
			return nil, fmt.Errorf("failed to read discount tiers: %w", err)
		}
	}

	return eng.RunAnalysis(ctx, req)
}

func writeOutputs(outputDir string, result *engine.EvaluationResult) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	datePrefix := result.EvaluatedAt.Format("20060102")

	reportPath := filepath.Join(outputDir, fmt.Sprintf("%s_report_%s.json", datePrefix, result.RunID))
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(reportPath, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", reportPath, err)
	}

	csvPath := filepath.Join(outputDir, fmt.Sprintf("%s_recommendations_%s.csv", datePrefix, result.RunID))
	if err := os.WriteFile(csvPath, ingest.RecommendationsCSV(result.Recommendations), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", csvPath, err)
	}

	logger.Log.Info().
		Str("run_id", result.RunID).
		Int("recommendations", len(result.Recommendations)).
		Int("failures", len(result.Failures)).
		Str("report", reportPath).
		Str("csv", csvPath).
		Time("evaluated_at", result.EvaluatedAt.Truncate(time.Second)).
		Msg("analysis complete")
	return nil
}
