package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/finance-docs/internal/app"
	"github.com/dvloznov/finance-docs/internal/config"
	"github.com/dvloznov/finance-docs/internal/logger"
)

// sync-notion writes the Notion entries of documents that were issued but
// whose ledger write failed, using the BigQuery audit trail as the source.
func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	limit := flag.Int("limit", 500, "Number of recent audit rows to scan")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to read env file")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.BigQueryProject == "" {
		log.Fatal().Msg("Error: BIGQUERY_PROJECT is required to find unsynced documents")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Shutdown(context.Background())

	docs, err := a.Ledger.ListRecent(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list issued documents")
	}

	log.Info().Int("rows", len(docs)).Bool("dry_run", *dryRun).Msg("Starting Notion resync")

	report := a.Service.Resync(ctx, docs, *dryRun)
	if *dryRun {
		fmt.Printf("[DRY RUN] Resync preview: %d candidates, %d would be written, %d already synced.\n",
			report.Candidates, report.WouldWrite, report.Skipped)
		return
	}
	fmt.Printf("Resync completed: %d candidates, %d written, %d already synced, %d failed.\n",
		report.Candidates, report.Written, report.Skipped, report.Failed)
}
