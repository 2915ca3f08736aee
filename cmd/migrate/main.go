package main

import (
	"context"
	"flag"
	"os"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-docs/internal/config"
	infraBQ "github.com/dvloznov/finance-docs/internal/infra/bigquery"
	"github.com/dvloznov/finance-docs/internal/logger"
)

func main() {
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	projectID := flag.String("project", "", "GCP project ID (defaults to BIGQUERY_PROJECT)")
	datasetID := flag.String("dataset", "", "BigQuery dataset ID (defaults to BIGQUERY_DATASET or finance)")
	appliedBy := flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	flag.Parse()

	log := logger.New()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to read env file")
	}
	if *projectID == "" {
		*projectID = os.Getenv("BIGQUERY_PROJECT")
	}
	if *datasetID == "" {
		*datasetID = os.Getenv("BIGQUERY_DATASET")
	}
	if *datasetID == "" {
		*datasetID = config.DefaultBigQueryDataset
	}
	if *projectID == "" {
		log.Fatal().Msg("Error: -project flag or BIGQUERY_PROJECT is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")

	n, err := infraBQ.NewMigrator(client, *projectID, *datasetID, *appliedBy).Migrate(ctx)
	if err != nil {
		log.Fatal().Err(err).Int("applied", n).Msg("Migration failed")
	}
	if n == 0 {
		log.Info().Msg("No new migrations to apply. Dataset is up to date.")
		return
	}
	log.Info().Int("applied", n).Msg("Migrations applied")
}
