package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/finance-docs/internal/app"
	"github.com/dvloznov/finance-docs/internal/config"
	"github.com/dvloznov/finance-docs/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "cli",
	Short:         "Issue invoices and receipts and record them in Notion",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to an optional .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(
		newDocumentCmd(documentInvoice),
		newDocumentCmd(documentReceipt),
		clientsCmd,
		historyCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and wires the services. The returned stop
// function drains queued emails, so it must run before the process exits.
func setup(cmd *cobra.Command) (context.Context, *app.App, func(), error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = zerolog.LevelDebugValue
	}
	log := logger.NewWithConfig(level, cfg.LogJSON)
	ctx := logger.WithContext(cmd.Context(), log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.HTTPTimeout)
		defer cancel()
		if err := a.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping services")
		}
	}
	return ctx, a, stop, nil
}

func today() time.Time { return time.Now() }
