package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-docs/internal/api"
	"github.com/dvloznov/finance-docs/internal/app"
	"github.com/dvloznov/finance-docs/internal/config"
	"github.com/dvloznov/finance-docs/internal/logger"
	"github.com/dvloznov/finance-docs/internal/orchestrator"
)

func main() {
	// Parse command-line flags
	var (
		envFile = flag.String("env", ".env", "Path to an optional .env file")
		port    = flag.String("port", "", "HTTP server port (overrides PORT)")
	)
	flag.Parse()

	bootLog := logger.New()

	if err := config.LoadEnvFile(*envFile); err != nil {
		bootLog.Fatal().Err(err).Str("path", *envFile).Msg("Failed to read env file")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}

	log := logger.NewWithConfig(cfg.LogLevel, cfg.LogJSON)

	// Workers outlive individual requests, so they get their own context
	workerCtx, cancelWorkers := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancelWorkers()

	a, err := app.New(workerCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	deps := api.Deps{
		Creator:  a.Service,
		Clients:  a.Clients,
		Jobs:     a.JobStore,
		APIToken: cfg.APIToken,
	}
	if a.Ledger != nil {
		deps.Ledger = a.Ledger
	}
	if cfg.APIToken == "" {
		log.Warn().Msg("API_TOKEN is not set - the API is open to any caller")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(deps, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: orchestrator.RequestBudget(cfg.HTTPTimeout) + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Send queued emails before exiting
	if err := a.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping services")
	}

	log.Info().Msg("Server exited")
}
