// Package app wires the billing client, the income ledger, the client cache
// and the email queue from a Config. Both binaries start from it.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dvloznov/finance-docs/internal/clientcache"
	"github.com/dvloznov/finance-docs/internal/config"
	infraBQ "github.com/dvloznov/finance-docs/internal/infra/bigquery"
	"github.com/dvloznov/finance-docs/internal/jobs/inmemory"
	"github.com/dvloznov/finance-docs/internal/logger"
	"github.com/dvloznov/finance-docs/internal/morning"
	"github.com/dvloznov/finance-docs/internal/notionsync"
	"github.com/dvloznov/finance-docs/internal/orchestrator"
)

// QueueSize is the number of email jobs that can wait for a worker.
const QueueSize = 100

// App holds the wired services.
type App struct {
	Config   *config.Config
	Billing  *morning.Client
	Records  *notionsync.RecordStore
	Clients  *clientcache.Cache
	JobStore *inmemory.Store
	Queue    *inmemory.Queue
	Ledger   *infraBQ.IssuedDocumentRepository // nil when BIGQUERY_PROJECT is unset
	Service  *orchestrator.Service

	closers []func() error
}

// New builds every component and starts the email workers on ctx.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{Config: cfg}

	a.Billing = morning.NewClient(cfg.MorningBaseURL,
		morning.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		morning.WithViewBaseURL(cfg.MorningViewBaseURL),
		morning.WithInvoiceRemark(cfg.InvoiceRemark),
	)

	notionOpts := []notionsync.Option{notionsync.WithTimeout(cfg.HTTPTimeout)}
	if cfg.NotionBaseURL != "" {
		notionOpts = append(notionOpts, notionsync.WithRelay(cfg.NotionBaseURL))
	}
	notionClient, err := notionsync.NewNotionClient(cfg.NotionAPIKey, notionOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.Records = notionsync.NewRecordStore(notionClient, cfg.NotionDatabaseID)

	cacheStore, err := a.cacheStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Clients = clientcache.New(a.Records, cacheStore)

	a.JobStore = inmemory.NewStore()
	a.Queue = inmemory.NewQueue(QueueSize, a.JobStore)
	if err := a.Queue.Start(ctx, orchestrator.NewDistributeHandler(a.Billing)); err != nil {
		a.Close()
		return nil, fmt.Errorf("app: starting email queue: %w", err)
	}

	opts := []orchestrator.Option{orchestrator.WithPublisher(a.Queue)}
	if cfg.BigQueryProject != "" {
		repo, err := infraBQ.NewIssuedDocumentRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		a.Ledger = repo
		a.closers = append(a.closers, repo.Close)
		opts = append(opts, orchestrator.WithRecorder(repo))
		log.Info().Str("table", infraBQ.TableName(cfg.BigQueryProject, cfg.BigQueryDataset)).Msg("Issued-document ledger enabled")
	}

	a.Service = orchestrator.NewService(a.Billing, orchestrator.Credentials{
		ID:     cfg.MorningID,
		Secret: cfg.MorningSecret,
	}, a.Records, opts...)

	return a, nil
}

func (a *App) cacheStore(ctx context.Context) (clientcache.Store, error) {
	log := logger.FromContext(ctx)

	switch {
	case a.Config.ClientCacheBucket != "":
		store, err := clientcache.NewGCSStore(ctx, a.Config.ClientCacheBucket, "")
		if err != nil {
			return nil, fmt.Errorf("app: client cache: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		log.Info().Str("bucket", a.Config.ClientCacheBucket).Msg("Client cache stored in GCS")
		return store, nil
	case a.Config.ClientCachePath != "":
		log.Info().Str("path", a.Config.ClientCachePath).Msg("Client cache stored on disk")
		return clientcache.NewFileStore(a.Config.ClientCachePath), nil
	default:
		log.Warn().Msg("No client cache location configured, keeping it in memory")
		return &clientcache.MemoryStore{}, nil
	}
}

// Shutdown drains queued emails, waits for any background cache refresh and
// releases clients. ctx bounds the drain.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error
	if a.Queue != nil {
		if err := a.Queue.Stop(ctx); err != nil {
			firstErr = fmt.Errorf("stopping email queue: %w", err)
		}
	}
	if a.Clients != nil {
		a.Clients.Wait()
	}
	if err := a.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Close releases cloud clients.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
