package api

import (
	"net/http"
	"time"

	"github.com/dvloznov/finance-docs/internal/api/handlers"
	"github.com/dvloznov/finance-docs/internal/api/middleware"
	"github.com/dvloznov/finance-docs/internal/jobs"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Deps are the services behind the HTTP API. Ledger may be nil when the
// audit trail is disabled.
type Deps struct {
	Creator  handlers.DocumentCreator
	Clients  handlers.ClientLister
	Jobs     jobs.JobStore
	Ledger   handlers.IssuedLister
	APIToken string
	Now      func() time.Time
}

// NewRouter builds the API routes behind the shared middleware chain.
func NewRouter(deps Deps, log zerolog.Logger) http.Handler {
	documentsHandler := handlers.NewDocumentsHandler(deps.Creator, deps.Now)
	clientsHandler := handlers.NewClientsHandler(deps.Clients)
	jobsHandler := handlers.NewJobsHandler(deps.Jobs)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(deps.APIToken))

		r.Post("/invoices", documentsHandler.CreateInvoice)
		r.Post("/receipts", documentsHandler.CreateReceipt)

		r.Get("/clients", clientsHandler.ListClients)

		r.Get("/jobs", jobsHandler.ListJobs)
		r.Get("/jobs/{id}", jobsHandler.GetJob)

		if deps.Ledger != nil {
			r.Get("/documents", handlers.NewLedgerHandler(deps.Ledger).ListDocuments)
		} else {
			r.Get("/documents", func(w http.ResponseWriter, r *http.Request) {
				middleware.WriteError(w, http.StatusNotImplemented, "Issued-document ledger is not configured")
			})
		}
	})

	return r
}
