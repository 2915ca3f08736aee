package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-docs/internal/api/middleware"
	"github.com/dvloznov/finance-docs/internal/clientcache"
	"github.com/dvloznov/finance-docs/internal/domain"
	"github.com/dvloznov/finance-docs/internal/jobs"
	"github.com/dvloznov/finance-docs/internal/logger"
	"github.com/dvloznov/finance-docs/internal/orchestrator"
	"github.com/go-chi/chi/v5"
)

// DocumentCreator runs the invoice and receipt flows.
type DocumentCreator interface {
	CreateInvoice(ctx context.Context, form domain.Form) (*orchestrator.Outcome, error)
	CreateReceipt(ctx context.Context, form domain.Form) (*orchestrator.Outcome, error)
}

// DocumentsHandler handles document-creation endpoints.
type DocumentsHandler struct {
	creator DocumentCreator
	now     func() time.Time
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(creator DocumentCreator, now func() time.Time) *DocumentsHandler {
	if now == nil {
		now = time.Now
	}
	return &DocumentsHandler{creator: creator, now: now}
}

// CreateInvoice handles POST /api/invoices
func (h *DocumentsHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.creator.CreateInvoice)
}

// CreateReceipt handles POST /api/receipts
func (h *DocumentsHandler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.creator.CreateReceipt)
}

func (h *DocumentsHandler) create(w http.ResponseWriter, r *http.Request, run func(context.Context, domain.Form) (*orchestrator.Outcome, error)) {
	var form domain.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	form = form.WithDefaultDate(civil.DateOf(h.now()))

	out, err := run(r.Context(), form)
	if out == nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Document creation returned no outcome")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.WriteJSON(w, statusFor(err), out)
}

// statusFor maps the stage an orchestration stopped at to an HTTP status.
func statusFor(err error) int {
	if err == nil {
		return http.StatusCreated
	}

	var stageErr *orchestrator.StageError
	if !errors.As(err, &stageErr) {
		return http.StatusInternalServerError
	}
	switch stageErr.Stage {
	case orchestrator.StageValidation:
		return http.StatusBadRequest
	case orchestrator.StageBilling:
		return http.StatusBadGateway
	case orchestrator.StageRecordStore:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// ClientLister serves the client-picker list.
type ClientLister interface {
	Names(ctx context.Context) clientcache.Snapshot
}

// ClientsHandler handles client-list endpoints.
type ClientsHandler struct {
	cache ClientLister
}

// NewClientsHandler creates a new clients handler.
func NewClientsHandler(cache ClientLister) *ClientsHandler {
	return &ClientsHandler{cache: cache}
}

// ListClients handles GET /api/clients
func (h *ClientsHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	snap := h.cache.Names(r.Context())
	snap.Names = clientcache.Filter(snap.Names, r.URL.Query().Get("q"))

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"names":      snap.Names,
		"count":      len(snap.Names),
		"state":      snap.State,
		"fetched_at": snap.FetchedAt,
		"notice":     snap.Notice,
	})
}

// IssuedLister reads the audit trail of issued documents.
type IssuedLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.IssuedDocument, error)
}

// LedgerHandler handles audit-trail endpoints.
type LedgerHandler struct {
	repo IssuedLister
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(repo IssuedLister) *LedgerHandler {
	return &LedgerHandler{repo: repo}
}

// ListDocuments handles GET /api/documents
func (h *LedgerHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = l
	}

	documents, err := h.repo.ListRecent(ctx, limit)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list issued documents")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	if documents == nil {
		documents = []domain.IssuedDocument{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore) *JobsHandler {
	return &JobsHandler{store: store}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "id")

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		DocumentID: query.Get("document_id"),
		Status:     jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	if jobsList == nil {
		jobsList = []*jobs.DistributeJob{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
