package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-docs/internal/clientcache"
	"github.com/dvloznov/finance-docs/internal/domain"
	"github.com/dvloznov/finance-docs/internal/jobs"
	"github.com/dvloznov/finance-docs/internal/jobs/inmemory"
	"github.com/dvloznov/finance-docs/internal/logger"
	"github.com/dvloznov/finance-docs/internal/orchestrator"
)

type stubCreator struct{}

func (stubCreator) CreateInvoice(ctx context.Context, form domain.Form) (*orchestrator.Outcome, error) {
	return &orchestrator.Outcome{Kind: domain.DocumentTypeInvoice, Success: true, Stage: orchestrator.StageDone}, nil
}

func (stubCreator) CreateReceipt(ctx context.Context, form domain.Form) (*orchestrator.Outcome, error) {
	return &orchestrator.Outcome{Kind: domain.DocumentTypeReceipt, Success: true, Stage: orchestrator.StageDone}, nil
}

type stubClients struct{}

func (stubClients) Names(ctx context.Context) clientcache.Snapshot {
	return clientcache.Snapshot{Names: []string{"Acme"}, State: clientcache.StateFresh}
}

func newTestRouter(t *testing.T, token string) (http.Handler, *inmemory.Store) {
	t.Helper()
	store := inmemory.NewStore()
	err := store.SaveJob(context.Background(), &jobs.DistributeJob{
		JobID:      "job-1",
		DocumentID: "doc-1",
		Status:     jobs.JobStatusFailed,
		Error:      "no email",
		Token:      "secret-billing-token",
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	r := NewRouter(Deps{
		Creator:  stubCreator{},
		Clients:  stubClients{},
		Jobs:     store,
		APIToken: token,
	}, logger.NewWithWriter(io.Discard))
	return r, store
}

func TestRouter_Routes(t *testing.T) {
	r, _ := newTestRouter(t, "")

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodPost, "/api/invoices", "{}", http.StatusCreated},
		{http.MethodPost, "/api/receipts", "{}", http.StatusCreated},
		{http.MethodGet, "/api/clients", "", http.StatusOK},
		{http.MethodGet, "/api/jobs", "", http.StatusOK},
		{http.MethodGet, "/api/jobs/job-1", "", http.StatusOK},
		{http.MethodGet, "/api/jobs/missing", "", http.StatusNotFound},
		{http.MethodGet, "/api/documents", "", http.StatusNotImplemented},
		{http.MethodGet, "/api/invoices", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRouter_JobHidesToken(t *testing.T) {
	r, _ := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil))

	if strings.Contains(rec.Body.String(), "secret-billing-token") {
		t.Error("billing token leaked in job response")
	}
	var job jobs.DistributeJob
	if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
		t.Fatal(err)
	}
	if job.Status != jobs.JobStatusFailed || job.Error != "no email" {
		t.Errorf("job = %+v", job)
	}
}

func TestRouter_Auth(t *testing.T) {
	r, _ := newTestRouter(t, "s3cret")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}

	// health stays open
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}
