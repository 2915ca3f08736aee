package inmemory

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/finance-docs/internal/domain"
	"github.com/dvloznov/finance-docs/internal/jobs"
	"github.com/dvloznov/finance-docs/internal/logger"
	"go.uber.org/goleak"
)

func testContext() context.Context {
	return logger.WithContext(context.Background(), logger.NewWithWriter(io.Discard))
}

func TestQueue_ProcessesAndRecordsOutcome(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := testContext()
	store := NewStore()
	q := NewQueue(10, store)

	var handled atomic.Int32
	handler := func(ctx context.Context, job *jobs.DistributeJob) error {
		handled.Add(1)
		if job.DocumentID == "doc-bad" {
			return errors.New("no email on file")
		}
		return nil
	}

	good := &jobs.DistributeJob{DocumentID: "doc-good", ClientID: "c1", DocumentType: domain.DocumentTypeInvoice, Token: "tok"}
	bad := &jobs.DistributeJob{DocumentID: "doc-bad", ClientID: "c2", DocumentType: domain.DocumentTypeReceipt, Token: "tok"}

	for _, j := range []*jobs.DistributeJob{good, bad} {
		if err := q.PublishDistribute(ctx, j); err != nil {
			t.Fatalf("PublishDistribute() error: %v", err)
		}
		if j.JobID == "" {
			t.Fatal("expected generated job ID")
		}
	}

	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	if got := handled.Load(); got != 2 {
		t.Errorf("handled = %d, want 2 (queued jobs drain on stop)", got)
	}

	gotGood, err := store.GetJob(ctx, good.JobID)
	if err != nil {
		t.Fatalf("GetJob() error: %v", err)
	}
	if gotGood.Status != jobs.JobStatusCompleted || gotGood.StartedAt == nil || gotGood.CompletedAt == nil {
		t.Errorf("good job = %+v, want completed", gotGood)
	}

	gotBad, err := store.GetJob(ctx, bad.JobID)
	if err != nil {
		t.Fatalf("GetJob() error: %v", err)
	}
	if gotBad.Status != jobs.JobStatusFailed || gotBad.Error != "no email on file" {
		t.Errorf("bad job = %+v, want failed with error text", gotBad)
	}
}

func TestQueue_NoRetry(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := testContext()
	q := NewQueue(1, NewStore())

	var calls atomic.Int32
	if err := q.Start(ctx, func(ctx context.Context, job *jobs.DistributeJob) error {
		calls.Add(1)
		return errors.New("smtp down")
	}); err != nil {
		t.Fatal(err)
	}

	if err := q.PublishDistribute(ctx, &jobs.DistributeJob{DocumentID: "d1"}); err != nil {
		t.Fatal(err)
	}
	if err := q.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("handler calls = %d, want 1", got)
	}
}

func TestQueue_PublishAfterStop(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := q.PublishDistribute(testContext(), &jobs.DistributeJob{DocumentID: "d1"})
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("error = %v, want ErrQueueClosed", err)
	}
	if err := q.Start(testContext(), nil); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Start() error = %v, want ErrQueueClosed", err)
	}
	// second stop is a no-op
	if err := q.Stop(context.Background()); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}
}

func TestQueue_StopTimeout(t *testing.T) {
	ctx := testContext()
	q := NewQueue(1, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	if err := q.Start(ctx, func(ctx context.Context, job *jobs.DistributeJob) error {
		close(started)
		<-release
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := q.PublishDistribute(ctx, &jobs.DistributeJob{DocumentID: "d1"}); err != nil {
		t.Fatal(err)
	}
	<-started

	stopCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Stop(stopCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop() error = %v, want deadline exceeded", err)
	}

	close(release)
	q.wg.Wait()
}

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		job := &jobs.DistributeJob{
			JobID:      id,
			DocumentID: "doc-" + id,
			Status:     jobs.JobStatusCompleted,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if id == "b" {
			job.Status = jobs.JobStatusFailed
		}
		if err := store.SaveJob(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.ListJobs(ctx, jobs.JobFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].JobID != "c" || all[2].JobID != "a" {
		t.Errorf("ListJobs order = %v, want newest first", ids(all))
	}

	failed, _ := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	if len(failed) != 1 || failed[0].JobID != "b" {
		t.Errorf("failed filter = %v", ids(failed))
	}

	page, _ := store.ListJobs(ctx, jobs.JobFilter{Offset: 1, Limit: 1})
	if len(page) != 1 || page[0].JobID != "b" {
		t.Errorf("page = %v, want [b]", ids(page))
	}

	if _, err := store.GetJob(ctx, "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetJob(missing) error = %v, want ErrJobNotFound", err)
	}
	if err := store.SaveJob(ctx, &jobs.DistributeJob{}); err == nil {
		t.Error("SaveJob without ID should fail")
	}
}

func ids(list []*jobs.DistributeJob) []string {
	out := make([]string, len(list))
	for i, j := range list {
		out[i] = j.JobID
	}
	return out
}

func TestStore_UpdateJobStatus(t *testing.T) {
	ctx := testContext()
	store := NewStore()
	if err := store.SaveJob(ctx, &jobs.DistributeJob{JobID: "j1", Status: jobs.JobStatusPending}); err != nil {
		t.Fatal(err)
	}

	if err := store.UpdateJobStatus(ctx, "j1", jobs.JobStatusRunning, ""); err != nil {
		t.Fatalf("UpdateJobStatus(running) error: %v", err)
	}
	job, _ := store.GetJob(ctx, "j1")
	if job.Status != jobs.JobStatusRunning || job.StartedAt == nil || job.CompletedAt != nil {
		t.Errorf("running job = %+v", job)
	}

	if err := store.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "no email"); err != nil {
		t.Fatalf("UpdateJobStatus(failed) error: %v", err)
	}
	job, _ = store.GetJob(ctx, "j1")
	if job.Status != jobs.JobStatusFailed || job.Error != "no email" || job.CompletedAt == nil {
		t.Errorf("failed job = %+v", job)
	}

	err := store.UpdateJobStatus(ctx, "missing", jobs.JobStatusCompleted, "")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("error = %v, want ErrJobNotFound", err)
	}
}
