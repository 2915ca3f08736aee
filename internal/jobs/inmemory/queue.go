package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finance-docs/internal/jobs"
	"github.com/dvloznov/finance-docs/internal/logger"
	"github.com/google/uuid"
)

// ErrQueueClosed is returned when publishing to or starting a stopped queue.
var ErrQueueClosed = errors.New("queue is closed")

// DefaultWorkerCount is the number of concurrent workers started by Start.
const DefaultWorkerCount = 2

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// This implementation is suitable for single-instance deployments and testing.
type Queue struct {
	jobChan     chan *jobs.DistributeJob
	wg          sync.WaitGroup
	mu          sync.RWMutex
	store       jobs.JobStore
	workerCount int
	closed      bool
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before PublishDistribute blocks.
func NewQueue(bufferSize int, store jobs.JobStore) *Queue {
	return &Queue{
		jobChan:     make(chan *jobs.DistributeJob, bufferSize),
		store:       store,
		workerCount: DefaultWorkerCount,
	}
}

// PublishDistribute implements the Publisher interface.
func (q *Queue) PublishDistribute(ctx context.Context, job *jobs.DistributeJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	// Generate job ID if not provided
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}

	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	// The channel is closed only under the write lock, so sending while
	// holding the read lock is safe.
	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start implements the Consumer interface.
// The handler is called concurrently for each job, up to DefaultWorkerCount workers.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

// worker processes jobs until the queue is stopped and drained.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for job := range q.jobChan {
		q.processJob(ctx, job, handler)
	}
}

// processJob executes a single job once.
func (q *Queue) processJob(ctx context.Context, job *jobs.DistributeJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx).With().
		Str("job_id", job.JobID).
		Str("document_id", job.DocumentID).
		Logger()

	q.setStatus(ctx, job, jobs.JobStatusRunning, "")

	if err := handler(ctx, job); err != nil {
		q.setStatus(ctx, job, jobs.JobStatusFailed, err.Error())
		log.Error().Err(err).Msg("Distribution job failed")
		return
	}

	q.setStatus(ctx, job, jobs.JobStatusCompleted, "")
	log.Info().Msg("Distribution job completed")
}

// setStatus moves job to status, locally and in the store.
func (q *Queue) setStatus(ctx context.Context, job *jobs.DistributeJob, status jobs.JobStatus, errorMsg string) {
	job.Status = status
	job.Error = errorMsg

	if q.store == nil {
		return
	}
	if err := q.store.UpdateJobStatus(ctx, job.JobID, status, errorMsg); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("job_id", job.JobID).Str("status", string(status)).Msg("Failed to update job status")
	}
}

// Stop implements the Consumer interface.
// Jobs already queued are still processed before the workers exit.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobChan)
	q.mu.Unlock()

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
