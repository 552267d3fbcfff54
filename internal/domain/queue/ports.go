package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store persists queue jobs.
//
// Claim must be atomic: it succeeds for exactly one caller per pending job,
// which is what allows several workers to drain the same queue.
type Store interface {
	Enqueue(ctx context.Context, job *QueueJob) error
	// Get returns shared.ErrNotFound when the job does not exist
	Get(ctx context.Context, id uuid.UUID) (*QueueJob, error)
	// FetchPending returns up to limit pending jobs, priority desc then created_at asc
	FetchPending(ctx context.Context, limit int) ([]*QueueJob, error)
	// Claim moves a job from pending to processing and reports whether this caller won
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	// Save persists the outcome of an attempt (QueueJob.Complete, RecordFailure
	// or Release). It returns shared.ErrInvalidState unless the stored job is
	// still processing.
	Save(ctx context.Context, job *QueueJob) error
}

// ProductSnapshot is the refreshed marketplace record of one subject
type ProductSnapshot struct {
	SubjectKey  string
	Title       string
	Price       decimal.Decimal
	Currency    valueobject.Currency
	Quantity    int
	SoldCount   int
	WatchCount  int
	RefreshedAt time.Time
}

// Refresher calls the marketplace refresh API for one subject
type Refresher interface {
	Refresh(ctx context.Context, subjectKey string) (*ProductSnapshot, error)
}

// SnapshotStore upserts refreshed records
type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, snapshot *ProductSnapshot) error
	// GetSnapshot returns shared.ErrNotFound when the subject was never refreshed
	GetSnapshot(ctx context.Context, subjectKey string) (*ProductSnapshot, error)
}

// JobError is a failure captured on a job record
type JobError struct {
	JobID      uuid.UUID
	SubjectKey string
	Attempt    int
	Err        error
}

// Error implements the error interface
func (e *JobError) Error() string {
	return fmt.Sprintf("queue job %s (%s) attempt %d: %v", e.JobID, e.SubjectKey, e.Attempt, e.Err)
}

// Unwrap returns the underlying error
func (e *JobError) Unwrap() error {
	return e.Err
}
