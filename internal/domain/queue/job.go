package queue

import (
	"strings"
	"time"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a queue job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsValid checks if the status is a valid JobStatus
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true for completed and failed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusProcessing
	case JobStatusProcessing:
		return target == JobStatusCompleted || target == JobStatusFailed || target == JobStatusPending
	case JobStatusCompleted, JobStatusFailed:
		return false // Terminal states
	}
	return false
}

// QueueJob asks the worker to refresh one marketplace item
type QueueJob struct {
	ID          uuid.UUID
	SubjectKey  string
	Status      JobStatus
	Priority    int
	RetryCount  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// NewQueueJob creates a pending job for subjectKey
func NewQueueJob(subjectKey string, priority int, now time.Time) (*QueueJob, error) {
	subjectKey = strings.TrimSpace(subjectKey)
	if subjectKey == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject key cannot be empty")
	}
	if len(subjectKey) > 128 {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject key cannot exceed 128 characters")
	}
	return &QueueJob{
		ID:         uuid.New(),
		SubjectKey: subjectKey,
		Status:     JobStatusPending,
		Priority:   priority,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Claim moves a pending job to processing
func (j *QueueJob) Claim(now time.Time) error {
	if !j.Status.CanTransitionTo(JobStatusProcessing) {
		return shared.ErrInvalidState
	}
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	return nil
}

// Complete marks a processing job completed
func (j *QueueJob) Complete(now time.Time) error {
	if j.Status != JobStatusProcessing {
		return shared.ErrInvalidState
	}
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	return nil
}

// RecordFailure counts a failed attempt. The job returns to pending, or
// becomes failed once retry_count reaches maxRetries. It reports whether the
// job is now failed.
func (j *QueueJob) RecordFailure(errMsg string, maxRetries int, now time.Time) (bool, error) {
	if j.Status != JobStatusProcessing {
		return false, shared.ErrInvalidState
	}
	j.RetryCount++
	j.LastError = errMsg
	j.UpdatedAt = now
	if exhaustsRetries(j.RetryCount, maxRetries) {
		j.Status = JobStatusFailed
		j.CompletedAt = &now
		return true, nil
	}
	j.Status = JobStatusPending
	return false, nil
}

// Release hands a processing job back to pending without counting an
// attempt. Used when the worker stops before the attempt finished.
func (j *QueueJob) Release(now time.Time) error {
	if j.Status != JobStatusProcessing {
		return shared.ErrInvalidState
	}
	j.Status = JobStatusPending
	j.UpdatedAt = now
	return nil
}

func exhaustsRetries(retryCount, maxRetries int) bool {
	return retryCount >= maxRetries
}
