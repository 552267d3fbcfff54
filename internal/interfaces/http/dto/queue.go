package dto

import (
	"time"

	"github.com/dropship/backend/internal/domain/queue"
)

// EnqueueJobRequest asks the worker to refresh one marketplace item
type EnqueueJobRequest struct {
	SubjectKey string `json:"subject_key" binding:"required,max=128"`
	Priority   int    `json:"priority" binding:"gte=0,lte=1000"`
}

// JobResponse is the public view of a queue job
type JobResponse struct {
	ID          string     `json:"id"`
	SubjectKey  string     `json:"subject_key"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJobResponse converts a job
func NewJobResponse(j *queue.QueueJob) JobResponse {
	return JobResponse{
		ID:          j.ID.String(),
		SubjectKey:  j.SubjectKey,
		Status:      j.Status.String(),
		Priority:    j.Priority,
		RetryCount:  j.RetryCount,
		LastError:   j.LastError,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		CompletedAt: j.CompletedAt,
	}
}
