package handler

import (
	"context"
	"time"

	"github.com/dropship/backend/internal/domain/queue"
	"github.com/dropship/backend/internal/infrastructure/logger"
	"github.com/dropship/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStore is the part of the queue store the API writes and reads
type JobStore interface {
	Enqueue(ctx context.Context, job *queue.QueueJob) error
	Get(ctx context.Context, id uuid.UUID) (*queue.QueueJob, error)
}

// QueueHandler lets operators enqueue refresh jobs and inspect them
type QueueHandler struct {
	BaseHandler
	store JobStore
	now   func() time.Time
}

// NewQueueHandler creates a QueueHandler
func NewQueueHandler(store JobStore) *QueueHandler {
	return &QueueHandler{store: store, now: time.Now}
}

// Enqueue handles POST /queue/jobs
func (h *QueueHandler) Enqueue(c *gin.Context) {
	var req dto.EnqueueJobRequest
	if !h.BindJSON(c, &req) {
		return
	}

	job, err := queue.NewQueueJob(req.SubjectKey, req.Priority, h.now().UTC())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.store.Enqueue(c.Request.Context(), job); err != nil {
		h.HandleError(c, err)
		return
	}

	logger.L(c.Request.Context()).Info("queue job enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("subject_key", job.SubjectKey),
		zap.Int("priority", job.Priority),
	)
	h.Created(c, dto.NewJobResponse(job))
}

// Get handles GET /queue/jobs/:id
func (h *QueueHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "job id must be a UUID")
		return
	}

	job, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewJobResponse(job))
}
