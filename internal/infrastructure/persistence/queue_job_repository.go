package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/dropship/backend/internal/domain/queue"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormQueueJobRepository implements queue.Store using GORM.
// Claim is a conditional update, so any number of workers may share the table.
type GormQueueJobRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormQueueJobRepository creates a new GormQueueJobRepository
func NewGormQueueJobRepository(db *gorm.DB) *GormQueueJobRepository {
	return &GormQueueJobRepository{db: db, now: time.Now}
}

// Enqueue inserts a pending job
func (r *GormQueueJobRepository) Enqueue(ctx context.Context, job *queue.QueueJob) error {
	var model models.QueueJobModel
	model.FromDomain(job)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Get finds a job by ID
func (r *GormQueueJobRepository) Get(ctx context.Context, id uuid.UUID) (*queue.QueueJob, error) {
	var model models.QueueJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FetchPending returns pending jobs by priority, then age
func (r *GormQueueJobRepository) FetchPending(ctx context.Context, limit int) ([]*queue.QueueJob, error) {
	var rows []models.QueueJobModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", queue.JobStatusPending).
		Order("priority DESC, created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	jobs := make([]*queue.QueueJob, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, rows[i].ToDomain())
	}
	return jobs, nil
}

// Claim moves a pending job to processing; false means another worker won
func (r *GormQueueJobRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.QueueJobModel{}).
		Where("id = ? AND status = ?", id, queue.JobStatusPending).
		Updates(map[string]any{
			"status":     queue.JobStatusProcessing,
			"updated_at": r.now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Save writes the outcome of an attempt on a job that is still processing
func (r *GormQueueJobRepository) Save(ctx context.Context, job *queue.QueueJob) error {
	if job.Status == queue.JobStatusProcessing || !queue.JobStatusProcessing.CanTransitionTo(job.Status) {
		return shared.ErrInvalidState
	}
	updatedAt := job.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now()
	}
	return r.transition(ctx, job.ID, map[string]any{
		"status":       job.Status,
		"retry_count":  job.RetryCount,
		"last_error":   job.LastError,
		"updated_at":   updatedAt,
		"completed_at": job.CompletedAt,
	})
}

// transition applies updates to a job that is currently processing
func (r *GormQueueJobRepository) transition(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.QueueJobModel{}).
		Where("id = ? AND status = ?", id, queue.JobStatusProcessing).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&models.QueueJobModel{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrInvalidState
	}
	return nil
}
