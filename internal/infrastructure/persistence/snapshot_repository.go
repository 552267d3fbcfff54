package persistence

import (
	"context"
	"errors"

	"github.com/dropship/backend/internal/domain/queue"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSnapshotRepository implements queue.SnapshotStore using GORM
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// UpsertSnapshot inserts or replaces the snapshot of a subject
func (r *GormSnapshotRepository) UpsertSnapshot(ctx context.Context, snapshot *queue.ProductSnapshot) error {
	var model models.ProductSnapshotModel
	model.FromDomain(snapshot)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_key"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// GetSnapshot finds the snapshot of a subject
func (r *GormSnapshotRepository) GetSnapshot(ctx context.Context, subjectKey string) (*queue.ProductSnapshot, error) {
	var model models.ProductSnapshotModel
	if err := r.db.WithContext(ctx).First(&model, "subject_key = ?", subjectKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
