package persistence

import (
	"context"
	"errors"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWorkflowRepository implements fulfillment.WorkflowRepository using GORM
type GormWorkflowRepository struct {
	db *gorm.DB
}

// NewGormWorkflowRepository creates a new GormWorkflowRepository
func NewGormWorkflowRepository(db *gorm.DB) *GormWorkflowRepository {
	return &GormWorkflowRepository{db: db}
}

// FindByOrderID finds the workflow of an order
func (r *GormWorkflowRepository) FindByOrderID(ctx context.Context, orderID string) (*fulfillment.OrderWorkflow, error) {
	var model models.OrderWorkflowModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Create inserts the workflow unless one exists for the same order
func (r *GormWorkflowRepository) Create(ctx context.Context, wf *fulfillment.OrderWorkflow) (bool, error) {
	model, err := models.OrderWorkflowModelFromDomain(wf)
	if err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Save updates the workflow with optimistic locking and increments its version
func (r *GormWorkflowRepository) Save(ctx context.Context, wf *fulfillment.OrderWorkflow) error {
	currentVersion := wf.Version

	model, err := models.OrderWorkflowModelFromDomain(wf)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.OrderWorkflowModel{}).
		Where("order_id = ? AND version = ?", wf.OrderID, currentVersion).
		Updates(map[string]any{
			"status":                model.Status,
			"provider":              model.Provider,
			"steps":                 model.StepsJSON,
			"purchase_id":           model.PurchaseID,
			"shipment_id":           model.ShipmentID,
			"tracking_number":       model.TrackingNumber,
			"estimated_pickup_date": model.EstimatedPickupDate,
			"error_message":         model.ErrorMessage,
			"delivered_at":          model.DeliveredAt,
			"last_tracked_at":       model.LastTrackedAt,
			"order_payload":         model.OrderJSON,
			"version":               currentVersion + 1,
			"updated_at":            model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&models.OrderWorkflowModel{}).Where("order_id = ?", wf.OrderID).Count(&count)
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}

	wf.IncrementVersion()
	return nil
}

// FindByStatus lists workflows in status. Never-polled workflows come first,
// then the least recently polled, so repeated delivery sweeps rotate through
// every shipped order.
func (r *GormWorkflowRepository) FindByStatus(ctx context.Context, status fulfillment.OrderStatus, limit int) ([]*fulfillment.OrderWorkflow, error) {
	var rows []models.OrderWorkflowModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("last_tracked_at IS NOT NULL, last_tracked_at ASC, updated_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	workflows := make([]*fulfillment.OrderWorkflow, 0, len(rows))
	for i := range rows {
		wf, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, nil
}
