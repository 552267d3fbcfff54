package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var workflowNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestWorkflow(t *testing.T, orderID string) *fulfillment.OrderWorkflow {
	t.Helper()
	keepBranding := false
	wf, err := fulfillment.NewOrderWorkflow(fulfillment.FulfillmentOrder{
		OrderID:            orderID,
		Marketplace:        "ebay",
		ProviderName:       "Eloji (UPS)",
		SourceCountry:      "US",
		SupplierProductID:  "B000123",
		Quantity:           2,
		ClassificationCode: "6109100010",
		WeightGrams:        750,
		DeclaredValue:      decimal.RequireFromString("49.99"),
		Currency:           valueobject.USD,
		DestinationAddress: forwarder.ShippingAddress{
			Name:         "Hanako Yamada",
			AddressLine1: "1-2-3 Shibuya",
			City:         "Tokyo",
			PostalCode:   "150-0002",
			Country:      "JP",
		},
		RemoveBranding: &keepBranding,
	}, workflowNow)
	require.NoError(t, err)
	return wf
}

func TestGormWorkflowRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormWorkflowRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestWorkflow(t, "ORD-1"))
	require.NoError(t, err)
	assert.True(t, created)

	t.Run("second create for the same order is a no-op", func(t *testing.T) {
		duplicate := newTestWorkflow(t, "ORD-1")
		duplicate.Provider = "CPass"

		created, err := repo.Create(ctx, duplicate)
		require.NoError(t, err)
		assert.False(t, created)

		stored, err := repo.FindByOrderID(ctx, "ORD-1")
		require.NoError(t, err)
		assert.Equal(t, "Eloji (UPS)", stored.Provider)
	})
}

func TestGormWorkflowRepository_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormWorkflowRepository(db)
	ctx := context.Background()

	wf := newTestWorkflow(t, "ORD-2")
	require.NoError(t, wf.RecordStep(fulfillment.StepOrderDetection, true, "ORD-2", "", workflowNow))
	_, err := repo.Create(ctx, wf)
	require.NoError(t, err)

	later := workflowNow.Add(time.Minute)
	require.NoError(t, wf.RecordStep(fulfillment.StepWarehouseResolution, true, "US", "", later))
	require.NoError(t, wf.MarkPurchased("PO-77", later))
	pickup := workflowNow.Add(48 * time.Hour)
	require.NoError(t, wf.MarkBooked("SHP-9", "1Z999", &pickup, later))
	require.NoError(t, repo.Save(ctx, wf))
	assert.Equal(t, 2, wf.Version)

	stored, err := repo.FindByOrderID(ctx, "ORD-2")
	require.NoError(t, err)

	assert.Equal(t, wf.ID, stored.ID)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, fulfillment.OrderStatusProcessing, stored.Status)
	assert.Equal(t, "PO-77", stored.PurchaseID)
	assert.Equal(t, "SHP-9", stored.ShipmentID)
	assert.Equal(t, "1Z999", stored.TrackingNumber)
	require.NotNil(t, stored.EstimatedPickupDate)
	assert.True(t, pickup.Equal(*stored.EstimatedPickupDate))

	require.Len(t, stored.Steps, 4)
	assert.Equal(t, fulfillment.StepOrderDetection, stored.Steps[0].Step)
	assert.Equal(t, fulfillment.StepForwarderInstruction, stored.Steps[3].Step)
	assert.Equal(t, "SHP-9", stored.Steps[3].ReferenceID)
	assert.Equal(t, 1, stored.Steps[3].Attempt)
	assert.True(t, stored.StepSucceeded(fulfillment.StepSupplierPurchase))

	assert.Equal(t, "B000123", stored.Order.SupplierProductID)
	assert.Equal(t, int64(750), stored.Order.WeightGrams)
	assert.True(t, decimal.RequireFromString("49.99").Equal(stored.Order.DeclaredValue))
	assert.Equal(t, valueobject.USD, stored.Order.Currency)
	assert.Equal(t, "JP", stored.Order.DestinationAddress.Country)
	require.NotNil(t, stored.Order.RemoveBranding)
	assert.False(t, *stored.Order.RemoveBranding)
}

func TestGormWorkflowRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		repo := NewGormWorkflowRepository(setupTestDB(t))
		wf := newTestWorkflow(t, "ORD-3")
		_, err := repo.Create(ctx, wf)
		require.NoError(t, err)

		first, err := repo.FindByOrderID(ctx, "ORD-3")
		require.NoError(t, err)
		second, err := repo.FindByOrderID(ctx, "ORD-3")
		require.NoError(t, err)

		require.NoError(t, first.RecordStep(fulfillment.StepOrderDetection, true, "ORD-3", "", workflowNow))
		require.NoError(t, repo.Save(ctx, first))

		require.NoError(t, second.RecordStep(fulfillment.StepOrderDetection, true, "ORD-3", "", workflowNow))
		err = repo.Save(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, second.Version, "a rejected save leaves the version untouched")
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		repo := NewGormWorkflowRepository(setupTestDB(t))
		err := repo.Save(ctx, newTestWorkflow(t, "ORD-404"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormWorkflowRepository_FindByOrderID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormWorkflowRepository(db)
	ctx := context.Background()

	t.Run("missing order", func(t *testing.T) {
		_, err := repo.FindByOrderID(ctx, "nope")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("corrupt step log is an error", func(t *testing.T) {
		_, err := repo.Create(ctx, newTestWorkflow(t, "ORD-5"))
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.OrderWorkflowModel{}).
			Where("order_id = ?", "ORD-5").
			Update("steps", "{not json").Error)

		_, err = repo.FindByOrderID(ctx, "ORD-5")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode steps")
	})
}

func TestGormWorkflowRepository_FindByStatus(t *testing.T) {
	repo := NewGormWorkflowRepository(setupTestDB(t))
	ctx := context.Background()

	for i, id := range []string{"ORD-A", "ORD-B", "ORD-C"} {
		wf := newTestWorkflow(t, id)
		wf.UpdatedAt = workflowNow.Add(time.Duration(i) * time.Minute)
		_, err := repo.Create(ctx, wf)
		require.NoError(t, err)
	}
	shipped, err := repo.FindByOrderID(ctx, "ORD-B")
	require.NoError(t, err)
	shipped.Status = fulfillment.OrderStatusShipped
	require.NoError(t, repo.Save(ctx, shipped))

	received, err := repo.FindByStatus(ctx, fulfillment.OrderStatusReceived, 10)
	require.NoError(t, err)
	require.Len(t, received, 2)
	assert.Equal(t, "ORD-A", received[0].OrderID)
	assert.Equal(t, "ORD-C", received[1].OrderID)

	onlyShipped, err := repo.FindByStatus(ctx, fulfillment.OrderStatusShipped, 10)
	require.NoError(t, err)
	require.Len(t, onlyShipped, 1)
	assert.Equal(t, "ORD-B", onlyShipped[0].OrderID)
}

func TestGormWorkflowRepository_FindByStatusLeastRecentlyTrackedFirst(t *testing.T) {
	repo := NewGormWorkflowRepository(setupTestDB(t))
	ctx := context.Background()

	tracked := map[string]*time.Time{
		"ORD-A": nil,
		"ORD-B": ptrTime(workflowNow.Add(2 * time.Hour)),
		"ORD-C": ptrTime(workflowNow.Add(time.Hour)),
		"ORD-D": nil,
	}
	for i, id := range []string{"ORD-A", "ORD-B", "ORD-C", "ORD-D"} {
		wf := newTestWorkflow(t, id)
		wf.UpdatedAt = workflowNow.Add(time.Duration(i) * time.Minute)
		_, err := repo.Create(ctx, wf)
		require.NoError(t, err)

		stored, err := repo.FindByOrderID(ctx, id)
		require.NoError(t, err)
		stored.Status = fulfillment.OrderStatusShipped
		if at := tracked[id]; at != nil {
			require.NoError(t, stored.MarkTrackingChecked(*at))
		}
		require.NoError(t, repo.Save(ctx, stored))
	}

	batch, err := repo.FindByStatus(ctx, fulfillment.OrderStatusShipped, 3)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, "ORD-A", batch[0].OrderID)
	assert.Equal(t, "ORD-D", batch[1].OrderID)
	assert.Equal(t, "ORD-C", batch[2].OrderID)
	require.NotNil(t, batch[2].LastTrackedAt)
	assert.True(t, workflowNow.Add(time.Hour).Equal(*batch[2].LastTrackedAt))
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
