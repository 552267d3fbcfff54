package fulfillment

import (
	"time"

	"github.com/dropship/backend/internal/domain/shared"
)

// StepRecord is one entry of the append-only step log
type StepRecord struct {
	Step        StepName
	Success     bool
	ReferenceID string
	Error       string
	// Attempt counts records of the same step, starting at 1
	Attempt   int
	Timestamp time.Time
}

// OrderWorkflow is the durable saga state of one order.
// It is created on order detection and mutated only by the orchestrator.
type OrderWorkflow struct {
	shared.BaseAggregateRoot
	OrderID             string
	Marketplace         string
	Provider            string
	Status              OrderStatus
	Steps               []StepRecord
	PurchaseID          string
	ShipmentID          string
	TrackingNumber      string
	EstimatedPickupDate *time.Time
	ErrorMessage        string
	DeliveredAt         *time.Time
	// LastTrackedAt is the last delivery poll that found the order in transit
	LastTrackedAt *time.Time
	// Order is the input the saga was started with; resumed runs reuse it
	Order FulfillmentOrder
}

// NewOrderWorkflow creates a RECEIVED workflow for order
func NewOrderWorkflow(order FulfillmentOrder, now time.Time) (*OrderWorkflow, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return &OrderWorkflow{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		OrderID:           order.OrderID,
		Marketplace:       order.Marketplace,
		Provider:          order.ProviderName,
		Status:            OrderStatusReceived,
		Steps:             make([]StepRecord, 0, len(StepSequence)),
		Order:             order,
	}, nil
}

// RecordStep appends an outcome for step.
// A step that already succeeded accepts no further records.
func (w *OrderWorkflow) RecordStep(step StepName, success bool, referenceID, errMsg string, now time.Time) error {
	if !step.IsValid() {
		return shared.NewDomainError("INVALID_STEP", "unknown step "+string(step))
	}
	if w.StepSucceeded(step) {
		return ErrStepAlreadySucceeded
	}
	w.Steps = append(w.Steps, StepRecord{
		Step:        step,
		Success:     success,
		ReferenceID: referenceID,
		Error:       errMsg,
		Attempt:     w.StepAttempts(step) + 1,
		Timestamp:   now,
	})
	w.Touch(now)
	return nil
}

// StepOutcome returns the latest record for step
func (w *OrderWorkflow) StepOutcome(step StepName) (StepRecord, bool) {
	for i := len(w.Steps) - 1; i >= 0; i-- {
		if w.Steps[i].Step == step {
			return w.Steps[i], true
		}
	}
	return StepRecord{}, false
}

// StepSucceeded returns true once any record for step succeeded
func (w *OrderWorkflow) StepSucceeded(step StepName) bool {
	for _, r := range w.Steps {
		if r.Step == step && r.Success {
			return true
		}
	}
	return false
}

// StepAttempts counts records for step
func (w *OrderWorkflow) StepAttempts(step StepName) int {
	n := 0
	for _, r := range w.Steps {
		if r.Step == step {
			n++
		}
	}
	return n
}

// LastSuccessfulStep returns the most recently succeeded step
func (w *OrderWorkflow) LastSuccessfulStep() (StepName, bool) {
	for i := len(w.Steps) - 1; i >= 0; i-- {
		if w.Steps[i].Success {
			return w.Steps[i].Step, true
		}
	}
	return "", false
}

// LatestSteps returns the latest outcome of every recorded step
func (w *OrderWorkflow) LatestSteps() map[StepName]StepRecord {
	latest := make(map[StepName]StepRecord, len(StepSequence))
	for _, r := range w.Steps {
		latest[r.Step] = r
	}
	return latest
}

// TransitionTo moves the workflow through the status table
func (w *OrderWorkflow) TransitionTo(target OrderStatus, now time.Time) error {
	if !w.Status.CanTransitionTo(target) {
		return &TransitionError{OrderID: w.OrderID, From: w.Status, To: target}
	}
	w.Status = target
	w.Touch(now)
	return nil
}

// ---------------------------------------------------------------------------
// Saga step outcomes
// ---------------------------------------------------------------------------

// Abort records a failed step and moves the workflow to FAILED
func (w *OrderWorkflow) Abort(step StepName, errMsg string, now time.Time) error {
	if !w.Status.CanTransitionTo(OrderStatusFailed) {
		return &TransitionError{OrderID: w.OrderID, From: w.Status, To: OrderStatusFailed}
	}
	if err := w.RecordStep(step, false, "", errMsg, now); err != nil {
		return err
	}
	if err := w.TransitionTo(OrderStatusFailed, now); err != nil {
		return err
	}
	w.ErrorMessage = errMsg
	return nil
}

// MarkPurchased records the supplier purchase and advances to PROCESSING
func (w *OrderWorkflow) MarkPurchased(purchaseID string, now time.Time) error {
	if w.Status != OrderStatusReceived {
		return &TransitionError{OrderID: w.OrderID, From: w.Status, To: OrderStatusProcessing}
	}
	if err := w.RecordStep(StepSupplierPurchase, true, purchaseID, "", now); err != nil {
		return err
	}
	w.PurchaseID = purchaseID
	return w.TransitionTo(OrderStatusProcessing, now)
}

// MarkBooked records the forwarder booking; the status stays PROCESSING
func (w *OrderWorkflow) MarkBooked(shipmentID, trackingNumber string, pickup *time.Time, now time.Time) error {
	if w.Status != OrderStatusProcessing {
		return shared.ErrInvalidState
	}
	if err := w.RecordStep(StepForwarderInstruction, true, shipmentID, "", now); err != nil {
		return err
	}
	w.ShipmentID = shipmentID
	w.TrackingNumber = trackingNumber
	w.EstimatedPickupDate = pickup
	w.ErrorMessage = ""
	return nil
}

// MarkBookingFailed records a failed booking. The purchase exists, so the
// order stays PROCESSING and can be retried.
func (w *OrderWorkflow) MarkBookingFailed(errMsg string, now time.Time) error {
	if w.Status != OrderStatusProcessing {
		return shared.ErrInvalidState
	}
	if err := w.RecordStep(StepForwarderInstruction, false, "", errMsg, now); err != nil {
		return err
	}
	w.ErrorMessage = errMsg
	return nil
}

// MarkTrackingSynced records the marketplace push and advances to SHIPPED
func (w *OrderWorkflow) MarkTrackingSynced(trackingNumber string, now time.Time) error {
	if w.Status != OrderStatusProcessing || !w.StepSucceeded(StepForwarderInstruction) {
		return &TransitionError{OrderID: w.OrderID, From: w.Status, To: OrderStatusShipped}
	}
	if err := w.RecordStep(StepTrackingSync, true, trackingNumber, "", now); err != nil {
		return err
	}
	w.TrackingNumber = trackingNumber
	return w.TransitionTo(OrderStatusShipped, now)
}

// MarkTrackingSyncFailed records a failed push without touching the shipment
func (w *OrderWorkflow) MarkTrackingSyncFailed(trackingNumber, errMsg string, now time.Time) error {
	if w.Status != OrderStatusProcessing {
		return shared.ErrInvalidState
	}
	return w.RecordStep(StepTrackingSync, false, trackingNumber, errMsg, now)
}

// MarkDelivered moves a SHIPPED order to DELIVERED
func (w *OrderWorkflow) MarkDelivered(now time.Time) error {
	if err := w.TransitionTo(OrderStatusDelivered, now); err != nil {
		return err
	}
	delivered := now
	w.DeliveredAt = &delivered
	return nil
}

// MarkTrackingChecked stamps a delivery poll of a SHIPPED order. It does not
// touch UpdatedAt, which tracks state changes only.
func (w *OrderWorkflow) MarkTrackingChecked(now time.Time) error {
	if w.Status != OrderStatusShipped {
		return shared.ErrInvalidState
	}
	checked := now
	w.LastTrackedAt = &checked
	return nil
}

// AwaitingShipmentRetry is true for PROCESSING orders without a successful booking
func (w *OrderWorkflow) AwaitingShipmentRetry() bool {
	return w.Status == OrderStatusProcessing && !w.StepSucceeded(StepForwarderInstruction)
}

// AwaitingTrackingSync is true for booked PROCESSING orders not yet synced
func (w *OrderWorkflow) AwaitingTrackingSync() bool {
	return w.Status == OrderStatusProcessing &&
		w.StepSucceeded(StepForwarderInstruction) &&
		!w.StepSucceeded(StepTrackingSync)
}
