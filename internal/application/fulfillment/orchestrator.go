package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ForwarderGateway is the subset of the forwarder gateway the saga uses
type ForwarderGateway interface {
	GetWarehouseAddress(ctx context.Context, providerName, country string) *forwarder.ShippingAddress
	CreateShipment(ctx context.Context, providerName string, instr *forwarder.ShipmentInstruction) (*forwarder.ShipmentResult, error)
	GetTracking(ctx context.Context, providerName, trackingNumber string) (*forwarder.TrackingInfo, error)
}

// MetricsRecorder receives saga step outcomes and status transitions
type MetricsRecorder interface {
	RecordStep(ctx context.Context, step string, success bool)
	RecordTransition(ctx context.Context, status string)
}

// Config holds orchestrator settings
type Config struct {
	// RemoveBranding is the default for orders that do not set it
	RemoveBranding bool
	// MaxTrackingSyncAttempts bounds tracking_sync records per order
	MaxTrackingSyncAttempts int
}

// DefaultConfig removes branding and allows five tracking sync attempts
func DefaultConfig() Config {
	return Config{
		RemoveBranding:          true,
		MaxTrackingSyncAttempts: 5,
	}
}

// Orchestrator runs the DDP fulfillment saga:
// order_detection, warehouse_resolution, supplier_purchase,
// forwarder_instruction, tracking_sync.
//
// The workflow is saved after every step. Step failures are recorded on the
// workflow and returned as state, not as errors; Process only returns an
// error when the input is invalid or the workflow cannot be loaded or saved.
type Orchestrator struct {
	repo      fulfillment.WorkflowRepository
	gateway   ForwarderGateway
	purchaser fulfillment.SupplierPurchaser
	syncer    fulfillment.TrackingSyncer
	cfg       Config
	logger    *zap.Logger

	locker   fulfillment.OrderLocker
	archiver fulfillment.ReceiptArchiver
	metrics  MetricsRecorder
	now      func() time.Time
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	repo fulfillment.WorkflowRepository,
	gateway ForwarderGateway,
	purchaser fulfillment.SupplierPurchaser,
	syncer fulfillment.TrackingSyncer,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.MaxTrackingSyncAttempts <= 0 {
		cfg.MaxTrackingSyncAttempts = DefaultConfig().MaxTrackingSyncAttempts
	}
	return &Orchestrator{
		repo:      repo,
		gateway:   gateway,
		purchaser: purchaser,
		syncer:    syncer,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// WithLocker serialises runs per order through locker
func (o *Orchestrator) WithLocker(locker fulfillment.OrderLocker) *Orchestrator {
	o.locker = locker
	return o
}

// WithArchiver stores booking receipts through archiver
func (o *Orchestrator) WithArchiver(archiver fulfillment.ReceiptArchiver) *Orchestrator {
	o.archiver = archiver
	return o
}

// WithMetrics sets the metrics recorder
func (o *Orchestrator) WithMetrics(metrics MetricsRecorder) *Orchestrator {
	o.metrics = metrics
	return o
}

// WithClock replaces the wall clock used for step timestamps
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// stepOutcome tells the saga loop whether to run the next step
type stepOutcome int

const (
	stepContinue stepOutcome = iota
	stepHalt
)

// sagaStep is one row of the saga table
type sagaStep struct {
	name fulfillment.StepName
	run  func(ctx context.Context, r *sagaRun) (stepOutcome, error)
}

// sagaRun carries per-invocation state between steps
type sagaRun struct {
	wf        *fulfillment.OrderWorkflow
	warehouse *forwarder.ShippingAddress
	log       *zap.Logger
}

func (o *Orchestrator) sagaSteps() []sagaStep {
	return []sagaStep{
		{name: fulfillment.StepOrderDetection, run: o.detectOrder},
		{name: fulfillment.StepWarehouseResolution, run: o.resolveWarehouse},
		{name: fulfillment.StepSupplierPurchase, run: o.purchase},
		{name: fulfillment.StepForwarderInstruction, run: o.instructForwarder},
		{name: fulfillment.StepTrackingSync, run: o.syncTracking},
	}
}

// stepsFrom returns the saga table starting at name
func (o *Orchestrator) stepsFrom(name fulfillment.StepName) []sagaStep {
	steps := o.sagaSteps()
	for i, step := range steps {
		if step.name == name {
			return steps[i:]
		}
	}
	return nil
}

// Process runs the saga for order. A new order starts at order_detection; an
// order still RECEIVED resumes at its first unfinished step; an order that is
// PROCESSING or later, or FAILED, is returned unchanged.
func (o *Orchestrator) Process(ctx context.Context, order fulfillment.FulfillmentOrder) (*fulfillment.OrderWorkflow, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	release, err := o.lock(ctx, order.OrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	wf, err := fulfillment.NewOrderWorkflow(order, o.now())
	if err != nil {
		return nil, err
	}
	created, err := o.repo.Create(ctx, wf)
	if err != nil {
		return nil, fmt.Errorf("create workflow for order %s: %w", order.OrderID, err)
	}

	log := o.logger.With(zap.String("order_id", order.OrderID), zap.String("provider", order.ProviderName))
	if !created {
		wf, err = o.repo.FindByOrderID(ctx, order.OrderID)
		if err != nil {
			return nil, fmt.Errorf("load workflow for order %s: %w", order.OrderID, err)
		}
		if wf.Status != fulfillment.OrderStatusReceived {
			log.Info("order already past detection, returning stored state", zap.String("status", wf.Status.String()))
			return wf, nil
		}
		log.Info("resuming received order")
	} else {
		o.recordTransition(ctx, wf.Status)
	}

	run := &sagaRun{wf: wf, log: log}
	if err := o.runSteps(ctx, run, o.sagaSteps()); err != nil {
		return wf, err
	}
	return wf, nil
}

// RetryShipment re-attempts booking for a PROCESSING order whose booking
// failed, then syncs tracking when a number is issued.
func (o *Orchestrator) RetryShipment(ctx context.Context, orderID string) (*fulfillment.OrderWorkflow, error) {
	release, err := o.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	wf, err := o.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !wf.AwaitingShipmentRetry() {
		return wf, fmt.Errorf("%w: order %s is %s", fulfillment.ErrNotRetryable, orderID, wf.Status)
	}

	run := &sagaRun{
		wf:  wf,
		log: o.logger.With(zap.String("order_id", orderID), zap.String("provider", wf.Provider)),
	}
	run.log.Info("retrying forwarder instruction", zap.Int("attempt", wf.StepAttempts(fulfillment.StepForwarderInstruction)+1))

	if err := o.runSteps(ctx, run, o.stepsFrom(fulfillment.StepForwarderInstruction)); err != nil {
		return wf, err
	}
	return wf, nil
}

// RetryTrackingSync pushes tracking for a booked order that is not SHIPPED yet.
// trackingNumber may supply a number the forwarder issued after booking.
func (o *Orchestrator) RetryTrackingSync(ctx context.Context, orderID, trackingNumber string) (*fulfillment.OrderWorkflow, error) {
	release, err := o.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	wf, err := o.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !wf.AwaitingTrackingSync() {
		return wf, fmt.Errorf("%w: order %s is %s", fulfillment.ErrNotRetryable, orderID, wf.Status)
	}
	if wf.StepAttempts(fulfillment.StepTrackingSync) >= o.cfg.MaxTrackingSyncAttempts {
		return wf, fmt.Errorf("%w: order %s after %d attempts",
			fulfillment.ErrTrackingSyncExhausted, orderID, o.cfg.MaxTrackingSyncAttempts)
	}

	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber != "" && wf.TrackingNumber != "" && trackingNumber != wf.TrackingNumber {
		return wf, fmt.Errorf("%w: order %s already has tracking number %s",
			shared.ErrInvalidInput, orderID, wf.TrackingNumber)
	}
	if trackingNumber == "" {
		trackingNumber = wf.TrackingNumber
	}
	if trackingNumber == "" {
		return wf, fmt.Errorf("%w: order %s", fulfillment.ErrNoTrackingNumber, orderID)
	}

	run := &sagaRun{
		wf:  wf,
		log: o.logger.With(zap.String("order_id", orderID), zap.String("provider", wf.Provider)),
	}
	if _, err := o.pushTracking(ctx, run, trackingNumber); err != nil {
		return wf, err
	}
	return wf, o.save(ctx, wf)
}

// DeliveryCheck is the result of MonitorDelivery
type DeliveryCheck struct {
	Tracking  *forwarder.TrackingInfo
	Order     *fulfillment.OrderWorkflow
	Delivered bool
}

// MonitorDelivery polls the forwarder and moves a SHIPPED order to DELIVERED
// once the provider reports delivery. Empty provider and tracking number fall
// back to the values stored on the workflow.
func (o *Orchestrator) MonitorDelivery(ctx context.Context, orderID, providerName, trackingNumber string) (*DeliveryCheck, error) {
	wf, err := o.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if providerName == "" {
		providerName = wf.Provider
	}
	if trackingNumber == "" {
		trackingNumber = wf.TrackingNumber
	}
	if trackingNumber == "" {
		return nil, fmt.Errorf("%w: order %s", fulfillment.ErrNoTrackingNumber, orderID)
	}

	info, err := o.gateway.GetTracking(ctx, providerName, trackingNumber)
	if err != nil {
		return nil, err
	}

	check := &DeliveryCheck{Tracking: info, Order: wf}
	if wf.Status != fulfillment.OrderStatusShipped {
		return check, nil
	}
	if info.Status != forwarder.TrackingStatusDelivered {
		o.stampTrackingCheck(ctx, wf)
		return check, nil
	}

	if err := wf.MarkDelivered(o.now()); err != nil {
		return nil, err
	}
	if err := o.save(ctx, wf); err != nil {
		return nil, err
	}
	o.recordTransition(ctx, wf.Status)
	o.logger.Info("order delivered",
		zap.String("order_id", orderID),
		zap.String("tracking_number", trackingNumber),
	)
	check.Delivered = true
	return check, nil
}

// stampTrackingCheck records the poll so sweeps move on to other orders.
// A failed save only delays rotation and is not returned.
func (o *Orchestrator) stampTrackingCheck(ctx context.Context, wf *fulfillment.OrderWorkflow) {
	if err := wf.MarkTrackingChecked(o.now()); err != nil {
		return
	}
	if err := o.save(ctx, wf); err != nil {
		o.logger.Warn("failed to record tracking check", zap.String("order_id", wf.OrderID), zap.Error(err))
	}
}

// GetOrder returns the stored workflow for operators
func (o *Orchestrator) GetOrder(ctx context.Context, orderID string) (*fulfillment.OrderWorkflow, error) {
	return o.repo.FindByOrderID(ctx, orderID)
}

// ---------------------------------------------------------------------------
// Saga loop
// ---------------------------------------------------------------------------

// runSteps executes steps in order, skipping those that already succeeded,
// and saves the workflow after each one
func (o *Orchestrator) runSteps(ctx context.Context, r *sagaRun, steps []sagaStep) error {
	for _, step := range steps {
		if r.wf.StepSucceeded(step.name) {
			continue
		}
		before := r.wf.Status
		outcome, err := o.runStep(ctx, r, step)
		if err != nil {
			return fmt.Errorf("step %s for order %s: %w", step.name, r.wf.OrderID, err)
		}
		if err := o.save(ctx, r.wf); err != nil {
			return err
		}
		if r.wf.Status != before {
			o.recordTransition(ctx, r.wf.Status)
		}
		if outcome == stepHalt {
			return nil
		}
	}
	return nil
}

func (o *Orchestrator) runStep(ctx context.Context, r *sagaRun, step sagaStep) (stepOutcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "fulfillment."+step.name.String(),
		attribute.String(telemetry.SpanAttrOrderID, r.wf.OrderID),
		attribute.String(telemetry.SpanAttrProvider, r.wf.Provider),
	)
	outcome, err := step.run(ctx, r)
	telemetry.EndSpan(span, err)
	return outcome, err
}

func (o *Orchestrator) detectOrder(ctx context.Context, r *sagaRun) (stepOutcome, error) {
	if err := r.wf.RecordStep(fulfillment.StepOrderDetection, true, r.wf.OrderID, "", o.now()); err != nil {
		return stepHalt, err
	}
	o.recordStep(ctx, fulfillment.StepOrderDetection, true)
	r.log.Info("order detected", zap.String("marketplace", r.wf.Marketplace))
	return stepContinue, nil
}

func (o *Orchestrator) resolveWarehouse(ctx context.Context, r *sagaRun) (stepOutcome, error) {
	country := strings.ToUpper(r.wf.Order.SourceCountry)
	r.warehouse = o.gateway.GetWarehouseAddress(ctx, r.wf.Provider, country)
	if r.warehouse == nil {
		missing := &forwarder.WarehouseNotFoundError{Provider: r.wf.Provider, Country: country}
		r.log.Error("warehouse resolution failed", zap.Error(missing))
		o.recordStep(ctx, fulfillment.StepWarehouseResolution, false)
		return stepHalt, r.wf.Abort(fulfillment.StepWarehouseResolution, missing.Error(), o.now())
	}

	if err := r.wf.RecordStep(fulfillment.StepWarehouseResolution, true, country, "", o.now()); err != nil {
		return stepHalt, err
	}
	o.recordStep(ctx, fulfillment.StepWarehouseResolution, true)
	return stepContinue, nil
}

func (o *Orchestrator) purchase(ctx context.Context, r *sagaRun) (stepOutcome, error) {
	if r.warehouse == nil {
		// resumed run: warehouse_resolution succeeded in an earlier invocation
		if outcome, err := o.resolveWarehouseAgain(ctx, r); outcome == stepHalt {
			return outcome, err
		}
	}

	order := r.wf.Order
	result, err := o.purchaser.Purchase(ctx, &fulfillment.PurchaseRequest{
		OrderID:           order.OrderID,
		SupplierProductID: order.SupplierProductID,
		Quantity:          order.Quantity,
		ShipTo:            *r.warehouse,
	})
	if err != nil {
		r.log.Error("supplier purchase failed", zap.Error(err))
		o.recordStep(ctx, fulfillment.StepSupplierPurchase, false)
		return stepHalt, r.wf.Abort(fulfillment.StepSupplierPurchase, err.Error(), o.now())
	}

	if err := r.wf.MarkPurchased(result.PurchaseID, o.now()); err != nil {
		return stepHalt, err
	}
	o.recordStep(ctx, fulfillment.StepSupplierPurchase, true)
	r.log.Info("supplier purchase placed", zap.String("purchase_id", result.PurchaseID))
	return stepContinue, nil
}

func (o *Orchestrator) resolveWarehouseAgain(ctx context.Context, r *sagaRun) (stepOutcome, error) {
	country := strings.ToUpper(r.wf.Order.SourceCountry)
	r.warehouse = o.gateway.GetWarehouseAddress(ctx, r.wf.Provider, country)
	if r.warehouse != nil {
		return stepContinue, nil
	}
	missing := &forwarder.WarehouseNotFoundError{Provider: r.wf.Provider, Country: country}
	r.log.Error("warehouse disappeared before purchase", zap.Error(missing))
	o.recordStep(ctx, fulfillment.StepSupplierPurchase, false)
	return stepHalt, r.wf.Abort(fulfillment.StepSupplierPurchase, missing.Error(), o.now())
}

func (o *Orchestrator) instructForwarder(ctx context.Context, r *sagaRun) (stepOutcome, error) {
	order := r.wf.Order
	instr := &forwarder.ShipmentInstruction{
		OrderID:            order.OrderID,
		ProviderName:       r.wf.Provider,
		ServiceType:        forwarder.ServiceTypeDDP,
		SourceCountry:      strings.ToUpper(order.SourceCountry),
		DestinationAddress: order.DestinationAddress,
		WeightGrams:        order.WeightGrams,
		DeclaredValue:      order.DeclaredValue,
		Currency:           order.Currency,
		ClassificationCode: order.ClassificationCode,
		RepackInstructions: order.RepackInstructions,
		RemoveBranding:     order.ShouldRemoveBranding(o.cfg.RemoveBranding),
	}

	result, err := o.gateway.CreateShipment(ctx, r.wf.Provider, instr)
	if err != nil {
		r.log.Error("forwarder instruction failed", zap.Error(err))
		o.recordStep(ctx, fulfillment.StepForwarderInstruction, false)
		return stepHalt, r.wf.MarkBookingFailed(err.Error(), o.now())
	}

	if err := r.wf.MarkBooked(result.ShipmentID, result.TrackingNumber, result.EstimatedPickupDate, o.now()); err != nil {
		return stepHalt, err
	}
	o.recordStep(ctx, fulfillment.StepForwarderInstruction, true)
	r.log.Info("forwarder instructed",
		zap.String("shipment_id", result.ShipmentID),
		zap.String("tracking_number", result.TrackingNumber),
	)
	o.archive(ctx, r, result)
	return stepContinue, nil
}

func (o *Orchestrator) syncTracking(ctx context.Context, r *sagaRun) (stepOutcome, error) {
	if r.wf.TrackingNumber == "" {
		r.log.Info("no tracking number issued yet, tracking sync deferred")
		return stepHalt, nil
	}
	return o.pushTracking(ctx, r, r.wf.TrackingNumber)
}

// pushTracking records one tracking_sync attempt. A failed push leaves the
// order PROCESSING with its shipment intact.
func (o *Orchestrator) pushTracking(ctx context.Context, r *sagaRun, trackingNumber string) (stepOutcome, error) {
	err := o.syncer.SyncTracking(ctx, &fulfillment.TrackingSyncRequest{
		OrderID:        r.wf.OrderID,
		Marketplace:    r.wf.Marketplace,
		Carrier:        r.wf.Provider,
		TrackingNumber: trackingNumber,
	})
	if err != nil {
		r.log.Warn("tracking sync failed", zap.String("tracking_number", trackingNumber), zap.Error(err))
		o.recordStep(ctx, fulfillment.StepTrackingSync, false)
		return stepHalt, r.wf.MarkTrackingSyncFailed(trackingNumber, err.Error(), o.now())
	}

	before := r.wf.Status
	if err := r.wf.MarkTrackingSynced(trackingNumber, o.now()); err != nil {
		return stepHalt, err
	}
	o.recordStep(ctx, fulfillment.StepTrackingSync, true)
	if before != r.wf.Status {
		r.log.Info("order shipped", zap.String("tracking_number", trackingNumber))
	}
	return stepContinue, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (o *Orchestrator) save(ctx context.Context, wf *fulfillment.OrderWorkflow) error {
	if err := o.repo.Save(ctx, wf); err != nil {
		return fmt.Errorf("save workflow for order %s: %w", wf.OrderID, err)
	}
	return nil
}

func (o *Orchestrator) lock(ctx context.Context, orderID string) (func(), error) {
	if o.locker == nil {
		return func() {}, nil
	}
	release, err := o.locker.Acquire(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return func() {
		// the caller's context may already be cancelled
		if err := release(context.WithoutCancel(ctx)); err != nil {
			o.logger.Warn("failed to release order lock", zap.String("order_id", orderID), zap.Error(err))
		}
	}, nil
}

func (o *Orchestrator) archive(ctx context.Context, r *sagaRun, result *forwarder.ShipmentResult) {
	if o.archiver == nil {
		return
	}
	if err := o.archiver.ArchiveShipment(ctx, r.wf.OrderID, result); err != nil {
		r.log.Warn("failed to archive shipment receipt", zap.Error(err))
	}
}

func (o *Orchestrator) recordStep(ctx context.Context, step fulfillment.StepName, success bool) {
	if o.metrics != nil {
		o.metrics.RecordStep(ctx, step.String(), success)
	}
}

func (o *Orchestrator) recordTransition(ctx context.Context, status fulfillment.OrderStatus) {
	if o.metrics != nil {
		o.metrics.RecordTransition(ctx, status.String())
	}
}

// IsOperatorError reports errors that describe the order's state rather than
// an infrastructure failure
func IsOperatorError(err error) bool {
	return errors.Is(err, fulfillment.ErrNotRetryable) ||
		errors.Is(err, fulfillment.ErrTrackingSyncExhausted) ||
		errors.Is(err, fulfillment.ErrNoTrackingNumber)
}
