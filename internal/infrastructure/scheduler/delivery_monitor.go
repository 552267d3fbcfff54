package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	app "github.com/dropship/backend/internal/application/fulfillment"
	"github.com/dropship/backend/internal/domain/fulfillment"
)

// ShippedOrderLister lists workflows waiting for delivery
type ShippedOrderLister interface {
	FindByStatus(ctx context.Context, status fulfillment.OrderStatus, limit int) ([]*fulfillment.OrderWorkflow, error)
}

// DeliveryChecker polls one order's tracking and records delivery
type DeliveryChecker interface {
	MonitorDelivery(ctx context.Context, orderID, providerName, trackingNumber string) (*app.DeliveryCheck, error)
}

// DeliveryMonitorConfig holds configuration for the delivery monitor
type DeliveryMonitorConfig struct {
	Interval  time.Duration
	BatchSize int
	// CheckTimeout bounds a single tracking poll
	CheckTimeout time.Duration
}

// DefaultDeliveryMonitorConfig polls up to 50 shipped orders every 30 minutes
func DefaultDeliveryMonitorConfig() DeliveryMonitorConfig {
	return DeliveryMonitorConfig{
		Interval:     30 * time.Minute,
		BatchSize:    50,
		CheckTimeout: 30 * time.Second,
	}
}

// Validate validates the configuration
func (c DeliveryMonitorConfig) Validate() error {
	if c.Interval <= 0 || c.BatchSize <= 0 || c.CheckTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// DeliverySweep summarises one pass over shipped orders
type DeliverySweep struct {
	Checked   int
	Delivered int
	Failed    int
}

// DeliveryMonitor periodically checks SHIPPED orders with their forwarder
// and moves delivered ones to DELIVERED.
type DeliveryMonitor struct {
	orders  ShippedOrderLister
	checker DeliveryChecker
	config  DeliveryMonitorConfig
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastSweep DeliverySweep
}

// NewDeliveryMonitor creates a new delivery monitor
func NewDeliveryMonitor(
	orders ShippedOrderLister,
	checker DeliveryChecker,
	config DeliveryMonitorConfig,
	logger *zap.Logger,
) (*DeliveryMonitor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &DeliveryMonitor{
		orders:  orders,
		checker: checker,
		config:  config,
		logger:  logger,
	}, nil
}

// Start runs a sweep immediately and then every Interval
func (m *DeliveryMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runLoop(ctx)

	m.logger.Info("Delivery monitor started",
		zap.Duration("interval", m.config.Interval),
		zap.Int("batch_size", m.config.BatchSize),
	)
	return nil
}

// Stop stops the monitor and waits for the current sweep
func (m *DeliveryMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.isRunning = false
	cancel := m.cancel
	m.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Delivery monitor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastSweep returns the result of the most recent sweep
func (m *DeliveryMonitor) LastSweep() DeliverySweep {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSweep
}

func (m *DeliveryMonitor) runLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := m.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("Delivery sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep checks one batch of shipped orders. Errors on individual orders are
// logged and counted; only a failure to list orders is returned.
func (m *DeliveryMonitor) Sweep(ctx context.Context) (DeliverySweep, error) {
	var sweep DeliverySweep

	orders, err := m.orders.FindByStatus(ctx, fulfillment.OrderStatusShipped, m.config.BatchSize)
	if err != nil {
		return sweep, err
	}

	for _, wf := range orders {
		if ctx.Err() != nil {
			break
		}
		sweep.Checked++

		checkCtx, cancel := context.WithTimeout(ctx, m.config.CheckTimeout)
		check, err := m.checker.MonitorDelivery(checkCtx, wf.OrderID, "", "")
		cancel()
		if err != nil {
			sweep.Failed++
			m.logger.Warn("Delivery check failed",
				zap.String("order_id", wf.OrderID),
				zap.String("provider", wf.Provider),
				zap.Error(err),
			)
			continue
		}
		if check.Delivered {
			sweep.Delivered++
		}
	}

	m.mu.Lock()
	m.lastSweep = sweep
	m.mu.Unlock()

	if sweep.Checked > 0 {
		m.logger.Info("Delivery sweep completed",
			zap.Int("checked", sweep.Checked),
			zap.Int("delivered", sweep.Delivered),
			zap.Int("failed", sweep.Failed),
		)
	}
	return sweep, ctx.Err()
}
