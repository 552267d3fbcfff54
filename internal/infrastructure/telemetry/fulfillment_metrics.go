package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// FulfillmentMetrics records saga, gateway and queue-worker metrics.
// It satisfies the recorder interfaces of the orchestrator, the forwarder
// gateway and the adaptive queue worker.
type FulfillmentMetrics struct {
	stepTotal         *Counter
	transitionTotal   *Counter
	rateFallbackTotal *Counter
	jobsTotal         *Counter
	workerDelay       *Gauge
	breakerTrips      *Counter
}

// NewFulfillmentMetrics creates the instruments on meter
func NewFulfillmentMetrics(meter metric.Meter) (*FulfillmentMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &FulfillmentMetrics{}
	var err error

	if m.stepTotal, err = NewCounter(meter,
		"fulfillment_step_total",
		"Saga step outcomes",
		"{steps}",
	); err != nil {
		return nil, err
	}
	if m.transitionTotal, err = NewCounter(meter,
		"fulfillment_order_transitions_total",
		"Order status transitions",
		"{transitions}",
	); err != nil {
		return nil, err
	}
	if m.rateFallbackTotal, err = NewCounter(meter,
		"forwarder_rate_fallback_total",
		"Rate quotes answered by the fallback estimate",
		"{quotes}",
	); err != nil {
		return nil, err
	}
	if m.jobsTotal, err = NewCounter(meter,
		"queue_jobs_processed_total",
		"Queue jobs processed by outcome",
		"{jobs}",
	); err != nil {
		return nil, err
	}
	if m.workerDelay, err = NewGauge(meter,
		"queue_worker_delay_ms",
		"Current inter-job delay of the adaptive queue worker",
		"ms",
	); err != nil {
		return nil, err
	}
	if m.breakerTrips, err = NewCounter(meter,
		"queue_worker_breaker_trips_total",
		"Times the queue worker breaker paused processing",
		"{trips}",
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordStep counts one saga step outcome
func (m *FulfillmentMetrics) RecordStep(ctx context.Context, step string, success bool) {
	m.stepTotal.Inc(ctx, AttrStep.String(step), AttrSuccess.Bool(success))
}

// RecordTransition counts one order status change
func (m *FulfillmentMetrics) RecordTransition(ctx context.Context, status string) {
	m.transitionTotal.Inc(ctx, AttrStatus.String(status))
}

// RecordRateFallback counts one estimated rate quote
func (m *FulfillmentMetrics) RecordRateFallback(ctx context.Context, provider, reason string) {
	m.rateFallbackTotal.Inc(ctx, AttrProvider.String(provider), AttrReason.String(reason))
}

// RecordJob counts one processed queue job
func (m *FulfillmentMetrics) RecordJob(ctx context.Context, outcome string) {
	m.jobsTotal.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordDelay publishes the worker's current delay
func (m *FulfillmentMetrics) RecordDelay(ctx context.Context, delay time.Duration) {
	m.workerDelay.Record(ctx, delay.Milliseconds())
}

// RecordBreakerTrip counts one breaker pause
func (m *FulfillmentMetrics) RecordBreakerTrip(ctx context.Context) {
	m.breakerTrips.Inc(ctx)
}
