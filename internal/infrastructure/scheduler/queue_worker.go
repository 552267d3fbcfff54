package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dropship/backend/internal/domain/queue"
)

// Job outcomes reported to WorkerMetrics
const (
	JobOutcomeCompleted = "completed"
	JobOutcomeRequeued  = "requeued"
	JobOutcomeFailed    = "failed"
	JobOutcomeSkipped   = "skipped"
	JobOutcomeReleased  = "released"
)

// WorkerMetrics receives queue worker measurements
type WorkerMetrics interface {
	RecordJob(ctx context.Context, outcome string)
	RecordDelay(ctx context.Context, delay time.Duration)
	RecordBreakerTrip(ctx context.Context)
}

// AdaptiveQueueWorker drains pending refresh jobs one at a time, slowing
// down on consecutive failures and pausing when the breaker trips.
type AdaptiveQueueWorker struct {
	store     queue.Store
	refresher queue.Refresher
	snapshots queue.SnapshotStore
	config    WorkerConfig
	clock     Clock
	logger    *zap.Logger
	metrics   WorkerMetrics

	mu        sync.Mutex
	state     WorkerState
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
}

// NewAdaptiveQueueWorker creates a new worker
func NewAdaptiveQueueWorker(
	store queue.Store,
	refresher queue.Refresher,
	snapshots queue.SnapshotStore,
	config WorkerConfig,
	logger *zap.Logger,
) (*AdaptiveQueueWorker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &AdaptiveQueueWorker{
		store:     store,
		refresher: refresher,
		snapshots: snapshots,
		config:    config,
		clock:     RealClock(),
		logger:    logger,
		state:     NewWorkerState(config),
	}, nil
}

// WithClock replaces the clock
func (w *AdaptiveQueueWorker) WithClock(clock Clock) *AdaptiveQueueWorker {
	w.clock = clock
	return w
}

// WithMetrics sets the metrics recorder
func (w *AdaptiveQueueWorker) WithMetrics(metrics WorkerMetrics) *AdaptiveQueueWorker {
	w.metrics = metrics
	return w
}

// State returns the throttle state after the last processed job
func (w *AdaptiveQueueWorker) State() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// IsRunning reports whether Start has been called without Stop
func (w *AdaptiveQueueWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

// Start runs the worker loop in the background
func (w *AdaptiveQueueWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			w.logger.Error("Queue worker stopped with error", zap.Error(err))
		}
		w.mu.Lock()
		w.isRunning = false
		w.mu.Unlock()
	}()

	w.logger.Info("Queue worker started",
		zap.Int("batch_size", w.config.BatchSize),
		zap.Duration("min_delay", w.config.MinDelay),
		zap.Duration("max_delay", w.config.MaxDelay),
	)
	return nil
}

// Stop cancels the loop and waits for the in-flight job to finish
func (w *AdaptiveQueueWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return nil
	}
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	select {
	case <-done:
		w.logger.Info("Queue worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Queue worker stop timed out")
		return ctx.Err()
	}
}

// Run polls the queue until ctx is done or MaxRunDuration has elapsed.
// Job failures never end the loop.
func (w *AdaptiveQueueWorker) Run(ctx context.Context) error {
	var deadline time.Time
	if w.config.MaxRunDuration > 0 {
		deadline = w.clock.Now().Add(w.config.MaxRunDuration)
	}

	state := w.State()
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !deadline.IsZero() && !w.clock.Now().Before(deadline) {
			w.logger.Info("Queue worker run budget exhausted", zap.Duration("budget", w.config.MaxRunDuration))
			return nil
		}

		next, processed, err := w.RunOnce(ctx, state)
		state = next
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		if err != nil {
			w.logger.Error("Failed to fetch pending jobs", zap.Error(err))
		}
		if processed == 0 {
			if err := w.clock.Sleep(ctx, w.config.IdleDelay); err != nil {
				return nil
			}
		}
	}
}

// RunOnce drains one batch and returns the next state and the number of jobs processed
func (w *AdaptiveQueueWorker) RunOnce(ctx context.Context, state WorkerState) (WorkerState, int, error) {
	jobs, err := w.store.FetchPending(ctx, w.config.BatchSize)
	if err != nil {
		return state, 0, fmt.Errorf("fetch pending jobs: %w", err)
	}

	processed := 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return state, processed, err
		}

		claimed, err := w.store.Claim(ctx, job.ID)
		if err != nil {
			w.logger.Error("Failed to claim job", zap.String("job_id", job.ID.String()), zap.Error(err))
			continue
		}
		if !claimed {
			w.logger.Debug("Job claimed by another worker", zap.String("job_id", job.ID.String()))
			w.recordJob(ctx, JobOutcomeSkipped)
			continue
		}
		if err := job.Claim(w.clock.Now()); err != nil {
			w.logger.Error("Claimed job is not pending", zap.String("job_id", job.ID.String()), zap.Error(err))
			continue
		}

		state = w.process(ctx, job, state)
		processed++
		w.publish(ctx, state)

		if state.BreakerTripped() {
			w.logger.Warn("Queue worker circuit breaker tripped",
				zap.Int("consecutive_errors", state.ConsecutiveErrors),
				zap.Duration("pause", state.BreakerPause()),
			)
			if w.metrics != nil {
				w.metrics.RecordBreakerTrip(ctx)
			}
			if err := w.clock.Sleep(ctx, state.BreakerPause()); err != nil {
				return state, processed, err
			}
			state = state.AfterBreakerPause()
			w.publish(ctx, state)
		}

		if err := w.clock.Sleep(ctx, state.CurrentDelay); err != nil {
			return state, processed, err
		}
	}
	return state, processed, nil
}

// process refreshes one claimed job and records its outcome on the store.
// The outcome is written even when ctx is cancelled mid-attempt; an attempt
// cut short that way hands the job back without counting it.
func (w *AdaptiveQueueWorker) process(ctx context.Context, job *queue.QueueJob, state WorkerState) WorkerState {
	log := w.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("subject_key", job.SubjectKey),
	)
	storeCtx := context.WithoutCancel(ctx)

	err := w.refresh(ctx, job.SubjectKey)
	switch {
	case err == nil:
		if err := job.Complete(w.clock.Now()); err != nil {
			log.Error("Failed to complete job", zap.Error(err))
			return state
		}
		w.save(storeCtx, log, job)
		log.Debug("Job completed")
		w.recordJob(ctx, JobOutcomeCompleted)
		return state.AfterSuccess()

	case ctx.Err() != nil:
		if err := job.Release(w.clock.Now()); err != nil {
			log.Error("Failed to release job", zap.Error(err))
			return state
		}
		w.save(storeCtx, log, job)
		log.Info("Job released on shutdown", zap.Error(err))
		w.recordJob(storeCtx, JobOutcomeReleased)
		return state

	default:
		jobErr := &queue.JobError{
			JobID:      job.ID,
			SubjectKey: job.SubjectKey,
			Attempt:    job.RetryCount + 1,
			Err:        err,
		}
		w.recordFailure(storeCtx, log, job, jobErr)
		return state.AfterFailure()
	}
}

func (w *AdaptiveQueueWorker) refresh(ctx context.Context, subjectKey string) error {
	refreshCtx, cancel := context.WithTimeout(ctx, w.config.RefreshTimeout)
	defer cancel()

	snapshot, err := w.refresher.Refresh(refreshCtx, subjectKey)
	if err != nil {
		return err
	}
	if snapshot.SubjectKey == "" {
		snapshot.SubjectKey = subjectKey
	}
	if snapshot.RefreshedAt.IsZero() {
		snapshot.RefreshedAt = w.clock.Now()
	}
	if err := w.snapshots.UpsertSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (w *AdaptiveQueueWorker) recordFailure(ctx context.Context, log *zap.Logger, job *queue.QueueJob, jobErr *queue.JobError) {
	failed, err := job.RecordFailure(jobErr.Err.Error(), w.config.MaxRetries, w.clock.Now())
	if err != nil {
		log.Error("Failed to record job failure", zap.Error(err))
		return
	}
	w.save(ctx, log, job)

	if failed {
		log.Warn("Job failed permanently", zap.Int("retry_count", job.RetryCount), zap.Error(jobErr))
		w.recordJob(ctx, JobOutcomeFailed)
		return
	}
	log.Info("Job requeued", zap.Int("retry_count", job.RetryCount), zap.Error(jobErr))
	w.recordJob(ctx, JobOutcomeRequeued)
}

func (w *AdaptiveQueueWorker) save(ctx context.Context, log *zap.Logger, job *queue.QueueJob) {
	if err := w.store.Save(ctx, job); err != nil {
		log.Error("Failed to save job", zap.String("status", job.Status.String()), zap.Error(err))
	}
}

func (w *AdaptiveQueueWorker) publish(ctx context.Context, state WorkerState) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.RecordDelay(ctx, state.CurrentDelay)
	}
}

func (w *AdaptiveQueueWorker) recordJob(ctx context.Context, outcome string) {
	if w.metrics != nil {
		w.metrics.RecordJob(ctx, outcome)
	}
}
