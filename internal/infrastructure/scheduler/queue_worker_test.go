package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dropship/backend/internal/domain/queue"
	"github.com/dropship/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

// fakeClock advances only when the worker sleeps
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// memoryQueue is a queue.Store with an atomic claim
type memoryQueue struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*queue.QueueJob
	stolen   map[uuid.UUID]bool
	fetchErr error
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{jobs: make(map[uuid.UUID]*queue.QueueJob), stolen: make(map[uuid.UUID]bool)}
}

func (q *memoryQueue) add(t *testing.T, subject string, priority int, created time.Time) *queue.QueueJob {
	t.Helper()
	job, err := queue.NewQueueJob(subject, priority, created)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(context.Background(), job))
	return job
}

func (q *memoryQueue) Enqueue(_ context.Context, job *queue.QueueJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	c := *job
	q.jobs[job.ID] = &c
	return nil
}

func (q *memoryQueue) Get(_ context.Context, id uuid.UUID) (*queue.QueueJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := *job
	return &c, nil
}

func (q *memoryQueue) FetchPending(_ context.Context, limit int) ([]*queue.QueueJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fetchErr != nil {
		return nil, q.fetchErr
	}
	pending := make([]*queue.QueueJob, 0)
	for _, job := range q.jobs {
		if job.Status == queue.JobStatusPending {
			c := *job
			pending = append(pending, &c)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (q *memoryQueue) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok || job.Status != queue.JobStatusPending || q.stolen[id] {
		return false, nil
	}
	job.Status = queue.JobStatusProcessing
	return true, nil
}

// Save rejects a cancelled context the way a database driver does
func (q *memoryQueue) Save(ctx context.Context, job *queue.QueueJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	stored, ok := q.jobs[job.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Status != queue.JobStatusProcessing {
		return shared.ErrInvalidState
	}
	c := *job
	q.jobs[job.ID] = &c
	return nil
}

// scriptedRefresher fails subjects listed in failing
type scriptedRefresher struct {
	mu      sync.Mutex
	failing map[string]bool
	calls   []string
}

func (r *scriptedRefresher) Refresh(_ context.Context, subjectKey string) (*queue.ProductSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, subjectKey)
	if r.failing[subjectKey] {
		return nil, errors.New("HTTP 429 Too Many Requests")
	}
	return &queue.ProductSnapshot{Title: "item " + subjectKey, Price: decimal.NewFromInt(20), Currency: "USD"}, nil
}

// blockingRefresher holds every refresh until its context ends
type blockingRefresher struct {
	started chan struct{}
	once    sync.Once
}

func newBlockingRefresher() *blockingRefresher {
	return &blockingRefresher{started: make(chan struct{})}
}

func (r *blockingRefresher) Refresh(ctx context.Context, _ string) (*queue.ProductSnapshot, error) {
	r.once.Do(func() { close(r.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

// memorySnapshots records upserts
type memorySnapshots struct {
	mu    sync.Mutex
	items map[string]*queue.ProductSnapshot
}

func (s *memorySnapshots) UpsertSnapshot(_ context.Context, snapshot *queue.ProductSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = make(map[string]*queue.ProductSnapshot)
	}
	s.items[snapshot.SubjectKey] = snapshot
	return nil
}

func (s *memorySnapshots) GetSnapshot(_ context.Context, subjectKey string) (*queue.ProductSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.items[subjectKey]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return snapshot, nil
}

type workerFixture struct {
	worker    *AdaptiveQueueWorker
	store     *memoryQueue
	refresher *scriptedRefresher
	snapshots *memorySnapshots
	clock     *fakeClock
}

func newWorkerFixture(t *testing.T, cfg WorkerConfig) *workerFixture {
	t.Helper()
	f := &workerFixture{
		store:     newMemoryQueue(),
		refresher: &scriptedRefresher{failing: map[string]bool{}},
		snapshots: &memorySnapshots{},
		clock:     newFakeClock(),
	}
	worker, err := NewAdaptiveQueueWorker(f.store, f.refresher, f.snapshots, cfg, zap.NewNop())
	require.NoError(t, err)
	f.worker = worker.WithClock(f.clock)
	return f
}

// ---------------------------------------------------------------------------
// WorkerState
// ---------------------------------------------------------------------------

func TestWorkerState_Transitions(t *testing.T) {
	cfg := DefaultWorkerConfig()
	s := NewWorkerState(cfg)
	assert.Equal(t, 5*time.Second, s.CurrentDelay)

	s = s.AfterSuccess()
	assert.Equal(t, 5*time.Second, s.CurrentDelay, "stays at the minimum")

	s = s.AfterFailure().AfterFailure()
	assert.Equal(t, 5*time.Second, s.CurrentDelay, "no backoff before the threshold")
	s = s.AfterFailure()
	assert.Equal(t, 10*time.Second, s.CurrentDelay)
	s = s.AfterFailure()
	assert.Equal(t, 20*time.Second, s.CurrentDelay)
	assert.False(t, s.BreakerTripped())
	s = s.AfterFailure()
	assert.Equal(t, 40*time.Second, s.CurrentDelay)
	assert.True(t, s.BreakerTripped())
	assert.Equal(t, 60*time.Second, s.BreakerPause())

	s = s.AfterBreakerPause()
	assert.Zero(t, s.ConsecutiveErrors)
	assert.Equal(t, 40*time.Second, s.CurrentDelay)

	s = s.AfterSuccess()
	assert.Equal(t, 36*time.Second, s.CurrentDelay)
}

func TestWorkerState_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	cfg := DefaultWorkerConfig()

	// replay a random outcome sequence from the initial state
	replay := func(outcomes []bool) WorkerState {
		s := NewWorkerState(cfg)
		for _, ok := range outcomes {
			if ok {
				s = s.AfterSuccess()
			} else {
				s = s.AfterFailure()
			}
			if s.BreakerTripped() {
				s = s.AfterBreakerPause()
			}
		}
		return s
	}

	properties.Property("delay stays within bounds", prop.ForAll(
		func(outcomes []bool) bool {
			s := replay(outcomes)
			return s.CurrentDelay >= cfg.MinDelay && s.CurrentDelay <= cfg.MaxDelay
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("success strictly decreases the delay or holds the minimum", prop.ForAll(
		func(outcomes []bool) bool {
			s := replay(outcomes)
			next := s.AfterSuccess()
			return next.CurrentDelay < s.CurrentDelay || next.CurrentDelay == cfg.MinDelay
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("third consecutive failure at least doubles the delay", prop.ForAll(
		func(outcomes []bool) bool {
			s := replay(append(outcomes, true))
			before := s.CurrentDelay
			s = s.AfterFailure().AfterFailure().AfterFailure()
			return s.CurrentDelay >= 2*before || s.CurrentDelay == cfg.MaxDelay
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

func TestWorkerConfig_Validate(t *testing.T) {
	cfg := DefaultWorkerConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.MaxDelay = time.Second
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = cfg
	bad.BreakerThreshold = 2
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = cfg
	bad.BatchSize = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}

// ---------------------------------------------------------------------------
// RunOnce
// ---------------------------------------------------------------------------

func TestRunOnce_ProcessesByPriorityAndDecaysDelay(t *testing.T) {
	f := newWorkerFixture(t, DefaultWorkerConfig())
	base := f.clock.Now()
	low := f.store.add(t, "ebay:low", 0, base)
	high := f.store.add(t, "ebay:high", 9, base.Add(time.Second))

	state := NewWorkerState(DefaultWorkerConfig())
	state.CurrentDelay = 20 * time.Second

	next, processed, err := f.worker.RunOnce(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.Equal(t, []string{"ebay:high", "ebay:low"}, f.refresher.calls)
	assert.Equal(t, 16200*time.Millisecond, next.CurrentDelay)
	assert.Equal(t, []time.Duration{18 * time.Second, 16200 * time.Millisecond}, f.clock.Sleeps())

	for _, id := range []uuid.UUID{low.ID, high.ID} {
		job, err := f.store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusCompleted, job.Status)
	}
	snapshot, err := f.snapshots.GetSnapshot(context.Background(), "ebay:low")
	require.NoError(t, err)
	assert.Equal(t, base.Add(18*time.Second), snapshot.RefreshedAt)
}

func TestRunOnce_FailedJobIsRequeuedThenFailed(t *testing.T) {
	f := newWorkerFixture(t, DefaultWorkerConfig())
	job := f.store.add(t, "ebay:broken", 0, f.clock.Now())
	f.refresher.failing["ebay:broken"] = true

	state := NewWorkerState(DefaultWorkerConfig())
	for attempt := 1; attempt <= 3; attempt++ {
		var err error
		state, _, err = f.worker.RunOnce(context.Background(), state)
		require.NoError(t, err)

		stored, err := f.store.Get(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, attempt, stored.RetryCount)
		assert.Contains(t, stored.LastError, "429")
		if attempt < 3 {
			assert.Equal(t, queue.JobStatusPending, stored.Status)
		} else {
			assert.Equal(t, queue.JobStatusFailed, stored.Status)
		}
	}

	// a failed job is never fetched again
	_, processed, err := f.worker.RunOnce(context.Background(), state)
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Len(t, f.refresher.calls, 3)
}

func TestRunOnce_BreakerPausesAndResets(t *testing.T) {
	cfg := DefaultWorkerConfig()
	f := newWorkerFixture(t, cfg)
	base := f.clock.Now()
	for i := 0; i < 5; i++ {
		subject := "ebay:" + string(rune('a'+i))
		f.store.add(t, subject, 0, base.Add(time.Duration(i)*time.Second))
		f.refresher.failing[subject] = true
	}

	state, processed, err := f.worker.RunOnce(context.Background(), NewWorkerState(cfg))
	require.NoError(t, err)
	assert.Equal(t, 5, processed)
	assert.Zero(t, state.ConsecutiveErrors)
	assert.Equal(t, 40*time.Second, state.CurrentDelay)
	assert.Equal(t, []time.Duration{
		5 * time.Second,
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
		60 * time.Second, // breaker pause
		40 * time.Second,
	}, f.clock.Sleeps())
}

func TestRunOnce_LostClaimIsSkippedWithoutDelay(t *testing.T) {
	f := newWorkerFixture(t, DefaultWorkerConfig())
	job := f.store.add(t, "ebay:contended", 0, f.clock.Now())
	f.store.stolen[job.ID] = true

	_, processed, err := f.worker.RunOnce(context.Background(), NewWorkerState(DefaultWorkerConfig()))
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Empty(t, f.refresher.calls)
	assert.Empty(t, f.clock.Sleeps())
}

func TestRunOnce_CancelledAttemptReleasesJob(t *testing.T) {
	cfg := DefaultWorkerConfig()
	store := newMemoryQueue()
	clock := newFakeClock()
	job := store.add(t, "ebay:slow", 0, clock.Now())
	refresher := newBlockingRefresher()
	worker, err := NewAdaptiveQueueWorker(store, refresher, &memorySnapshots{}, cfg, zap.NewNop())
	require.NoError(t, err)
	worker.WithClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		state WorkerState
		err   error
	}
	done := make(chan result, 1)
	go func() {
		state, _, err := worker.RunOnce(ctx, NewWorkerState(cfg))
		done <- result{state: state, err: err}
	}()

	<-refresher.started
	cancel()
	res := <-done

	assert.ErrorIs(t, res.err, context.Canceled)
	assert.Zero(t, res.state.ConsecutiveErrors)
	assert.Equal(t, cfg.MinDelay, res.state.CurrentDelay)

	stored, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusPending, stored.Status)
	assert.Zero(t, stored.RetryCount)
	assert.Empty(t, stored.LastError)
}

func TestRunOnce_FailureIsSavedAfterCancellation(t *testing.T) {
	cfg := DefaultWorkerConfig()
	cfg.RefreshTimeout = time.Millisecond
	store := newMemoryQueue()
	clock := newFakeClock()
	job := store.add(t, "ebay:slow", 0, clock.Now())
	worker, err := NewAdaptiveQueueWorker(store, newBlockingRefresher(), &memorySnapshots{}, cfg, zap.NewNop())
	require.NoError(t, err)
	worker.WithClock(clock)

	// the refresh times out on its own; the parent context is still live
	state, processed, err := worker.RunOnce(context.Background(), NewWorkerState(cfg))
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, state.ConsecutiveErrors)

	stored, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusPending, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Contains(t, stored.LastError, "deadline exceeded")
}

func TestRunOnce_FetchError(t *testing.T) {
	f := newWorkerFixture(t, DefaultWorkerConfig())
	f.store.fetchErr = errors.New("connection refused")

	_, _, err := f.worker.RunOnce(context.Background(), NewWorkerState(DefaultWorkerConfig()))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Run / Start / Stop
// ---------------------------------------------------------------------------

func TestRun_StopsAfterBudget(t *testing.T) {
	cfg := DefaultWorkerConfig()
	cfg.MaxRunDuration = 2 * time.Minute
	f := newWorkerFixture(t, cfg)
	f.store.add(t, "ebay:1", 0, f.clock.Now())

	require.NoError(t, f.worker.Run(context.Background()))

	// one job (5s delay) then idle polls of 30s until the 2m budget is spent
	sleeps := f.clock.Sleeps()
	require.NotEmpty(t, sleeps)
	assert.Equal(t, 5*time.Second, sleeps[0])
	for _, d := range sleeps[1:] {
		assert.Equal(t, 30*time.Second, d)
	}
	assert.Len(t, sleeps, 5)
}

func TestRun_ReturnsOnCancelledContext(t *testing.T) {
	f := newWorkerFixture(t, DefaultWorkerConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, f.worker.Run(ctx))
}

func TestStartStop(t *testing.T) {
	cfg := DefaultWorkerConfig()
	cfg.MinDelay = time.Millisecond
	cfg.MaxDelay = 10 * time.Millisecond
	cfg.IdleDelay = 5 * time.Millisecond

	store := newMemoryQueue()
	store.add(t, "ebay:1", 0, time.Now())
	snapshots := &memorySnapshots{}
	worker, err := NewAdaptiveQueueWorker(store, &scriptedRefresher{}, snapshots, cfg, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, worker.Start(context.Background()))
	assert.True(t, worker.IsRunning())
	require.Eventually(t, func() bool {
		_, err := snapshots.GetSnapshot(context.Background(), "ebay:1")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, worker.Stop(ctx))
	assert.Eventually(t, func() bool { return !worker.IsRunning() }, time.Second, 5*time.Millisecond)
}

func TestStop_ReleasesInFlightJob(t *testing.T) {
	cfg := DefaultWorkerConfig()
	cfg.RefreshTimeout = time.Minute

	store := newMemoryQueue()
	job := store.add(t, "ebay:slow", 0, time.Now())
	refresher := newBlockingRefresher()
	worker, err := NewAdaptiveQueueWorker(store, refresher, &memorySnapshots{}, cfg, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, worker.Start(context.Background()))
	select {
	case <-refresher.started:
	case <-time.After(time.Second):
		t.Fatal("refresh never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, worker.Stop(ctx))

	stored, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusPending, stored.Status)
	assert.Zero(t, stored.RetryCount)
	assert.Zero(t, worker.State().ConsecutiveErrors)
}
