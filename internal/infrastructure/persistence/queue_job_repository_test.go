package persistence

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropship/backend/internal/domain/queue"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enqueueJob(t *testing.T, repo *GormQueueJobRepository, subject string, priority int, created time.Time) *queue.QueueJob {
	t.Helper()
	job, err := queue.NewQueueJob(subject, priority, created)
	require.NoError(t, err)
	require.NoError(t, repo.Enqueue(context.Background(), job))
	return job
}

func TestGormQueueJobRepository_FetchPending(t *testing.T) {
	repo := NewGormQueueJobRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	enqueueJob(t, repo, "ebay:old-low", 0, base)
	enqueueJob(t, repo, "ebay:new-high", 5, base.Add(time.Hour))
	enqueueJob(t, repo, "ebay:old-high", 5, base.Add(time.Minute))
	done := enqueueJob(t, repo, "ebay:done", 9, base)
	claimed, err := repo.Claim(ctx, done.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	jobs, err := repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "ebay:old-high", jobs[0].SubjectKey)
	assert.Equal(t, "ebay:new-high", jobs[1].SubjectKey)
	assert.Equal(t, "ebay:old-low", jobs[2].SubjectKey)

	limited, err := repo.FetchPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormQueueJobRepository_Claim(t *testing.T) {
	repo := NewGormQueueJobRepository(setupTestDB(t))
	ctx := context.Background()

	t.Run("only one caller wins", func(t *testing.T) {
		job := enqueueJob(t, repo, "ebay:contended", 0, time.Now())

		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.Claim(ctx, job.ID)
				assert.NoError(t, err)
				if ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins)
		stored, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusProcessing, stored.Status)
	})

	t.Run("unknown job is not claimed", func(t *testing.T) {
		ok, err := repo.Claim(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

// claimJob claims job in the store and in memory, as the worker does
func claimJob(t *testing.T, repo *GormQueueJobRepository, job *queue.QueueJob, now time.Time) {
	t.Helper()
	ok, err := repo.Claim(context.Background(), job.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, job.Claim(now))
}

func TestGormQueueJobRepository_Lifecycle(t *testing.T) {
	repo := NewGormQueueJobRepository(setupTestDB(t))
	ctx := context.Background()
	fixed := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	t.Run("complete", func(t *testing.T) {
		job := enqueueJob(t, repo, "ebay:1", 0, fixed)
		claimJob(t, repo, job, fixed)
		require.NoError(t, job.Complete(fixed))
		require.NoError(t, repo.Save(ctx, job))

		stored, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusCompleted, stored.Status)
		require.NotNil(t, stored.CompletedAt)
		assert.True(t, fixed.Equal(*stored.CompletedAt))
	})

	t.Run("requeue then fail", func(t *testing.T) {
		job := enqueueJob(t, repo, "ebay:2", 0, fixed)
		claimJob(t, repo, job, fixed)
		failed, err := job.RecordFailure("HTTP 503", 2, fixed)
		require.NoError(t, err)
		require.False(t, failed)
		require.NoError(t, repo.Save(ctx, job))

		stored, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusPending, stored.Status)
		assert.Equal(t, 1, stored.RetryCount)
		assert.Equal(t, "HTTP 503", stored.LastError)
		assert.Nil(t, stored.CompletedAt)

		claimJob(t, repo, stored, fixed)
		failed, err = stored.RecordFailure("HTTP 429", 2, fixed)
		require.NoError(t, err)
		require.True(t, failed)
		require.NoError(t, repo.Save(ctx, stored))

		stored, err = repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusFailed, stored.Status)
		assert.Equal(t, 2, stored.RetryCount)
		assert.Equal(t, "HTTP 429", stored.LastError)
		assert.NotNil(t, stored.CompletedAt)
	})

	t.Run("released job is pending with its retry count", func(t *testing.T) {
		job := enqueueJob(t, repo, "ebay:released", 0, fixed)
		claimJob(t, repo, job, fixed)
		require.NoError(t, job.Release(fixed.Add(time.Minute)))
		require.NoError(t, repo.Save(ctx, job))

		stored, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusPending, stored.Status)
		assert.Zero(t, stored.RetryCount)
		assert.Empty(t, stored.LastError)
		assert.True(t, fixed.Add(time.Minute).Equal(stored.UpdatedAt))

		pending, err := repo.FetchPending(ctx, 10)
		require.NoError(t, err)
		var ids []uuid.UUID
		for _, p := range pending {
			ids = append(ids, p.ID)
		}
		assert.Contains(t, ids, job.ID)
	})

	t.Run("saving over a pending job is an invalid state", func(t *testing.T) {
		job := enqueueJob(t, repo, "ebay:3", 0, fixed)
		require.NoError(t, job.Claim(fixed))
		require.NoError(t, job.Complete(fixed))
		assert.ErrorIs(t, repo.Save(ctx, job), shared.ErrInvalidState)

		stored, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusPending, stored.Status)
	})

	t.Run("saving a job still processing is an invalid state", func(t *testing.T) {
		job := enqueueJob(t, repo, "ebay:4", 0, fixed)
		claimJob(t, repo, job, fixed)
		assert.ErrorIs(t, repo.Save(ctx, job), shared.ErrInvalidState)
	})

	t.Run("saving an unknown job is not found", func(t *testing.T) {
		job, err := queue.NewQueueJob("ebay:ghost", 0, fixed)
		require.NoError(t, err)
		require.NoError(t, job.Claim(fixed))
		require.NoError(t, job.Complete(fixed))
		assert.ErrorIs(t, repo.Save(ctx, job), shared.ErrNotFound)
	})

	t.Run("get unknown job", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormSnapshotRepository(t *testing.T) {
	repo := NewGormSnapshotRepository(setupTestDB(t))
	ctx := context.Background()
	refreshed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	_, err := repo.GetSnapshot(ctx, "ebay:1")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, repo.UpsertSnapshot(ctx, &queue.ProductSnapshot{
		SubjectKey:  "ebay:1",
		Title:       "Vintage tee",
		Price:       decimal.RequireFromString("24.5"),
		Currency:    valueobject.USD,
		Quantity:    3,
		SoldCount:   10,
		WatchCount:  4,
		RefreshedAt: refreshed,
	}))
	require.NoError(t, repo.UpsertSnapshot(ctx, &queue.ProductSnapshot{
		SubjectKey:  "ebay:1",
		Title:       "Vintage tee",
		Price:       decimal.RequireFromString("22"),
		Currency:    valueobject.USD,
		Quantity:    2,
		SoldCount:   11,
		WatchCount:  6,
		RefreshedAt: refreshed.Add(time.Hour),
	}))

	snapshot, err := repo.GetSnapshot(ctx, "ebay:1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(22).Equal(snapshot.Price))
	assert.Equal(t, 2, snapshot.Quantity)
	assert.Equal(t, 11, snapshot.SoldCount)
	assert.Equal(t, 6, snapshot.WatchCount)
	assert.True(t, refreshed.Add(time.Hour).Equal(snapshot.RefreshedAt))
}
