package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropship/backend/internal/domain/shared"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewQueueJob(t *testing.T) {
	job, err := NewQueueJob("  ebay:1234  ", 5, now)
	require.NoError(t, err)
	assert.Equal(t, "ebay:1234", job.SubjectKey)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 5, job.Priority)
	assert.Zero(t, job.RetryCount)

	_, err = NewQueueJob(" ", 0, now)
	assert.Error(t, err)
}

func TestJobStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, JobStatusPending.CanTransitionTo(JobStatusProcessing))
	assert.False(t, JobStatusPending.CanTransitionTo(JobStatusCompleted))
	assert.True(t, JobStatusProcessing.CanTransitionTo(JobStatusPending))
	assert.False(t, JobStatusCompleted.CanTransitionTo(JobStatusPending))
	assert.False(t, JobStatusFailed.CanTransitionTo(JobStatusPending))
	assert.False(t, JobStatusFailed.CanTransitionTo(JobStatusProcessing))
}

func TestQueueJob_Lifecycle(t *testing.T) {
	job, err := NewQueueJob("ebay:1", 0, now)
	require.NoError(t, err)

	require.NoError(t, job.Claim(now))
	assert.True(t, errors.Is(job.Claim(now), shared.ErrInvalidState))

	require.NoError(t, job.Complete(now))
	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)
	assert.Error(t, job.Complete(now))
}

func TestQueueJob_RetriesThenFails(t *testing.T) {
	job, err := NewQueueJob("ebay:2", 0, now)
	require.NoError(t, err)

	previous := job.RetryCount
	for attempt := 1; attempt <= 3; attempt++ {
		require.NoError(t, job.Claim(now))
		failed, err := job.RecordFailure("HTTP 429", 3, now)
		require.NoError(t, err)

		assert.Greater(t, job.RetryCount, previous)
		previous = job.RetryCount
		assert.Equal(t, attempt == 3, failed)
	}

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 3, job.RetryCount)
	assert.Equal(t, "HTTP 429", job.LastError)
	assert.Error(t, job.Claim(now), "a failed job never returns to pending")
}

func TestQueueJob_ReleaseKeepsRetryCount(t *testing.T) {
	job, err := NewQueueJob("ebay:4", 0, now)
	require.NoError(t, err)
	assert.ErrorIs(t, job.Release(now), shared.ErrInvalidState)

	require.NoError(t, job.Claim(now))
	_, err = job.RecordFailure("HTTP 503", 3, now)
	require.NoError(t, err)
	require.NoError(t, job.Claim(now))

	later := now.Add(time.Minute)
	require.NoError(t, job.Release(later))
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, "HTTP 503", job.LastError)
	assert.Equal(t, later, job.UpdatedAt)
	assert.Nil(t, job.CompletedAt)
}

func TestJobError(t *testing.T) {
	cause := errors.New("timeout")
	err := &JobError{SubjectKey: "ebay:3", Attempt: 2, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "attempt 2")
}
