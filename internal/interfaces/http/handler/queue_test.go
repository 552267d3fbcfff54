package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dropship/backend/internal/domain/queue"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func queueRoutes(store JobStore) func(r *gin.Engine) {
	h := NewQueueHandler(store)
	h.now = func() time.Time { return testNow }
	return func(r *gin.Engine) {
		r.POST("/queue/jobs", h.Enqueue)
		r.GET("/queue/jobs/:id", h.Get)
	}
}

func TestQueueHandler_Enqueue(t *testing.T) {
	t.Run("creates a pending job", func(t *testing.T) {
		store := new(MockJobStore)
		store.On("Enqueue", mock.Anything, mock.MatchedBy(func(j *queue.QueueJob) bool {
			return j.SubjectKey == "ebay:item-42" && j.Priority == 5 &&
				j.Status == queue.JobStatusPending && j.CreatedAt.Equal(testNow)
		})).Return(nil)

		w, resp := performRequest(t, queueRoutes(store), http.MethodPost, "/queue/jobs",
			map[string]any{"subject_key": "ebay:item-42", "priority": 5})

		require.Equal(t, http.StatusCreated, w.Code)
		data := dataMap(t, resp)
		assert.Equal(t, "pending", data["status"])
		assert.Equal(t, "ebay:item-42", data["subject_key"])
		_, err := uuid.Parse(data["id"].(string))
		assert.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("missing subject fails validation", func(t *testing.T) {
		store := new(MockJobStore)

		w, resp := performRequest(t, queueRoutes(store), http.MethodPost, "/queue/jobs", map[string]any{"priority": 1})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		store.AssertNotCalled(t, "Enqueue")
	})

	t.Run("blank subject is rejected by the domain", func(t *testing.T) {
		store := new(MockJobStore)

		w, resp := performRequest(t, queueRoutes(store), http.MethodPost, "/queue/jobs", map[string]any{"subject_key": "   "})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
	})

	t.Run("store failure hides the cause", func(t *testing.T) {
		store := new(MockJobStore)
		store.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("pq: connection refused"))

		w, resp := performRequest(t, queueRoutes(store), http.MethodPost, "/queue/jobs", map[string]any{"subject_key": "k"})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "pq")
	})
}

func TestQueueHandler_Get(t *testing.T) {
	store := new(MockJobStore)
	job, err := queue.NewQueueJob("ebay:item-1", 0, testNow)
	require.NoError(t, err)
	missing := uuid.New()
	store.On("Get", mock.Anything, job.ID).Return(job, nil)
	store.On("Get", mock.Anything, missing).Return(nil, shared.ErrNotFound)

	w, resp := performRequest(t, queueRoutes(store), http.MethodGet, "/queue/jobs/"+job.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, job.ID.String(), dataMap(t, resp)["id"])

	w, resp = performRequest(t, queueRoutes(store), http.MethodGet, "/queue/jobs/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)

	w, resp = performRequest(t, queueRoutes(store), http.MethodGet, "/queue/jobs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
}
