package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware(t *testing.T) {
	base, logs := newObserved()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "req-42")
		c.Next()
	})
	r.Use(GinMiddleware(base))

	var handlerSawLogger bool
	r.GET("/api/v1/orders/:order_id", func(c *gin.Context) {
		L(c.Request.Context()).Info("loading order")
		handlerSawLogger = GetGinLogger(c) != nil
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/missing/:order_id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	t.Run("info for success with request and order fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-5", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, handlerSawLogger)

		entries := logs.TakeAll()
		require.Len(t, entries, 2)

		assert.Equal(t, "loading order", entries[0].Message)
		assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])

		req := entries[1]
		assert.Equal(t, "HTTP Request", req.Message)
		assert.Equal(t, zapcore.InfoLevel, req.Level)
		fields := req.ContextMap()
		assert.Equal(t, "/api/v1/orders/:order_id", fields["route"])
		assert.Equal(t, "ORD-5", fields["order_id"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
	})

	t.Run("warn for client errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing/x", nil))
		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})

	t.Run("error for server errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	})
}

func TestRecovery(t *testing.T) {
	base, logs := newObserved()

	r := gin.New()
	r.Use(Recovery(base))
	r.GET("/panic", func(c *gin.Context) {
		panic("nil shipment")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic recovered", logs.All()[0].Message)
	assert.Equal(t, "nil shipment", logs.All()[0].ContextMap()["panic"])
}

func TestGetGinLogger_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
