package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func healthRoutes(db Pinger) func(r *gin.Engine) {
	h := NewHealthHandler(db, "1.2.3")
	return func(r *gin.Engine) {
		r.GET("/health", h.Health)
	}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		code     int
		status   string
		database string
	}{
		{"database up", stubPinger{}, http.StatusOK, "ok", "up"},
		{"database down", stubPinger{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, "degraded", "down"},
		{"no database", nil, http.StatusOK, "ok", "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := performRequest(t, healthRoutes(tt.db), http.MethodGet, "/health", nil)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.code == http.StatusOK, resp.Success)
			data := dataMap(t, resp)
			assert.Equal(t, tt.status, data["status"])
			assert.Equal(t, tt.database, data["database"])
			assert.Equal(t, "1.2.3", data["version"])
		})
	}
}
