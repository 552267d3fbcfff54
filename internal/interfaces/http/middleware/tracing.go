package middleware

import (
	"net/http"

	"github.com/dropship/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
	// Options are passed through to otelgin, e.g. a test tracer provider.
	Options []otelgin.Option
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "ddp-backend",
		Enabled:     true,
	}
}

// Tracing returns the OpenTelemetry middleware chain: otelgin creates the
// server span, then SpanEnricher decorates it. Both must be registered in
// this order, which Tracing guarantees by returning them together.
func Tracing(cfg TracingConfig) []gin.HandlerFunc {
	if !cfg.Enabled {
		return nil
	}
	return []gin.HandlerFunc{
		otelgin.Middleware(cfg.ServiceName, cfg.Options...),
		SpanEnricher(),
	}
}

// SpanEnricher adds request_id, order_id and provider attributes to the
// current span. Responses with a 5xx status are marked as span errors;
// 4xx responses only record the status code.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if orderID := c.Param("order_id"); orderID != "" {
			span.SetAttributes(attribute.String(telemetry.SpanAttrOrderID, orderID))
		}
		if provider := c.Param("provider"); provider != "" {
			span.SetAttributes(attribute.String(telemetry.SpanAttrProvider, provider))
		}

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
