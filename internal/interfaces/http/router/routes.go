package router

import (
	"github.com/dropship/backend/internal/infrastructure/logger"
	"github.com/dropship/backend/internal/interfaces/http/handler"
	"github.com/dropship/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers mounted by New
type Handlers struct {
	Health    *handler.HealthHandler
	Profit    *handler.ProfitHandler
	Forwarder *handler.ForwarderHandler
	Order     *handler.OrderHandler
	Queue     *handler.QueueHandler
}

// Options configures the middleware chain built by New
type Options struct {
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	Meter          metric.Meter
	CORS           middleware.CORSConfig
	RateLimiter    *middleware.RateLimiter
	MaxBodySize    int64
	TrustedProxies []string
}

// New builds the gin engine: middleware chain, /health, and the /api/v1
// domain groups. A nil handler leaves its group unmounted. It also registers
// the request validation tags the handlers bind with.
func New(h Handlers, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(opts.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Request ID first so tracing and logs can both see it
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(opts.Tracing)...)
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.HTTPMetrics(opts.Meter, log))
	engine.Use(middleware.CORS(opts.CORS))
	if opts.RateLimiter != nil {
		engine.Use(middleware.RateLimit(opts.RateLimiter))
	}
	if opts.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.MaxBodySize))
	}

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	for _, g := range domainGroups(h) {
		r.Register(g)
	}
	r.Setup()
	return engine
}

func domainGroups(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	if h.Profit != nil {
		groups = append(groups, NewDomainGroup("profit", "/profit").
			POST("/calculate", h.Profit.Calculate).
			POST("/optimal-route", h.Profit.OptimalRoute).
			POST("/listing-price", h.Profit.ListingPrice))
	}

	if h.Forwarder != nil {
		groups = append(groups, NewDomainGroup("forwarders", "/forwarders/:provider").
			POST("/rates", h.Forwarder.GetRate).
			GET("/warehouses/:country", h.Forwarder.GetWarehouse).
			GET("/tracking/:tracking_number", h.Forwarder.GetTracking))
	}

	if h.Order != nil {
		groups = append(groups, NewDomainGroup("orders", "/orders").
			POST("/fulfill", h.Order.Fulfill).
			GET("/:order_id", h.Order.Get).
			POST("/:order_id/retry-shipment", h.Order.RetryShipment).
			POST("/:order_id/retry-tracking-sync", h.Order.RetryTrackingSync).
			POST("/:order_id/monitor", h.Order.Monitor))
	}

	if h.Queue != nil {
		groups = append(groups, NewDomainGroup("queue", "/queue").
			POST("/jobs", h.Queue.Enqueue).
			GET("/jobs/:id", h.Queue.Get))
	}

	return groups
}
