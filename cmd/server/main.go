package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	fwdapp "github.com/dropship/backend/internal/application/forwarder"
	fulfillmentapp "github.com/dropship/backend/internal/application/fulfillment"
	landedcostapp "github.com/dropship/backend/internal/application/landedcost"
	"github.com/dropship/backend/internal/infrastructure/config"
	fwdinfra "github.com/dropship/backend/internal/infrastructure/forwarder"
	"github.com/dropship/backend/internal/infrastructure/logger"
	"github.com/dropship/backend/internal/infrastructure/persistence"
	"github.com/dropship/backend/internal/infrastructure/scheduler"
	"github.com/dropship/backend/internal/infrastructure/telemetry"
	"github.com/dropship/backend/internal/interfaces/http/handler"
	"github.com/dropship/backend/internal/interfaces/http/middleware"
	"github.com/dropship/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// A missing .env is fine; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Version: version,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting DDP fulfillment backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)
	metrics, err := telemetry.NewFulfillmentMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create fulfillment metrics", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	workflowRepo := persistence.NewGormWorkflowRepository(db.DB)
	queueRepo := persistence.NewGormQueueJobRepository(db.DB)
	snapshotRepo := persistence.NewGormSnapshotRepository(db.DB)
	rateTable := persistence.NewGormRateTable(db.DB)
	credentialRepo := persistence.NewGormCredentialRepository(db.DB)

	// Forwarder gateway
	registry, generic := fwdinfra.NewRegistry(fwdinfra.ClientConfig{
		Timeout:           cfg.Forwarder.HTTPTimeout,
		RequestsPerSecond: cfg.Forwarder.RequestsPerSecond,
		Burst:             cfg.Forwarder.Burst,
		UserAgent:         cfg.Forwarder.UserAgent,
	})
	gateway := fwdapp.NewGateway(credentialRepo, registry, generic, gatewayConfig(cfg.Forwarder), log).
		WithMetrics(metrics)

	// Profit engine
	policy, err := costPolicy(cfg.Profit)
	if err != nil {
		log.Fatal("Invalid profit configuration", zap.Error(err))
	}
	var shipping *landedcostapp.GatewayShippingEstimator
	if cfg.Profit.UseGatewayShipping {
		shipping = landedcostapp.NewGatewayShippingEstimator(gateway, cfg.Profit.GatewayProvider, policy, log)
	}
	engine, err := newProfitEngine(rateTable, shipping, policy, log)
	if err != nil {
		log.Fatal("Failed to create profit engine", zap.Error(err))
	}

	handlers := router.Handlers{
		Health:    handler.NewHealthHandler(db, version),
		Profit:    handler.NewProfitHandler(engine),
		Forwarder: handler.NewForwarderHandler(gateway),
		Queue:     handler.NewQueueHandler(queueRepo),
	}

	// Fulfillment saga, delivery monitor and refresh worker need the marketplace APIs
	var (
		worker  *scheduler.AdaptiveQueueWorker
		monitor *scheduler.DeliveryMonitor
	)
	clients, err := newMarketplaceClients(cfg.Marketplace)
	if err != nil {
		log.Warn("Marketplace not configured; fulfillment and queue worker disabled", zap.Error(err))
	} else {
		orchestrator := fulfillmentapp.NewOrchestrator(
			workflowRepo, gateway, clients.supplier, clients.tracking,
			fulfillmentapp.Config{
				RemoveBranding:          cfg.Fulfillment.RemoveBranding,
				MaxTrackingSyncAttempts: cfg.Fulfillment.MaxTrackingSyncAttempts,
			},
			log,
		).WithMetrics(metrics)

		if cfg.Fulfillment.LockEnabled {
			locker, err := newOrderLocker(cfg.Redis, cfg.Fulfillment.LockTTL, log)
			if err != nil {
				log.Fatal("Failed to create order lock", zap.Error(err))
			}
			orchestrator.WithLocker(locker)
		}
		if cfg.Storage.Enabled {
			archive, err := newReceiptArchive(ctx, &cfg.Storage, log)
			if err != nil {
				log.Fatal("Failed to create receipt archive", zap.Error(err))
			}
			orchestrator.WithArchiver(archive)
		}
		handlers.Order = handler.NewOrderHandler(orchestrator)

		if cfg.Fulfillment.DeliveryMonitorEnabled {
			monitor, err = scheduler.NewDeliveryMonitor(workflowRepo, orchestrator, scheduler.DeliveryMonitorConfig{
				Interval:     cfg.Fulfillment.DeliveryMonitorInterval,
				BatchSize:    cfg.Fulfillment.DeliveryMonitorBatch,
				CheckTimeout: cfg.Forwarder.TrackingTimeout,
			}, log.Named("delivery_monitor"))
			if err != nil {
				log.Fatal("Failed to create delivery monitor", zap.Error(err))
			}
		}

		if cfg.Worker.Enabled {
			worker, err = scheduler.NewAdaptiveQueueWorker(queueRepo, clients.refresh, snapshotRepo,
				workerConfig(cfg.Worker), log.Named("queue_worker"))
			if err != nil {
				log.Fatal("Failed to create queue worker", zap.Error(err))
			}
			worker.WithMetrics(metrics)
		}
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled
	tracing.ServiceName = cfg.Telemetry.ServiceName

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	stopCleanup := make(chan struct{})
	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitBurst, 10*time.Minute)
		go limiter.RunCleanup(time.Minute, stopCleanup)
		log.Info("Rate limiting enabled",
			zap.Float64("per_second", cfg.HTTP.RateLimit),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}

	engineHTTP := router.New(handlers, router.Options{
		Logger:         log,
		Tracing:        tracing,
		Meter:          meter,
		CORS:           cors,
		RateLimiter:    limiter,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engineHTTP,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Background workers
	bgCtx, stopBackground := context.WithCancel(ctx)
	if worker != nil {
		if err := worker.Start(bgCtx); err != nil {
			log.Fatal("Failed to start queue worker", zap.Error(err))
		}
	}
	if monitor != nil {
		if err := monitor.Start(bgCtx); err != nil {
			log.Fatal("Failed to start delivery monitor", zap.Error(err))
		}
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	close(stopCleanup)

	if worker != nil {
		if err := worker.Stop(shutdownCtx); err != nil {
			log.Error("Queue worker did not stop cleanly", zap.Error(err))
		}
	}
	if monitor != nil {
		if err := monitor.Stop(shutdownCtx); err != nil {
			log.Error("Delivery monitor did not stop cleanly", zap.Error(err))
		}
	}
	stopBackground()

	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
