package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	fwdapp "github.com/dropship/backend/internal/application/forwarder"
	landedcostapp "github.com/dropship/backend/internal/application/landedcost"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/landedcost"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/dropship/backend/internal/infrastructure/cache"
	"github.com/dropship/backend/internal/infrastructure/config"
	"github.com/dropship/backend/internal/infrastructure/marketplace"
	"github.com/dropship/backend/internal/infrastructure/scheduler"
	"github.com/dropship/backend/internal/infrastructure/storage"
)

// costPolicy converts the float profit settings into the decimal policy
func costPolicy(p config.ProfitConfig) (landedcost.CostPolicy, error) {
	currency, err := valueobject.ParseCurrency(p.Currency)
	if err != nil {
		return landedcost.CostPolicy{}, fmt.Errorf("profit.currency: %w", err)
	}
	policy := landedcost.CostPolicy{
		Currency:                currency,
		ShippingBaseRate:        decimal.NewFromFloat(p.ShippingBaseRate),
		ShippingPerKgRate:       decimal.NewFromFloat(p.ShippingPerKgRate),
		InsuranceRate:           decimal.NewFromFloat(p.InsuranceRate),
		ProcessingFeeRate:       decimal.NewFromFloat(p.ProcessingFeeRate),
		RepackPerKgRate:         decimal.NewFromFloat(p.RepackPerKgRate),
		RepackFeeCap:            decimal.NewFromFloat(p.RepackFeeCap),
		MarketplaceFeeRate:      decimal.NewFromFloat(p.MarketplaceFeeRate),
		MinimumMarginRate:       decimal.NewFromFloat(p.MinimumMarginRate),
		DefaultTargetProfitRate: decimal.NewFromFloat(p.DefaultTargetProfitRate),
	}
	return policy, policy.Validate()
}

func gatewayConfig(f config.ForwarderConfig) fwdapp.Config {
	estimate := fwdapp.DefaultEstimatePolicy()
	if f.EstimateDeliveryDays > 0 {
		estimate.DeliveryDays = f.EstimateDeliveryDays
	}
	return fwdapp.Config{
		RateTimeout:     f.RateTimeout,
		ShipmentTimeout: f.ShipmentTimeout,
		TrackingTimeout: f.TrackingTimeout,
		Estimate:        estimate,
	}
}

// newProfitEngine keeps a nil estimator out of the interface so the engine
// falls back to the linear shipping model
func newProfitEngine(
	rates landedcost.RateTable,
	shipping *landedcostapp.GatewayShippingEstimator,
	policy landedcost.CostPolicy,
	log *zap.Logger,
) (*landedcostapp.RouteProfitEngine, error) {
	if shipping == nil {
		return landedcostapp.NewRouteProfitEngine(rates, nil, policy, log)
	}
	return landedcostapp.NewRouteProfitEngine(rates, shipping, policy, log)
}

type marketplaceClients struct {
	supplier *marketplace.SupplierClient
	tracking *marketplace.TrackingClient
	refresh  *marketplace.RefreshClient
}

func newMarketplaceClients(m config.MarketplaceConfig) (*marketplaceClients, error) {
	cfg := marketplace.Config{
		BaseURL:           m.BaseURL,
		APIToken:          m.APIToken,
		SupplierBaseURL:   m.SupplierBaseURL,
		SupplierAPIToken:  m.SupplierAPIToken,
		Timeout:           m.Timeout,
		RequestsPerSecond: m.RequestsPerSecond,
		Burst:             m.Burst,
	}
	supplier, err := marketplace.NewSupplierClient(cfg)
	if err != nil {
		return nil, err
	}
	tracking, err := marketplace.NewTrackingClient(cfg)
	if err != nil {
		return nil, err
	}
	refresh, err := marketplace.NewRefreshClient(cfg)
	if err != nil {
		return nil, err
	}
	return &marketplaceClients{supplier: supplier, tracking: tracking, refresh: refresh}, nil
}

func newOrderLocker(r config.RedisConfig, ttl time.Duration, log *zap.Logger) (fulfillment.OrderLocker, error) {
	factory := cache.NewOrderLockFactory(cache.RedisConfig{
		Addr:     r.Addr(),
		Password: r.Password,
		DB:       r.DB,
	}, ttl, cache.WithLogger(log))
	return factory.CreateLocker()
}

// newReceiptArchive creates the bucket on first start. A failed bucket check is
// not fatal; archive errors are logged per shipment.
func newReceiptArchive(ctx context.Context, s *config.StorageConfig, log *zap.Logger) (fulfillment.ReceiptArchiver, error) {
	archive, err := storage.NewS3ReceiptArchive(s, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := archive.EnsureBucket(ctx); err != nil {
		log.Warn("Receipt bucket not verified", zap.String("bucket", archive.Bucket()), zap.Error(err))
	}
	return archive, nil
}

func workerConfig(w config.WorkerConfig) scheduler.WorkerConfig {
	return scheduler.WorkerConfig{
		BatchSize:        w.BatchSize,
		MinDelay:         w.MinDelay,
		MaxDelay:         w.MaxDelay,
		IdleDelay:        w.IdleDelay,
		MaxRetries:       w.MaxRetries,
		BackoffThreshold: w.BackoffThreshold,
		BreakerThreshold: w.BreakerThreshold,
		RefreshTimeout:   w.RefreshTimeout,
		MaxRunDuration:   w.MaxRunDuration,
	}
}
