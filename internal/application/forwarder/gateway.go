package forwarder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropship/backend/internal/domain/forwarder"
	"go.uber.org/zap"
)

// Config holds the per-operation timeouts applied around adapter calls
type Config struct {
	RateTimeout     time.Duration
	ShipmentTimeout time.Duration
	TrackingTimeout time.Duration
	Estimate        EstimatePolicy
}

// DefaultConfig returns 30s for rate and tracking calls and 60s for bookings
func DefaultConfig() Config {
	return Config{
		RateTimeout:     30 * time.Second,
		ShipmentTimeout: 60 * time.Second,
		TrackingTimeout: 30 * time.Second,
		Estimate:        DefaultEstimatePolicy(),
	}
}

// FallbackRecorder counts rate quotes answered by the fallback estimate
type FallbackRecorder interface {
	RecordRateFallback(ctx context.Context, provider, reason string)
}

// Gateway dispatches provider calls to the matching adapter.
//
// Rate quote failures are answered with a deterministic estimate; booking and
// tracking failures propagate as *forwarder.ProviderError.
type Gateway struct {
	credentials forwarder.CredentialStore
	registry    []forwarder.Adapter
	generic     forwarder.Adapter
	cfg         Config
	logger      *zap.Logger
	metrics     FallbackRecorder
}

// NewGateway creates a gateway over a fixed adapter registry. Provider names
// matching no registry key are served by generic.
func NewGateway(
	credentials forwarder.CredentialStore,
	registry []forwarder.Adapter,
	generic forwarder.Adapter,
	cfg Config,
	logger *zap.Logger,
) *Gateway {
	defaults := DefaultConfig()
	if cfg.RateTimeout <= 0 {
		cfg.RateTimeout = defaults.RateTimeout
	}
	if cfg.ShipmentTimeout <= 0 {
		cfg.ShipmentTimeout = defaults.ShipmentTimeout
	}
	if cfg.TrackingTimeout <= 0 {
		cfg.TrackingTimeout = defaults.TrackingTimeout
	}
	if cfg.Estimate.Currency == "" {
		cfg.Estimate = defaults.Estimate
	}
	return &Gateway{
		credentials: credentials,
		registry:    registry,
		generic:     generic,
		cfg:         cfg,
		logger:      logger,
	}
}

// WithMetrics sets the fallback recorder
func (g *Gateway) WithMetrics(metrics FallbackRecorder) *Gateway {
	g.metrics = metrics
	return g
}

// Resolve returns the adapter for providerName: the first registry entry whose
// key is a case-insensitive substring of the name, else the generic adapter.
func (g *Gateway) Resolve(providerName string) forwarder.Adapter {
	name := strings.ToLower(providerName)
	for _, adapter := range g.registry {
		if strings.Contains(name, strings.ToLower(adapter.Name())) {
			return adapter
		}
	}
	return g.generic
}

// GetRate quotes a DDP rate. Only an invalid request is an error; any provider
// or credential failure yields the fallback estimate flagged Estimated.
func (g *Gateway) GetRate(ctx context.Context, providerName string, req *forwarder.DdpRateRequest) (*forwarder.RateQuote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	adapter := g.Resolve(providerName)
	log := g.logger.With(zap.String("provider", providerName), zap.String("adapter", adapter.Name()))

	cred, err := g.credentials.GetCredential(ctx, providerName)
	if err != nil {
		log.Warn("credential unavailable, returning estimated rate", zap.Error(err))
		return g.fallback(ctx, providerName, req, "credential"), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.RateTimeout)
	defer cancel()

	quote, err := adapter.QuoteRate(callCtx, cred, req)
	if err != nil {
		log.Warn("rate quote failed, returning estimated rate", zap.Error(err))
		return g.fallback(ctx, providerName, req, "provider_error"), nil
	}
	if quote.Provider == "" {
		quote.Provider = providerName
	}
	return quote, nil
}

// CreateShipment books a shipment. Every failure propagates.
func (g *Gateway) CreateShipment(ctx context.Context, providerName string, instr *forwarder.ShipmentInstruction) (*forwarder.ShipmentResult, error) {
	if err := instr.Validate(); err != nil {
		return nil, err
	}

	cred, err := g.credentials.GetCredential(ctx, providerName)
	if err != nil {
		return nil, fmt.Errorf("load credential for %s: %w", providerName, err)
	}
	if _, err := cred.RequireWarehouse(instr.SourceCountry); err != nil {
		return nil, err
	}

	adapter := g.Resolve(providerName)
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.ShipmentTimeout)
	defer cancel()

	result, err := adapter.CreateShipment(callCtx, cred, instr)
	if err != nil {
		return nil, asProviderError(providerName, forwarder.OperationCreateShipment, err)
	}
	g.logger.Info("shipment booked",
		zap.String("provider", providerName),
		zap.String("order_id", instr.OrderID),
		zap.String("shipment_id", result.ShipmentID),
		zap.String("tracking_number", result.TrackingNumber),
	)
	return result, nil
}

// GetTracking fetches and normalises tracking. Every failure propagates.
func (g *Gateway) GetTracking(ctx context.Context, providerName, trackingNumber string) (*forwarder.TrackingInfo, error) {
	if strings.TrimSpace(trackingNumber) == "" {
		return nil, fmt.Errorf("%w: tracking number is required", forwarder.ErrInvalidRequest)
	}

	cred, err := g.credentials.GetCredential(ctx, providerName)
	if err != nil {
		return nil, fmt.Errorf("load credential for %s: %w", providerName, err)
	}

	adapter := g.Resolve(providerName)
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.TrackingTimeout)
	defer cancel()

	info, err := adapter.GetTracking(callCtx, cred, trackingNumber)
	if err != nil {
		return nil, asProviderError(providerName, forwarder.OperationGetTracking, err)
	}
	return info, nil
}

// GetWarehouseAddress returns the provider's warehouse in country, or nil when
// the provider or the address is unknown.
func (g *Gateway) GetWarehouseAddress(ctx context.Context, providerName, country string) *forwarder.ShippingAddress {
	cred, err := g.credentials.GetCredential(ctx, providerName)
	if err != nil {
		g.logger.Debug("warehouse lookup without credential",
			zap.String("provider", providerName),
			zap.Error(err),
		)
		return nil
	}
	addr, ok := cred.WarehouseFor(country)
	if !ok {
		return nil
	}
	return addr
}

func (g *Gateway) fallback(ctx context.Context, providerName string, req *forwarder.DdpRateRequest, reason string) *forwarder.RateQuote {
	if g.metrics != nil {
		g.metrics.RecordRateFallback(ctx, providerName, reason)
	}
	return g.cfg.Estimate.Estimate(providerName, req)
}

// asProviderError keeps domain errors intact and turns anything else, including
// context deadline expiry, into a ProviderError.
func asProviderError(provider, operation string, err error) error {
	var pe *forwarder.ProviderError
	if errors.As(err, &pe) ||
		errors.Is(err, forwarder.ErrWarehouseNotFound) ||
		errors.Is(err, forwarder.ErrInvalidRequest) {
		return err
	}
	return forwarder.NewProviderError(provider, operation, 0, "", err)
}
