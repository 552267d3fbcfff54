package landedcost

import (
	"context"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/landedcost"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateQuoter is the slice of the forwarder gateway the estimator needs
type RateQuoter interface {
	GetRate(ctx context.Context, providerName string, req *forwarder.DdpRateRequest) (*forwarder.RateQuote, error)
}

// GatewayShippingEstimator prices international shipping with a forwarder's
// DDP quote instead of the linear placeholder. Quotes in a currency other than
// the policy currency, and zero-weight products, fall back to the linear model.
type GatewayShippingEstimator struct {
	quoter   RateQuoter
	provider string
	policy   landedcost.CostPolicy
	logger   *zap.Logger
}

// NewGatewayShippingEstimator creates an estimator quoting through provider
func NewGatewayShippingEstimator(
	quoter RateQuoter,
	provider string,
	policy landedcost.CostPolicy,
	logger *zap.Logger,
) *GatewayShippingEstimator {
	return &GatewayShippingEstimator{
		quoter:   quoter,
		provider: provider,
		policy:   policy,
		logger:   logger,
	}
}

// EstimateShipping implements landedcost.ShippingEstimator
func (g *GatewayShippingEstimator) EstimateShipping(
	ctx context.Context,
	product landedcost.ProductInput,
	route landedcost.Route,
) (decimal.Decimal, error) {
	linear := g.policy.LinearShipping(product.WeightKg())
	if product.WeightGrams <= 0 {
		return linear, nil
	}

	quote, err := g.quoter.GetRate(ctx, g.provider, &forwarder.DdpRateRequest{
		SourceCountry:      route.SourceCountry,
		DestinationCountry: route.TargetCountry,
		WeightGrams:        product.WeightGrams,
		DeclaredValue:      product.SupplierPrice.Amount(),
		Currency:           product.SupplierPrice.Currency(),
		ClassificationCode: product.ClassificationCode,
		ServiceType:        forwarder.ServiceTypeDDP,
	})
	if err != nil {
		g.logger.Warn("forwarder quote unavailable, using linear shipping model",
			zap.String("provider", g.provider),
			zap.String("route", route.String()),
			zap.Error(err),
		)
		return linear, nil
	}
	if quote.Currency != g.policy.Currency {
		g.logger.Warn("forwarder quote currency differs from policy, using linear shipping model",
			zap.String("provider", g.provider),
			zap.String("quote_currency", string(quote.Currency)),
			zap.String("policy_currency", string(g.policy.Currency)),
		)
		return linear, nil
	}
	return quote.BaseShippingCost, nil
}

var _ landedcost.ShippingEstimator = (*GatewayShippingEstimator)(nil)
