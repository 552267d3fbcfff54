package forwarder

import (
	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// EstimatePolicy holds the constants of the fallback rate estimate
type EstimatePolicy struct {
	BaseRate       decimal.Decimal
	PerKgRate      decimal.Decimal
	ProcessingRate decimal.Decimal
	RepackPerKg    decimal.Decimal
	RepackCap      decimal.Decimal
	InsuranceRate  decimal.Decimal
	DeliveryDays   int
	Currency       valueobject.Currency
}

// DefaultEstimatePolicy returns base 15 + 8/kg, processing 20%, repack min(5, 2/kg),
// insurance 2% of declared value, 10 days, USD.
func DefaultEstimatePolicy() EstimatePolicy {
	return EstimatePolicy{
		BaseRate:       decimal.NewFromInt(15),
		PerKgRate:      decimal.NewFromInt(8),
		ProcessingRate: decimal.RequireFromString("0.20"),
		RepackPerKg:    decimal.NewFromInt(2),
		RepackCap:      decimal.NewFromInt(5),
		InsuranceRate:  decimal.RequireFromString("0.02"),
		DeliveryDays:   10,
		Currency:       valueobject.USD,
	}
}

// Estimate returns the deterministic quote used when a provider cannot be reached
func (p EstimatePolicy) Estimate(provider string, req *forwarder.DdpRateRequest) *forwarder.RateQuote {
	kg := req.WeightKg()
	base := p.BaseRate.Add(kg.Mul(p.PerKgRate))
	processing := base.Mul(p.ProcessingRate)
	repack := decimal.Min(p.RepackCap, kg.Mul(p.RepackPerKg))
	insurance := req.DeclaredValue.Mul(p.InsuranceRate)

	return &forwarder.RateQuote{
		Provider:              provider,
		BaseShippingCost:      base,
		ProcessingFee:         processing,
		RepackFee:             repack,
		InsuranceFee:          insurance,
		TotalCost:             base.Add(processing).Add(repack).Add(insurance),
		EstimatedDeliveryDays: p.DeliveryDays,
		Currency:              p.Currency,
		Estimated:             true,
	}
}
