package landedcost

import (
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CostPolicy carries every constant the landed-cost rules depend on.
// DefaultCostPolicy returns the documented defaults; deployments override
// them through configuration.
type CostPolicy struct {
	Currency valueobject.Currency

	// International shipping placeholder: base + kg * per-kg
	ShippingBaseRate  decimal.Decimal
	ShippingPerKgRate decimal.Decimal

	// Insurance is a share of international shipping
	InsuranceRate decimal.Decimal

	// Forwarder cost: shipping * processing + min(cap, kg * repack-per-kg)
	ProcessingFeeRate decimal.Decimal
	RepackPerKgRate   decimal.Decimal
	RepackFeeCap      decimal.Decimal

	MarketplaceFeeRate      decimal.Decimal
	MinimumMarginRate       decimal.Decimal
	DefaultTargetProfitRate decimal.Decimal
}

// DefaultCostPolicy returns the default USD cost policy
func DefaultCostPolicy() CostPolicy {
	return CostPolicy{
		Currency:                valueobject.USD,
		ShippingBaseRate:        decimal.NewFromInt(15),
		ShippingPerKgRate:       decimal.NewFromInt(8),
		InsuranceRate:           decimal.RequireFromString("0.05"),
		ProcessingFeeRate:       decimal.RequireFromString("0.20"),
		RepackPerKgRate:         decimal.NewFromInt(2),
		RepackFeeCap:            decimal.NewFromInt(5),
		MarketplaceFeeRate:      decimal.RequireFromString("0.15"),
		MinimumMarginRate:       decimal.RequireFromString("0.05"),
		DefaultTargetProfitRate: decimal.RequireFromString("0.20"),
	}
}

// Validate checks that the policy can produce a finite selling price
func (p CostPolicy) Validate() error {
	if !p.Currency.IsValid() {
		return invalid("policy.currency", "%q is not an ISO 4217 code", p.Currency)
	}
	fields := map[string]decimal.Decimal{
		"policy.shipping_base_rate":   p.ShippingBaseRate,
		"policy.shipping_per_kg_rate": p.ShippingPerKgRate,
		"policy.insurance_rate":       p.InsuranceRate,
		"policy.processing_fee_rate":  p.ProcessingFeeRate,
		"policy.repack_per_kg_rate":   p.RepackPerKgRate,
		"policy.repack_fee_cap":       p.RepackFeeCap,
		"policy.marketplace_fee_rate": p.MarketplaceFeeRate,
		"policy.minimum_margin_rate":  p.MinimumMarginRate,
	}
	for name, v := range fields {
		if v.IsNegative() {
			return invalid(name, "must not be negative, got %s", v)
		}
	}
	if p.MarketplaceFeeRate.Add(p.MinimumMarginRate).GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return invalid("policy.minimum_margin_rate", "fee rate plus minimum margin must stay below 1")
	}
	return p.CheckTargetProfitRate(p.DefaultTargetProfitRate)
}

// CheckTargetProfitRate rejects rates that leave no room for the marketplace fee
func (p CostPolicy) CheckTargetProfitRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return invalid("target_profit_rate", "must not be negative, got %s", rate)
	}
	if rate.Add(p.MarketplaceFeeRate).GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return invalid("target_profit_rate", "%s plus marketplace fee %s must stay below 1", rate, p.MarketplaceFeeRate)
	}
	return nil
}

// LinearShipping is the placeholder international shipping model
func (p CostPolicy) LinearShipping(weightKg decimal.Decimal) decimal.Decimal {
	return p.ShippingBaseRate.Add(weightKg.Mul(p.ShippingPerKgRate))
}

// Insurance returns the insurance share of a shipping amount
func (p CostPolicy) Insurance(shipping decimal.Decimal) decimal.Decimal {
	return shipping.Mul(p.InsuranceRate)
}

// ProcessingFee returns the forwarder processing fee for a shipping amount
func (p CostPolicy) ProcessingFee(shipping decimal.Decimal) decimal.Decimal {
	return shipping.Mul(p.ProcessingFeeRate)
}

// RepackFee returns min(cap, kg * per-kg)
func (p CostPolicy) RepackFee(weightKg decimal.Decimal) decimal.Decimal {
	return decimal.Min(p.RepackFeeCap, weightKg.Mul(p.RepackPerKgRate))
}

// ForwarderCost returns processing plus repack
func (p CostPolicy) ForwarderCost(shipping, weightKg decimal.Decimal) decimal.Decimal {
	return p.ProcessingFee(shipping).Add(p.RepackFee(weightKg))
}

// PriceForMargin solves selling = totalCost / (1 - marginRate - fee)
func (p CostPolicy) PriceForMargin(totalCost, marginRate decimal.Decimal) decimal.Decimal {
	divisor := decimal.NewFromInt(1).Sub(marginRate).Sub(p.MarketplaceFeeRate)
	return totalCost.Div(divisor)
}
