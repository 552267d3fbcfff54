package landedcost

import (
	"context"

	"github.com/shopspring/decimal"
)

// DutyRates holds the import duty and consumption tax (VAT/GST) rates of a lane
type DutyRates struct {
	DutyRate decimal.Decimal
	TaxRate  decimal.Decimal
}

// RateTable is the read-only duty/tax lookup.
// Implementations return ErrRateNotFound when no entry exists.
type RateTable interface {
	Lookup(ctx context.Context, classificationCode, exportCountry, importCountry string) (DutyRates, error)
}

// ShippingEstimator prices international shipping for a product on a route
type ShippingEstimator interface {
	EstimateShipping(ctx context.Context, product ProductInput, route Route) (decimal.Decimal, error)
}

// LinearShippingModel is the placeholder estimator: base + kg * per-kg
type LinearShippingModel struct {
	Policy CostPolicy
}

// EstimateShipping implements ShippingEstimator
func (m LinearShippingModel) EstimateShipping(_ context.Context, product ProductInput, _ Route) (decimal.Decimal, error) {
	return m.Policy.LinearShipping(product.WeightKg()), nil
}
