package landedcost

import (
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProfitResult is the full cost and profit breakdown of one product on one route.
// It is computed fresh per call; amounts are exact decimals in the policy currency.
type ProfitResult struct {
	ProductID      string
	Route          Route
	Currency       valueobject.Currency
	DutyRate       decimal.Decimal
	TaxRate        decimal.Decimal
	RateLookupMiss bool

	SupplierPrice         decimal.Decimal
	InternationalShipping decimal.Decimal
	InsuranceFee          decimal.Decimal
	CIFPrice              decimal.Decimal
	DutyAmount            decimal.Decimal
	TaxAmount             decimal.Decimal
	TotalDutyAndTax       decimal.Decimal
	ForwarderCost         decimal.Decimal
	TotalCost             decimal.Decimal
	SellingPrice          decimal.Decimal
	MarketplaceFee        decimal.Decimal
	FinalProfit           decimal.Decimal
	ProfitMarginPct       decimal.Decimal
	IsProfitable          bool

	// RecommendedPrice is set only when the selling price was solved from the target rate
	RecommendedPrice *decimal.Decimal
}

// Rounded returns a copy with money rounded to the currency's minor unit
// and the margin rounded to two places. Use it for display only.
func (r ProfitResult) Rounded() ProfitResult {
	places := r.Currency.MinorUnits()
	out := r
	for _, f := range []*decimal.Decimal{
		&out.SupplierPrice, &out.InternationalShipping, &out.InsuranceFee, &out.CIFPrice,
		&out.DutyAmount, &out.TaxAmount, &out.TotalDutyAndTax, &out.ForwarderCost,
		&out.TotalCost, &out.SellingPrice, &out.MarketplaceFee, &out.FinalProfit,
	} {
		*f = f.Round(places)
	}
	out.ProfitMarginPct = r.ProfitMarginPct.Round(2)
	if r.RecommendedPrice != nil {
		rp := r.RecommendedPrice.Round(places)
		out.RecommendedPrice = &rp
	}
	return out
}

// RouteComparison is the outcome of evaluating several routes for one product
type RouteComparison struct {
	Optimal ProfitResult
	// All is sorted by FinalProfit descending; equal profits keep input order
	All []ProfitResult
}
