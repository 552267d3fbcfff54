package dto

import (
	"github.com/dropship/backend/internal/domain/landedcost"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProductRequest is the product part of every profit request.
// Prices are in Currency, which defaults to the engine's policy currency.
type ProductRequest struct {
	ID                 string           `json:"id" binding:"required,max=100"`
	ClassificationCode string           `json:"classification_code" binding:"required,hscode"`
	SupplierPrice      decimal.Decimal  `json:"supplier_price"`
	Currency           string           `json:"currency,omitempty" binding:"omitempty,len=3"`
	WeightGrams        int64            `json:"weight_grams" binding:"gte=0"`
	TargetSellingPrice *decimal.Decimal `json:"target_selling_price,omitempty"`
}

// ToDomain converts the request into a ProductInput
func (r ProductRequest) ToDomain(defaultCurrency valueobject.Currency) (landedcost.ProductInput, error) {
	cur := defaultCurrency
	if r.Currency != "" {
		parsed, err := valueobject.ParseCurrency(r.Currency)
		if err != nil {
			return landedcost.ProductInput{}, &landedcost.InvalidInputError{Field: "product.currency", Reason: err.Error()}
		}
		cur = parsed
	}

	price, err := valueobject.NewMoney(r.SupplierPrice, cur)
	if err != nil {
		return landedcost.ProductInput{}, &landedcost.InvalidInputError{Field: "product.supplier_price", Reason: err.Error()}
	}

	in := landedcost.ProductInput{
		ID:                 r.ID,
		ClassificationCode: r.ClassificationCode,
		SupplierPrice:      price,
		WeightGrams:        r.WeightGrams,
	}
	if r.TargetSellingPrice != nil {
		target, err := valueobject.NewMoney(*r.TargetSellingPrice, cur)
		if err != nil {
			return landedcost.ProductInput{}, &landedcost.InvalidInputError{Field: "product.target_selling_price", Reason: err.Error()}
		}
		in.TargetSellingPrice = &target
	}
	return in, nil
}

// CalculateProfitRequest prices one product on one route
type CalculateProfitRequest struct {
	Product          ProductRequest   `json:"product"`
	Route            landedcost.Route `json:"route"`
	TargetProfitRate *decimal.Decimal `json:"target_profit_rate,omitempty"`
}

// OptimalRouteRequest compares several routes for one product
type OptimalRouteRequest struct {
	Product          ProductRequest     `json:"product"`
	Routes           []landedcost.Route `json:"routes" binding:"required,max=50"`
	TargetProfitRate *decimal.Decimal   `json:"target_profit_rate,omitempty"`
}

// ListingPriceRequest has the same shape as CalculateProfitRequest
type ListingPriceRequest = CalculateProfitRequest

// TargetRate returns rate, or def when the request omitted it
func TargetRate(rate *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if rate == nil {
		return def
	}
	return *rate
}

// ProfitResultResponse is the rounded breakdown of one calculation
type ProfitResultResponse struct {
	ProductID             string           `json:"product_id"`
	Route                 landedcost.Route `json:"route"`
	Currency              string           `json:"currency"`
	DutyRate              decimal.Decimal  `json:"duty_rate"`
	TaxRate               decimal.Decimal  `json:"tax_rate"`
	RateLookupMiss        bool             `json:"rate_lookup_miss"`
	SupplierPrice         decimal.Decimal  `json:"supplier_price"`
	InternationalShipping decimal.Decimal  `json:"international_shipping"`
	InsuranceFee          decimal.Decimal  `json:"insurance_fee"`
	CIFPrice              decimal.Decimal  `json:"cif_price"`
	DutyAmount            decimal.Decimal  `json:"duty_amount"`
	TaxAmount             decimal.Decimal  `json:"tax_amount"`
	TotalDutyAndTax       decimal.Decimal  `json:"total_duty_and_tax"`
	ForwarderCost         decimal.Decimal  `json:"forwarder_cost"`
	TotalCost             decimal.Decimal  `json:"total_cost"`
	SellingPrice          decimal.Decimal  `json:"selling_price"`
	MarketplaceFee        decimal.Decimal  `json:"marketplace_fee"`
	FinalProfit           decimal.Decimal  `json:"final_profit"`
	ProfitMarginPct       decimal.Decimal  `json:"profit_margin_pct"`
	IsProfitable          bool             `json:"is_profitable"`
	RecommendedPrice      *decimal.Decimal `json:"recommended_price,omitempty"`
}

// NewProfitResultResponse rounds r for display
func NewProfitResultResponse(r landedcost.ProfitResult) ProfitResultResponse {
	r = r.Rounded()
	return ProfitResultResponse{
		ProductID:             r.ProductID,
		Route:                 r.Route,
		Currency:              string(r.Currency),
		DutyRate:              r.DutyRate,
		TaxRate:               r.TaxRate,
		RateLookupMiss:        r.RateLookupMiss,
		SupplierPrice:         r.SupplierPrice,
		InternationalShipping: r.InternationalShipping,
		InsuranceFee:          r.InsuranceFee,
		CIFPrice:              r.CIFPrice,
		DutyAmount:            r.DutyAmount,
		TaxAmount:             r.TaxAmount,
		TotalDutyAndTax:       r.TotalDutyAndTax,
		ForwarderCost:         r.ForwarderCost,
		TotalCost:             r.TotalCost,
		SellingPrice:          r.SellingPrice,
		MarketplaceFee:        r.MarketplaceFee,
		FinalProfit:           r.FinalProfit,
		ProfitMarginPct:       r.ProfitMarginPct,
		IsProfitable:          r.IsProfitable,
		RecommendedPrice:      r.RecommendedPrice,
	}
}

// RouteComparisonResponse lists every evaluated route, best first
type RouteComparisonResponse struct {
	Optimal ProfitResultResponse   `json:"optimal"`
	All     []ProfitResultResponse `json:"all"`
}

// NewRouteComparisonResponse converts a comparison
func NewRouteComparisonResponse(c *landedcost.RouteComparison) RouteComparisonResponse {
	all := make([]ProfitResultResponse, len(c.All))
	for i, r := range c.All {
		all[i] = NewProfitResultResponse(r)
	}
	return RouteComparisonResponse{Optimal: NewProfitResultResponse(c.Optimal), All: all}
}

// ListingPriceResponse carries the price to list a product at
type ListingPriceResponse struct {
	ProductID    string           `json:"product_id"`
	Route        landedcost.Route `json:"route"`
	Currency     string           `json:"currency"`
	ListingPrice decimal.Decimal  `json:"listing_price"`
}
