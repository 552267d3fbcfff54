package landedcost

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dropship/backend/internal/domain/landedcost"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMaxParallelRoutes = 8

var hundred = decimal.NewFromInt(100)

// RouteProfitEngine computes landed cost and profit for products on trade routes.
// It holds no mutable state and is safe for concurrent use.
type RouteProfitEngine struct {
	rates       landedcost.RateTable
	shipping    landedcost.ShippingEstimator
	policy      landedcost.CostPolicy
	logger      *zap.Logger
	maxParallel int
}

// NewRouteProfitEngine creates a new engine. A nil shipping estimator uses the
// linear placeholder model of the policy.
func NewRouteProfitEngine(
	rates landedcost.RateTable,
	shipping landedcost.ShippingEstimator,
	policy landedcost.CostPolicy,
	logger *zap.Logger,
) (*RouteProfitEngine, error) {
	if rates == nil {
		return nil, errors.New("rate table is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if shipping == nil {
		shipping = landedcost.LinearShippingModel{Policy: policy}
	}
	return &RouteProfitEngine{
		rates:       rates,
		shipping:    shipping,
		policy:      policy,
		logger:      logger,
		maxParallel: defaultMaxParallelRoutes,
	}, nil
}

// WithMaxParallel bounds concurrent route evaluations in FindOptimalRoute
func (e *RouteProfitEngine) WithMaxParallel(n int) *RouteProfitEngine {
	if n > 0 {
		e.maxParallel = n
	}
	return e
}

// Policy returns the cost policy in effect
func (e *RouteProfitEngine) Policy() landedcost.CostPolicy {
	return e.policy
}

// CalculateProfit produces the full cost and profit breakdown of product on route.
// A missing or failing rate lookup degrades to zero duty and tax; only invalid
// input is an error.
func (e *RouteProfitEngine) CalculateProfit(
	ctx context.Context,
	product landedcost.ProductInput,
	route landedcost.Route,
	targetProfitRate decimal.Decimal,
) (*landedcost.ProfitResult, error) {
	if err := product.Validate(e.policy); err != nil {
		return nil, err
	}
	route = route.Normalize()
	if err := route.Validate(); err != nil {
		return nil, err
	}
	if err := e.policy.CheckTargetProfitRate(targetProfitRate); err != nil {
		return nil, err
	}

	weightKg := product.WeightKg()
	supplier := product.SupplierPrice.Amount()

	shipping, err := e.shipping.EstimateShipping(ctx, product, route)
	if err != nil {
		return nil, fmt.Errorf("estimate shipping for %s: %w", route, err)
	}
	insurance := e.policy.Insurance(shipping)
	cif := supplier.Add(shipping).Add(insurance)

	rates, miss := e.lookupRates(ctx, product, route)
	duty := cif.Mul(rates.DutyRate)
	tax := cif.Add(duty).Mul(rates.TaxRate)
	dutyAndTax := duty.Add(tax)

	forwarderCost := e.policy.ForwarderCost(shipping, weightKg)
	totalCost := supplier.Add(dutyAndTax).Add(shipping).Add(forwarderCost)

	result := &landedcost.ProfitResult{
		ProductID:             product.ID,
		Route:                 route,
		Currency:              e.policy.Currency,
		DutyRate:              rates.DutyRate,
		TaxRate:               rates.TaxRate,
		RateLookupMiss:        miss,
		SupplierPrice:         supplier,
		InternationalShipping: shipping,
		InsuranceFee:          insurance,
		CIFPrice:              cif,
		DutyAmount:            duty,
		TaxAmount:             tax,
		TotalDutyAndTax:       dutyAndTax,
		ForwarderCost:         forwarderCost,
		TotalCost:             totalCost,
	}

	if product.TargetSellingPrice != nil {
		result.SellingPrice = product.TargetSellingPrice.Amount()
	} else {
		recommended := e.policy.PriceForMargin(totalCost, targetProfitRate)
		result.SellingPrice = recommended
		result.RecommendedPrice = &recommended
	}

	result.MarketplaceFee = result.SellingPrice.Mul(e.policy.MarketplaceFeeRate)
	result.FinalProfit = result.SellingPrice.Sub(totalCost.Add(result.MarketplaceFee))
	if result.SellingPrice.IsPositive() {
		result.ProfitMarginPct = result.FinalProfit.Div(result.SellingPrice).Mul(hundred)
	}
	result.IsProfitable = result.FinalProfit.IsPositive()

	return result, nil
}

// FindOptimalRoute evaluates every route in parallel and returns them sorted by
// final profit descending. Equal profits keep their input order, so the first
// route seen wins a tie.
func (e *RouteProfitEngine) FindOptimalRoute(
	ctx context.Context,
	product landedcost.ProductInput,
	routes []landedcost.Route,
	targetProfitRate decimal.Decimal,
) (*landedcost.RouteComparison, error) {
	if len(routes) == 0 {
		return nil, &landedcost.InvalidInputError{Field: "routes", Reason: "at least one route is required"}
	}

	results := make([]landedcost.ProfitResult, len(routes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)
	for i, route := range routes {
		i, route := i, route
		g.Go(func() error {
			r, err := e.CalculateProfit(gctx, product, route, targetProfitRate)
			if err != nil {
				return err
			}
			results[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalProfit.GreaterThan(results[j].FinalProfit)
	})

	return &landedcost.RouteComparison{
		Optimal: results[0],
		All:     results,
	}, nil
}

// AutoListingPrice returns the selling price when it is profitable, otherwise the
// minimum viable price that still earns the policy's minimum margin.
func (e *RouteProfitEngine) AutoListingPrice(
	ctx context.Context,
	product landedcost.ProductInput,
	route landedcost.Route,
	targetProfitRate decimal.Decimal,
) (decimal.Decimal, error) {
	result, err := e.CalculateProfit(ctx, product, route, targetProfitRate)
	if err != nil {
		return decimal.Zero, err
	}
	if result.IsProfitable {
		return result.SellingPrice, nil
	}

	minimum := e.policy.PriceForMargin(result.TotalCost, e.policy.MinimumMarginRate)
	e.logger.Info("selling price not profitable, using minimum margin price",
		zap.String("product_id", product.ID),
		zap.String("route", result.Route.String()),
		zap.String("selling_price", result.SellingPrice.String()),
		zap.String("minimum_price", minimum.String()),
	)
	return minimum, nil
}

func (e *RouteProfitEngine) lookupRates(
	ctx context.Context,
	product landedcost.ProductInput,
	route landedcost.Route,
) (landedcost.DutyRates, bool) {
	rates, err := e.rates.Lookup(ctx, product.ClassificationCode, route.SourceCountry, route.TargetCountry)
	if err == nil {
		return rates, false
	}

	fields := []zap.Field{
		zap.String("product_id", product.ID),
		zap.String("classification_code", product.ClassificationCode),
		zap.String("route", route.String()),
	}
	if errors.Is(err, landedcost.ErrRateNotFound) {
		e.logger.Warn("duty rate not found, using zero rates", fields...)
	} else {
		e.logger.Error("duty rate lookup failed, using zero rates", append(fields, zap.Error(err))...)
	}
	return landedcost.DutyRates{DutyRate: decimal.Zero, TaxRate: decimal.Zero}, true
}
