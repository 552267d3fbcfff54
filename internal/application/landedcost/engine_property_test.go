package landedcost

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/dropship/backend/internal/domain/landedcost"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var propertyLanes = []landedcost.Route{
	{SourceCountry: "US", TargetCountry: "JP"},
	{SourceCountry: "US", TargetCountry: "GB"},
	{SourceCountry: "CN", TargetCountry: "JP"},
	{SourceCountry: "CN", TargetCountry: "US"},
	{SourceCountry: "JP", TargetCountry: "AU"},
}

func propertyProduct(priceCents, weightGrams int64) landedcost.ProductInput {
	return landedcost.ProductInput{
		ID:                 "sku-prop",
		ClassificationCode: "8471.30",
		SupplierPrice:      valueobject.MustMoney(decimal.New(priceCents, -2), valueobject.USD),
		WeightGrams:        weightGrams,
	}
}

func propertyEngine(dutyPct, taxPct []int) *RouteProfitEngine {
	table := staticRates{}
	for i, lane := range propertyLanes {
		if i >= len(dutyPct) || i >= len(taxPct) {
			break
		}
		// every third lane has no entry to exercise the zero-rate path
		if i%3 == 2 {
			continue
		}
		table[fmt.Sprintf("8471.30|%s|%s", lane.SourceCountry, lane.TargetCountry)] = landedcost.DutyRates{
			DutyRate: decimal.New(int64(dutyPct[i]), -2),
			TaxRate:  decimal.New(int64(taxPct[i]), -2),
		}
	}
	engine, err := NewRouteProfitEngine(table, nil, landedcost.DefaultCostPolicy(), zap.NewNop())
	if err != nil {
		panic(err)
	}
	return engine
}

func TestRouteProfitEngine_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	ctx := context.Background()

	priceGen := gen.Int64Range(0, 500000)
	weightGen := gen.Int64Range(0, 30000)
	ratesGen := gen.SliceOfN(len(propertyLanes), gen.IntRange(0, 40))
	targetGen := gen.IntRange(0, 80)

	properties.Property("calculateProfit is deterministic", prop.ForAll(
		func(price, weight int64, duty, tax []int, target int) bool {
			engine := propertyEngine(duty, tax)
			rate := decimal.New(int64(target), -2)
			a, errA := engine.CalculateProfit(ctx, propertyProduct(price, weight), propertyLanes[0], rate)
			b, errB := engine.CalculateProfit(ctx, propertyProduct(price, weight), propertyLanes[0], rate)
			return errA == nil && errB == nil && reflect.DeepEqual(a, b)
		},
		priceGen, weightGen, ratesGen, ratesGen, targetGen,
	))

	properties.Property("final profit equals selling price minus every cost", prop.ForAll(
		func(price, weight int64, duty, tax []int, target int) bool {
			engine := propertyEngine(duty, tax)
			for _, lane := range propertyLanes {
				r, err := engine.CalculateProfit(ctx, propertyProduct(price, weight), lane, decimal.New(int64(target), -2))
				if err != nil {
					return false
				}
				costs := r.SupplierPrice.Add(r.TotalDutyAndTax).Add(r.InternationalShipping).
					Add(r.ForwarderCost).Add(r.MarketplaceFee)
				if !r.FinalProfit.Equal(r.SellingPrice.Sub(costs)) {
					return false
				}
				if r.IsProfitable != r.FinalProfit.IsPositive() {
					return false
				}
			}
			return true
		},
		priceGen, weightGen, ratesGen, ratesGen, targetGen,
	))

	properties.Property("missing rate entry yields exactly zero duty", prop.ForAll(
		func(price, weight int64) bool {
			engine := propertyEngine(nil, nil)
			r, err := engine.CalculateProfit(ctx, propertyProduct(price, weight), propertyLanes[1], decimal.New(20, -2))
			return err == nil && r.RateLookupMiss && r.DutyAmount.Equal(decimal.Zero) && r.TaxAmount.Equal(decimal.Zero)
		},
		priceGen, weightGen,
	))

	properties.Property("optimal route has the maximum profit and all routes are sorted", prop.ForAll(
		func(price, weight int64, duty, tax []int) bool {
			engine := propertyEngine(duty, tax)
			cmp, err := engine.FindOptimalRoute(ctx, propertyProduct(price, weight), propertyLanes, decimal.New(20, -2))
			if err != nil || len(cmp.All) != len(propertyLanes) {
				return false
			}
			for i, r := range cmp.All {
				if r.FinalProfit.GreaterThan(cmp.Optimal.FinalProfit) {
					return false
				}
				if i > 0 && cmp.All[i-1].FinalProfit.LessThan(r.FinalProfit) {
					return false
				}
			}
			return true
		},
		priceGen, weightGen, ratesGen, ratesGen,
	))

	properties.Property("auto listing price earns at least the minimum margin", prop.ForAll(
		func(price, weight int64, duty, tax []int) bool {
			engine := propertyEngine(duty, tax)
			product := propertyProduct(price, weight)
			listing, err := engine.AutoListingPrice(ctx, product, propertyLanes[0], decimal.New(20, -2))
			if err != nil {
				return false
			}
			r, _ := engine.CalculateProfit(ctx, product, propertyLanes[0], decimal.New(20, -2))
			fee := listing.Mul(engine.Policy().MarketplaceFeeRate)
			profit := listing.Sub(r.TotalCost).Sub(fee)
			floor := listing.Mul(engine.Policy().MinimumMarginRate)
			// allow for the 16-digit division rounding
			return profit.Sub(floor).GreaterThan(decimal.New(-1, -10))
		},
		priceGen, weightGen, ratesGen, ratesGen,
	))

	properties.TestingRun(t)
}
