package landedcost

import (
	"errors"
	"testing"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(s string) valueobject.Money {
	return valueobject.MustMoney(decimal.RequireFromString(s), valueobject.USD)
}

func TestDefaultCostPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultCostPolicy().Validate())

	p := DefaultCostPolicy()
	p.MarketplaceFeeRate = decimal.RequireFromString("0.85")
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	p = DefaultCostPolicy()
	p.InsuranceRate = decimal.RequireFromString("-0.01")
	assert.Error(t, p.Validate())

	p = DefaultCostPolicy()
	p.Currency = "NOPE"
	assert.Error(t, p.Validate())
}

func TestCostPolicy_ForwarderCost(t *testing.T) {
	p := DefaultCostPolicy()

	tests := []struct {
		name     string
		shipping string
		kg       string
		want     string
	}{
		{"half kilo", "19", "0.5", "4.8"},
		{"repack capped", "55", "5", "16"},
		{"zero weight", "15", "0", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ForwarderCost(decimal.RequireFromString(tt.shipping), decimal.RequireFromString(tt.kg))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestCostPolicy_CheckTargetProfitRate(t *testing.T) {
	p := DefaultCostPolicy()
	assert.NoError(t, p.CheckTargetProfitRate(decimal.Zero))
	assert.NoError(t, p.CheckTargetProfitRate(decimal.RequireFromString("0.84")))
	assert.Error(t, p.CheckTargetProfitRate(decimal.RequireFromString("0.85")))
	assert.Error(t, p.CheckTargetProfitRate(decimal.RequireFromString("-0.1")))
}

func TestProductInput_Validate(t *testing.T) {
	policy := DefaultCostPolicy()
	valid := ProductInput{ID: "sku-1", ClassificationCode: "6109.10", SupplierPrice: usd("50"), WeightGrams: 500}
	require.NoError(t, valid.Validate(policy))
	assert.True(t, valid.WeightKg().Equal(decimal.RequireFromString("0.5")))

	jpy := valueobject.MustMoney(decimal.NewFromInt(500), valueobject.JPY)
	zero := usd("0")

	tests := []struct {
		name  string
		mut   func(p *ProductInput)
		field string
	}{
		{"empty id", func(p *ProductInput) { p.ID = " " }, "product.id"},
		{"empty code", func(p *ProductInput) { p.ClassificationCode = "" }, "product.classification_code"},
		{"negative weight", func(p *ProductInput) { p.WeightGrams = -1 }, "product.weight_grams"},
		{"negative price", func(p *ProductInput) { p.SupplierPrice = usd("-0.01") }, "product.supplier_price"},
		{"foreign currency", func(p *ProductInput) { p.SupplierPrice = jpy }, "product.supplier_price"},
		{"zero target", func(p *ProductInput) { p.TargetSellingPrice = &zero }, "product.target_selling_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mut(&p)
			err := p.Validate(policy)
			var iie *InvalidInputError
			require.True(t, errors.As(err, &iie), "expected InvalidInputError, got %v", err)
			assert.Equal(t, tt.field, iie.Field)
		})
	}
}

func TestRoute(t *testing.T) {
	r, err := NewRoute(" us", "jp ")
	require.NoError(t, err)
	assert.Equal(t, Route{SourceCountry: "US", TargetCountry: "JP"}, r)
	assert.Equal(t, "US->JP", r.String())

	_, err = NewRoute("USA", "JP")
	assert.Error(t, err)
	_, err = NewRoute("US", "J1")
	assert.Error(t, err)
}

func TestProfitResult_Rounded(t *testing.T) {
	rec := decimal.RequireFromString("130.218923")
	r := ProfitResult{
		Currency:         valueobject.USD,
		SellingPrice:     rec,
		FinalProfit:      decimal.RequireFromString("26.04378"),
		ProfitMarginPct:  decimal.RequireFromString("19.999"),
		RecommendedPrice: &rec,
	}
	out := r.Rounded()
	assert.Equal(t, "130.22", out.SellingPrice.String())
	assert.Equal(t, "26.04", out.FinalProfit.String())
	assert.Equal(t, "20", out.ProfitMarginPct.String())
	assert.Equal(t, "130.22", out.RecommendedPrice.String())
	// original untouched
	assert.Equal(t, "130.218923", r.RecommendedPrice.String())
}
