package landedcost

import (
	"strings"

	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var gramsPerKg = decimal.NewFromInt(1000)

// ProductInput is the immutable input of a single profit calculation
type ProductInput struct {
	ID                 string
	ClassificationCode string
	SupplierPrice      valueobject.Money
	WeightGrams        int64
	TargetSellingPrice *valueobject.Money
}

// WeightKg returns the weight in kilograms
func (p ProductInput) WeightKg() decimal.Decimal {
	return decimal.NewFromInt(p.WeightGrams).Div(gramsPerKg)
}

// Validate rejects products the engine cannot price under the given policy
func (p ProductInput) Validate(policy CostPolicy) error {
	if strings.TrimSpace(p.ID) == "" {
		return invalid("product.id", "must not be empty")
	}
	if strings.TrimSpace(p.ClassificationCode) == "" {
		return invalid("product.classification_code", "must not be empty")
	}
	if p.WeightGrams < 0 {
		return invalid("product.weight_grams", "must not be negative, got %d", p.WeightGrams)
	}
	if p.SupplierPrice.Currency() != policy.Currency {
		return invalid("product.supplier_price", "currency %q does not match policy currency %q",
			p.SupplierPrice.Currency(), policy.Currency)
	}
	if p.SupplierPrice.IsNegative() {
		return invalid("product.supplier_price", "must not be negative, got %s", p.SupplierPrice)
	}
	if p.TargetSellingPrice != nil {
		if p.TargetSellingPrice.Currency() != policy.Currency {
			return invalid("product.target_selling_price", "currency %q does not match policy currency %q",
				p.TargetSellingPrice.Currency(), policy.Currency)
		}
		if !p.TargetSellingPrice.IsPositive() {
			return invalid("product.target_selling_price", "must be positive, got %s", p.TargetSellingPrice)
		}
	}
	return nil
}
