package fulfillment

import (
	"fmt"
	"strings"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FulfillmentOrder is the marketplace order that triggers the saga
type FulfillmentOrder struct {
	OrderID string
	// Marketplace is where the order came from and where tracking is pushed back
	Marketplace        string
	ProviderName       string
	SourceCountry      string
	SupplierProductID  string
	Quantity           int
	ClassificationCode string
	WeightGrams        int64
	DeclaredValue      decimal.Decimal
	Currency           valueobject.Currency
	DestinationAddress forwarder.ShippingAddress
	RepackInstructions string
	// RemoveBranding overrides the configured default when set
	RemoveBranding *bool
}

// Validate rejects orders the saga cannot run
func (o *FulfillmentOrder) Validate() error {
	switch {
	case strings.TrimSpace(o.OrderID) == "":
		return invalidOrder("order_id is required")
	case strings.TrimSpace(o.ProviderName) == "":
		return invalidOrder("provider_name is required")
	case len(strings.TrimSpace(o.SourceCountry)) != 2:
		return invalidOrder("source_country must be a two-letter code, got %q", o.SourceCountry)
	case strings.TrimSpace(o.SupplierProductID) == "":
		return invalidOrder("supplier_product_id is required")
	case o.Quantity <= 0:
		return invalidOrder("quantity must be positive, got %d", o.Quantity)
	case strings.TrimSpace(o.ClassificationCode) == "":
		return invalidOrder("classification_code is required")
	case o.WeightGrams <= 0:
		return invalidOrder("weight_grams must be positive, got %d", o.WeightGrams)
	case o.DeclaredValue.IsNegative():
		return invalidOrder("declared_value must not be negative")
	case !o.Currency.IsValid():
		return invalidOrder("unknown currency %q", o.Currency)
	}
	if err := o.DestinationAddress.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// ShouldRemoveBranding resolves the per-order flag against the default
func (o *FulfillmentOrder) ShouldRemoveBranding(def bool) bool {
	if o.RemoveBranding != nil {
		return *o.RemoveBranding
	}
	return def
}

func invalidOrder(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrInvalidInput, fmt.Sprintf(format, args...))
}
