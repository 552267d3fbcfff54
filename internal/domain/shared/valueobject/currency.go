package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency is an ISO 4217 code
type Currency string

const (
	USD Currency = "USD"
	JPY Currency = "JPY"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CNY Currency = "CNY"
)

// DefaultCurrency is the currency landed-cost figures are computed in
const DefaultCurrency = USD

// ParseCurrency trims, upper-cases and validates an ISO 4217 code
func ParseCurrency(code string) (Currency, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

func (c Currency) IsValid() bool {
	_, err := currency.ParseISO(string(c))
	return err == nil
}

// MinorUnits is the number of decimal places of a cash amount: 2 for USD, 0 for JPY.
// Unknown codes are treated as having 2.
func (c Currency) MinorUnits() int32 {
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// ToMinor converts amount to integer minor units (cents, yen), rounding half away from zero
func (c Currency) ToMinor(amount decimal.Decimal) int64 {
	return amount.Shift(c.MinorUnits()).Round(0).IntPart()
}

// FromMinor converts integer minor units back to an amount
func (c Currency) FromMinor(units int64) decimal.Decimal {
	return decimal.New(units, -c.MinorUnits())
}
