package forwarder

import (
	"strings"

	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ServiceType
// ---------------------------------------------------------------------------

// ServiceType selects who pays import duty and tax
type ServiceType string

const (
	// ServiceTypeDDP is Delivered Duty Paid: the seller bears duty and tax
	ServiceTypeDDP ServiceType = "DDP"
	// ServiceTypeDDU is Delivered Duty Unpaid: the consignee pays on arrival
	ServiceTypeDDU ServiceType = "DDU"
)

// IsValid returns true if the service type is valid
func (s ServiceType) IsValid() bool {
	return s == ServiceTypeDDP || s == ServiceTypeDDU
}

// String returns the string representation of ServiceType
func (s ServiceType) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Rate quote
// ---------------------------------------------------------------------------

// DdpRateRequest asks a provider to price a shipment
type DdpRateRequest struct {
	SourceCountry      string
	DestinationCountry string
	WeightGrams        int64
	// DeclaredValue is the customs value of the goods
	DeclaredValue      decimal.Decimal
	Currency           valueobject.Currency
	ClassificationCode string
	ServiceType        ServiceType
}

// WeightKg returns the weight in kilograms
func (r *DdpRateRequest) WeightKg() decimal.Decimal {
	return decimal.NewFromInt(r.WeightGrams).Div(decimal.NewFromInt(1000))
}

// Validate checks the request before it is sent to any provider
func (r *DdpRateRequest) Validate() error {
	if len(strings.TrimSpace(r.SourceCountry)) != 2 {
		return invalidRequest("source country must be a two-letter code, got %q", r.SourceCountry)
	}
	if len(strings.TrimSpace(r.DestinationCountry)) != 2 {
		return invalidRequest("destination country must be a two-letter code, got %q", r.DestinationCountry)
	}
	if r.WeightGrams <= 0 {
		return invalidRequest("weight must be positive, got %d g", r.WeightGrams)
	}
	if r.DeclaredValue.IsNegative() {
		return invalidRequest("declared value must not be negative")
	}
	if !r.Currency.IsValid() {
		return invalidRequest("unknown currency %q", r.Currency)
	}
	if r.ServiceType == "" {
		r.ServiceType = ServiceTypeDDP
	}
	if !r.ServiceType.IsValid() {
		return invalidRequest("unknown service type %q", r.ServiceType)
	}
	return nil
}

// RateQuote is the normalised result of a provider rate call
type RateQuote struct {
	Provider              string
	BaseShippingCost      decimal.Decimal
	ProcessingFee         decimal.Decimal
	RepackFee             decimal.Decimal
	InsuranceFee          decimal.Decimal
	TotalCost             decimal.Decimal
	EstimatedDeliveryDays int
	Currency              valueobject.Currency
	// Estimated is true when the quote is the gateway's fallback estimate
	Estimated bool
}
