package forwarder

import (
	"strings"
	"time"

	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ShipmentInstruction books a shipment from a forwarder warehouse to the consignee.
// OrderID doubles as the idempotency reference sent to the provider.
type ShipmentInstruction struct {
	OrderID            string
	ProviderName       string
	ServiceType        ServiceType
	SourceCountry      string
	DestinationAddress ShippingAddress
	WeightGrams        int64
	DeclaredValue      decimal.Decimal
	Currency           valueobject.Currency
	ClassificationCode string
	RepackInstructions string
	RemoveBranding     bool
}

// Validate checks the instruction before booking
func (s *ShipmentInstruction) Validate() error {
	if strings.TrimSpace(s.OrderID) == "" {
		return invalidRequest("order id is required")
	}
	if !s.ServiceType.IsValid() {
		return invalidRequest("unknown service type %q", s.ServiceType)
	}
	if len(strings.TrimSpace(s.SourceCountry)) != 2 {
		return invalidRequest("source country must be a two-letter code, got %q", s.SourceCountry)
	}
	if s.WeightGrams <= 0 {
		return invalidRequest("weight must be positive, got %d g", s.WeightGrams)
	}
	if s.DeclaredValue.IsNegative() {
		return invalidRequest("declared value must not be negative")
	}
	if !s.Currency.IsValid() {
		return invalidRequest("unknown currency %q", s.Currency)
	}
	if strings.TrimSpace(s.ClassificationCode) == "" {
		return invalidRequest("classification code is required")
	}
	return s.DestinationAddress.Validate()
}

// ShipmentResult is the normalised result of a booking
type ShipmentResult struct {
	Success             bool            `json:"success"`
	ShipmentID          string          `json:"shipment_id"`
	TrackingNumber      string          `json:"tracking_number,omitempty"`
	WarehouseAddress    ShippingAddress `json:"warehouse_address"`
	EstimatedPickupDate *time.Time      `json:"estimated_pickup_date,omitempty"`
	Message             string          `json:"message,omitempty"`
}
