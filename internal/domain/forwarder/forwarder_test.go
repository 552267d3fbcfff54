package forwarder

import (
	"context"
	"errors"
	"testing"

	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredential() *Credential {
	return &Credential{
		ProviderName: "CPass",
		APIKey:       "key",
		APIEndpoint:  "https://api.example.test",
		WarehouseAddresses: []ShippingAddress{
			{Name: "CPass US", AddressLine1: "1 Dock Rd", City: "Portland", State: "OR", PostalCode: "97203", Country: "US"},
			{Name: "CPass JP", AddressLine1: "2-1 Ariake", City: "Tokyo", PostalCode: "135-0063", Country: "JP"},
		},
	}
}

func TestCredential_WarehouseFor(t *testing.T) {
	cred := testCredential()

	addr, ok := cred.WarehouseFor("us")
	require.True(t, ok)
	assert.Equal(t, "Portland", addr.City)

	addr.City = "mutated"
	again, _ := cred.WarehouseFor("US")
	assert.Equal(t, "Portland", again.City, "returned address must be a copy")

	_, ok = cred.WarehouseFor("DE")
	assert.False(t, ok)
}

func TestCredential_RequireWarehouse(t *testing.T) {
	_, err := testCredential().RequireWarehouse("de")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWarehouseNotFound))

	var wnf *WarehouseNotFoundError
	require.True(t, errors.As(err, &wnf))
	assert.Equal(t, "DE", wnf.Country)
	assert.Equal(t, "CPass", wnf.Provider)
}

func TestProviderError(t *testing.T) {
	err := NewProviderError("eloji", OperationQuoteRate, 503, "service unavailable", context.DeadlineExceeded)

	assert.True(t, errors.Is(err, ErrProviderFailure))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "eloji quote_rate failed (http 503)")

	var pe *ProviderError
	wrapped := errors.Join(errors.New("outer"), err)
	require.True(t, errors.As(wrapped, &pe))
	assert.Equal(t, 503, pe.StatusCode)

	bare := NewProviderError("yamato", OperationGetTracking, 0, "", nil)
	assert.True(t, errors.Is(bare, ErrProviderFailure))
	assert.Equal(t, "forwarder yamato get_tracking failed", bare.Error())
}

func TestNormalizeStatus(t *testing.T) {
	table := map[string]TrackingStatus{
		"DELIVERED": TrackingStatusDelivered,
		"HELD":      TrackingStatusException,
	}
	assert.Equal(t, TrackingStatusDelivered, NormalizeStatus("DELIVERED", table))
	assert.Equal(t, TrackingStatusException, NormalizeStatus("HELD", table))
	assert.Equal(t, TrackingStatusInTransit, NormalizeStatus("SOMETHING_NEW", table))

	numeric := map[int]TrackingStatus{5: TrackingStatusDelivered}
	assert.Equal(t, TrackingStatusDelivered, NormalizeStatus(5, numeric))
	assert.Equal(t, TrackingStatusInTransit, NormalizeStatus(99, numeric))
}

func TestDdpRateRequest_Validate(t *testing.T) {
	valid := func() *DdpRateRequest {
		return &DdpRateRequest{
			SourceCountry:      "US",
			DestinationCountry: "JP",
			WeightGrams:        500,
			DeclaredValue:      decimal.NewFromInt(50),
			Currency:           valueobject.USD,
			ClassificationCode: "6109.10",
		}
	}

	req := valid()
	require.NoError(t, req.Validate())
	assert.Equal(t, ServiceTypeDDP, req.ServiceType, "empty service type defaults to DDP")
	assert.True(t, req.WeightKg().Equal(decimal.RequireFromString("0.5")))

	tests := []struct {
		name string
		mut  func(r *DdpRateRequest)
	}{
		{"bad source", func(r *DdpRateRequest) { r.SourceCountry = "USA" }},
		{"bad destination", func(r *DdpRateRequest) { r.DestinationCountry = "" }},
		{"zero weight", func(r *DdpRateRequest) { r.WeightGrams = 0 }},
		{"negative value", func(r *DdpRateRequest) { r.DeclaredValue = decimal.NewFromInt(-1) }},
		{"bad currency", func(r *DdpRateRequest) { r.Currency = "ZZZZ" }},
		{"bad service", func(r *DdpRateRequest) { r.ServiceType = "EXW" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mut(r)
			assert.True(t, errors.Is(r.Validate(), ErrInvalidRequest))
		})
	}
}

func TestShipmentInstruction_Validate(t *testing.T) {
	instr := &ShipmentInstruction{
		OrderID:            "order-1",
		ServiceType:        ServiceTypeDDP,
		SourceCountry:      "US",
		WeightGrams:        500,
		DeclaredValue:      decimal.NewFromInt(50),
		Currency:           valueobject.USD,
		ClassificationCode: "6109.10",
		DestinationAddress: ShippingAddress{
			Name: "Hanako", AddressLine1: "1-1 Chiyoda", City: "Tokyo", PostalCode: "100-0001", Country: "JP",
		},
	}
	require.NoError(t, instr.Validate())

	instr.DestinationAddress.PostalCode = ""
	assert.True(t, errors.Is(instr.Validate(), ErrInvalidRequest))

	instr.DestinationAddress.PostalCode = "100-0001"
	instr.OrderID = ""
	assert.True(t, errors.Is(instr.Validate(), ErrInvalidRequest))
}
