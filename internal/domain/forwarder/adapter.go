package forwarder

import "context"

// Adapter normalises one provider's rate, booking and tracking APIs.
//
// CreateShipment must be safe to retry: adapters forward OrderID as the
// provider's reference field and resolve the warehouse for SourceCountry,
// failing with WarehouseNotFoundError when the credential has none.
// All provider failures are returned as *ProviderError.
type Adapter interface {
	// Name returns the registry key of the adapter, e.g. "cpass"
	Name() string
	QuoteRate(ctx context.Context, cred *Credential, req *DdpRateRequest) (*RateQuote, error)
	CreateShipment(ctx context.Context, cred *Credential, instr *ShipmentInstruction) (*ShipmentResult, error)
	GetTracking(ctx context.Context, cred *Credential, trackingNumber string) (*TrackingInfo, error)
}
