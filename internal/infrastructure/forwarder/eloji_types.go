package forwarder

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// Common Eloji API Response Types
// ---------------------------------------------------------------------------

// ElojiError is the error object of a failed Eloji call
type ElojiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ElojiResponse is the envelope of every Eloji API response
type ElojiResponse struct {
	Success bool        `json:"success"`
	Error   *ElojiError `json:"error,omitempty"`
}

// IsSuccess returns true if the response indicates success
func (r *ElojiResponse) IsSuccess() bool {
	return r.Success && r.Error == nil
}

// ErrorMessage returns "code - message" or a generic text
func (r *ElojiResponse) ErrorMessage() string {
	if r.Error == nil {
		return "unsuccessful response"
	}
	return r.Error.Code + " - " + r.Error.Message
}

func (r *ElojiResponse) envelope() *ElojiResponse {
	return r
}

type elojiEnvelope interface {
	envelope() *ElojiResponse
}

// ---------------------------------------------------------------------------
// Rates
// ---------------------------------------------------------------------------

// ElojiRateRequest is the body of POST /api/v2/rates/ddp
type ElojiRateRequest struct {
	Carrier       string          `json:"carrier"`
	From          string          `json:"from_country"`
	To            string          `json:"to_country"`
	WeightKg      decimal.Decimal `json:"weight_kg"`
	DeclaredValue decimal.Decimal `json:"declared_value"`
	Currency      string          `json:"currency"`
	HSCode        string          `json:"hs_code"`
	Incoterm      string          `json:"incoterm"`
}

// ElojiRateResponse is the response of POST /api/v2/rates/ddp
type ElojiRateResponse struct {
	ElojiResponse
	Result *ElojiRate `json:"result,omitempty"`
}

// ElojiRate carries amounts as decimal strings
type ElojiRate struct {
	Rates          ElojiRateBreakdown `json:"rates"`
	Currency       string             `json:"currency"`
	TransitDaysMin int                `json:"transit_days_min"`
	TransitDaysMax int                `json:"transit_days_max"`
}

// ElojiRateBreakdown lists the quoted charges
type ElojiRateBreakdown struct {
	Shipping  decimal.Decimal `json:"shipping"`
	Handling  decimal.Decimal `json:"handling"`
	Repack    decimal.Decimal `json:"repack"`
	Insurance decimal.Decimal `json:"insurance"`
	Total     decimal.Decimal `json:"total"`
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// ElojiAddress is an address in Eloji format
type ElojiAddress struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// ElojiOrderRequest is the body of POST /api/v2/orders
type ElojiOrderRequest struct {
	ExternalID     string          `json:"external_id"`
	Carrier        string          `json:"carrier"`
	Incoterm       string          `json:"incoterm"`
	ShipFrom       ElojiAddress    `json:"ship_from"`
	ShipTo         ElojiAddress    `json:"ship_to"`
	WeightKg       decimal.Decimal `json:"weight_kg"`
	DeclaredValue  decimal.Decimal `json:"declared_value"`
	Currency       string          `json:"currency"`
	HSCode         string          `json:"hs_code"`
	Instructions   string          `json:"instructions,omitempty"`
	RemoveBranding bool            `json:"remove_branding"`
}

// ElojiOrderResponse is the response of POST /api/v2/orders
type ElojiOrderResponse struct {
	ElojiResponse
	Result *ElojiOrder `json:"result,omitempty"`
}

// ElojiOrder is a created order
type ElojiOrder struct {
	OrderID        string `json:"order_id"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	// PickupAt is RFC3339
	PickupAt string `json:"pickup_at,omitempty"`
	Note     string `json:"note,omitempty"`
}

// ---------------------------------------------------------------------------
// Tracking
// ---------------------------------------------------------------------------

// Eloji numeric tracking status codes
const (
	ElojiStatusLabelCreated   = 10
	ElojiStatusPickedUp       = 20
	ElojiStatusInTransit      = 30
	ElojiStatusCustoms        = 35
	ElojiStatusOutForDelivery = 40
	ElojiStatusDelivered      = 50
	ElojiStatusDeliveryFailed = 90
	ElojiStatusReturnToSender = 91
)

// ElojiTrackingResponse is the response of GET /api/v2/orders/tracking
type ElojiTrackingResponse struct {
	ElojiResponse
	Result *ElojiTracking `json:"result,omitempty"`
}

// ElojiTracking is the tracking state of one parcel
type ElojiTracking struct {
	TrackingNumber string            `json:"tracking_number"`
	StatusCode     int               `json:"status_code"`
	LastLocation   string            `json:"last_location,omitempty"`
	EstimatedAt    string            `json:"estimated_delivery,omitempty"`
	Checkpoints    []ElojiCheckpoint `json:"checkpoints,omitempty"`
}

// ElojiCheckpoint is one scan; At is RFC3339
type ElojiCheckpoint struct {
	At       string `json:"at"`
	Location string `json:"location"`
	Message  string `json:"message"`
}
