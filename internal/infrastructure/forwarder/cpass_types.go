package forwarder

// ---------------------------------------------------------------------------
// Common CPass API Response Types
// ---------------------------------------------------------------------------

// CPassResponse is the envelope of every CPass API response
type CPassResponse struct {
	// Code is 0 on success
	Code int `json:"code"`
	// Msg is the error message
	Msg string `json:"msg"`
	// RequestID is the trace ID for support tickets
	RequestID string `json:"request_id,omitempty"`
}

// IsSuccess returns true if the response indicates success
func (r *CPassResponse) IsSuccess() bool {
	return r.Code == 0
}

// cpassEnvelope is implemented by every response embedding CPassResponse
type cpassEnvelope interface {
	envelope() *CPassResponse
}

func (r *CPassResponse) envelope() *CPassResponse {
	return r
}

// ---------------------------------------------------------------------------
// Quote
// ---------------------------------------------------------------------------

// CPassQuoteRequest is the body of POST /v1/ddp/quote
type CPassQuoteRequest struct {
	OriginCountry      string `json:"origin_country"`
	DestinationCountry string `json:"destination_country"`
	WeightG            int64  `json:"weight_g"`
	DeclaredValueCents int64  `json:"declared_value_cents"`
	Currency           string `json:"currency"`
	HSCode             string `json:"hs_code"`
	Service            string `json:"service"`
}

// CPassQuoteResponse is the response of POST /v1/ddp/quote
type CPassQuoteResponse struct {
	CPassResponse
	Data *CPassQuote `json:"data,omitempty"`
}

// CPassQuote holds quoted amounts in minor units (cents)
type CPassQuote struct {
	FreightCents   int64  `json:"freight_cents"`
	HandlingCents  int64  `json:"handling_cents"`
	RepackCents    int64  `json:"repack_cents"`
	InsuranceCents int64  `json:"insurance_cents"`
	TotalCents     int64  `json:"total_cents"`
	TransitDays    int    `json:"transit_days"`
	Currency       string `json:"currency"`
}

// ---------------------------------------------------------------------------
// Shipment
// ---------------------------------------------------------------------------

// CPassAddress is an address in CPass format
type CPassAddress struct {
	Contact    string `json:"contact"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// CPassParcel describes the goods
type CPassParcel struct {
	WeightG            int64  `json:"weight_g"`
	DeclaredValueCents int64  `json:"declared_value_cents"`
	Currency           string `json:"currency"`
	HSCode             string `json:"hs_code"`
}

// CPassShipmentRequest is the body of POST /v1/shipments
type CPassShipmentRequest struct {
	// ReferenceNo is our order ID; CPass deduplicates bookings on it
	ReferenceNo    string       `json:"reference_no"`
	Service        string       `json:"service"`
	Warehouse      CPassAddress `json:"warehouse"`
	Consignee      CPassAddress `json:"consignee"`
	Parcel         CPassParcel  `json:"parcel"`
	RepackNote     string       `json:"repack_note,omitempty"`
	RemoveBranding bool         `json:"remove_branding"`
}

// CPassShipmentResponse is the response of POST /v1/shipments
type CPassShipmentResponse struct {
	CPassResponse
	Data *CPassShipment `json:"data,omitempty"`
}

// CPassShipment is a created booking
type CPassShipment struct {
	ShipmentNo string `json:"shipment_no"`
	TrackingNo string `json:"tracking_no,omitempty"`
	// PickupDate is formatted 2006-01-02
	PickupDate string `json:"pickup_date,omitempty"`
	Remark     string `json:"remark,omitempty"`
}

// ---------------------------------------------------------------------------
// Tracking
// ---------------------------------------------------------------------------

// CPass tracking status codes
const (
	CPassStatusCreated             = "CREATED"
	CPassStatusAwaitingPickup      = "AWAITING_PICKUP"
	CPassStatusReceivedAtWarehouse = "RECEIVED_AT_WAREHOUSE"
	CPassStatusDeparted            = "DEPARTED"
	CPassStatusInCustoms           = "IN_CUSTOMS"
	CPassStatusCustomsReleased     = "CUSTOMS_RELEASED"
	CPassStatusOutForDelivery      = "OUT_FOR_DELIVERY"
	CPassStatusDelivered           = "DELIVERED"
	CPassStatusReturned            = "RETURNED"
	CPassStatusHeld                = "HELD"
	CPassStatusLost                = "LOST"
)

// CPassTrackingResponse is the response of GET /v1/shipments/tracking/{no}
type CPassTrackingResponse struct {
	CPassResponse
	Data *CPassTracking `json:"data,omitempty"`
}

// CPassTracking is the tracking state of one parcel
type CPassTracking struct {
	TrackingNo string `json:"tracking_no"`
	Status     string `json:"status"`
	Location   string `json:"location,omitempty"`
	// ETA is formatted 2006-01-02
	ETA    string               `json:"eta,omitempty"`
	Events []CPassTrackingEvent `json:"events,omitempty"`
}

// CPassTrackingEvent is one scan; Time is a Unix timestamp in seconds
type CPassTrackingEvent struct {
	Time     int64  `json:"time"`
	Location string `json:"location"`
	Desc     string `json:"desc"`
}
