package forwarder

// Yamato result values
const (
	YamatoResultOK = "OK"
	YamatoResultNG = "NG"
)

// YamatoResponse is the envelope of every Yamato API response
type YamatoResponse struct {
	Result    string `json:"result"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorText string `json:"error_text,omitempty"`
}

// IsSuccess returns true if the response indicates success
func (r *YamatoResponse) IsSuccess() bool {
	return r.Result == YamatoResultOK
}

func (r *YamatoResponse) envelope() *YamatoResponse {
	return r
}

type yamatoEnvelope interface {
	envelope() *YamatoResponse
}

// YamatoEstimateRequest is the body of POST /ddp/estimates
type YamatoEstimateRequest struct {
	OriginCountry      string `json:"origin_country"`
	DestinationCountry string `json:"destination_country"`
	WeightGrams        int64  `json:"weight_grams"`
	// DeclaredValue is in minor units of DeclaredCurrency
	DeclaredValue    int64  `json:"declared_value"`
	DeclaredCurrency string `json:"declared_currency"`
	TariffCode       string `json:"tariff_code"`
	Terms            string `json:"terms"`
}

// YamatoEstimateResponse is the response of POST /ddp/estimates.
// Yamato always quotes whole yen.
type YamatoEstimateResponse struct {
	YamatoResponse
	Estimate *YamatoEstimate `json:"estimate,omitempty"`
}

// YamatoEstimate lists the charges in JPY
type YamatoEstimate struct {
	Freight      int64 `json:"freight"`
	Handling     int64 `json:"handling"`
	Repacking    int64 `json:"repacking"`
	Insurance    int64 `json:"insurance"`
	Total        int64 `json:"total"`
	LeadTimeDays int   `json:"lead_time_days"`
}

// YamatoAddress is an address in Yamato format
type YamatoAddress struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	Region   string `json:"region,omitempty"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Tel      string `json:"tel,omitempty"`
}

// YamatoBookingRequest is the body of POST /ddp/bookings
type YamatoBookingRequest struct {
	CustomerRef      string        `json:"customer_ref"`
	Terms            string        `json:"terms"`
	Shipper          YamatoAddress `json:"shipper"`
	Consignee        YamatoAddress `json:"consignee"`
	WeightGrams      int64         `json:"weight_grams"`
	DeclaredValue    int64         `json:"declared_value"`
	DeclaredCurrency string        `json:"declared_currency"`
	TariffCode       string        `json:"tariff_code"`
	Remarks          string        `json:"remarks,omitempty"`
	PlainPackaging   bool          `json:"plain_packaging"`
}

// YamatoBookingResponse is the response of POST /ddp/bookings
type YamatoBookingResponse struct {
	YamatoResponse
	Booking *YamatoBooking `json:"booking,omitempty"`
}

// YamatoBooking is a confirmed booking
type YamatoBooking struct {
	BookingNo string `json:"booking_no"`
	SlipNo    string `json:"slip_no,omitempty"`
	// CollectionDate is formatted yyyymmdd
	CollectionDate string `json:"collection_date,omitempty"`
}

// Yamato tracking status values
const (
	YamatoStatusAccepted          = "accepted"
	YamatoStatusInTransit         = "in_transit"
	YamatoStatusArrivedAtBase     = "arrived_at_base"
	YamatoStatusCustomsInspection = "customs_inspection"
	YamatoStatusOutForDelivery    = "out_for_delivery"
	YamatoStatusDelivered         = "delivered"
	YamatoStatusReturned          = "returned"
	YamatoStatusAbsent            = "absent"
)

// YamatoTrackingResponse is the response of GET /tracking/{slip_no}
type YamatoTrackingResponse struct {
	YamatoResponse
	Tracking *YamatoTracking `json:"tracking,omitempty"`
}

// YamatoTracking is the tracking state of one slip
type YamatoTracking struct {
	SlipNo  string               `json:"slip_no"`
	Status  string               `json:"status"`
	Office  string               `json:"office,omitempty"`
	History []YamatoTrackingStep `json:"history,omitempty"`
}

// YamatoTrackingStep is one scan; DateTime is RFC3339 in JST
type YamatoTrackingStep struct {
	DateTime string `json:"date_time"`
	Office   string `json:"office"`
	Detail   string `json:"detail"`
}
