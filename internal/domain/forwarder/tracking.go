package forwarder

import "time"

// TrackingStatus is the closed set every provider status is normalised into
type TrackingStatus string

const (
	TrackingStatusPending          TrackingStatus = "PENDING"
	TrackingStatusInTransit        TrackingStatus = "IN_TRANSIT"
	TrackingStatusCustomsClearance TrackingStatus = "CUSTOMS_CLEARANCE"
	TrackingStatusOutForDelivery   TrackingStatus = "OUT_FOR_DELIVERY"
	TrackingStatusDelivered        TrackingStatus = "DELIVERED"
	TrackingStatusException        TrackingStatus = "EXCEPTION"
)

// IsValid returns true if the status is one of the normalised values
func (s TrackingStatus) IsValid() bool {
	switch s {
	case TrackingStatusPending, TrackingStatusInTransit, TrackingStatusCustomsClearance,
		TrackingStatusOutForDelivery, TrackingStatusDelivered, TrackingStatusException:
		return true
	default:
		return false
	}
}

// String returns the string representation of TrackingStatus
func (s TrackingStatus) String() string {
	return string(s)
}

// NormalizeStatus maps a provider code through table. Unknown codes become
// IN_TRANSIT so an event is never dropped.
func NormalizeStatus[K comparable](code K, table map[K]TrackingStatus) TrackingStatus {
	if s, ok := table[code]; ok {
		return s
	}
	return TrackingStatusInTransit
}

// TrackingEvent is one scan in a shipment's history
type TrackingEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

// TrackingInfo is the normalised tracking state of a shipment
type TrackingInfo struct {
	TrackingNumber        string          `json:"tracking_number"`
	Status                TrackingStatus  `json:"status"`
	CurrentLocation       string          `json:"current_location,omitempty"`
	EstimatedDeliveryDate *time.Time      `json:"estimated_delivery_date,omitempty"`
	Events                []TrackingEvent `json:"events"`
}
