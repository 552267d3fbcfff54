package dto

import (
	"strings"
	"time"

	"github.com/dropship/backend/internal/application/fulfillment"
	"github.com/dropship/backend/internal/domain/forwarder"
	domain "github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AddressRequest is a consignee address
type AddressRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	AddressLine1 string `json:"address_line1" binding:"required,max=200"`
	AddressLine2 string `json:"address_line2,omitempty" binding:"max=200"`
	City         string `json:"city" binding:"required,max=100"`
	State        string `json:"state,omitempty" binding:"max=100"`
	PostalCode   string `json:"postal_code" binding:"required,max=20"`
	Country      string `json:"country" binding:"required,country"`
	Phone        string `json:"phone,omitempty" binding:"max=30"`
	Email        string `json:"email,omitempty" binding:"omitempty,email"`
}

func (a AddressRequest) toDomain() forwarder.ShippingAddress {
	return forwarder.ShippingAddress{
		Name:         a.Name,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      strings.ToUpper(a.Country),
		Phone:        a.Phone,
		Email:        a.Email,
	}
}

// FulfillRequest starts the fulfillment saga for a marketplace order
type FulfillRequest struct {
	OrderID            string          `json:"order_id" binding:"required,max=100"`
	Marketplace        string          `json:"marketplace" binding:"required,max=50"`
	ProviderName       string          `json:"provider_name" binding:"required,max=100"`
	SourceCountry      string          `json:"source_country" binding:"required,country"`
	SupplierProductID  string          `json:"supplier_product_id" binding:"required,max=100"`
	Quantity           int             `json:"quantity" binding:"required,gt=0"`
	ClassificationCode string          `json:"classification_code" binding:"required,hscode"`
	WeightGrams        int64           `json:"weight_grams" binding:"required,gt=0"`
	DeclaredValue      decimal.Decimal `json:"declared_value"`
	Currency           string          `json:"currency" binding:"required,len=3"`
	DestinationAddress AddressRequest  `json:"destination_address"`
	RepackInstructions string          `json:"repack_instructions,omitempty" binding:"max=500"`
	RemoveBranding     *bool           `json:"remove_branding,omitempty"`
}

// ToDomain converts the request; the order validates itself in the orchestrator
func (r FulfillRequest) ToDomain() domain.FulfillmentOrder {
	return domain.FulfillmentOrder{
		OrderID:            r.OrderID,
		Marketplace:        r.Marketplace,
		ProviderName:       r.ProviderName,
		SourceCountry:      strings.ToUpper(r.SourceCountry),
		SupplierProductID:  r.SupplierProductID,
		Quantity:           r.Quantity,
		ClassificationCode: r.ClassificationCode,
		WeightGrams:        r.WeightGrams,
		DeclaredValue:      r.DeclaredValue,
		Currency:           valueobject.Currency(strings.ToUpper(r.Currency)),
		DestinationAddress: r.DestinationAddress.toDomain(),
		RepackInstructions: r.RepackInstructions,
		RemoveBranding:     r.RemoveBranding,
	}
}

// RetryTrackingSyncRequest may supply a tracking number issued after booking
type RetryTrackingSyncRequest struct {
	TrackingNumber string `json:"tracking_number,omitempty" binding:"max=100"`
}

// MonitorRequest overrides the provider or tracking number stored on the order
type MonitorRequest struct {
	Provider       string `json:"provider,omitempty" binding:"max=100"`
	TrackingNumber string `json:"tracking_number,omitempty" binding:"max=100"`
}

// StepResponse is one entry of the step audit trail
type StepResponse struct {
	Step        string    `json:"step"`
	Success     bool      `json:"success"`
	ReferenceID string    `json:"reference_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	Attempt     int       `json:"attempt"`
	Timestamp   time.Time `json:"timestamp"`
}

// OrderResponse is the operator view of a fulfillment workflow
type OrderResponse struct {
	OrderID             string                  `json:"order_id"`
	Marketplace         string                  `json:"marketplace"`
	Provider            string                  `json:"provider"`
	Status              string                  `json:"status"`
	PurchaseID          string                  `json:"purchase_id,omitempty"`
	ShipmentID          string                  `json:"shipment_id,omitempty"`
	TrackingNumber      string                  `json:"tracking_number,omitempty"`
	EstimatedPickupDate *time.Time              `json:"estimated_pickup_date,omitempty"`
	DeliveredAt         *time.Time              `json:"delivered_at,omitempty"`
	ErrorMessage        string                  `json:"error_message,omitempty"`
	LastSuccessfulStep  string                  `json:"last_successful_step,omitempty"`
	Steps               map[string]StepResponse `json:"steps"`
	History             []StepResponse          `json:"history"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
}

func newStepResponse(s domain.StepRecord) StepResponse {
	return StepResponse{
		Step:        s.Step.String(),
		Success:     s.Success,
		ReferenceID: s.ReferenceID,
		Error:       s.Error,
		Attempt:     s.Attempt,
		Timestamp:   s.Timestamp,
	}
}

// NewOrderResponse converts a workflow
func NewOrderResponse(wf *domain.OrderWorkflow) OrderResponse {
	resp := OrderResponse{
		OrderID:             wf.OrderID,
		Marketplace:         wf.Marketplace,
		Provider:            wf.Provider,
		Status:              wf.Status.String(),
		PurchaseID:          wf.PurchaseID,
		ShipmentID:          wf.ShipmentID,
		TrackingNumber:      wf.TrackingNumber,
		EstimatedPickupDate: wf.EstimatedPickupDate,
		DeliveredAt:         wf.DeliveredAt,
		ErrorMessage:        wf.ErrorMessage,
		Steps:               make(map[string]StepResponse),
		History:             make([]StepResponse, 0, len(wf.Steps)),
		CreatedAt:           wf.CreatedAt,
		UpdatedAt:           wf.UpdatedAt,
	}
	if step, ok := wf.LastSuccessfulStep(); ok {
		resp.LastSuccessfulStep = step.String()
	}
	for name, rec := range wf.LatestSteps() {
		resp.Steps[name.String()] = newStepResponse(rec)
	}
	for _, rec := range wf.Steps {
		resp.History = append(resp.History, newStepResponse(rec))
	}
	return resp
}

// DeliveryCheckResponse is the result of a delivery poll
type DeliveryCheckResponse struct {
	Delivered bool                    `json:"delivered"`
	Tracking  *forwarder.TrackingInfo `json:"tracking"`
	Order     OrderResponse           `json:"order"`
}

// NewDeliveryCheckResponse converts a delivery check
func NewDeliveryCheckResponse(c *fulfillment.DeliveryCheck) DeliveryCheckResponse {
	return DeliveryCheckResponse{
		Delivered: c.Delivered,
		Tracking:  c.Tracking,
		Order:     NewOrderResponse(c.Order),
	}
}
