package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderWorkflowModel is the persistence model for the OrderWorkflow aggregate root.
// The step log and the originating order are stored as JSON documents.
type OrderWorkflowModel struct {
	AggregateModel
	OrderID             string                  `gorm:"type:varchar(100);not null;uniqueIndex"`
	Marketplace         string                  `gorm:"type:varchar(50)"`
	Provider            string                  `gorm:"type:varchar(100);not null"`
	Status              fulfillment.OrderStatus `gorm:"type:varchar(20);not null;index"`
	StepsJSON           string                  `gorm:"column:steps;type:jsonb;not null"`
	PurchaseID          string                  `gorm:"type:varchar(100)"`
	ShipmentID          string                  `gorm:"type:varchar(100)"`
	TrackingNumber      string                  `gorm:"type:varchar(100);index"`
	EstimatedPickupDate *time.Time
	ErrorMessage        string `gorm:"type:text"`
	DeliveredAt         *time.Time
	LastTrackedAt       *time.Time `gorm:"index"`
	OrderJSON           string `gorm:"column:order_payload;type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (OrderWorkflowModel) TableName() string {
	return "order_workflows"
}

type stepRecordJSON struct {
	Step        fulfillment.StepName `json:"step"`
	Success     bool                 `json:"success"`
	ReferenceID string               `json:"reference_id,omitempty"`
	Error       string               `json:"error,omitempty"`
	Attempt     int                  `json:"attempt"`
	Timestamp   time.Time            `json:"timestamp"`
}

type orderPayloadJSON struct {
	OrderID            string                    `json:"order_id"`
	Marketplace        string                    `json:"marketplace,omitempty"`
	ProviderName       string                    `json:"provider_name"`
	SourceCountry      string                    `json:"source_country"`
	SupplierProductID  string                    `json:"supplier_product_id"`
	Quantity           int                       `json:"quantity"`
	ClassificationCode string                    `json:"classification_code"`
	WeightGrams        int64                     `json:"weight_grams"`
	DeclaredValue      decimal.Decimal           `json:"declared_value"`
	Currency           string                    `json:"currency"`
	DestinationAddress forwarder.ShippingAddress `json:"destination_address"`
	RepackInstructions string                    `json:"repack_instructions,omitempty"`
	RemoveBranding     *bool                     `json:"remove_branding,omitempty"`
}

// ToDomain converts the persistence model to a domain OrderWorkflow.
// A corrupt JSON column is an error: a workflow without its step log would re-run steps.
func (m *OrderWorkflowModel) ToDomain() (*fulfillment.OrderWorkflow, error) {
	var steps []stepRecordJSON
	if m.StepsJSON != "" {
		if err := json.Unmarshal([]byte(m.StepsJSON), &steps); err != nil {
			return nil, fmt.Errorf("decode steps of order %s: %w", m.OrderID, err)
		}
	}
	var order orderPayloadJSON
	if m.OrderJSON != "" {
		if err := json.Unmarshal([]byte(m.OrderJSON), &order); err != nil {
			return nil, fmt.Errorf("decode order payload of order %s: %w", m.OrderID, err)
		}
	}

	wf := &fulfillment.OrderWorkflow{
		BaseAggregateRoot:   m.aggregate(),
		OrderID:             m.OrderID,
		Marketplace:         m.Marketplace,
		Provider:            m.Provider,
		Status:              m.Status,
		Steps:               make([]fulfillment.StepRecord, 0, len(steps)),
		PurchaseID:          m.PurchaseID,
		ShipmentID:          m.ShipmentID,
		TrackingNumber:      m.TrackingNumber,
		EstimatedPickupDate: m.EstimatedPickupDate,
		ErrorMessage:        m.ErrorMessage,
		DeliveredAt:         m.DeliveredAt,
		LastTrackedAt:       m.LastTrackedAt,
		Order: fulfillment.FulfillmentOrder{
			OrderID:            order.OrderID,
			Marketplace:        order.Marketplace,
			ProviderName:       order.ProviderName,
			SourceCountry:      order.SourceCountry,
			SupplierProductID:  order.SupplierProductID,
			Quantity:           order.Quantity,
			ClassificationCode: order.ClassificationCode,
			WeightGrams:        order.WeightGrams,
			DeclaredValue:      order.DeclaredValue,
			Currency:           valueobject.Currency(order.Currency),
			DestinationAddress: order.DestinationAddress,
			RepackInstructions: order.RepackInstructions,
			RemoveBranding:     order.RemoveBranding,
		},
	}
	for _, s := range steps {
		wf.Steps = append(wf.Steps, fulfillment.StepRecord{
			Step:        s.Step,
			Success:     s.Success,
			ReferenceID: s.ReferenceID,
			Error:       s.Error,
			Attempt:     s.Attempt,
			Timestamp:   s.Timestamp,
		})
	}
	return wf, nil
}

// FromDomain populates the persistence model from a domain OrderWorkflow
func (m *OrderWorkflowModel) FromDomain(wf *fulfillment.OrderWorkflow) error {
	m.AggregateModel = aggregateModelOf(wf.BaseAggregateRoot)
	m.OrderID = wf.OrderID
	m.Marketplace = wf.Marketplace
	m.Provider = wf.Provider
	m.Status = wf.Status
	m.PurchaseID = wf.PurchaseID
	m.ShipmentID = wf.ShipmentID
	m.TrackingNumber = wf.TrackingNumber
	m.EstimatedPickupDate = wf.EstimatedPickupDate
	m.ErrorMessage = wf.ErrorMessage
	m.DeliveredAt = wf.DeliveredAt
	m.LastTrackedAt = wf.LastTrackedAt

	steps := make([]stepRecordJSON, 0, len(wf.Steps))
	for _, s := range wf.Steps {
		steps = append(steps, stepRecordJSON{
			Step:        s.Step,
			Success:     s.Success,
			ReferenceID: s.ReferenceID,
			Error:       s.Error,
			Attempt:     s.Attempt,
			Timestamp:   s.Timestamp,
		})
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	m.StepsJSON = string(stepsJSON)

	o := wf.Order
	orderJSON, err := json.Marshal(orderPayloadJSON{
		OrderID:            o.OrderID,
		Marketplace:        o.Marketplace,
		ProviderName:       o.ProviderName,
		SourceCountry:      o.SourceCountry,
		SupplierProductID:  o.SupplierProductID,
		Quantity:           o.Quantity,
		ClassificationCode: o.ClassificationCode,
		WeightGrams:        o.WeightGrams,
		DeclaredValue:      o.DeclaredValue,
		Currency:           string(o.Currency),
		DestinationAddress: o.DestinationAddress,
		RepackInstructions: o.RepackInstructions,
		RemoveBranding:     o.RemoveBranding,
	})
	if err != nil {
		return fmt.Errorf("encode order payload: %w", err)
	}
	m.OrderJSON = string(orderJSON)
	return nil
}

// OrderWorkflowModelFromDomain creates a new persistence model from a domain OrderWorkflow
func OrderWorkflowModelFromDomain(wf *fulfillment.OrderWorkflow) (*OrderWorkflowModel, error) {
	m := &OrderWorkflowModel{}
	if err := m.FromDomain(wf); err != nil {
		return nil, err
	}
	return m, nil
}
