package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/landedcost"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ForwarderCredentialModel is the per-provider configuration record.
// Warehouse addresses are stored as a JSON array.
type ForwarderCredentialModel struct {
	BaseModel
	ProviderName       string `gorm:"type:varchar(100);not null;uniqueIndex"`
	APIKey             string `gorm:"type:varchar(255);not null"`
	APISecret          string `gorm:"type:varchar(255)"`
	APIEndpoint        string `gorm:"type:varchar(500);not null"`
	WarehouseAddresses string `gorm:"type:jsonb;not null;default:'[]'"`
	IsActive           bool   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ForwarderCredentialModel) TableName() string {
	return "forwarder_credentials"
}

// ToDomain converts the persistence model to a domain Credential
func (m *ForwarderCredentialModel) ToDomain() (*forwarder.Credential, error) {
	cred := &forwarder.Credential{
		ProviderName:       m.ProviderName,
		APIKey:             m.APIKey,
		APISecret:          m.APISecret,
		APIEndpoint:        m.APIEndpoint,
		WarehouseAddresses: make([]forwarder.ShippingAddress, 0),
	}
	if m.WarehouseAddresses != "" && m.WarehouseAddresses != "[]" {
		if err := json.Unmarshal([]byte(m.WarehouseAddresses), &cred.WarehouseAddresses); err != nil {
			return nil, fmt.Errorf("decode warehouses of %s: %w", m.ProviderName, err)
		}
	}
	return cred, nil
}

// FromDomain populates the persistence model from a domain Credential
func (m *ForwarderCredentialModel) FromDomain(c *forwarder.Credential, now time.Time) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	m.ProviderName = c.ProviderName
	m.APIKey = c.APIKey
	m.APISecret = c.APISecret
	m.APIEndpoint = c.APIEndpoint
	m.IsActive = true

	warehouses := c.WarehouseAddresses
	if warehouses == nil {
		warehouses = []forwarder.ShippingAddress{}
	}
	raw, err := json.Marshal(warehouses)
	if err != nil {
		return fmt.Errorf("encode warehouses: %w", err)
	}
	m.WarehouseAddresses = string(raw)
	return nil
}

// DutyRateModel is one row of the duty/tax table keyed by classification code and lane
type DutyRateModel struct {
	ClassificationCode string          `gorm:"type:varchar(20);primaryKey"`
	ExportCountry      string          `gorm:"type:varchar(2);primaryKey"`
	ImportCountry      string          `gorm:"type:varchar(2);primaryKey"`
	DutyRate           decimal.Decimal `gorm:"type:decimal(9,6);not null"`
	TaxRate            decimal.Decimal `gorm:"type:decimal(9,6);not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DutyRateModel) TableName() string {
	return "duty_rates"
}

// ToDomain converts the persistence model to domain DutyRates
func (m *DutyRateModel) ToDomain() landedcost.DutyRates {
	return landedcost.DutyRates{
		DutyRate: m.DutyRate,
		TaxRate:  m.TaxRate,
	}
}
