package forwarder

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// genericRateRequest is the body of POST {endpoint}/rates
type genericRateRequest struct {
	SourceCountry      string          `json:"source_country"`
	DestinationCountry string          `json:"destination_country"`
	WeightGrams        int64           `json:"weight_grams"`
	DeclaredValue      decimal.Decimal `json:"declared_value"`
	Currency           string          `json:"currency"`
	ClassificationCode string          `json:"classification_code"`
	ServiceType        string          `json:"service_type"`
}

type genericRateResponse struct {
	BaseShippingCost      decimal.Decimal `json:"base_shipping_cost"`
	ProcessingFee         decimal.Decimal `json:"processing_fee"`
	RepackFee             decimal.Decimal `json:"repack_fee"`
	InsuranceFee          decimal.Decimal `json:"insurance_fee"`
	TotalCost             decimal.Decimal `json:"total_cost"`
	EstimatedDeliveryDays int             `json:"estimated_delivery_days"`
	Currency              string          `json:"currency"`
}

type genericShipmentRequest struct {
	OrderID            string                    `json:"order_id"`
	ServiceType        string                    `json:"service_type"`
	WarehouseAddress   forwarder.ShippingAddress `json:"warehouse_address"`
	DestinationAddress forwarder.ShippingAddress `json:"destination_address"`
	WeightGrams        int64                     `json:"weight_grams"`
	DeclaredValue      decimal.Decimal           `json:"declared_value"`
	Currency           string                    `json:"currency"`
	ClassificationCode string                    `json:"classification_code"`
	RepackInstructions string                    `json:"repack_instructions,omitempty"`
	RemoveBranding     bool                      `json:"remove_branding"`
}

// GenericAdapter speaks the plain JSON contract used for providers that
// have no dedicated adapter. Authentication is a bearer API key.
type GenericAdapter struct {
	client *apiClient
}

// NewGenericAdapter creates the fallback adapter
func NewGenericAdapter(cfg ClientConfig) *GenericAdapter {
	return &GenericAdapter{client: newAPIClient("generic", cfg)}
}

// Name returns the registry key
func (a *GenericAdapter) Name() string {
	return "generic"
}

// QuoteRate posts to {endpoint}/rates
func (a *GenericAdapter) QuoteRate(ctx context.Context, cred *forwarder.Credential, req *forwarder.DdpRateRequest) (*forwarder.RateQuote, error) {
	body := genericRateRequest{
		SourceCountry:      strings.ToUpper(req.SourceCountry),
		DestinationCountry: strings.ToUpper(req.DestinationCountry),
		WeightGrams:        req.WeightGrams,
		DeclaredValue:      req.DeclaredValue,
		Currency:           string(req.Currency),
		ClassificationCode: req.ClassificationCode,
		ServiceType:        string(req.ServiceType),
	}

	var resp genericRateResponse
	err := a.client.doJSON(ctx, apiRequest{
		operation: forwarder.OperationQuoteRate,
		method:    http.MethodPost,
		url:       endpointURL(cred.APIEndpoint, "/rates"),
		headers:   bearer(cred.APIKey),
	}, body, &resp)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if resp.Currency != "" {
		if currency, err = valueobject.ParseCurrency(resp.Currency); err != nil {
			return nil, a.client.invalidResponse(forwarder.OperationQuoteRate, "rate currency: %v", err)
		}
	}
	return &forwarder.RateQuote{
		Provider:              cred.ProviderName,
		BaseShippingCost:      resp.BaseShippingCost,
		ProcessingFee:         resp.ProcessingFee,
		RepackFee:             resp.RepackFee,
		InsuranceFee:          resp.InsuranceFee,
		TotalCost:             resp.TotalCost,
		EstimatedDeliveryDays: resp.EstimatedDeliveryDays,
		Currency:              currency,
	}, nil
}

// CreateShipment posts to {endpoint}/shipments
func (a *GenericAdapter) CreateShipment(ctx context.Context, cred *forwarder.Credential, instr *forwarder.ShipmentInstruction) (*forwarder.ShipmentResult, error) {
	warehouse, err := cred.RequireWarehouse(instr.SourceCountry)
	if err != nil {
		return nil, err
	}

	body := genericShipmentRequest{
		OrderID:            instr.OrderID,
		ServiceType:        string(instr.ServiceType),
		WarehouseAddress:   *warehouse,
		DestinationAddress: instr.DestinationAddress,
		WeightGrams:        instr.WeightGrams,
		DeclaredValue:      instr.DeclaredValue,
		Currency:           string(instr.Currency),
		ClassificationCode: instr.ClassificationCode,
		RepackInstructions: instr.RepackInstructions,
		RemoveBranding:     instr.RemoveBranding,
	}

	var resp forwarder.ShipmentResult
	err = a.client.doJSON(ctx, apiRequest{
		operation: forwarder.OperationCreateShipment,
		method:    http.MethodPost,
		url:       endpointURL(cred.APIEndpoint, "/shipments"),
		headers:   bearer(cred.APIKey),
	}, body, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ShipmentID == "" {
		return nil, a.client.invalidResponse(forwarder.OperationCreateShipment, "missing shipment_id")
	}

	resp.Success = true
	if resp.WarehouseAddress.AddressLine1 == "" {
		resp.WarehouseAddress = *warehouse
	}
	return &resp, nil
}

// GetTracking reads {endpoint}/tracking/{number}; statuses must already be normalised
func (a *GenericAdapter) GetTracking(ctx context.Context, cred *forwarder.Credential, trackingNumber string) (*forwarder.TrackingInfo, error) {
	var resp forwarder.TrackingInfo
	err := a.client.doJSON(ctx, apiRequest{
		operation: forwarder.OperationGetTracking,
		method:    http.MethodGet,
		url:       endpointURL(cred.APIEndpoint, "/tracking/"+url.PathEscape(trackingNumber)),
		headers:   bearer(cred.APIKey),
	}, nil, &resp)
	if err != nil {
		return nil, err
	}

	if !resp.Status.IsValid() {
		resp.Status = forwarder.TrackingStatusInTransit
	}
	if resp.TrackingNumber == "" {
		resp.TrackingNumber = trackingNumber
	}
	if resp.Events == nil {
		resp.Events = []forwarder.TrackingEvent{}
	}
	return &resp, nil
}

var _ forwarder.Adapter = (*GenericAdapter)(nil)
