package dto

import (
	"strings"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RateRequest asks a forwarder for a DDP or DDU quote
type RateRequest struct {
	SourceCountry      string          `json:"source_country" binding:"required,country"`
	DestinationCountry string          `json:"destination_country" binding:"required,country"`
	WeightGrams        int64           `json:"weight_grams" binding:"required,gt=0"`
	DeclaredValue      decimal.Decimal `json:"declared_value"`
	Currency           string          `json:"currency" binding:"required,len=3"`
	ClassificationCode string          `json:"classification_code" binding:"omitempty,hscode"`
	ServiceType        string          `json:"service_type,omitempty" binding:"omitempty,oneof=DDP DDU"`
}

// ToDomain converts the request; currency errors surface from Validate
func (r RateRequest) ToDomain() *forwarder.DdpRateRequest {
	return &forwarder.DdpRateRequest{
		SourceCountry:      strings.ToUpper(r.SourceCountry),
		DestinationCountry: strings.ToUpper(r.DestinationCountry),
		WeightGrams:        r.WeightGrams,
		DeclaredValue:      r.DeclaredValue,
		Currency:           valueobject.Currency(strings.ToUpper(r.Currency)),
		ClassificationCode: r.ClassificationCode,
		ServiceType:        forwarder.ServiceType(r.ServiceType),
	}
}

// RateQuoteResponse is a normalised quote
type RateQuoteResponse struct {
	Provider              string          `json:"provider"`
	BaseShippingCost      decimal.Decimal `json:"base_shipping_cost"`
	ProcessingFee         decimal.Decimal `json:"processing_fee"`
	RepackFee             decimal.Decimal `json:"repack_fee"`
	InsuranceFee          decimal.Decimal `json:"insurance_fee"`
	TotalCost             decimal.Decimal `json:"total_cost"`
	EstimatedDeliveryDays int             `json:"estimated_delivery_days"`
	Currency              string          `json:"currency"`
	Estimated             bool            `json:"estimated"`
}

// NewRateQuoteResponse rounds the quote to the currency's minor unit
func NewRateQuoteResponse(q *forwarder.RateQuote) RateQuoteResponse {
	places := q.Currency.MinorUnits()
	return RateQuoteResponse{
		Provider:              q.Provider,
		BaseShippingCost:      q.BaseShippingCost.Round(places),
		ProcessingFee:         q.ProcessingFee.Round(places),
		RepackFee:             q.RepackFee.Round(places),
		InsuranceFee:          q.InsuranceFee.Round(places),
		TotalCost:             q.TotalCost.Round(places),
		EstimatedDeliveryDays: q.EstimatedDeliveryDays,
		Currency:              string(q.Currency),
		Estimated:             q.Estimated,
	}
}
