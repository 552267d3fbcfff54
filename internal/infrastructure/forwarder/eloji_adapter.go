package forwarder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Eloji API paths
const (
	elojiRatePath       = "/api/v2/rates/ddp"
	elojiOrderPath      = "/api/v2/orders"
	elojiTrackingPath   = "/api/v2/orders/tracking"
	elojiDefaultCarrier = "UPS"
)

var elojiStatusTable = map[int]forwarder.TrackingStatus{
	ElojiStatusLabelCreated:   forwarder.TrackingStatusPending,
	ElojiStatusPickedUp:       forwarder.TrackingStatusInTransit,
	ElojiStatusInTransit:      forwarder.TrackingStatusInTransit,
	ElojiStatusCustoms:        forwarder.TrackingStatusCustomsClearance,
	ElojiStatusOutForDelivery: forwarder.TrackingStatusOutForDelivery,
	ElojiStatusDelivered:      forwarder.TrackingStatusDelivered,
	ElojiStatusDeliveryFailed: forwarder.TrackingStatusException,
	ElojiStatusReturnToSender: forwarder.TrackingStatusException,
}

// ElojiAdapter implements forwarder.Adapter for Eloji, which resells
// UPS, FedEx and DHL capacity. The carrier comes from the provider name,
// e.g. "Eloji (FedEx)".
type ElojiAdapter struct {
	client *apiClient
}

// NewElojiAdapter creates a new Eloji adapter
func NewElojiAdapter(cfg ClientConfig) *ElojiAdapter {
	return &ElojiAdapter{client: newAPIClient("eloji", cfg)}
}

// Name returns the registry key
func (a *ElojiAdapter) Name() string {
	return "eloji"
}

// QuoteRate requests a DDP rate
func (a *ElojiAdapter) QuoteRate(ctx context.Context, cred *forwarder.Credential, req *forwarder.DdpRateRequest) (*forwarder.RateQuote, error) {
	body := ElojiRateRequest{
		Carrier:       ElojiCarrier(cred.ProviderName),
		From:          strings.ToUpper(req.SourceCountry),
		To:            strings.ToUpper(req.DestinationCountry),
		WeightKg:      req.WeightKg(),
		DeclaredValue: req.DeclaredValue,
		Currency:      string(req.Currency),
		HSCode:        req.ClassificationCode,
		Incoterm:      string(req.ServiceType),
	}

	var resp ElojiRateResponse
	if err := a.call(ctx, cred, forwarder.OperationQuoteRate, http.MethodPost, elojiRatePath, body, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, a.client.invalidResponse(forwarder.OperationQuoteRate, "missing rate result")
	}

	currency, err := valueobject.ParseCurrency(resp.Result.Currency)
	if err != nil {
		return nil, a.client.invalidResponse(forwarder.OperationQuoteRate, "rate currency: %v", err)
	}
	r := resp.Result.Rates
	total := r.Total
	if total.IsZero() {
		total = r.Shipping.Add(r.Handling).Add(r.Repack).Add(r.Insurance)
	}
	return &forwarder.RateQuote{
		Provider:              cred.ProviderName,
		BaseShippingCost:      r.Shipping,
		ProcessingFee:         r.Handling,
		RepackFee:             r.Repack,
		InsuranceFee:          r.Insurance,
		TotalCost:             total,
		EstimatedDeliveryDays: resp.Result.TransitDaysMax,
		Currency:              currency,
	}, nil
}

// CreateShipment creates an Eloji order; the order ID is sent as external_id
func (a *ElojiAdapter) CreateShipment(ctx context.Context, cred *forwarder.Credential, instr *forwarder.ShipmentInstruction) (*forwarder.ShipmentResult, error) {
	warehouse, err := cred.RequireWarehouse(instr.SourceCountry)
	if err != nil {
		return nil, err
	}

	body := ElojiOrderRequest{
		ExternalID:     instr.OrderID,
		Carrier:        ElojiCarrier(cred.ProviderName),
		Incoterm:       string(instr.ServiceType),
		ShipFrom:       toElojiAddress(*warehouse),
		ShipTo:         toElojiAddress(instr.DestinationAddress),
		WeightKg:       gramsToKg(instr.WeightGrams),
		DeclaredValue:  instr.DeclaredValue,
		Currency:       string(instr.Currency),
		HSCode:         instr.ClassificationCode,
		Instructions:   instr.RepackInstructions,
		RemoveBranding: instr.RemoveBranding,
	}

	var resp ElojiOrderResponse
	if err := a.call(ctx, cred, forwarder.OperationCreateShipment, http.MethodPost, elojiOrderPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil || resp.Result.OrderID == "" {
		return nil, a.client.invalidResponse(forwarder.OperationCreateShipment, "missing order_id")
	}

	result := &forwarder.ShipmentResult{
		Success:          true,
		ShipmentID:       resp.Result.OrderID,
		TrackingNumber:   resp.Result.TrackingNumber,
		WarehouseAddress: *warehouse,
		Message:          resp.Result.Note,
	}
	if t, ok := parseRFC3339(resp.Result.PickupAt); ok {
		result.EstimatedPickupDate = &t
	}
	return result, nil
}

// GetTracking fetches tracking by tracking number
func (a *ElojiAdapter) GetTracking(ctx context.Context, cred *forwarder.Credential, trackingNumber string) (*forwarder.TrackingInfo, error) {
	path := elojiTrackingPath + "?number=" + url.QueryEscape(trackingNumber)

	var resp ElojiTrackingResponse
	if err := a.call(ctx, cred, forwarder.OperationGetTracking, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, a.client.invalidResponse(forwarder.OperationGetTracking, "missing tracking result")
	}

	t := resp.Result
	info := &forwarder.TrackingInfo{
		TrackingNumber:  trackingNumber,
		Status:          forwarder.NormalizeStatus(t.StatusCode, elojiStatusTable),
		CurrentLocation: t.LastLocation,
		Events:          make([]forwarder.TrackingEvent, 0, len(t.Checkpoints)),
	}
	if eta, ok := parseRFC3339(t.EstimatedAt); ok {
		info.EstimatedDeliveryDate = &eta
	}
	for _, cp := range t.Checkpoints {
		at, _ := parseRFC3339(cp.At)
		info.Events = append(info.Events, forwarder.TrackingEvent{
			Timestamp:   at,
			Location:    cp.Location,
			Description: cp.Message,
		})
	}
	return info, nil
}

func (a *ElojiAdapter) call(
	ctx context.Context,
	cred *forwarder.Credential,
	operation, method, path string,
	payload any,
	out elojiEnvelope,
) error {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return a.client.fail(operation, 0, "failed to marshal request", err)
		}
		body = data
	}

	respBody, err := a.client.do(ctx, apiRequest{
		operation: operation,
		method:    method,
		url:       endpointURL(cred.APIEndpoint, path),
		body:      body,
		headers:   bearer(cred.APIKey),
	})
	if err != nil {
		return err
	}
	if err := a.client.decode(operation, respBody, out); err != nil {
		return err
	}
	if env := out.envelope(); !env.IsSuccess() {
		return a.client.fail(operation, 0, env.ErrorMessage(), nil)
	}
	return nil
}

// ElojiCarrier extracts the carrier from names like "Eloji (DHL)"; UPS otherwise
func ElojiCarrier(providerName string) string {
	open := strings.Index(providerName, "(")
	end := strings.LastIndex(providerName, ")")
	if open < 0 || end <= open+1 {
		return elojiDefaultCarrier
	}
	carrier := strings.ToUpper(strings.TrimSpace(providerName[open+1 : end]))
	if carrier == "" {
		return elojiDefaultCarrier
	}
	return carrier
}

func toElojiAddress(a forwarder.ShippingAddress) ElojiAddress {
	return ElojiAddress{
		Name:    a.Name,
		Street1: a.AddressLine1,
		Street2: a.AddressLine2,
		City:    a.City,
		State:   a.State,
		Zip:     a.PostalCode,
		Country: strings.ToUpper(a.Country),
		Phone:   a.Phone,
		Email:   a.Email,
	}
}

func gramsToKg(grams int64) decimal.Decimal {
	return decimal.New(grams, -3)
}

func parseRFC3339(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var _ forwarder.Adapter = (*ElojiAdapter)(nil)
