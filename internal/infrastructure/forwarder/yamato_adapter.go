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

// Yamato API paths
const (
	yamatoEstimatePath = "/ddp/estimates"
	yamatoBookingPath  = "/ddp/bookings"
	yamatoTrackingPath = "/tracking/"
	yamatoDateLayout   = "20060102"
)

var yamatoStatusTable = map[string]forwarder.TrackingStatus{
	YamatoStatusAccepted:          forwarder.TrackingStatusPending,
	YamatoStatusInTransit:         forwarder.TrackingStatusInTransit,
	YamatoStatusArrivedAtBase:     forwarder.TrackingStatusInTransit,
	YamatoStatusCustomsInspection: forwarder.TrackingStatusCustomsClearance,
	YamatoStatusOutForDelivery:    forwarder.TrackingStatusOutForDelivery,
	YamatoStatusDelivered:         forwarder.TrackingStatusDelivered,
	YamatoStatusReturned:          forwarder.TrackingStatusException,
	YamatoStatusAbsent:            forwarder.TrackingStatusException,
}

// YamatoAdapter implements forwarder.Adapter for Yamato international DDP.
// Authentication is HTTP basic with the API key and secret.
type YamatoAdapter struct {
	client *apiClient
}

// NewYamatoAdapter creates a new Yamato adapter
func NewYamatoAdapter(cfg ClientConfig) *YamatoAdapter {
	return &YamatoAdapter{client: newAPIClient("yamato", cfg)}
}

// Name returns the registry key
func (a *YamatoAdapter) Name() string {
	return "yamato"
}

// QuoteRate requests an estimate; amounts come back in JPY
func (a *YamatoAdapter) QuoteRate(ctx context.Context, cred *forwarder.Credential, req *forwarder.DdpRateRequest) (*forwarder.RateQuote, error) {
	body := YamatoEstimateRequest{
		OriginCountry:      strings.ToUpper(req.SourceCountry),
		DestinationCountry: strings.ToUpper(req.DestinationCountry),
		WeightGrams:        req.WeightGrams,
		DeclaredValue:      req.Currency.ToMinor(req.DeclaredValue),
		DeclaredCurrency:   string(req.Currency),
		TariffCode:         req.ClassificationCode,
		Terms:              string(req.ServiceType),
	}

	var resp YamatoEstimateResponse
	if err := a.call(ctx, cred, forwarder.OperationQuoteRate, http.MethodPost, yamatoEstimatePath, body, &resp); err != nil {
		return nil, err
	}
	if resp.Estimate == nil {
		return nil, a.client.invalidResponse(forwarder.OperationQuoteRate, "missing estimate")
	}

	e := resp.Estimate
	return &forwarder.RateQuote{
		Provider:              cred.ProviderName,
		BaseShippingCost:      decimal.NewFromInt(e.Freight),
		ProcessingFee:         decimal.NewFromInt(e.Handling),
		RepackFee:             decimal.NewFromInt(e.Repacking),
		InsuranceFee:          decimal.NewFromInt(e.Insurance),
		TotalCost:             decimal.NewFromInt(e.Total),
		EstimatedDeliveryDays: e.LeadTimeDays,
		Currency:              valueobject.JPY,
	}, nil
}

// CreateShipment books a collection at the Yamato base in the source country
func (a *YamatoAdapter) CreateShipment(ctx context.Context, cred *forwarder.Credential, instr *forwarder.ShipmentInstruction) (*forwarder.ShipmentResult, error) {
	warehouse, err := cred.RequireWarehouse(instr.SourceCountry)
	if err != nil {
		return nil, err
	}

	body := YamatoBookingRequest{
		CustomerRef:      instr.OrderID,
		Terms:            string(instr.ServiceType),
		Shipper:          toYamatoAddress(*warehouse),
		Consignee:        toYamatoAddress(instr.DestinationAddress),
		WeightGrams:      instr.WeightGrams,
		DeclaredValue:    instr.Currency.ToMinor(instr.DeclaredValue),
		DeclaredCurrency: string(instr.Currency),
		TariffCode:       instr.ClassificationCode,
		Remarks:          instr.RepackInstructions,
		PlainPackaging:   instr.RemoveBranding,
	}

	var resp YamatoBookingResponse
	if err := a.call(ctx, cred, forwarder.OperationCreateShipment, http.MethodPost, yamatoBookingPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.Booking == nil || resp.Booking.BookingNo == "" {
		return nil, a.client.invalidResponse(forwarder.OperationCreateShipment, "missing booking_no")
	}

	result := &forwarder.ShipmentResult{
		Success:          true,
		ShipmentID:       resp.Booking.BookingNo,
		TrackingNumber:   resp.Booking.SlipNo,
		WarehouseAddress: *warehouse,
	}
	if resp.Booking.CollectionDate != "" {
		if t, err := time.Parse(yamatoDateLayout, resp.Booking.CollectionDate); err == nil {
			result.EstimatedPickupDate = &t
		}
	}
	return result, nil
}

// GetTracking fetches tracking for a slip number
func (a *YamatoAdapter) GetTracking(ctx context.Context, cred *forwarder.Credential, trackingNumber string) (*forwarder.TrackingInfo, error) {
	var resp YamatoTrackingResponse
	path := yamatoTrackingPath + url.PathEscape(trackingNumber)
	if err := a.call(ctx, cred, forwarder.OperationGetTracking, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Tracking == nil {
		return nil, a.client.invalidResponse(forwarder.OperationGetTracking, "missing tracking")
	}

	t := resp.Tracking
	info := &forwarder.TrackingInfo{
		TrackingNumber:  trackingNumber,
		Status:          forwarder.NormalizeStatus(strings.ToLower(t.Status), yamatoStatusTable),
		CurrentLocation: t.Office,
		Events:          make([]forwarder.TrackingEvent, 0, len(t.History)),
	}
	for _, step := range t.History {
		at, _ := parseRFC3339(step.DateTime)
		info.Events = append(info.Events, forwarder.TrackingEvent{
			Timestamp:   at,
			Location:    step.Office,
			Description: step.Detail,
		})
	}
	return info, nil
}

func (a *YamatoAdapter) call(
	ctx context.Context,
	cred *forwarder.Credential,
	operation, method, path string,
	payload any,
	out yamatoEnvelope,
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
		headers:   map[string]string{"Authorization": basicAuth(cred.APIKey, cred.APISecret)},
	})
	if err != nil {
		return err
	}
	if err := a.client.decode(operation, respBody, out); err != nil {
		return err
	}
	if env := out.envelope(); !env.IsSuccess() {
		return a.client.fail(operation, 0, env.ErrorCode+" - "+env.ErrorText, nil)
	}
	return nil
}

func toYamatoAddress(a forwarder.ShippingAddress) YamatoAddress {
	return YamatoAddress{
		Name:     a.Name,
		Address1: a.AddressLine1,
		Address2: a.AddressLine2,
		City:     a.City,
		Region:   a.State,
		Zip:      a.PostalCode,
		Country:  strings.ToUpper(a.Country),
		Tel:      a.Phone,
	}
}

var _ forwarder.Adapter = (*YamatoAdapter)(nil)
