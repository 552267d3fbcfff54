package forwarder

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
)

// CPass API paths
const (
	cpassQuotePath    = "/v1/ddp/quote"
	cpassShipmentPath = "/v1/shipments"
	cpassTrackingPath = "/v1/shipments/tracking/"
	cpassDateLayout   = "2006-01-02"
)

// cpassStatusTable maps CPass status codes to normalised statuses
var cpassStatusTable = map[string]forwarder.TrackingStatus{
	CPassStatusCreated:             forwarder.TrackingStatusPending,
	CPassStatusAwaitingPickup:      forwarder.TrackingStatusPending,
	CPassStatusReceivedAtWarehouse: forwarder.TrackingStatusInTransit,
	CPassStatusDeparted:            forwarder.TrackingStatusInTransit,
	CPassStatusInCustoms:           forwarder.TrackingStatusCustomsClearance,
	CPassStatusCustomsReleased:     forwarder.TrackingStatusInTransit,
	CPassStatusOutForDelivery:      forwarder.TrackingStatusOutForDelivery,
	CPassStatusDelivered:           forwarder.TrackingStatusDelivered,
	CPassStatusReturned:            forwarder.TrackingStatusException,
	CPassStatusHeld:                forwarder.TrackingStatusException,
	CPassStatusLost:                forwarder.TrackingStatusException,
}

// CPassAdapter implements forwarder.Adapter for CPass.
// Requests are signed with HMAC-SHA256 over method, path, timestamp and body.
type CPassAdapter struct {
	client *apiClient
	now    func() time.Time
}

// NewCPassAdapter creates a new CPass adapter
func NewCPassAdapter(cfg ClientConfig) *CPassAdapter {
	return &CPassAdapter{
		client: newAPIClient("cpass", cfg),
		now:    time.Now,
	}
}

// Name returns the registry key
func (a *CPassAdapter) Name() string {
	return "cpass"
}

// QuoteRate requests a DDP quote
func (a *CPassAdapter) QuoteRate(ctx context.Context, cred *forwarder.Credential, req *forwarder.DdpRateRequest) (*forwarder.RateQuote, error) {
	body := CPassQuoteRequest{
		OriginCountry:      strings.ToUpper(req.SourceCountry),
		DestinationCountry: strings.ToUpper(req.DestinationCountry),
		WeightG:            req.WeightGrams,
		DeclaredValueCents: req.Currency.ToMinor(req.DeclaredValue),
		Currency:           string(req.Currency),
		HSCode:             req.ClassificationCode,
		Service:            string(req.ServiceType),
	}

	var resp CPassQuoteResponse
	if err := a.call(ctx, cred, forwarder.OperationQuoteRate, http.MethodPost, cpassQuotePath, body, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, a.client.invalidResponse(forwarder.OperationQuoteRate, "missing quote data")
	}

	currency, err := valueobject.ParseCurrency(resp.Data.Currency)
	if err != nil {
		return nil, a.client.invalidResponse(forwarder.OperationQuoteRate, "quote currency: %v", err)
	}
	q := resp.Data
	return &forwarder.RateQuote{
		Provider:              cred.ProviderName,
		BaseShippingCost:      currency.FromMinor(q.FreightCents),
		ProcessingFee:         currency.FromMinor(q.HandlingCents),
		RepackFee:             currency.FromMinor(q.RepackCents),
		InsuranceFee:          currency.FromMinor(q.InsuranceCents),
		TotalCost:             currency.FromMinor(q.TotalCents),
		EstimatedDeliveryDays: q.TransitDays,
		Currency:              currency,
	}, nil
}

// CreateShipment books a shipment; the order ID is sent as reference_no
func (a *CPassAdapter) CreateShipment(ctx context.Context, cred *forwarder.Credential, instr *forwarder.ShipmentInstruction) (*forwarder.ShipmentResult, error) {
	warehouse, err := cred.RequireWarehouse(instr.SourceCountry)
	if err != nil {
		return nil, err
	}

	body := CPassShipmentRequest{
		ReferenceNo: instr.OrderID,
		Service:     string(instr.ServiceType),
		Warehouse:   toCPassAddress(*warehouse),
		Consignee:   toCPassAddress(instr.DestinationAddress),
		Parcel: CPassParcel{
			WeightG:            instr.WeightGrams,
			DeclaredValueCents: instr.Currency.ToMinor(instr.DeclaredValue),
			Currency:           string(instr.Currency),
			HSCode:             instr.ClassificationCode,
		},
		RepackNote:     instr.RepackInstructions,
		RemoveBranding: instr.RemoveBranding,
	}

	var resp CPassShipmentResponse
	if err := a.call(ctx, cred, forwarder.OperationCreateShipment, http.MethodPost, cpassShipmentPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.ShipmentNo == "" {
		return nil, a.client.invalidResponse(forwarder.OperationCreateShipment, "missing shipment_no")
	}

	result := &forwarder.ShipmentResult{
		Success:          true,
		ShipmentID:       resp.Data.ShipmentNo,
		TrackingNumber:   resp.Data.TrackingNo,
		WarehouseAddress: *warehouse,
		Message:          resp.Data.Remark,
	}
	if resp.Data.PickupDate != "" {
		if t, err := time.Parse(cpassDateLayout, resp.Data.PickupDate); err == nil {
			result.EstimatedPickupDate = &t
		}
	}
	return result, nil
}

// GetTracking fetches tracking for a CPass tracking number
func (a *CPassAdapter) GetTracking(ctx context.Context, cred *forwarder.Credential, trackingNumber string) (*forwarder.TrackingInfo, error) {
	var resp CPassTrackingResponse
	path := cpassTrackingPath + url.PathEscape(trackingNumber)
	if err := a.call(ctx, cred, forwarder.OperationGetTracking, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, a.client.invalidResponse(forwarder.OperationGetTracking, "missing tracking data")
	}

	t := resp.Data
	info := &forwarder.TrackingInfo{
		TrackingNumber:  trackingNumber,
		Status:          forwarder.NormalizeStatus(strings.ToUpper(t.Status), cpassStatusTable),
		CurrentLocation: t.Location,
		Events:          make([]forwarder.TrackingEvent, 0, len(t.Events)),
	}
	if t.ETA != "" {
		if eta, err := time.Parse(cpassDateLayout, t.ETA); err == nil {
			info.EstimatedDeliveryDate = &eta
		}
	}
	for _, e := range t.Events {
		info.Events = append(info.Events, forwarder.TrackingEvent{
			Timestamp:   time.Unix(e.Time, 0).UTC(),
			Location:    e.Location,
			Description: e.Desc,
		})
	}
	return info, nil
}

// call signs and sends a request and checks the CPass envelope
func (a *CPassAdapter) call(
	ctx context.Context,
	cred *forwarder.Credential,
	operation, method, path string,
	payload any,
	out cpassEnvelope,
) error {
	if cred.APISecret == "" {
		return a.client.fail(operation, 0, "credential has no api secret", nil)
	}

	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return a.client.fail(operation, 0, "failed to marshal request", err)
		}
		body = data
	}

	timestamp := strconv.FormatInt(a.now().Unix(), 10)
	respBody, err := a.client.do(ctx, apiRequest{
		operation: operation,
		method:    method,
		url:       endpointURL(cred.APIEndpoint, path),
		body:      body,
		headers: map[string]string{
			"X-CPass-Key":       cred.APIKey,
			"X-CPass-Timestamp": timestamp,
			"X-CPass-Signature": SignCPassRequest(cred.APISecret, method, path, timestamp, body),
		},
	})
	if err != nil {
		return err
	}
	if err := a.client.decode(operation, respBody, out); err != nil {
		return err
	}
	if env := out.envelope(); !env.IsSuccess() {
		return a.client.fail(operation, 0, fmt.Sprintf("%d - %s", env.Code, env.Msg), nil)
	}
	return nil
}

// SignCPassRequest computes hex(HMAC-SHA256(secret, method\npath\ntimestamp\nbody))
func SignCPassRequest(secret, method, path, timestamp string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(method + "\n" + path + "\n" + timestamp + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func toCPassAddress(a forwarder.ShippingAddress) CPassAddress {
	return CPassAddress{
		Contact:    a.Name,
		Line1:      a.AddressLine1,
		Line2:      a.AddressLine2,
		City:       a.City,
		Province:   a.State,
		PostalCode: a.PostalCode,
		Country:    strings.ToUpper(a.Country),
		Phone:      a.Phone,
		Email:      a.Email,
	}
}

var _ forwarder.Adapter = (*CPassAdapter)(nil)
