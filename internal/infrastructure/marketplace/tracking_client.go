package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dropship/backend/internal/domain/fulfillment"
)

// ErrTrackingRejected is returned when the marketplace accepts the call but refuses the update
var ErrTrackingRejected = errors.New("marketplace: tracking update rejected")

type trackingSyncPayload struct {
	Marketplace    string `json:"marketplace"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}

type trackingSyncResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// TrackingClient implements fulfillment.TrackingSyncer against the marketplace order API
type TrackingClient struct {
	client *httpClient
}

// NewTrackingClient creates a tracking-sync client
func NewTrackingClient(cfg Config) (*TrackingClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TrackingClient{client: newHTTPClient(cfg.BaseURL, cfg.APIToken, cfg)}, nil
}

// SyncTracking attaches a tracking number to a marketplace order
func (c *TrackingClient) SyncTracking(ctx context.Context, req *fulfillment.TrackingSyncRequest) error {
	if req.OrderID == "" || req.TrackingNumber == "" {
		return fmt.Errorf("%w: order id and tracking number are required", ErrRequestFailed)
	}

	var resp trackingSyncResponse
	path := fmt.Sprintf("/v1/orders/%s/tracking", url.PathEscape(req.OrderID))
	payload := trackingSyncPayload{
		Marketplace:    req.Marketplace,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
	}
	if err := c.client.doJSON(ctx, "sync tracking", http.MethodPost, path, nil, payload, &resp); err != nil {
		return err
	}
	if !resp.Accepted {
		return fmt.Errorf("%w: order %s: %s", ErrTrackingRejected, req.OrderID, resp.Message)
	}
	return nil
}
