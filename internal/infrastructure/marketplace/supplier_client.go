package marketplace

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/fulfillment"
)

type purchasePayload struct {
	OrderID   string                    `json:"order_id"`
	ProductID string                    `json:"product_id"`
	Quantity  int                       `json:"quantity"`
	ShipTo    forwarder.ShippingAddress `json:"ship_to"`
}

type purchaseResponse struct {
	PurchaseID string `json:"purchase_id"`
	Status     string `json:"status"`
}

// SupplierClient implements fulfillment.SupplierPurchaser.
// The order ID is sent as Idempotency-Key so a replayed purchase is not placed twice.
type SupplierClient struct {
	client *httpClient
}

// NewSupplierClient creates a supplier purchase client
func NewSupplierClient(cfg Config) (*SupplierClient, error) {
	if err := cfg.ValidateSupplier(); err != nil {
		return nil, err
	}
	return &SupplierClient{client: newHTTPClient(cfg.SupplierBaseURL, cfg.SupplierAPIToken, cfg)}, nil
}

// Purchase places an order with the supplier, shipped to the forwarder warehouse
func (c *SupplierClient) Purchase(ctx context.Context, req *fulfillment.PurchaseRequest) (*fulfillment.PurchaseResult, error) {
	if req.OrderID == "" || req.SupplierProductID == "" || req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: order id, product id and a positive quantity are required", ErrRequestFailed)
	}

	var resp purchaseResponse
	headers := map[string]string{"Idempotency-Key": req.OrderID}
	payload := purchasePayload{
		OrderID:   req.OrderID,
		ProductID: req.SupplierProductID,
		Quantity:  req.Quantity,
		ShipTo:    req.ShipTo,
	}
	if err := c.client.doJSON(ctx, "supplier purchase", http.MethodPost, "/v1/purchases", headers, payload, &resp); err != nil {
		return nil, err
	}
	if resp.PurchaseID == "" {
		return nil, fmt.Errorf("%w: supplier returned no purchase id for order %s", ErrInvalidResponse, req.OrderID)
	}
	return &fulfillment.PurchaseResult{PurchaseID: resp.PurchaseID}, nil
}
