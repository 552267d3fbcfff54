package handler

import (
	"context"

	app "github.com/dropship/backend/internal/application/fulfillment"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/infrastructure/logger"
	"github.com/dropship/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderOrchestrator drives the fulfillment saga
type OrderOrchestrator interface {
	Process(ctx context.Context, order fulfillment.FulfillmentOrder) (*fulfillment.OrderWorkflow, error)
	GetOrder(ctx context.Context, orderID string) (*fulfillment.OrderWorkflow, error)
	RetryShipment(ctx context.Context, orderID string) (*fulfillment.OrderWorkflow, error)
	RetryTrackingSync(ctx context.Context, orderID, trackingNumber string) (*fulfillment.OrderWorkflow, error)
	MonitorDelivery(ctx context.Context, orderID, providerName, trackingNumber string) (*app.DeliveryCheck, error)
}

// OrderHandler is the operator surface of the fulfillment saga
type OrderHandler struct {
	BaseHandler
	orchestrator OrderOrchestrator
}

// NewOrderHandler creates an OrderHandler
func NewOrderHandler(orchestrator OrderOrchestrator) *OrderHandler {
	return &OrderHandler{orchestrator: orchestrator}
}

// withOrder scopes the request logger to orderID for the services below
func withOrder(c *gin.Context, orderID string) context.Context {
	ctx, l := logger.WithOrderID(c.Request.Context(), logger.FromContext(c.Request.Context()), orderID)
	return logger.WithContext(ctx, l)
}

// Fulfill handles POST /orders/fulfill. A saga that aborts still answers 200
// with the FAILED workflow; only errors the saga could not record are errors.
func (h *OrderHandler) Fulfill(c *gin.Context) {
	var req dto.FulfillRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := withOrder(c, req.OrderID)

	wf, err := h.orchestrator.Process(ctx, req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if wf.Status == fulfillment.OrderStatusFailed {
		logger.L(ctx).Warn("order fulfillment failed",
			zap.String("error_message", wf.ErrorMessage),
		)
	}
	h.Success(c, dto.NewOrderResponse(wf))
}

// Get handles GET /orders/:order_id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID := c.Param("order_id")
	wf, err := h.orchestrator.GetOrder(withOrder(c, orderID), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewOrderResponse(wf))
}

// RetryShipment handles POST /orders/:order_id/retry-shipment
func (h *OrderHandler) RetryShipment(c *gin.Context) {
	orderID := c.Param("order_id")
	wf, err := h.orchestrator.RetryShipment(withOrder(c, orderID), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewOrderResponse(wf))
}

// RetryTrackingSync handles POST /orders/:order_id/retry-tracking-sync.
// The body is optional.
func (h *OrderHandler) RetryTrackingSync(c *gin.Context) {
	var req dto.RetryTrackingSyncRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	orderID := c.Param("order_id")
	wf, err := h.orchestrator.RetryTrackingSync(withOrder(c, orderID), orderID, req.TrackingNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewOrderResponse(wf))
}

// Monitor handles POST /orders/:order_id/monitor. The body is optional.
func (h *OrderHandler) Monitor(c *gin.Context) {
	var req dto.MonitorRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	orderID := c.Param("order_id")
	check, err := h.orchestrator.MonitorDelivery(withOrder(c, orderID), orderID, req.Provider, req.TrackingNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewDeliveryCheckResponse(check))
}
