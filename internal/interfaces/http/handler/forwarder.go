package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ForwarderGateway is the provider-neutral forwarder API
type ForwarderGateway interface {
	GetRate(ctx context.Context, providerName string, req *forwarder.DdpRateRequest) (*forwarder.RateQuote, error)
	GetTracking(ctx context.Context, providerName, trackingNumber string) (*forwarder.TrackingInfo, error)
	GetWarehouseAddress(ctx context.Context, providerName, country string) *forwarder.ShippingAddress
}

// ForwarderHandler exposes rate quotes, warehouse lookup and tracking
type ForwarderHandler struct {
	BaseHandler
	gateway ForwarderGateway
}

// NewForwarderHandler creates a ForwarderHandler
func NewForwarderHandler(gateway ForwarderGateway) *ForwarderHandler {
	return &ForwarderHandler{gateway: gateway}
}

// GetRate handles POST /forwarders/:provider/rates. Provider failures come
// back as an estimated quote rather than an error.
func (h *ForwarderHandler) GetRate(c *gin.Context) {
	var req dto.RateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	quote, err := h.gateway.GetRate(c.Request.Context(), c.Param("provider"), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewRateQuoteResponse(quote))
}

// GetWarehouse handles GET /forwarders/:provider/warehouses/:country
func (h *ForwarderHandler) GetWarehouse(c *gin.Context) {
	provider := c.Param("provider")
	country := strings.ToUpper(c.Param("country"))
	if len(country) != 2 {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "country must be a two-letter code")
		return
	}

	addr := h.gateway.GetWarehouseAddress(c.Request.Context(), provider, country)
	if addr == nil {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound,
			fmt.Sprintf("forwarder %s has no warehouse in %s", provider, country))
		return
	}
	h.Success(c, addr)
}

// GetTracking handles GET /forwarders/:provider/tracking/:tracking_number
func (h *ForwarderHandler) GetTracking(c *gin.Context) {
	info, err := h.gateway.GetTracking(c.Request.Context(), c.Param("provider"), c.Param("tracking_number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}
