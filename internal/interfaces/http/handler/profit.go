package handler

import (
	"context"

	"github.com/dropship/backend/internal/domain/landedcost"
	"github.com/dropship/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProfitEngine prices products across trade routes
type ProfitEngine interface {
	Policy() landedcost.CostPolicy
	CalculateProfit(ctx context.Context, product landedcost.ProductInput, route landedcost.Route, targetProfitRate decimal.Decimal) (*landedcost.ProfitResult, error)
	FindOptimalRoute(ctx context.Context, product landedcost.ProductInput, routes []landedcost.Route, targetProfitRate decimal.Decimal) (*landedcost.RouteComparison, error)
	AutoListingPrice(ctx context.Context, product landedcost.ProductInput, route landedcost.Route, targetProfitRate decimal.Decimal) (decimal.Decimal, error)
}

// ProfitHandler exposes the route profit engine
type ProfitHandler struct {
	BaseHandler
	engine ProfitEngine
}

// NewProfitHandler creates a ProfitHandler
func NewProfitHandler(engine ProfitEngine) *ProfitHandler {
	return &ProfitHandler{engine: engine}
}

// Calculate handles POST /profit/calculate
func (h *ProfitHandler) Calculate(c *gin.Context) {
	var req dto.CalculateProfitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	policy := h.engine.Policy()
	product, err := req.Product.ToDomain(policy.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.engine.CalculateProfit(c.Request.Context(), product, req.Route,
		dto.TargetRate(req.TargetProfitRate, policy.DefaultTargetProfitRate))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewProfitResultResponse(*result))
}

// OptimalRoute handles POST /profit/optimal-route
func (h *ProfitHandler) OptimalRoute(c *gin.Context) {
	var req dto.OptimalRouteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	policy := h.engine.Policy()
	product, err := req.Product.ToDomain(policy.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	comparison, err := h.engine.FindOptimalRoute(c.Request.Context(), product, req.Routes,
		dto.TargetRate(req.TargetProfitRate, policy.DefaultTargetProfitRate))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewRouteComparisonResponse(comparison))
}

// ListingPrice handles POST /profit/listing-price
func (h *ProfitHandler) ListingPrice(c *gin.Context) {
	var req dto.ListingPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	policy := h.engine.Policy()
	product, err := req.Product.ToDomain(policy.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	price, err := h.engine.AutoListingPrice(c.Request.Context(), product, req.Route,
		dto.TargetRate(req.TargetProfitRate, policy.DefaultTargetProfitRate))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	cur := product.SupplierPrice.Currency()
	h.Success(c, dto.ListingPriceResponse{
		ProductID:    product.ID,
		Route:        req.Route.Normalize(),
		Currency:     string(cur),
		ListingPrice: price.Round(cur.MinorUnits()),
	})
}
