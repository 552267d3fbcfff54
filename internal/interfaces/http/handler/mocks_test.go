package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	app "github.com/dropship/backend/internal/application/fulfillment"
	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/landedcost"
	"github.com/dropship/backend/internal/domain/queue"
	"github.com/dropship/backend/internal/interfaces/http/dto"
	"github.com/dropship/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// performRequest sends body (marshalled unless it is a string) through a
// router with the request ID middleware and decodes the envelope
func performRequest(t *testing.T, register func(r *gin.Engine), method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	r := gin.New()
	r.Use(middleware.RequestID())
	register(r)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// dataMap re-decodes resp.Data as a JSON object
func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// MockProfitEngine implements ProfitEngine for testing
type MockProfitEngine struct {
	mock.Mock
}

func (m *MockProfitEngine) Policy() landedcost.CostPolicy {
	return m.Called().Get(0).(landedcost.CostPolicy)
}

func (m *MockProfitEngine) CalculateProfit(ctx context.Context, product landedcost.ProductInput, route landedcost.Route, rate decimal.Decimal) (*landedcost.ProfitResult, error) {
	args := m.Called(ctx, product, route, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*landedcost.ProfitResult), args.Error(1)
}

func (m *MockProfitEngine) FindOptimalRoute(ctx context.Context, product landedcost.ProductInput, routes []landedcost.Route, rate decimal.Decimal) (*landedcost.RouteComparison, error) {
	args := m.Called(ctx, product, routes, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*landedcost.RouteComparison), args.Error(1)
}

func (m *MockProfitEngine) AutoListingPrice(ctx context.Context, product landedcost.ProductInput, route landedcost.Route, rate decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, product, route, rate)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockForwarderGateway implements ForwarderGateway for testing
type MockForwarderGateway struct {
	mock.Mock
}

func (m *MockForwarderGateway) GetRate(ctx context.Context, provider string, req *forwarder.DdpRateRequest) (*forwarder.RateQuote, error) {
	args := m.Called(ctx, provider, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*forwarder.RateQuote), args.Error(1)
}

func (m *MockForwarderGateway) GetTracking(ctx context.Context, provider, trackingNumber string) (*forwarder.TrackingInfo, error) {
	args := m.Called(ctx, provider, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*forwarder.TrackingInfo), args.Error(1)
}

func (m *MockForwarderGateway) GetWarehouseAddress(ctx context.Context, provider, country string) *forwarder.ShippingAddress {
	args := m.Called(ctx, provider, country)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*forwarder.ShippingAddress)
}

// MockOrchestrator implements OrderOrchestrator for testing
type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) workflow(args mock.Arguments) (*fulfillment.OrderWorkflow, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.OrderWorkflow), args.Error(1)
}

func (m *MockOrchestrator) Process(ctx context.Context, order fulfillment.FulfillmentOrder) (*fulfillment.OrderWorkflow, error) {
	return m.workflow(m.Called(ctx, order))
}

func (m *MockOrchestrator) GetOrder(ctx context.Context, orderID string) (*fulfillment.OrderWorkflow, error) {
	return m.workflow(m.Called(ctx, orderID))
}

func (m *MockOrchestrator) RetryShipment(ctx context.Context, orderID string) (*fulfillment.OrderWorkflow, error) {
	return m.workflow(m.Called(ctx, orderID))
}

func (m *MockOrchestrator) RetryTrackingSync(ctx context.Context, orderID, trackingNumber string) (*fulfillment.OrderWorkflow, error) {
	return m.workflow(m.Called(ctx, orderID, trackingNumber))
}

func (m *MockOrchestrator) MonitorDelivery(ctx context.Context, orderID, provider, trackingNumber string) (*app.DeliveryCheck, error) {
	args := m.Called(ctx, orderID, provider, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.DeliveryCheck), args.Error(1)
}

// MockJobStore implements JobStore for testing
type MockJobStore struct {
	mock.Mock
}

func (m *MockJobStore) Enqueue(ctx context.Context, job *queue.QueueJob) error {
	return m.Called(ctx, job).Error(0)
}

func (m *MockJobStore) Get(ctx context.Context, id uuid.UUID) (*queue.QueueJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.QueueJob), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("ping without deadline")
	}
	return p.err
}
