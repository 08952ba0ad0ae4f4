package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stub collaborators ---

type stubGateway struct {
	status usecase.PaymentStatus
	err    error
	calls  int
}

func (g *stubGateway) RetrievePaymentStatus(_ context.Context, _ string) (usecase.PaymentVerification, error) {
	g.calls++
	if g.err != nil {
		return usecase.PaymentVerification{}, g.err
	}
	return usecase.PaymentVerification{Status: g.status, AmountCents: 4149, Currency: "usd"}, nil
}

type stubShipping struct {
	label usecase.LabelPurchase
	calls int
}

func (s *stubShipping) PurchaseLabel(_ context.Context, _, _ string) (usecase.LabelPurchase, error) {
	s.calls++
	return s.label, nil
}

func (s *stubShipping) GetRates(_ context.Context, _ usecase.RateRequest) ([]usecase.Rate, error) {
	return nil, nil
}

func (s *stubShipping) TrackShipment(_ context.Context, _, _ string) (usecase.TrackingDetails, error) {
	return usecase.TrackingDetails{}, nil
}

type stubStore struct {
	createErr error
	orders    map[string]*entity.Order
}

func (s *stubStore) Create(_ context.Context, o *entity.Order) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.orders[o.OrderID] = o
	return "doc-1", nil
}

func (s *stubStore) FindByOrderID(_ context.Context, orderID string) (*entity.Order, error) {
	return s.orders[orderID], nil
}

func (s *stubStore) AdvanceStatus(_ context.Context, _ string, _, _ entity.Status) (bool, error) {
	return false, nil
}

type memIdem struct {
	mu      sync.Mutex
	lockAll bool // simulates another request holding every lock
	locks   map[string]bool
	values  map[string]string
}

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lockAll || m.locks[scope+":"+key] {
		return false, nil
	}
	m.locks[scope+":"+key] = true
	return true, nil
}

func (m *memIdem) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, scope+":"+key)
	return nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[scope+":"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[scope+":"+key]
	return v, ok, nil
}

// --- fixture ---

type fixture struct {
	gateway  *stubGateway
	shipping *stubShipping
	store    *stubStore
	idem     *memIdem
	router   *gin.Engine
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)

	f := &fixture{
		gateway: &stubGateway{status: usecase.PaymentSucceeded},
		shipping: &stubShipping{label: usecase.LabelPurchase{
			TransactionID:  "txn_1",
			TrackingNumber: "1Z999",
			LabelURL:       "https://deliver.example/label.pdf",
			Status:         usecase.LabelStatusSuccess,
		}},
		store: &stubStore{orders: map[string]*entity.Order{}},
	}

	f.idem = &memIdem{locks: map[string]bool{}, values: map[string]string{}}
	place := usecase.NewPlaceOrder(f.gateway, f.shipping, f.store, f.idem, nil, nil)
	oh := NewOrderHandler(place, usecase.NewGetOrder(f.store), 5*time.Second)

	r := gin.New()
	r.POST("/v1/orders", oh.PlaceOrder)
	r.GET("/v1/orders/:id", oh.GetOrderByID)
	f.router = r
	return f
}

func orderBody() map[string]any {
	return map[string]any{
		"rateId":  "rate_abc",
		"orderId": "ECOMM_1700000000_42",
		"customer": map[string]any{
			"name":       "Ada Lovelace",
			"email":      "ada@example.com",
			"address":    "12 Analytical Way",
			"city":       "London",
			"zip":        "E1 6AN",
			"country":    "GB",
			"totalPrice": 41.49,
		},
		"items": []map[string]any{
			{"productId": "p1", "name": "Mug", "quantity": 2, "price": 12.5},
			{"productId": "p2", "name": "Poster", "quantity": 1, "price": 10.5},
		},
		"shipping":         map[string]any{"description": "USPS Priority Mail", "cost": 5.99},
		"paymentReference": "pi_123",
	}
}

func (f *fixture) placeOrder(t *testing.T, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

// --- tests ---

// Concrete scenario A: everything succeeds.
func TestPlaceOrderEndpointSuccess(t *testing.T) {
	f := newFixture()

	w, resp := f.placeOrder(t, orderBody())

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ECOMM_1700000000_42", resp["orderId"])
	assert.Equal(t, "1Z999", resp["trackingNumber"])
	assert.Equal(t, "https://deliver.example/label.pdf", resp["labelUrl"])

	require.Contains(t, f.store.orders, "ECOMM_1700000000_42")
	assert.Equal(t, entity.StatusProcessing, f.store.orders["ECOMM_1700000000_42"].Status)
}

func TestPlaceOrderEndpointValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing_rate_id", func(b map[string]any) { delete(b, "rateId") }},
		{"missing_order_id", func(b map[string]any) { delete(b, "orderId") }},
		{"missing_payment_reference", func(b map[string]any) { delete(b, "paymentReference") }},
		{"empty_items", func(b map[string]any) { b["items"] = []map[string]any{} }},
		{"missing_customer_zip", func(b map[string]any) {
			delete(b["customer"].(map[string]any), "zip")
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			body := orderBody()
			tt.mutate(body)

			w, resp := f.placeOrder(t, body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, resp["error"])
			// Rejected before any external call.
			assert.Zero(t, f.gateway.calls)
			assert.Zero(t, f.shipping.calls)
		})
	}
}

// Concrete scenario B: payment still requires action.
func TestPlaceOrderEndpointPaymentNotConfirmed(t *testing.T) {
	f := newFixture()
	f.gateway.status = usecase.PaymentRequiresAction

	w, resp := f.placeOrder(t, orderBody())

	require.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, resp["error"], "requires_action")
	assert.Zero(t, f.shipping.calls, "no label purchase after a failed payment gate")
}

// Concrete scenario C: provider says SUCCESS but omits the tracking number.
func TestPlaceOrderEndpointIncompleteLabel(t *testing.T) {
	f := newFixture()
	f.shipping.label = usecase.LabelPurchase{
		TransactionID: "txn_1",
		LabelURL:      "https://deliver.example/label.pdf",
		Status:        usecase.LabelStatusSuccess,
	}

	w, resp := f.placeOrder(t, orderBody())

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, true, resp["internalError"])
	assert.Equal(t, "ECOMM_1700000000_42", resp["orderId"])
	assert.Equal(t, "pi_123", resp["paymentIntentId"])
	assert.Empty(t, f.store.orders)
}

// Concrete scenario D: persistence fails after payment + label.
func TestPlaceOrderEndpointPersistenceFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	f.store.createErr = errors.New("content store: network error")

	w, resp := f.placeOrder(t, orderBody())

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1Z999", resp["trackingNumber"])
}

func TestPlaceOrderEndpointInFlightDuplicate(t *testing.T) {
	f := newFixture()
	f.idem.lockAll = true

	w, resp := f.placeOrder(t, orderBody())

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, resp["error"], "already being processed")
	assert.Equal(t, "ECOMM_1700000000_42", resp["orderId"])
	assert.Zero(t, f.gateway.calls)
	assert.Zero(t, f.shipping.calls)
}

func TestPlaceOrderEndpointGatewayUnreachable(t *testing.T) {
	f := newFixture()
	f.gateway.err = usecase.ErrPaymentGatewayUnreachable

	w, resp := f.placeOrder(t, orderBody())

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to verify payment.", resp["error"])
	assert.Equal(t, "ECOMM_1700000000_42", resp["orderId"])
	assert.Equal(t, "pi_123", resp["paymentIntentId"])

	// One bounded retry on the verification read, nothing downstream.
	assert.Equal(t, 2, f.gateway.calls)
	assert.Zero(t, f.shipping.calls)
	assert.Empty(t, f.store.orders)
}

func TestPlaceOrderEndpointIdempotentResubmit(t *testing.T) {
	f := newFixture()

	w1, _ := f.placeOrder(t, orderBody())
	require.Equal(t, http.StatusOK, w1.Code)

	w2, resp := f.placeOrder(t, orderBody())
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "1Z999", resp["trackingNumber"])

	assert.Equal(t, 1, f.shipping.calls, "a resubmit must not buy a second label")
	assert.Len(t, f.store.orders, 1)
}

func TestGetOrderEndpoint(t *testing.T) {
	f := newFixture()
	_, _ = f.placeOrder(t, orderBody())

	req := httptest.NewRequest(http.MethodGet, "/v1/orders/ECOMM_1700000000_42", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "processing", resp["status"])
	assert.Equal(t, "1Z999", resp["trackingNumber"])

	req = httptest.NewRequest(http.MethodGet, "/v1/orders/missing", nil)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
