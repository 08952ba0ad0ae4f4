package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteProvider struct {
	rates       []usecase.Rate
	ratesErr    error
	tracking    usecase.TrackingDetails
	gotCarrier  string
	gotTracking string
}

func (p *quoteProvider) PurchaseLabel(_ context.Context, _, _ string) (usecase.LabelPurchase, error) {
	return usecase.LabelPurchase{}, nil
}

func (p *quoteProvider) GetRates(_ context.Context, _ usecase.RateRequest) ([]usecase.Rate, error) {
	return p.rates, p.ratesErr
}

func (p *quoteProvider) TrackShipment(_ context.Context, carrier, trackingNumber string) (usecase.TrackingDetails, error) {
	p.gotCarrier = carrier
	p.gotTracking = trackingNumber
	return p.tracking, nil
}

func newShippingRouter(p *quoteProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	shipFrom := entity.Address{Name: "Warehouse", Street1: "1 Dock Rd", City: "SF", Zip: "94117", Country: "US"}
	sh := NewShippingHandler(
		usecase.NewQuoteRates(p, shipFrom),
		usecase.NewTrackShipment(p, nil, true),
	)
	r := gin.New()
	r.POST("/v1/shipping/rates", sh.QuoteRates)
	r.POST("/v1/shipping/track", sh.TrackShipment)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func ratesBody() map[string]any {
	return map[string]any{
		"addressTo": map[string]any{
			"name": "Ada Lovelace", "street1": "2 Main St",
			"city": "NY", "zip": "10001", "country": "US",
		},
		"parcels": []map[string]any{
			{"length": 10, "width": 8, "height": 4, "distance_unit": "in", "weight": 2, "mass_unit": "lb"},
		},
	}
}

func TestQuoteRatesEndpoint(t *testing.T) {
	p := &quoteProvider{rates: []usecase.Rate{{
		ID:            "rate_1",
		Provider:      "USPS",
		ServiceLevel:  "Priority Mail",
		Description:   "USPS Priority Mail",
		Amount:        decimal.RequireFromString("5.99"),
		Currency:      "USD",
		EstimatedDays: 3,
	}}}
	r := newShippingRouter(p)

	w, resp := postJSON(t, r, "/v1/shipping/rates", ratesBody())

	require.Equal(t, http.StatusOK, w.Code)
	rates := resp["rates"].([]any)
	require.Len(t, rates, 1)
	rate := rates[0].(map[string]any)
	assert.Equal(t, "rate_1", rate["id"])
	assert.Equal(t, "USPS Priority Mail", rate["description"])
	assert.Equal(t, 5.99, rate["amount"])
	assert.Equal(t, float64(3), rate["estimated_days"])
}

func TestQuoteRatesEndpointValidation(t *testing.T) {
	r := newShippingRouter(&quoteProvider{})

	body := ratesBody()
	body["parcels"] = []map[string]any{}
	w, _ := postJSON(t, r, "/v1/shipping/rates", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = ratesBody()
	delete(body["addressTo"].(map[string]any), "zip")
	w, _ = postJSON(t, r, "/v1/shipping/rates", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteRatesEndpointProviderFailure(t *testing.T) {
	p := &quoteProvider{ratesErr: errors.New("connection reset")}
	r := newShippingRouter(p)

	w, resp := postJSON(t, r, "/v1/shipping/rates", ratesBody())
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotEmpty(t, resp["error"])
}

func TestTrackShipmentEndpoint(t *testing.T) {
	p := &quoteProvider{tracking: usecase.TrackingDetails{
		Status: "IN TRANSIT",
		ETA:    "Mar 5, 2024",
		History: []usecase.TrackingEvent{
			{Status: "Label created", Location: "San Francisco, CA", Date: "Mar 1, 2024 09:00"},
		},
	}}
	r := newShippingRouter(p)

	w, resp := postJSON(t, r, "/v1/shipping/track", map[string]any{
		"trackingNumber": "1Z999",
		"carrier":        "usps",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "IN TRANSIT", resp["status"])
	assert.Equal(t, "Mar 5, 2024", resp["eta"])
	// Test mode pins the carrier token regardless of the request.
	assert.Equal(t, "shippo", p.gotCarrier)
	assert.Equal(t, "1Z999", p.gotTracking)
}

func TestTrackShipmentEndpointRequiresTrackingNumber(t *testing.T) {
	r := newShippingRouter(&quoteProvider{})
	w, resp := postJSON(t, r, "/v1/shipping/track", map[string]any{"carrier": "usps"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, resp["error"])
}
