package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, "shippo_test_token", 2*time.Second, 100)
}

func TestPurchaseLabelSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions/", r.URL.Path)
		assert.Equal(t, "ShippoToken shippo_test_token", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rate_abc", req["rate"])
		assert.Equal(t, false, req["async"])
		assert.Equal(t, "PDF_4x6", req["label_file_type"])
		assert.Equal(t, "Order ECOMM_1", req["metadata"])

		_, _ = w.Write([]byte(`{
			"object_id": "txn_1",
			"tracking_number": "1Z999",
			"label_url": "https://deliver.example/label.pdf",
			"status": "SUCCESS"
		}`))
	}))
	defer srv.Close()

	lp, err := newTestClient(srv).PurchaseLabel(context.Background(), "rate_abc", "ECOMM_1")
	require.NoError(t, err)
	assert.Equal(t, "txn_1", lp.TransactionID)
	assert.Equal(t, "1Z999", lp.TrackingNumber)
	assert.Equal(t, "https://deliver.example/label.pdf", lp.LabelURL)
	assert.Equal(t, usecase.LabelStatusSuccess, lp.Status)
}

func TestPurchaseLabelProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"object_id": "txn_2",
			"status": "ERROR",
			"messages": [{"source": "UPS", "code": "rate_expired", "text": "The requested rate has expired."}]
		}`))
	}))
	defer srv.Close()

	lp, err := newTestClient(srv).PurchaseLabel(context.Background(), "rate_old", "ECOMM_2")
	require.NoError(t, err)
	assert.Equal(t, "ERROR", lp.Status)
	assert.Empty(t, lp.TrackingNumber)
	require.Len(t, lp.Messages, 1)
	assert.Equal(t, "The requested rate has expired.", lp.Messages[0].Text)
}

func TestGetRatesSkipsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shipments/", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"object_id": "shp_1",
			"rates": [
				{"object_id": "rate_1", "amount": "5.99", "currency": "USD", "provider": "USPS",
				 "servicelevel": {"name": "Priority Mail", "token": "usps_priority"}, "estimated_days": 3},
				{"object_id": "", "amount": "7.00", "currency": "USD", "provider": "UPS",
				 "servicelevel": {"name": "Ground", "token": "ups_ground"}},
				{"object_id": "rate_3", "amount": "not-a-number", "currency": "USD", "provider": "UPS",
				 "servicelevel": {"name": "Ground", "token": "ups_ground"}}
			]
		}`))
	}))
	defer srv.Close()

	rates, err := newTestClient(srv).GetRates(context.Background(), usecase.RateRequest{
		From:    entity.Address{Name: "W", Street1: "1 Dock Rd", City: "SF", Zip: "94117", Country: "US"},
		To:      entity.Address{Name: "A", Street1: "2 Main St", City: "NY", Zip: "10001", Country: "US"},
		Parcels: []usecase.Parcel{{Length: 10, Width: 8, Height: 4, DistanceUnit: "in", Weight: 2, MassUnit: "lb"}},
	})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "rate_1", rates[0].ID)
	assert.Equal(t, "USPS Priority Mail", rates[0].Description)
	assert.Equal(t, "5.99", rates[0].Amount.String())
	assert.Equal(t, 3, rates[0].EstimatedDays)
}

func TestTrackShipmentFormatsHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tracks/shippo/1Z999/", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"tracking_status": {"status": "IN_TRANSIT", "status_details": "", "status_date": "2024-03-02T10:00:00Z"},
			"tracking_history": [
				{"status": "PRE_TRANSIT", "status_details": "Label created", "status_date": "2024-03-01T09:00:00Z",
				 "location": {"city": "San Francisco", "state": "CA"}},
				{"status": "TRANSIT", "status_details": "", "status_date": "", "location": null}
			],
			"eta": "2024-03-05T00:00:00Z"
		}`))
	}))
	defer srv.Close()

	details, err := newTestClient(srv).TrackShipment(context.Background(), "shippo", "1Z999")
	require.NoError(t, err)
	assert.Equal(t, "IN TRANSIT", details.Status)
	assert.Equal(t, "Mar 5, 2024", details.ETA)
	require.Len(t, details.History, 2)
	assert.Equal(t, "Label created", details.History[0].Status)
	assert.Equal(t, "San Francisco, CA", details.History[0].Location)
	assert.Equal(t, "Mar 1, 2024 09:00", details.History[0].Date)
	assert.Equal(t, "TRANSIT", details.History[1].Status)
	assert.Equal(t, "N/A", details.History[1].Location)
	assert.Equal(t, "Date N/A", details.History[1].Date)
}

func TestNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).PurchaseLabel(context.Background(), "rate_abc", "ECOMM_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
