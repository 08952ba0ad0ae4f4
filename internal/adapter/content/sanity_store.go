// Package content persists orders in the headless CMS document store.
// Reads go through the query endpoint with the read token; writes go
// through the mutations endpoint with a distinct write credential.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BaseURL builds the API root for a project + API version, e.g.
// https://<project>.api.sanity.io/v2024-01-01
func BaseURL(projectID, apiVersion string) string {
	return fmt.Sprintf("https://%s.api.sanity.io/v%s", projectID, apiVersion)
}

type Store struct {
	baseURL    string
	dataset    string
	readToken  string
	writeToken string
	httpc      *http.Client
}

func NewStore(baseURL, dataset, readToken, writeToken string, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Store{
		baseURL:    baseURL,
		dataset:    dataset,
		readToken:  readToken,
		writeToken: writeToken,
		httpc:      &http.Client{Timeout: timeout},
	}
}

// --- document shape ---

type orderDoc struct {
	ID             string        `json:"_id,omitempty"`
	Type           string        `json:"_type"`
	OrderID        string        `json:"orderId"`
	CustomerName   string        `json:"customerName"`
	CustomerEmail  string        `json:"customerEmail"`
	CustomerPhone  string        `json:"customerPhone,omitempty"`
	Address        addressDoc    `json:"shippingAddress"`
	Items          []itemDoc     `json:"items"`
	TotalAmount    float64       `json:"totalAmount"`
	Status         entity.Status `json:"status"`
	TrackingNumber string        `json:"trackingNumber,omitempty"`
	ShippingMethod string        `json:"shippingMethod,omitempty"`
	ShippingCost   float64       `json:"shippingCost"`
	PaymentIntent  string        `json:"paymentIntentId"`
	LabelTxn       string        `json:"shippoTransactionId,omitempty"`
	LabelURL       string        `json:"labelUrl,omitempty"`
	OrderDate      string        `json:"orderDate"`
}

type addressDoc struct {
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type itemDoc struct {
	Key       string  `json:"_key"`
	ProductID string  `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
}

func toDoc(o *entity.Order) orderDoc {
	items := make([]itemDoc, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, itemDoc{
			Key:       uuid.NewString(),
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price.InexactFloat64(),
		})
	}
	return orderDoc{
		Type:          "order",
		OrderID:       o.OrderID,
		CustomerName:  o.Customer.Name,
		CustomerEmail: o.Customer.Email,
		CustomerPhone: o.Customer.Phone,
		Address: addressDoc{
			Street1: o.Customer.Street1,
			Street2: o.Customer.Street2,
			City:    o.Customer.City,
			State:   o.Customer.State,
			Zip:     o.Customer.Zip,
			Country: o.Customer.Country,
		},
		Items:          items,
		TotalAmount:    o.Total.InexactFloat64(),
		Status:         o.Status,
		TrackingNumber: o.TrackingNumber,
		ShippingMethod: o.ShippingMethod,
		ShippingCost:   o.ShippingCost.InexactFloat64(),
		PaymentIntent:  o.PaymentIntentID,
		LabelTxn:       o.LabelTransactionID,
		LabelURL:       o.LabelURL,
		OrderDate:      o.PlacedAt.UTC().Format(time.RFC3339),
	}
}

func fromDoc(d orderDoc) *entity.Order {
	items := make([]entity.LineItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, entity.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     decimal.NewFromFloat(it.Price).Round(2),
		})
	}
	placedAt, _ := time.Parse(time.RFC3339, d.OrderDate)
	return &entity.Order{
		OrderID: d.OrderID,
		Customer: entity.Address{
			Name:    d.CustomerName,
			Email:   d.CustomerEmail,
			Phone:   d.CustomerPhone,
			Street1: d.Address.Street1,
			Street2: d.Address.Street2,
			City:    d.Address.City,
			State:   d.Address.State,
			Zip:     d.Address.Zip,
			Country: d.Address.Country,
		},
		Items:              items,
		Total:              decimal.NewFromFloat(d.TotalAmount).Round(2),
		Status:             d.Status,
		TrackingNumber:     d.TrackingNumber,
		ShippingMethod:     d.ShippingMethod,
		ShippingCost:       decimal.NewFromFloat(d.ShippingCost).Round(2),
		PaymentIntentID:    d.PaymentIntent,
		LabelTransactionID: d.LabelTxn,
		LabelURL:           d.LabelURL,
		PlacedAt:           placedAt,
	}
}

// --- OrderStore port ---

func (s *Store) Create(ctx context.Context, o *entity.Order) (string, error) {
	res, err := s.mutate(ctx, []map[string]any{
		{"create": toDoc(o)},
	})
	if err != nil {
		return "", err
	}
	if len(res.Results) == 0 {
		return "", fmt.Errorf("content store: create returned no document id")
	}
	return res.Results[0].ID, nil
}

func (s *Store) FindByOrderID(ctx context.Context, orderID string) (*entity.Order, error) {
	raw, err := s.Fetch(ctx, `*[_type == "order" && orderId == $orderId][0]`,
		map[string]any{"orderId": orderID})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var d orderDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("content store: decode order: %w", err)
	}
	return fromDoc(d), nil
}

// AdvanceStatus is a guarded transition: the patch only matches while
// the document still holds the expected current status, so concurrent
// or replayed tracking events cannot regress the lifecycle.
func (s *Store) AdvanceStatus(ctx context.Context, orderID string, from, to entity.Status) (bool, error) {
	q := fmt.Sprintf(`*[_type == "order" && orderId == %q && status == %q]`, orderID, string(from))
	res, err := s.mutate(ctx, []map[string]any{
		{"patch": map[string]any{
			"query": q,
			"set":   map[string]any{"status": string(to)},
		}},
	})
	if err != nil {
		return false, err
	}
	return len(res.Results) > 0, nil
}

// Fetch runs a query with params against the read endpoint and returns
// the raw result for the caller to decode.
func (s *Store) Fetch(ctx context.Context, query string, params map[string]any) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("query", query)
	for k, v := range params {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		q.Set("$"+k, string(b))
	}
	u := fmt.Sprintf("%s/data/query/%s?%s", s.baseURL, s.dataset, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if s.readToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.readToken)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("content store: query status %d: %s", resp.StatusCode, snippet)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("content store: decode envelope: %w", err)
	}
	return envelope.Result, nil
}

type mutateResponse struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	} `json:"results"`
}

func (s *Store) mutate(ctx context.Context, mutations []map[string]any) (mutateResponse, error) {
	body, err := json.Marshal(map[string]any{"mutations": mutations})
	if err != nil {
		return mutateResponse{}, err
	}

	u := fmt.Sprintf("%s/data/mutate/%s?returnIds=true", s.baseURL, s.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return mutateResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.writeToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return mutateResponse{}, fmt.Errorf("content store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return mutateResponse{}, fmt.Errorf("content store: mutate status %d: %s", resp.StatusCode, snippet)
	}

	var out mutateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return mutateResponse{}, fmt.Errorf("content store: decode mutate: %w", err)
	}
	return out, nil
}

var _ usecase.OrderStore = (*Store)(nil)
