// Package shipping talks to the Shippo-compatible rate/label provider.
package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	// One shared limiter: the provider throttles per account, not per
	// endpoint.
	limiter *rate.Limiter
}

func NewClient(baseURL, token string, timeout time.Duration, perSecond float64) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if perSecond <= 0 {
		perSecond = 5
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1),
	}
}

// --- wire shapes ---

type transactionRequest struct {
	Rate          string `json:"rate"`
	LabelFileType string `json:"label_file_type"`
	Async         bool   `json:"async"`
	Metadata      string `json:"metadata,omitempty"`
}

type transactionResponse struct {
	ObjectID       string `json:"object_id"`
	TrackingNumber string `json:"tracking_number"`
	LabelURL       string `json:"label_url"`
	Status         string `json:"status"`
	Messages       []struct {
		Source string `json:"source"`
		Code   string `json:"code"`
		Text   string `json:"text"`
	} `json:"messages"`
}

type wireAddress struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

type shipmentRequest struct {
	AddressFrom wireAddress      `json:"address_from"`
	AddressTo   wireAddress      `json:"address_to"`
	Parcels     []usecase.Parcel `json:"parcels"`
	Async       bool             `json:"async"`
}

type shipmentResponse struct {
	ObjectID string `json:"object_id"`
	Rates    []struct {
		ObjectID     string `json:"object_id"`
		Amount       string `json:"amount"`
		Currency     string `json:"currency"`
		Provider     string `json:"provider"`
		ServiceLevel struct {
			Name  string `json:"name"`
			Token string `json:"token"`
		} `json:"servicelevel"`
		EstimatedDays int `json:"estimated_days"`
	} `json:"rates"`
}

type trackResponse struct {
	TrackingStatus *struct {
		Status        string `json:"status"`
		StatusDetails string `json:"status_details"`
		StatusDate    string `json:"status_date"`
	} `json:"tracking_status"`
	TrackingHistory []struct {
		Status        string `json:"status"`
		StatusDetails string `json:"status_details"`
		StatusDate    string `json:"status_date"`
		Location      *struct {
			City  string `json:"city"`
			State string `json:"state"`
		} `json:"location"`
	} `json:"tracking_history"`
	ETA string `json:"eta"`
}

// PurchaseLabel buys a label for a previously quoted rate, blocking
// until the provider confirms. Callers decide what an incomplete
// response means; this adapter only reports what came back.
func (c *Client) PurchaseLabel(ctx context.Context, rateID, orderRef string) (usecase.LabelPurchase, error) {
	var out transactionResponse
	err := c.post(ctx, "/transactions/", transactionRequest{
		Rate:          rateID,
		LabelFileType: "PDF_4x6",
		Async:         false,
		Metadata:      "Order " + orderRef,
	}, &out)
	if err != nil {
		return usecase.LabelPurchase{}, err
	}

	lp := usecase.LabelPurchase{
		TransactionID:  out.ObjectID,
		TrackingNumber: out.TrackingNumber,
		LabelURL:       out.LabelURL,
		Status:         out.Status,
	}
	for _, m := range out.Messages {
		lp.Messages = append(lp.Messages, usecase.ProviderMessage{Source: m.Source, Code: m.Code, Text: m.Text})
	}
	return lp, nil
}

// GetRates quotes shipping options for a destination. Malformed rate
// entries are skipped rather than failing the whole quote.
func (c *Client) GetRates(ctx context.Context, req usecase.RateRequest) ([]usecase.Rate, error) {
	var out shipmentResponse
	err := c.post(ctx, "/shipments/", shipmentRequest{
		AddressFrom: toWire(req.From),
		AddressTo:   toWire(req.To),
		Parcels:     req.Parcels,
		Async:       false,
	}, &out)
	if err != nil {
		return nil, err
	}

	rates := make([]usecase.Rate, 0, len(out.Rates))
	for _, r := range out.Rates {
		if r.ObjectID == "" || r.Amount == "" || r.Provider == "" || r.ServiceLevel.Name == "" {
			continue
		}
		amount, perr := decimal.NewFromString(r.Amount)
		if perr != nil {
			continue
		}
		rates = append(rates, usecase.Rate{
			ID:            r.ObjectID,
			Provider:      r.Provider,
			ServiceLevel:  r.ServiceLevel.Name,
			Description:   r.Provider + " " + r.ServiceLevel.Name,
			Amount:        amount,
			Currency:      r.Currency,
			EstimatedDays: r.EstimatedDays,
		})
	}
	return rates, nil
}

// TrackShipment looks up carrier tracking state and flattens it into
// the shape the storefront renders.
func (c *Client) TrackShipment(ctx context.Context, carrier, trackingNumber string) (usecase.TrackingDetails, error) {
	u := fmt.Sprintf("%s/tracks/%s/%s/", c.baseURL, url.PathEscape(carrier), url.PathEscape(trackingNumber))

	var out trackResponse
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return usecase.TrackingDetails{}, err
	}

	details := usecase.TrackingDetails{Status: "PENDING", ETA: "Not available"}
	if out.TrackingStatus != nil {
		s := out.TrackingStatus.StatusDetails
		if s == "" {
			s = out.TrackingStatus.Status
		}
		if s != "" {
			details.Status = strings.ToUpper(strings.ReplaceAll(s, "_", " "))
		}
	}
	if out.ETA != "" {
		if eta, err := time.Parse(time.RFC3339, out.ETA); err == nil {
			details.ETA = eta.Format("Jan 2, 2006")
		}
	}
	for _, h := range out.TrackingHistory {
		ev := usecase.TrackingEvent{Date: "Date N/A", Location: "N/A", Status: "Status N/A"}
		if h.StatusDate != "" {
			if ts, err := time.Parse(time.RFC3339, h.StatusDate); err == nil {
				ev.Date = ts.Format("Jan 2, 2006 15:04")
			}
		}
		if h.Location != nil {
			switch {
			case h.Location.City != "" && h.Location.State != "":
				ev.Location = h.Location.City + ", " + h.Location.State
			case h.Location.City != "":
				ev.Location = h.Location.City
			case h.Location.State != "":
				ev.Location = h.Location.State
			}
		}
		if h.StatusDetails != "" {
			ev.Status = h.StatusDetails
		} else if h.Status != "" {
			ev.Status = h.Status
		}
		details.History = append(details.History, ev)
	}
	return details, nil
}

// --- transport plumbing ---

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, c.baseURL+path, body, out)
}

func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "ShippoToken "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("shipping provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("shipping provider: status %d: %s", resp.StatusCode, snippet)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toWire(a entity.Address) wireAddress {
	return wireAddress{
		Name:    a.Name,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: a.Country,
		Phone:   a.Phone,
		Email:   a.Email,
	}
}

var _ usecase.ShippingProvider = (*Client)(nil)
