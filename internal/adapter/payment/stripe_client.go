// Package payment talks to the Stripe-compatible payment gateway. The
// saga only ever reads here: intents are created client-side before the
// order request arrives.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
)

type Client struct {
	baseURL   string
	secretKey string
	httpc     *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpc:     &http.Client{Timeout: timeout},
	}
}

type intentResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// RetrievePaymentStatus fetches the current state of a payment intent.
// A non-2xx gateway answer is an error (the caller must not read it as
// "payment declined" — declined intents come back 200 with a status).
func (c *Client) RetrievePaymentStatus(ctx context.Context, ref string) (usecase.PaymentVerification, error) {
	u := c.baseURL + "/v1/payment_intents/" + url.PathEscape(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return usecase.PaymentVerification{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return usecase.PaymentVerification{}, fmt.Errorf("%w: %v", usecase.ErrPaymentGatewayUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return usecase.PaymentVerification{}, fmt.Errorf("payment gateway: status %d: %s", resp.StatusCode, body)
	}

	var in intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&in); err != nil {
		return usecase.PaymentVerification{}, fmt.Errorf("payment gateway: decode: %w", err)
	}

	return usecase.PaymentVerification{
		Status:      mapStatus(in.Status),
		AmountCents: in.Amount,
		Currency:    in.Currency,
	}, nil
}

func mapStatus(s string) usecase.PaymentStatus {
	switch s {
	case "succeeded":
		return usecase.PaymentSucceeded
	case "requires_action", "requires_confirmation", "requires_payment_method", "requires_capture":
		return usecase.PaymentRequiresAction
	case "processing":
		return usecase.PaymentProcessing
	case "canceled":
		return usecase.PaymentFailed
	default:
		return usecase.PaymentUnknown
	}
}

var _ usecase.PaymentGateway = (*Client)(nil)
