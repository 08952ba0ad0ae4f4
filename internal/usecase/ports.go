package usecase

import (
	"context"
	"time"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the gateway's view of a payment attempt, reduced to
// the states the saga cares about. Anything unrecognized maps to
// PaymentUnknown and is treated as not-succeeded.
type PaymentStatus string

const (
	PaymentSucceeded      PaymentStatus = "succeeded"
	PaymentRequiresAction PaymentStatus = "requires_action"
	PaymentProcessing     PaymentStatus = "processing"
	PaymentFailed         PaymentStatus = "failed"
	PaymentUnknown        PaymentStatus = "unknown"
)

// PaymentVerification gates saga progression. Amount/currency are what
// the gateway actually charged; they are logged for reconciliation but
// never re-derived from line items.
type PaymentVerification struct {
	Status      PaymentStatus
	AmountCents int64
	Currency    string
}

type PaymentGateway interface {
	RetrievePaymentStatus(ctx context.Context, ref string) (PaymentVerification, error)
}

// ProviderMessage is a diagnostic from the shipping provider, passed
// through to error responses verbatim.
type ProviderMessage struct {
	Source string `json:"source,omitempty"`
	Code   string `json:"code,omitempty"`
	Text   string `json:"text,omitempty"`
}

const LabelStatusSuccess = "SUCCESS"

// LabelPurchase is the provider's answer to a synchronous label buy.
// Status alone is not trusted: the saga requires tracking number and
// label URL to be present too.
type LabelPurchase struct {
	TransactionID  string
	TrackingNumber string
	LabelURL       string
	Status         string
	Messages       []ProviderMessage
}

type Parcel struct {
	Length       float64 `json:"length"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	DistanceUnit string  `json:"distance_unit"`
	Weight       float64 `json:"weight"`
	MassUnit     string  `json:"mass_unit"`
}

type Rate struct {
	ID            string
	Provider      string
	ServiceLevel  string
	Description   string
	Amount        decimal.Decimal
	Currency      string
	EstimatedDays int
}

type RateRequest struct {
	From    entity.Address
	To      entity.Address
	Parcels []Parcel
}

type TrackingEvent struct {
	Date     string `json:"date"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

type TrackingDetails struct {
	Status  string          `json:"status"`
	History []TrackingEvent `json:"history"`
	ETA     string          `json:"eta"`
}

type ShippingProvider interface {
	// PurchaseLabel commits to a quoted rate. Blocking: the provider
	// confirms success or failure before returning. Never retried.
	PurchaseLabel(ctx context.Context, rateID, orderRef string) (LabelPurchase, error)
	GetRates(ctx context.Context, req RateRequest) ([]Rate, error)
	TrackShipment(ctx context.Context, carrier, trackingNumber string) (TrackingDetails, error)
}

// OrderStore is the content-store port. Create is non-transactional;
// FindByOrderID is the check-before-insert guard that makes client
// retries safe.
type OrderStore interface {
	Create(ctx context.Context, o *entity.Order) (string, error)
	FindByOrderID(ctx context.Context, orderID string) (*entity.Order, error)
	// AdvanceStatus applies status=to only where status=from still holds.
	// Returns false when nothing matched.
	AdvanceStatus(ctx context.Context, orderID string, from, to entity.Status) (bool, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type StatusCache interface {
	SetStatus(ctx context.Context, key, status string) error
	GetStatus(ctx context.Context, key string) (string, error)
}

// ReconciliationAlert flags a paid-but-inconsistent state for the
// support/backoffice process. Stage is one of the ReconStage constants.
type ReconciliationAlert struct {
	AlertID         string    `json:"alertId"`
	Stage           string    `json:"stage"`
	OrderID         string    `json:"orderId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	TrackingNumber  string    `json:"trackingNumber,omitempty"`
	Detail          string    `json:"detail,omitempty"`
	At              time.Time `json:"at"`
}

const (
	ReconStagePaidNotShipped     = "paid_not_shipped"
	ReconStageShippedNotRecorded = "paid_shipped_not_recorded"
)

type ReconciliationAlerter interface {
	Publish(ctx context.Context, a ReconciliationAlert) error
}
