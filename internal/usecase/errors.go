package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateOrder: the same client order id is mid-flight on
	// another request. Not the same as a replay after success, which
	// returns the remembered confirmation instead.
	ErrDuplicateOrder = errors.New("duplicate order submission in flight")

	// ErrPaymentGatewayUnreachable: verification could not complete at
	// all. Must not be conflated with a declined payment.
	ErrPaymentGatewayUnreachable = errors.New("payment gateway unreachable")
)

// ValidationError: a malformed request rejected before any external
// call was made.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid field: %s", e.Field)
}

// PaymentNotConfirmedError: the gateway answered, but the payment is
// not in the succeeded state. The saga never proceeds speculatively,
// even for transient states like "processing".
type PaymentNotConfirmedError struct {
	Status PaymentStatus
}

func (e *PaymentNotConfirmedError) Error() string {
	return fmt.Sprintf("payment not successful: status %s", e.Status)
}

// UpstreamProviderError: payment is captured but the shipping provider
// rejected the purchase or returned an incomplete result. Carries the
// correlation ids a support process needs to reconcile the charge.
type UpstreamProviderError struct {
	OrderID         string
	PaymentIntentID string
	Messages        []ProviderMessage
	Err             error
}

func (e *UpstreamProviderError) Error() string {
	return fmt.Sprintf("shipping label purchase failed for order %s (payment %s)", e.OrderID, e.PaymentIntentID)
}

func (e *UpstreamProviderError) Unwrap() error { return e.Err }
