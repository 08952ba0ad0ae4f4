package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const idemScope = "orders"

type PlaceOrderInput struct {
	RateID          string
	OrderID         string
	Customer        entity.Address
	TotalPrice      decimal.Decimal
	Items           []entity.RawLineItem
	ShippingMethod  string
	ShippingCost    decimal.Decimal
	PaymentIntentID string
}

type PlaceOrderOutput struct {
	OrderID        string `json:"orderId"`
	TrackingNumber string `json:"trackingNumber"`
	LabelURL       string `json:"labelUrl,omitempty"`
	// Replayed marks a confirmation served from the idempotency store
	// rather than a fresh saga run.
	Replayed bool `json:"-"`
}

// PlaceOrder runs the order saga: verify payment, purchase label,
// persist, respond. The three steps commit independently in three
// external systems; there is no shared transaction, so the policy per
// partial-failure state is fixed here and nowhere else:
//
//   - payment not succeeded  -> abort, nothing charged-but-lost
//   - label purchase failed  -> abort with correlation ids, alert;
//     no automatic refund (open product decision)
//   - persistence failed     -> respond success anyway, alert; the
//     customer genuinely paid and the parcel ships
type PlaceOrder struct {
	payments PaymentGateway
	shipping ShippingProvider
	store    OrderStore
	idem     IdempotencyStore
	alerts   ReconciliationAlerter // optional
	log      *slog.Logger
}

func NewPlaceOrder(
	payments PaymentGateway,
	shipping ShippingProvider,
	store OrderStore,
	idem IdempotencyStore,
	alerts ReconciliationAlerter,
	log *slog.Logger,
) *PlaceOrder {
	if log == nil {
		log = slog.Default()
	}
	return &PlaceOrder{
		payments: payments,
		shipping: shipping,
		store:    store,
		idem:     idem,
		alerts:   alerts,
		log:      log,
	}
}

func (uc *PlaceOrder) Execute(ctx context.Context, in PlaceOrderInput) (PlaceOrderOutput, error) {
	if err := validate(in); err != nil {
		return PlaceOrderOutput{}, err
	}

	// Fast path: this order id already completed. Replay the stored
	// confirmation instead of buying a second label.
	if stored, ok, _ := uc.idem.Recall(ctx, idemScope, in.OrderID); ok {
		var out PlaceOrderOutput
		if err := json.Unmarshal([]byte(stored), &out); err == nil && out.TrackingNumber != "" {
			out.Replayed = true
			metrics.OrdersPlaced.WithLabelValues("replayed").Inc()
			return out, nil
		}
	}

	ok, err := uc.idem.TryLock(ctx, idemScope, in.OrderID)
	if err != nil {
		return PlaceOrderOutput{}, err
	}
	if !ok {
		metrics.OrdersPlaced.WithLabelValues("duplicate").Inc()
		return PlaceOrderOutput{}, ErrDuplicateOrder
	}

	out, err := uc.run(ctx, in)
	if err != nil {
		// Release so a corrected retry (new card, new rate) can reuse
		// the same client order id.
		_ = uc.idem.Release(ctx, idemScope, in.OrderID)
		return PlaceOrderOutput{}, err
	}

	if b, merr := json.Marshal(out); merr == nil {
		_ = uc.idem.Remember(ctx, idemScope, in.OrderID, string(b))
	}
	if out.Replayed {
		metrics.OrdersPlaced.WithLabelValues("replayed").Inc()
	} else {
		metrics.OrdersPlaced.WithLabelValues("placed").Inc()
	}
	return out, nil
}

func (uc *PlaceOrder) run(ctx context.Context, in PlaceOrderInput) (PlaceOrderOutput, error) {
	l := uc.log.With("order_id", in.OrderID, "payment_intent", in.PaymentIntentID)

	// Durable replay guard. The redis confirmation can be flushed or
	// expire ahead of the persisted document; a resubmit for an order
	// that already completed replays the stored confirmation instead of
	// re-running the saga. The label purchase is the one step that must
	// never run twice, so this check precedes every collaborator call.
	// Remember in Execute re-seeds the idempotency entry afterwards.
	if existing, err := uc.store.FindByOrderID(ctx, in.OrderID); err == nil && existing != nil && existing.TrackingNumber != "" {
		l.Info("order already persisted, replaying confirmation")
		return PlaceOrderOutput{
			OrderID:        existing.OrderID,
			TrackingNumber: existing.TrackingNumber,
			LabelURL:       existing.LabelURL,
			Replayed:       true,
		}, nil
	}

	// Step 1: payment verification. The single hard gate before any
	// money-committing side effect.
	pv, err := uc.verifyPayment(ctx, in.PaymentIntentID)
	if err != nil {
		metrics.SagaStepFailures.WithLabelValues("payment_verify").Inc()
		metrics.OrdersPlaced.WithLabelValues("error").Inc()
		l.Error("payment verification unreachable", "err", err)
		return PlaceOrderOutput{}, err
	}
	if pv.Status != PaymentSucceeded {
		metrics.OrdersPlaced.WithLabelValues("payment_rejected").Inc()
		l.Warn("payment not confirmed", "status", string(pv.Status))
		return PlaceOrderOutput{}, &PaymentNotConfirmedError{Status: pv.Status}
	}
	l.Info("payment confirmed",
		"amount_cents", pv.AmountCents,
		"currency", pv.Currency)

	// Step 2: label purchase. From here on, money has moved; every
	// failure path must carry the correlation ids.
	label, err := uc.shipping.PurchaseLabel(ctx, in.RateID, in.OrderID)
	if err != nil || !labelComplete(label) {
		metrics.SagaStepFailures.WithLabelValues("label_purchase").Inc()
		metrics.OrdersPlaced.WithLabelValues("label_failed").Inc()
		uc.flagForReconciliation(ctx, l, ReconciliationAlert{
			Stage:           ReconStagePaidNotShipped,
			OrderID:         in.OrderID,
			PaymentIntentID: in.PaymentIntentID,
			Detail:          labelFailureDetail(label, err),
		})
		return PlaceOrderOutput{}, &UpstreamProviderError{
			OrderID:         in.OrderID,
			PaymentIntentID: in.PaymentIntentID,
			Messages:        label.Messages,
			Err:             err,
		}
	}
	l.Info("label purchased",
		"transaction_id", label.TransactionID,
		"tracking_number", label.TrackingNumber)

	// Step 3: persistence. Paid and labeled: a storage failure here is
	// flagged for reconciliation but never surfaced to the buyer.
	order := &entity.Order{
		OrderID:            in.OrderID,
		Customer:           in.Customer,
		Items:              entity.NormalizeItems(in.Items),
		Total:              in.TotalPrice,
		Status:             entity.StatusProcessing,
		TrackingNumber:     label.TrackingNumber,
		ShippingMethod:     in.ShippingMethod,
		ShippingCost:       in.ShippingCost,
		PaymentIntentID:    in.PaymentIntentID,
		LabelTransactionID: label.TransactionID,
		LabelURL:           label.LabelURL,
		PlacedAt:           time.Now().UTC(),
	}
	uc.persist(ctx, l, order)

	return PlaceOrderOutput{
		OrderID:        in.OrderID,
		TrackingNumber: label.TrackingNumber,
		LabelURL:       label.LabelURL,
	}, nil
}

// verifyPayment retrieves the payment status with one retry on
// transport errors. Retrieval is a read, so a retry is safe; nothing
// past this point is.
func (uc *PlaceOrder) verifyPayment(ctx context.Context, ref string) (PaymentVerification, error) {
	pv, err := uc.payments.RetrievePaymentStatus(ctx, ref)
	if err != nil {
		pv, err = uc.payments.RetrievePaymentStatus(ctx, ref)
	}
	return pv, err
}

func (uc *PlaceOrder) persist(ctx context.Context, l *slog.Logger, order *entity.Order) {
	// Check-before-insert: a client retry that lost its idempotency
	// entry must not produce a second document for the same order id.
	if existing, err := uc.store.FindByOrderID(ctx, order.OrderID); err == nil && existing != nil {
		l.Info("order already persisted, skipping create")
		return
	}

	if _, err := uc.store.Create(ctx, order); err != nil {
		metrics.SagaStepFailures.WithLabelValues("persist").Inc()
		uc.flagForReconciliation(ctx, l, ReconciliationAlert{
			Stage:           ReconStageShippedNotRecorded,
			OrderID:         order.OrderID,
			PaymentIntentID: order.PaymentIntentID,
			TrackingNumber:  order.TrackingNumber,
			Detail:          err.Error(),
		})
		return
	}
	l.Info("order persisted", "status", string(order.Status))
}

// flagForReconciliation makes a partial-failure state loud: an ERROR
// log record plus a durable alert message. Alert publish failures are
// tolerated; the log line is the contract.
func (uc *PlaceOrder) flagForReconciliation(ctx context.Context, l *slog.Logger, a ReconciliationAlert) {
	a.AlertID = uuid.NewString()
	a.At = time.Now().UTC()
	metrics.ReconciliationAlerts.WithLabelValues(a.Stage).Inc()

	l.Error("reconciliation required",
		"stage", a.Stage,
		"alert_id", a.AlertID,
		"tracking_number", a.TrackingNumber,
		"detail", a.Detail)

	if uc.alerts != nil {
		if err := uc.alerts.Publish(ctx, a); err != nil {
			l.Error("reconciliation alert publish failed", "alert_id", a.AlertID, "err", err)
		}
	}
}

// labelComplete is the conjunctive success predicate: the provider's
// status flag alone is not proof of a usable label.
func labelComplete(lp LabelPurchase) bool {
	return lp.Status == LabelStatusSuccess && lp.TrackingNumber != "" && lp.LabelURL != ""
}

func labelFailureDetail(lp LabelPurchase, err error) string {
	if err != nil {
		return err.Error()
	}
	if lp.Status != LabelStatusSuccess {
		return "provider status " + lp.Status
	}
	if lp.TrackingNumber == "" {
		return "provider omitted tracking number"
	}
	return "provider omitted label url"
}

func validate(in PlaceOrderInput) error {
	switch {
	case in.OrderID == "":
		return &ValidationError{Field: "orderId"}
	case in.RateID == "":
		return &ValidationError{Field: "rateId"}
	case in.PaymentIntentID == "":
		return &ValidationError{Field: "paymentReference"}
	case len(in.Items) == 0:
		return &ValidationError{Field: "items"}
	}
	if err := in.Customer.Validate(); err != nil {
		return &ValidationError{Field: "customer"}
	}
	return nil
}
