// Package metrics holds the service-level prometheus collectors.
// HTTP-level collectors live in the gin middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersPlaced counts saga outcomes: placed, replayed, payment_rejected,
	// label_failed, duplicate, error.
	OrdersPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Order placement attempts by outcome",
		},
		[]string{"outcome"},
	)

	// SagaStepFailures counts failures per pipeline step:
	// payment_verify, label_purchase, persist.
	SagaStepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_step_failures_total",
			Help: "Order saga step failures",
		},
		[]string{"step"},
	)

	// ReconciliationAlerts counts paid-but-inconsistent states flagged for
	// the support process.
	ReconciliationAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_alerts_total",
			Help: "Partial-failure states needing manual reconciliation",
		},
		[]string{"stage"},
	)
)
