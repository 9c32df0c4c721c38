// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topup_order_transitions_total",
			Help: "Total number of applied order state transitions",
		},
		[]string{"from", "to"},
	)

	WalletPostingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topup_wallet_postings_total",
			Help: "Total number of wallet ledger postings",
		},
		[]string{"kind", "status"},
	)

	GatewayWebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topup_gateway_webhooks_total",
			Help: "Total number of payment gateway webhooks received",
		},
		[]string{"result"},
	)

	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topup_provider_calls_total",
			Help: "Total number of top-up provider calls",
		},
		[]string{"provider", "outcome"},
	)

	ManualReconciliationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "topup_manual_reconciliations_total",
			Help: "Orders left failed because the compensating refund could not be applied",
		},
	)

	ReconcileSweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topup_reconcile_sweeps_total",
			Help: "Total number of background reconciliation sweeps",
		},
		[]string{"outcome"},
	)
)

func RecordOrderTransition(from, to string) {
	OrderTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordWalletPosting(kind, status string) {
	WalletPostingsTotal.WithLabelValues(kind, status).Inc()
}

func RecordGatewayWebhook(result string) {
	GatewayWebhooksTotal.WithLabelValues(result).Inc()
}

func RecordProviderCall(provider, outcome string) {
	ProviderCallsTotal.WithLabelValues(provider, outcome).Inc()
}

func RecordManualReconciliation() {
	ManualReconciliationsTotal.Inc()
}

// RecordReconcileSweep counts a sweep as clean or with_errors.
func RecordReconcileSweep(errors int) {
	outcome := "clean"
	if errors > 0 {
		outcome = "with_errors"
	}
	ReconcileSweepsTotal.WithLabelValues(outcome).Inc()
}
