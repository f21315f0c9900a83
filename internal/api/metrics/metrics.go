// Package metrics defines and registers all custom Prometheus metrics for the
// rental API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vidly"

// ── Return metrics ────────────────────────────────────────────────────────────

// RentalsReturnedTotal counts returns that completed the whole workflow.
var RentalsReturnedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rentals_returned_total",
		Help:      "Total number of rentals successfully returned.",
	},
)

// ReturnErrorsTotal counts returns that failed.
// Label:
//   - reason: "invalid_request", "not_found", "already_processed", "persistence"
var ReturnErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "return_errors_total",
		Help:      "Total number of rental returns that failed, by reason.",
	},
	[]string{"reason"},
)

// RentalFeeAmount observes the fee charged on each successful return.
var RentalFeeAmount = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rental_fee_amount",
		Help:      "Rental fee charged per returned rental.",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
	},
)

// ReturnDuration measures the return workflow end-to-end.
// Label:
//   - result: "ok" or the error reason
var ReturnDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "return_duration_seconds",
		Help:      "Duration of the rental return workflow.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Stock reconciliation metrics ──────────────────────────────────────────────

// StockCreditsTotal counts stock credits handled by the retry dispatcher.
// Label:
//   - result: "applied", "retried", "dropped", "queue_full"
var StockCreditsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_credits_total",
		Help:      "Total number of queued stock credits, labelled by outcome.",
	},
	[]string{"result"},
)

// StockCreditQueueDepth tracks pending credits in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var StockCreditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stock_credit_queue_depth",
		Help:      "Current number of stock credits pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
