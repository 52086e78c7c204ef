package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the engine's collectors.
	Registry = prometheus.NewRegistry()

	creditTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edulink",
			Subsystem: "credits",
			Name:      "transactions_total",
			Help:      "Committed ledger transactions by kind.",
		},
		[]string{"kind"},
	)

	creditCredits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edulink",
			Subsystem: "credits",
			Name:      "units_total",
			Help:      "Absolute credit units moved by committed transactions, by kind.",
		},
		[]string{"kind"},
	)

	rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edulink",
			Subsystem: "engine",
			Name:      "rejections_total",
			Help:      "Operations refused by a business rule, by operation and reason.",
		},
		[]string{"operation", "reason"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edulink",
			Subsystem: "applications",
			Name:      "transitions_total",
			Help:      "Committed application state transitions.",
		},
		[]string{"event", "to"},
	)

	dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edulink",
			Subsystem: "notifications",
			Name:      "dispatch_total",
			Help:      "Notification dispatch attempts by result.",
		},
		[]string{"result"},
	)

	storeRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "edulink",
			Subsystem: "store",
			Name:      "transaction_retries_total",
			Help:      "Store transactions retried after a transient conflict.",
		},
	)
)

func init() {
	Registry.MustRegister(
		creditTransactions,
		creditCredits,
		rejections,
		transitions,
		dispatches,
		storeRetries,
	)
}

// Handler exposes Registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordCreditTransaction(kind string, amount int64) {
	creditTransactions.WithLabelValues(kind).Inc()
	if amount < 0 {
		amount = -amount
	}
	creditCredits.WithLabelValues(kind).Add(float64(amount))
}

func RecordRejection(operation, reason string) {
	rejections.WithLabelValues(operation, reason).Inc()
}

func RecordTransition(event, to string) {
	transitions.WithLabelValues(event, to).Inc()
}

func RecordDispatch(result string) {
	dispatches.WithLabelValues(result).Inc()
}

func RecordStoreRetry() {
	storeRetries.Inc()
}
