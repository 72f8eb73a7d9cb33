package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Node API metrics
	ledgerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfercrawler_ledger_requests_total",
			Help: "Total number of node API requests by method",
		},
		[]string{"method"},
	)

	ledgerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfercrawler_ledger_errors_total",
			Help: "Total number of node API errors by method and type",
		},
		[]string{"method", "error_type"},
	)

	ledgerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transfercrawler_ledger_request_duration_seconds",
			Help:    "Duration of node API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func methodInc(method string) {
	ledgerRequests.WithLabelValues(method).Inc()
}

func methodDuration(method string, duration time.Duration) {
	ledgerDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func methodError(method, errorType string) {
	ledgerErrors.WithLabelValues(method, errorType).Inc()
}
