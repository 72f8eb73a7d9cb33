package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database metrics
	dbQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfercrawler_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"table", "operation"},
	)

	dbQueryTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transfercrawler_db_query_duration_seconds",
			Help:    "Duration of database queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table", "operation"},
	)

	dbErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfercrawler_db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"table", "error_type"},
	)

	// Crawling metrics
	CursorHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transfercrawler_cursor_height",
			Help: "The block height the crawler will fetch next",
		},
	)

	BlocksFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transfercrawler_blocks_fetched_total",
			Help: "Total number of blocks accepted from the node and dispatched",
		},
	)

	TransientFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfercrawler_transient_fetches_total",
			Help: "Total number of block fetches retried because of a transient condition",
		},
		[]string{"reason"},
	)

	TasksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transfercrawler_tasks_in_flight",
			Help: "Number of block processing tasks currently running",
		},
	)

	TaskFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfercrawler_task_failures_total",
			Help: "Total number of block processing tasks that failed",
		},
		[]string{"reason"},
	)

	TransactionsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfercrawler_transactions_skipped_total",
			Help: "Total number of transactions that did not qualify as token transfers",
		},
		[]string{"reason"},
	)

	TransfersIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transfercrawler_transfers_indexed_total",
			Help: "Total number of token transfers persisted",
		},
	)

	BlockProcessingTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "transfercrawler_block_processing_duration_seconds",
			Help:    "Time taken to decode, persist and notify one block",
			Buckets: prometheus.DefBuckets,
		},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfercrawler_notifications_total",
			Help: "Total number of outbound notifications by status",
		},
		[]string{"status"},
	)

	Retries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfercrawler_retries_total",
			Help: "Total number of retried operations",
		},
		[]string{"operation"},
	)

	WatchedAddresses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transfercrawler_watched_addresses",
			Help: "Number of addresses in the current watch set",
		},
	)

	// System metrics
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transfercrawler_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfercrawler_errors_total",
			Help: "Total number of errors by component and severity",
		},
		[]string{"component", "severity"},
	)

	ComponentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transfercrawler_component_health",
			Help: "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transfercrawler_goroutines",
			Help: "Number of active goroutines",
		},
	)

	MemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transfercrawler_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

func DBQueryInc(table string, operation string) {
	dbQueries.WithLabelValues(table, operation).Inc()
}

func DBQueryDuration(table string, operation string, duration time.Duration) {
	dbQueryTime.WithLabelValues(table, operation).Observe(duration.Seconds())
}

func DBErrorsInc(table string, errorType string) {
	dbErrors.WithLabelValues(table, errorType).Inc()
}

func CursorHeightSet(height uint64) {
	CursorHeight.Set(float64(height))
}

func TransientFetchInc(reason string) {
	TransientFetches.WithLabelValues(reason).Inc()
}

func TaskFailureInc(reason string) {
	TaskFailures.WithLabelValues(reason).Inc()
}

func TransactionSkippedInc(reason string) {
	TransactionsSkipped.WithLabelValues(reason).Inc()
}

func TransfersIndexedInc(count int) {
	TransfersIndexed.Add(float64(count))
}

func BlockProcessingTimeLog(duration time.Duration) {
	BlockProcessingTime.Observe(duration.Seconds())
}

func NotificationInc(status string) {
	Notifications.WithLabelValues(status).Inc()
}

func RetryInc(operation string) {
	Retries.WithLabelValues(operation).Inc()
}

func WatchedAddressesSet(count int) {
	WatchedAddresses.Set(float64(count))
}

func ErrorInc(component, severity string) {
	Errors.WithLabelValues(component, severity).Inc()
}

func ComponentHealthSet(component string, healthy bool) {
	boolAsFloat := float64(1)
	if !healthy {
		boolAsFloat = 0
	}

	ComponentHealth.WithLabelValues(component).Set(boolAsFloat)
}

// UpdateSystemMetrics updates runtime system metrics.
// This should be called periodically (e.g., every 15 seconds).
func UpdateSystemMetrics() {
	Uptime.Set(time.Since(startTime).Seconds())

	Goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	MemoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	MemoryUsage.WithLabelValues("total_alloc").Set(float64(m.TotalAlloc))
	MemoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	MemoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
