package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymledger_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymledger_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymledger_ledger_operations_total",
			Help: "Total number of ledger operations by outcome",
		},
		[]string{"operation", "status"},
	)

	LedgerConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymledger_ledger_conflicts_total",
			Help: "Transaction conflicts observed by the ledger, including retried ones",
		},
		[]string{"operation"},
	)

	LedgerAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymledger_ledger_attempts",
			Help:    "Transaction attempts needed per ledger operation",
			Buckets: []float64{1, 2, 3, 5, 8},
		},
		[]string{"operation"},
	)

	AmountCollectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymledger_amount_collected_total",
			Help: "Sum of committed payment amounts",
		},
	)

	AmountRefundedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymledger_amount_refunded_total",
			Help: "Sum of amounts reversed by payment deletion",
		},
	)

	EnrollmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymledger_enrollments_total",
			Help: "Total number of members enrolled",
		},
	)

	ReceiptsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymledger_receipts_sent_total",
			Help: "Total number of payment receipts processed",
		},
		[]string{"status"},
	)

	ReceiptQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymledger_receipt_queue_length",
			Help: "Current length of the receipt queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordLedgerOperation(operation, status string, attempts int) {
	LedgerOperationsTotal.WithLabelValues(operation, status).Inc()
	if attempts > 0 {
		LedgerAttempts.WithLabelValues(operation).Observe(float64(attempts))
	}
}

func RecordConflict(operation string) {
	LedgerConflictsTotal.WithLabelValues(operation).Inc()
}

func RecordCollected(amount float64) {
	AmountCollectedTotal.Add(amount)
}

func RecordRefunded(amount float64) {
	AmountRefundedTotal.Add(amount)
}

func RecordEnrollment() {
	EnrollmentsTotal.Inc()
}

func RecordReceipt(status string) {
	ReceiptsSentTotal.WithLabelValues(status).Inc()
}
