// Package metrics provides Prometheus metrics for the HTTP surface, the
// logical databases and the external posts API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatchedRoute = "unmatched"

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// dbTransactions tracks transactions per logical database
	dbTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_transactions_total",
			Help: "Total number of transactions by logical database and outcome.",
		},
		[]string{"database", "mode", "outcome"},
	)

	dbTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_transaction_duration_seconds",
			Help:    "Transaction duration in seconds by logical database.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"database", "mode"},
	)

	externalCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_api_calls_total",
			Help: "Total number of external API calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	externalRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_api_retries_total",
			Help: "Total number of retried external API attempts.",
		},
		[]string{"operation"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request count and latency labelled by chi route pattern.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordTransaction records the outcome of one transaction.
func RecordTransaction(database string, readOnly bool, err error, duration time.Duration) {
	mode := "read_write"
	if readOnly {
		mode = "read_only"
	}

	outcome := "commit"
	if err != nil {
		outcome = "rollback"
	}

	dbTransactions.WithLabelValues(database, mode, outcome).Inc()
	dbTransactionDuration.WithLabelValues(database, mode).Observe(duration.Seconds())
}

// RecordExternalCall records the final outcome of an external API operation.
func RecordExternalCall(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}

	externalCalls.WithLabelValues(operation, outcome).Inc()
}

// IncExternalRetry counts one retried attempt.
func IncExternalRetry(operation string) {
	externalRetries.WithLabelValues(operation).Inc()
}
