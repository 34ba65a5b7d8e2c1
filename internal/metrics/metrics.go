package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

const namespace = "corebank_ledger"

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	ledgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by outcome",
		},
		[]string{"operation", "result"},
	)

	ledgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation latency including the storage round trip",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

// Result classifies an operation outcome. Business-rule refusals are
// "rejected"; infrastructure failures are "error".
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrStorageUnavailable):
		return ResultError
	case domain.IsBusinessError(err):
		return ResultRejected
	default:
		return ResultError
	}
}

func ObserveOperation(operation string, start time.Time, err error) {
	ledgerOperations.WithLabelValues(operation, Result(err)).Inc()
	ledgerOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func ObserveHTTP(method, route string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	httpRequestDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
	httpRequestsTotal.WithLabelValues(method, route, code).Inc()
}
