// Package metrics provides Prometheus instrumentation for the ledger engine.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SalesTotal counts sales created, partitioned by initial payment status.
	SalesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_sales_total",
		Help: "Total number of sales created",
	}, []string{"payment_status"})

	// LedgerOperations counts committed ledger updates by operation.
	LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_ledger_operations_total",
		Help: "Committed ledger updates by operation",
	}, []string{"operation"})

	// LedgerLatency tracks the time to validate, allocate and commit an operation.
	LedgerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chronos_ledger_operation_seconds",
		Help:    "Ledger operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// PoolCapitalCredits accumulates capital booked into each bank.
	// Negative deltas (returns, transfers out) go to PoolCapitalDebits.
	PoolCapitalCredits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_pool_capital_credits_total",
		Help: "Capital credited to each bank",
	}, []string{"bank"})

	PoolCapitalDebits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_pool_capital_debits_total",
		Help: "Capital debited from each bank",
	}, []string{"bank"})

	// ValidationRejections counts requests rejected by business validation.
	ValidationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_validation_rejections_total",
		Help: "Operations rejected by business validation",
	}, []string{"reason"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chronos_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chronos_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}
