package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	entriesPosted   prometheus.Counter
	entriesVoided   prometheus.Counter
	movements       prometheus.Counter
	payments        *prometheus.CounterVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meridian_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	entriesPosted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_ledger_entries_created_total",
		Help: "Journal entries created.",
	})
	entriesVoided := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_ledger_entries_voided_total",
		Help: "Journal entries voided.",
	})
	movements := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_treasury_movements_total",
		Help: "Cash and bank movements recorded, transfer legs included.",
	})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_ledger_payments_total",
		Help: "Payments registered against receivables and payables.",
	}, []string{"ledger"})
	registry.MustRegister(requests, duration, entriesPosted, entriesVoided, movements, payments)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		entriesPosted:   entriesPosted,
		entriesVoided:   entriesVoided,
		movements:       movements,
		payments:        payments,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// EntryCreated increments the journal-entry counter.
func (m *Metrics) EntryCreated() {
	if m != nil {
		m.entriesPosted.Inc()
	}
}

// EntryVoided increments the void counter.
func (m *Metrics) EntryVoided() {
	if m != nil {
		m.entriesVoided.Inc()
	}
}

// MovementRecorded increments the treasury movement counter by n legs.
func (m *Metrics) MovementRecorded(n int) {
	if m != nil {
		m.movements.Add(float64(n))
	}
}

// PaymentRegistered increments the payment counter for a ledger label.
func (m *Metrics) PaymentRegistered(ledger string) {
	if m != nil {
		m.payments.WithLabelValues(ledger).Inc()
	}
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
