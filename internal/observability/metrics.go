package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the engine.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	lookupsTotal    *prometheus.CounterVec
	conflictsTotal  *prometheus.CounterVec
	skusGenerated   *prometheus.CounterVec
	priceSyncsTotal prometheus.Counter
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
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_barcode_lookups_total",
		Help: "Scan lookups by resolution tier and scope.",
	}, []string{"tier", "scope"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_barcode_conflicts_total",
		Help: "Cross-product barcode conflict checks by outcome.",
	}, []string{"outcome"})
	skus := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_sku_generated_total",
		Help: "SKU sequence generations by format.",
	}, []string{"format"})
	priceSyncs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_price_syncs_total",
		Help: "Confirmed price overrides synced back to inventory.",
	})
	registry.MustRegister(requests, duration, lookups, conflicts, skus, priceSyncs)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		lookupsTotal:    lookups,
		conflictsTotal:  conflicts,
		skusGenerated:   skus,
		priceSyncsTotal: priceSyncs,
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

// Middleware records request metrics for every HTTP call.
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

// ObserveLookup counts a scan lookup outcome.
func (m *Metrics) ObserveLookup(tier, scope string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(tier, scope).Inc()
}

// ObserveConflict counts a conflict-check outcome (added, conflict, replaced).
func (m *Metrics) ObserveConflict(outcome string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSkuGenerated counts a sequence generation by format.
func (m *Metrics) ObserveSkuGenerated(format string) {
	if m == nil {
		return
	}
	m.skusGenerated.WithLabelValues(format).Inc()
}

// ObservePriceSync counts a confirmed price update.
func (m *Metrics) ObservePriceSync() {
	if m == nil {
		return
	}
	m.priceSyncsTotal.Inc()
}

// Registerer exposes the registry for module-specific metrics.
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
