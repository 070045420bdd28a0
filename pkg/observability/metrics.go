package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starcommerce/lms-auth/pkg/registry"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Permission check metrics
	PermissionChecksTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Relationship service metrics
	RelationshipRequestsTotal   *prometheus.CounterVec
	RelationshipRequestDuration *prometheus.HistogramVec

	// Reconcile metrics
	ReconcileRunsTotal    *prometheus.CounterVec
	ReconcileChangesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmsauth_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lmsauth_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Permission check metrics
		PermissionChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmsauth_permission_checks_total",
				Help: "Total number of permission checks",
			},
			[]string{"allowed"},
		),

		// Cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmsauth_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"keyspace"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmsauth_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"keyspace"},
		),

		// Relationship service metrics
		RelationshipRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmsauth_relationship_requests_total",
				Help: "Total number of relationship service requests",
			},
			[]string{"outcome"},
		),
		RelationshipRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lmsauth_relationship_request_duration_seconds",
				Help:    "Relationship service request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"outcome"},
		),

		// Reconcile metrics
		ReconcileRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmsauth_reconcile_runs_total",
				Help: "Total number of permission reconcile runs",
			},
			[]string{"outcome"},
		),
		ReconcileChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmsauth_reconcile_changes_total",
				Help: "Total number of permission rows changed by reconcile runs",
			},
			[]string{"kind"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PermissionChecksTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RelationshipRequestsTotal,
		m.RelationshipRequestDuration,
		m.ReconcileRunsTotal,
		m.ReconcileChangesTotal,
	)

	return m
}

// CacheStats adapts the cache counters to the authcache.Stats interface.
type CacheStats struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

// CacheStats returns an adapter for authcache hashes.
func (m *Metrics) CacheStats() *CacheStats {
	return &CacheStats{hits: m.CacheHitsTotal, misses: m.CacheMissesTotal}
}

// Hit records a cache hit for a keyspace.
func (s *CacheStats) Hit(keyspace string) {
	s.hits.WithLabelValues(keyspace).Inc()
}

// Miss records a cache miss for a keyspace.
func (s *CacheStats) Miss(keyspace string) {
	s.misses.WithLabelValues(keyspace).Inc()
}

// RelationshipObserver adapts the relationship counters to the
// relationship.Observer interface.
type RelationshipObserver struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// RelationshipObserver returns an adapter for the relationship client.
func (m *Metrics) RelationshipObserver() *RelationshipObserver {
	return &RelationshipObserver{
		requests: m.RelationshipRequestsTotal,
		duration: m.RelationshipRequestDuration,
	}
}

// Observe records one upstream relationship call.
func (o *RelationshipObserver) Observe(outcome string, elapsed time.Duration) {
	o.requests.WithLabelValues(outcome).Inc()
	o.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// CheckObserver adapts the permission check counter to the
// authz.CheckObserver interface.
type CheckObserver struct {
	checks *prometheus.CounterVec
}

// CheckObserver returns an adapter for the authz middleware.
func (m *Metrics) CheckObserver() *CheckObserver {
	return &CheckObserver{checks: m.PermissionChecksTotal}
}

// ObserveCheck records one guarded permission check.
func (o *CheckObserver) ObserveCheck(allowed bool) {
	o.checks.WithLabelValues(strconv.FormatBool(allowed)).Inc()
}

// RecordReconcile records the outcome and row changes of a reconcile run.
func (m *Metrics) RecordReconcile(result registry.Result, err error) {
	if err != nil {
		m.ReconcileRunsTotal.WithLabelValues("error").Inc()
		return
	}
	m.ReconcileRunsTotal.WithLabelValues("ok").Inc()
	m.ReconcileChangesTotal.WithLabelValues("created").Add(float64(result.Created))
	m.ReconcileChangesTotal.WithLabelValues("updated").Add(float64(result.Updated))
	m.ReconcileChangesTotal.WithLabelValues("deleted").Add(float64(result.Deleted))
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
