package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal  *prometheus.CounterVec
	RoleResolutionsTotal *prometheus.CounterVec

	// Role cache metrics
	RoleCacheHitsTotal   prometheus.Counter
	RoleCacheMissesTotal prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Membership metrics
	MembershipMutationsTotal *prometheus.CounterVec
	InvitationsCreatedTotal  prometheus.Counter
	InvitationsAcceptedTotal prometheus.Counter
}

// NewMetrics creates and registers all metrics on the given registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clubhouse_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_authz_decisions_total",
				Help: "Authorization decisions by outcome (allow/deny)",
			},
			[]string{"decision"},
		),
		RoleResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_role_resolutions_total",
				Help: "Membership role resolutions by outcome (ok/not_found/error)",
			},
			[]string{"outcome"},
		),
		RoleCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clubhouse_role_cache_hits_total",
				Help: "Role cache hits",
			},
		),
		RoleCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clubhouse_role_cache_misses_total",
				Help: "Role cache misses",
			},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "clubhouse_db_connections_active",
				Help: "Active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "clubhouse_db_connections_idle",
				Help: "Idle database connections",
			},
		),
		MembershipMutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_membership_mutations_total",
				Help: "Membership mutations by kind (add/update_role/remove)",
			},
			[]string{"kind"},
		),
		InvitationsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clubhouse_invitations_created_total",
				Help: "Club invitations created",
			},
		),
		InvitationsAcceptedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clubhouse_invitations_accepted_total",
				Help: "Club invitations accepted",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisionsTotal,
		m.RoleResolutionsTotal,
		m.RoleCacheHitsTotal,
		m.RoleCacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.MembershipMutationsTotal,
		m.InvitationsCreatedTotal,
		m.InvitationsAcceptedTotal,
	)

	return m
}

// ObserveDBPool records connection pool gauges from database/sql stats
func (m *Metrics) ObserveDBPool(stats sql.DBStats) {
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// responseWriter captures the response status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware records request counts and latencies
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			metrics.HTTPRequestsTotal.WithLabelValues(
				r.Method, r.URL.Path, strconv.Itoa(rw.statusCode),
			).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// RegisterMetricsEndpoint mounts /metrics on the given mux
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
