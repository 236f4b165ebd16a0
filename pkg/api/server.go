package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/courtside/clubhouse/pkg/audit"
	"github.com/courtside/clubhouse/pkg/auth"
	"github.com/courtside/clubhouse/pkg/clubs"
	"github.com/courtside/clubhouse/pkg/middleware"
	"github.com/courtside/clubhouse/pkg/observability"
	"github.com/courtside/clubhouse/pkg/rbac"
)

// Server assembles the HTTP API: router, middleware chain and handlers
type Server struct {
	router      *mux.Router
	authService *auth.Service
	clubService clubs.Service
	checker     *rbac.Checker
	auditLog    audit.Logger
	auditStore  *audit.DBLogger
	logger      *observability.Logger
	metrics     *observability.Metrics
	rateLimiter *middleware.RateLimiter
}

// ServerOption configures optional server components
type ServerOption func(*Server)

// WithMetrics attaches prometheus metrics to the request chain
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithAuditLogger sets the audit sink for security events
func WithAuditLogger(l audit.Logger) ServerOption {
	return func(s *Server) { s.auditLog = l }
}

// WithAuditStore exposes the database audit trail over the API
func WithAuditStore(store *audit.DBLogger) ServerOption {
	return func(s *Server) { s.auditStore = store }
}

// WithRateLimiter enables redis-backed rate limiting
func WithRateLimiter(rl *middleware.RateLimiter) ServerOption {
	return func(s *Server) { s.rateLimiter = rl }
}

// NewServer creates a new API server with all routes registered
func NewServer(authService *auth.Service, clubService clubs.Service, checker *rbac.Checker, logger *observability.Logger, opts ...ServerOption) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		authService: authService,
		clubService: clubService,
		checker:     checker,
		auditLog:    audit.NopLogger{},
		logger:      logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the middleware chain and all API routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logging(s.logger))
	s.router.Use(middleware.Recovery(s.logger))
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	authHandlers :=&AuthHandlers{service: s.authService, auditLog: s.auditLog, logger: s.logger}
	clubHandlers := &ClubHandlers{service: s.clubService, checker: s.checker, auditLog: s.auditLog, logger: s.logger, metrics: s.metrics}
	memberHandlers := &MembershipHandlers{service: s.clubService, checker: s.checker, auditLog: s.auditLog, logger: s.logger, metrics: s.metrics}

	// Public authentication routes, rate limited by remote address since
	// no principal is known yet.
	public := s.router.NewRoute().Subrouter()
	if s.rateLimiter != nil {
		public.Use(s.rateLimiter.Handler)
	}
	public.HandleFunc("/auth/signup", authHandlers.SignUp).Methods("POST")
	public.HandleFunc("/auth/signin", authHandlers.SignIn).Methods("POST")

	// Everything else requires a valid bearer token. The rate limiter
	// runs after authentication so it keys on the user ID.
	authMW := middleware.NewAuthMiddleware(s.authService, false)
	protected := s.router.NewRoute().Subrouter()
	protected.Use(authMW.Handler)
	if s.rateLimiter != nil {
		protected.Use(s.rateLimiter.Handler)
	}

	protected.HandleFunc("/auth/signout", authHandlers.SignOut).Methods("POST")
	protected.HandleFunc("/auth/me", authHandlers.Me).Methods("GET")

	// Role catalog and per-club access introspection.
	rbac.NewHandlers(s.checker).RegisterRoutes(protected)

	guard := rbac.NewGuard(s.checker)
	clubHandlers.RegisterRoutes(protected, guard)
	memberHandlers.RegisterRoutes(protected, guard)

	if s.auditStore != nil {
		auditHandlers := &AuditHandlers{store: s.auditStore, logger: s.logger}
		auditHandlers.RegisterRoutes(protected, guard)
	}
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
