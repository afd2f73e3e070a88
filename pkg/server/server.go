package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"mercator-hq/perfscore/pkg/assessment"
	"mercator-hq/perfscore/pkg/config"
	"mercator-hq/perfscore/pkg/evidence"
	"mercator-hq/perfscore/pkg/server/middleware"
	"mercator-hq/perfscore/pkg/telemetry/health"
	"mercator-hq/perfscore/pkg/telemetry/metrics"
	"mercator-hq/perfscore/pkg/telemetry/tracing"
)

// Assessor scores requests and reports the rule set it uses.
// *assessment.Service implements it.
type Assessor interface {
	Assess(ctx context.Context, req assessment.Request) (*assessment.Assessment, error)
	Describe() (*assessment.RuleSetDescription, bool)
}

// BuildInfo is reported by /version.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for request logs and lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records per-route request metrics and serves /metrics.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = collector
	}
}

// WithTracer starts a server span for each request.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(s *Server) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithHealth serves /health and /ready from checker.
func WithHealth(checker *health.Checker) Option {
	return func(s *Server) {
		s.health = checker
	}
}

// WithEvidence serves GET /v1/evidence from store.
func WithEvidence(store evidence.Storage, cfg config.QueryConfig) Option {
	return func(s *Server) {
		s.evidence = store
		s.queryConfig = cfg
	}
}

// WithBuildInfo sets the data reported by /version.
func WithBuildInfo(info BuildInfo) Option {
	return func(s *Server) {
		s.build = info
	}
}

// Server is the perfscore HTTP API server.
type Server struct {
	config      *config.ServerConfig
	assessor    Assessor
	evidence    evidence.Storage
	queryConfig config.QueryConfig
	health      *health.Checker
	metrics     *metrics.Collector
	tracer      *tracing.Tracer
	logger      *slog.Logger
	build       BuildInfo
	apiKeys     *middleware.APIKeyValidator
	limiter     *middleware.RateLimiter

	httpServer *http.Server
	mu         sync.RWMutex
	isRunning  bool
}

// New creates a server. Routes are built once; Handler can be used without
// starting a listener.
func New(cfg *config.ServerConfig, assessor Assessor, opts ...Option) *Server {
	s := &Server{
		config:   cfg,
		assessor: assessor,
		logger:   slog.Default(),
		tracer:   tracing.Noop(),
		build:    BuildInfo{Version: "dev"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = health.New(0)
	}
	s.logger = s.logger.With("component", "server")

	if cfg.Auth.Enabled {
		keys := make([]middleware.APIKey, 0, len(cfg.Auth.Keys))
		for _, k := range cfg.Auth.Keys {
			keys = append(keys, middleware.APIKey{Name: k.Name, Key: k.Key, Enabled: !k.Disabled})
		}
		s.apiKeys = middleware.NewAPIKeyValidator(keys)
	}
	if rl := cfg.RateLimit; rl.Enabled {
		s.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: rl.RequestsPerSecond,
			Burst:             rl.Burst,
			MaxConcurrent:     rl.MaxConcurrent,
		}, nil)
	}
	return s
}

// Start listens on the configured address and blocks until ctx is cancelled
// or the listener fails. Cancellation triggers a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("server is already running")
	}

	var certs *CertificateReloader
	if tc := s.config.TLS; tc.Enabled {
		certs = NewCertificateReloader(tc.CertFile, tc.KeyFile, tc.ReloadInterval, s.logger)
		if err := certs.Load(); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("tls: %w", err)
		}
	}

	s.isRunning = true
	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	if certs != nil {
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion:     tlsVersion(s.config.TLS.MinVersion),
			GetCertificate: certs.GetCertificate,
		}
		go certs.Watch(ctx)
	}
	srv := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "address", s.config.ListenAddress, "tls", certs != nil)
		serve := srv.ListenAndServe
		if certs != nil {
			serve = func() error { return srv.ListenAndServeTLS("", "") }
		}
		if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown gracefully shuts down the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	running := s.isRunning
	s.isRunning = false
	s.mu.Unlock()

	if !running || srv == nil {
		return nil
	}

	s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("API server stopped")
	return nil
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the HTTP handler with every route and middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "POST /v1/assess", "/v1/assess", http.HandlerFunc(s.handleAssess))
	s.route(mux, "GET /v1/ruleset", "/v1/ruleset", http.HandlerFunc(s.handleRuleSet))
	s.route(mux, "GET /v1/evidence", "/v1/evidence", http.HandlerFunc(s.handleEvidence))

	mux.Handle("/health", s.health.LivenessHandler())
	mux.Handle("/ready", s.health.ReadinessHandler())
	mux.Handle("/version", health.VersionHandler(s.build.Version, s.build.Commit, s.build.BuildTime))
	if s.metrics != nil {
		mux.Handle("GET "+s.metrics.Path(), s.metrics.Handler())
	}

	handler := middleware.Chain(mux,
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logging(s.logger),
	)
	return tracing.HTTPMiddleware(s.tracer, handler)
}

// route registers an API handler with its metrics label. When auth is
// enabled the key check runs inside the metrics middleware so that rejected
// requests are counted.
func (s *Server) route(mux *http.ServeMux, pattern, label string, h http.Handler) {
	if s.limiter != nil {
		h = middleware.RateLimit(s.limiter, s.logger)(h)
	}
	if s.apiKeys != nil {
		h = middleware.APIKeyAuth(s.apiKeys, s.config.Auth.Header, s.logger)(h)
	}
	var rec middleware.HTTPRecorder
	if s.metrics != nil {
		rec = s.metrics
	}
	mux.Handle(pattern, middleware.Metrics(rec, label)(h))
}
