// Package web provides the HTTP server, pages and JSON API for dataset
// intake, validation and ploidy prediction.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/ploidy/internal/config"
	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/schema"
	mw "github.com/JonMunkholm/ploidy/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Metrics is what the server needs from the metrics recorder.
type Metrics interface {
	mw.HTTPObserver
	Handler() http.Handler
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server is the HTTP server.
type Server struct {
	service *core.Service
	cfg     *config.Config
	specs   []schema.FieldSpec
	metrics Metrics
	health  HealthChecker

	router  *chi.Mux
	server  *http.Server
	general *rateLimiter
	uploads *rateLimiter

	ctx  context.Context // cancelled by Shutdown
	stop context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records HTTP metrics and mounts m's handler at the metrics path.
func WithMetrics(m Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealthCheck makes /readyz probe h.
func WithHealthCheck(h HealthChecker) Option {
	return func(s *Server) { s.health = h }
}

// WithFieldSpecs overrides the column descriptions served by /api/schema
// and the template download.
func WithFieldSpecs(specs []schema.FieldSpec) Option {
	return func(s *Server) { s.specs = specs }
}

// NewServer creates a Server for service configured by cfg.
func NewServer(service *core.Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		specs:   schema.MorphokineticFieldSpecs,
		router:  chi.NewRouter(),
	}
	s.ctx, s.stop = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Rate.Enabled {
		s.general = newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
		s.uploads = newRateLimiter(cfg.Rate.UploadLimit, time.Minute)
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(clientContext)
	s.router.Use(mw.Logger)
	if s.metrics != nil {
		s.router.Use(mw.Metrics(s.metrics))
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	if s.general != nil {
		s.router.Use(s.general.middleware(s))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}

	// Pages. Prediction runs under the service's own timeout, everything
	// else under the request timeout.
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
		r.Get("/", s.handleIndex)
		r.Post("/results/export", s.handleExport)
		r.With(s.uploadLimit).Post("/upload", s.handleUpload)
	})
	s.router.With(s.uploadLimit).Post("/predict", s.handlePredict)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
			r.Get("/schema", s.handleSchema)
			r.Get("/template", s.handleTemplate)
			r.Post("/export", s.handleAPIExport)
			r.With(s.uploadLimit).Post("/validate", s.handleAPIValidate)
		})
		r.With(s.uploadLimit).Post("/predict", s.handleAPIPredict)
	})
}

// uploadLimit applies the stricter per-IP limit to intake endpoints.
func (s *Server) uploadLimit(next http.Handler) http.Handler {
	if s.uploads == nil {
		return next
	}
	return s.uploads.middleware(s)(next)
}

// Start listens on the configured address until Shutdown.
// It returns nil after a clean shutdown.
func (s *Server) Start() error {
	if s.general != nil {
		go s.general.run(s.ctx)
		go s.uploads.run(s.ctx)
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders sets the hardening headers on every response.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				// Pages carry one inline stylesheet and no scripts.
				h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'")
			}
			next.ServeHTTP(w, r)
		})
	}
}
