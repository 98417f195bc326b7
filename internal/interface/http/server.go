// Package http exposes the matching and recommendation use cases over a
// JSON REST API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/quickksynkk/synk-hub/config"
	"github.com/quickksynkk/synk-hub/internal/application/command"
	"github.com/quickksynkk/synk-hub/internal/application/query"
	"github.com/quickksynkk/synk-hub/internal/infrastructure/metrics"
	"github.com/quickksynkk/synk-hub/internal/interface/http/handlers"
	"github.com/quickksynkk/synk-hub/pkg/logger"
	"github.com/quickksynkk/synk-hub/pkg/ratelimit"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// MaxBodyBytes limits request bodies. Preview requests carry whole
	// candidate pools, so the default is generous.
	MaxBodyBytes int64

	// MetricsPath is where Prometheus metrics are served.
	MetricsPath string

	// APIKeyHeader - header name for API key authentication.
	APIKeyHeader string

	// APIKeyHashes - bcrypt hashes of accepted keys. Empty disables auth.
	APIKeyHashes []string

	// PreviewRatePerSecond limits preview requests per client. Zero disables.
	PreviewRatePerSecond float64
	PreviewBurst         int
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
		MaxBodyBytes:   4 << 20,
		MetricsPath:    "/metrics",
		APIKeyHeader:   "X-API-Key",
	}
}

// ConfigFrom builds a server Config from application settings.
func ConfigFrom(c config.HTTPConfig) Config {
	cfg := DefaultConfig()
	if c.Host != "" {
		cfg.Host = c.Host
	}
	if c.Port > 0 {
		cfg.Port = c.Port
	}
	if c.ReadTimeout > 0 {
		cfg.ReadTimeout = c.ReadTimeout
	}
	if c.WriteTimeout > 0 {
		cfg.WriteTimeout = c.WriteTimeout
	}
	if c.IdleTimeout > 0 {
		cfg.IdleTimeout = c.IdleTimeout
	}
	cfg.APIKeyHashes = c.APIKeyHashes
	cfg.PreviewRatePerSecond = c.PreviewRatePerSecond
	cfg.PreviewBurst = c.PreviewBurst
	return cfg
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	// Query side
	FindMatches        *query.FindMatchesHandler
	GetRecommendations *query.GetRecommendationsHandler
	Preview            *query.PreviewHandler

	// Command side
	UpdateAvailability *command.UpdateAvailabilityHandler

	HealthChecker handlers.HealthChecker

	// Metrics is optional. When set, Config.MetricsPath is mounted.
	Metrics *metrics.Metrics

	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     chi.Router
	logger     *logger.Logger
	auth       *handlers.APIKeyAuth
	previewRL  *ratelimit.Limiter

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(cfg Config, deps Dependencies) *Server {
	s := &Server{
		config: cfg,
		deps:   deps,
		logger: deps.Logger,
		auth:   handlers.NewAPIKeyAuth(cfg.APIKeyHeader, cfg.APIKeyHashes),
	}
	s.previewRL = ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.PreviewRatePerSecond,
		Burst:             cfg.PreviewBurst,
	})
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.logger = s.logger.With(logger.Component("http"))
	if s.deps.HealthChecker == nil {
		s.deps.HealthChecker = handlers.NewCompositeHealthChecker("")
	}

	s.router = s.routes()

	s.httpServer = &http.Server{
		Addr:           cfg.Address(),
		Handler:        s.router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}
	return s
}

// Handler returns the root handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(s.recoveryMiddleware)
	r.Use(s.observeMiddleware)
	r.Use(handlers.SecurityHeadersMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, http.StatusNotFound, handlers.CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, http.StatusMethodNotAllowed, handlers.CodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, s.config.MetricsPath, s.deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handlers.NoCacheMiddleware)
		r.Use(handlers.RequestSizeLimitMiddleware(s.config.MaxBodyBytes))
		r.Use(s.auth.Middleware)

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/matches", s.handleFindMatches)
			r.Get("/recommendations", s.handleGetRecommendations)
			r.Put("/availability", s.handleUpdateAvailability)
			r.Post("/availability/toggle", s.handleToggleAvailability)
		})

		// Previews score a caller-supplied pool; they are the expensive calls.
		r.Group(func(r chi.Router) {
			r.Use(handlers.RateLimitMiddleware(s.previewRL, s.config.APIKeyHeader))
			r.Post("/matches/preview", s.handlePreviewMatches)
			r.Post("/recommendations/preview", s.handlePreviewRecommendations)
		})
	})

	return r
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// requestIDMiddleware accepts X-Request-ID or generates a UUID, and puts a
// request-scoped logger into the context.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := handlers.WithRequestID(r.Context(), requestID)
		ctx = logger.WithContext(ctx, s.logger.WithRequestID(requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observeMiddleware logs every request and records it in metrics under the
// chi route pattern, so that user IDs do not leak into label values.
func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		s.deps.Metrics.ObserveHTTP(r.Method, route, status, duration)

		log := logger.FromContext(r.Context())
		fields := []logger.Field{
			logger.String("method", r.Method),
			logger.String("route", route),
			logger.Int("status", status),
			logger.Latency(duration),
			logger.String("ip", r.RemoteAddr),
		}
		if status >= http.StatusInternalServerError {
			log.Warn("http request", fields...)
		} else {
			log.Debug("http request", fields...)
		}
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger.FromContext(r.Context()).Error("panic recovered",
					logger.Any("panic", p),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", r.URL.Path),
				)
				handlers.WriteError(w, r, http.StatusInternalServerError, handlers.CodeInternal, "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		logger.String("address", s.config.Address()),
		logger.Bool("auth", s.auth.Enabled()),
	)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server", logger.Duration("uptime", time.Since(s.startedAt)))
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Address()
}
