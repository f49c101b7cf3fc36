// Package api provides the HTTP API server and handlers for the onboarding wizard.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/listenup-onboarding/internal/ratelimit"
	"github.com/listenupapp/listenup-onboarding/internal/service"
	"github.com/listenupapp/listenup-onboarding/internal/sse"
	"github.com/listenupapp/listenup-onboarding/internal/validation"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the HTTP surface.
type Options struct {
	Version     string
	CORSOrigins []string
	// RateLimitRPS is the per-IP request rate. Zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	onboarding *service.OnboardingService
	journal    Pinger
	sseHandler *sse.Handler
	sseManager *sse.Manager
	validator  *validation.Validator
	limiter    *ratelimit.KeyedRateLimiter
	opts       Options
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// journal and sseManager may be nil; health then reports them degraded.
func NewServer(onboarding *service.OnboardingService, journal Pinger, sseHandler *sse.Handler, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		onboarding: onboarding,
		journal:    journal,
		sseHandler: sseHandler,
		sseManager: sseManager,
		validator:  validation.New(),
		opts:       opts,
		router:     chi.NewRouter(),
		logger:     logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("ListenUp Onboarding API", opts.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:   "http",
			Scheme: "bearer",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerOnboardingRoutes()
	s.registerEventRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the rate limiter.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
		ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:         300,
	}))

	if s.opts.RateLimitRPS > 0 {
		burst := s.opts.RateLimitBurst
		if burst <= 0 {
			burst = int(s.opts.RateLimitRPS) + 1
		}
		s.limiter = ratelimit.New(s.opts.RateLimitRPS, burst)
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
}

// registerEventRoutes mounts the SSE stream outside huma: it is a long-lived
// text/event-stream, not a JSON operation.
func (s *Server) registerEventRoutes() {
	if s.sseHandler == nil {
		return
	}
	s.router.Get("/api/v1/onboarding/sessions/{id}/events", s.sseHandler.ServeHTTP)
}

// SessionIDFromRequest extracts the {id} route parameter for the SSE handler.
func SessionIDFromRequest(r *http.Request) string {
	return chi.URLParam(r, "id")
}
