// Package devbackend is an in-memory stand-in for the ListenUp collaborator
// the onboarding wizard talks to. It serves the same envelope wire format
// and can be told to fail saves or report generation.
package devbackend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/listenupapp/listenup-onboarding/internal/genre"
	"github.com/listenupapp/listenup-onboarding/internal/http/response"
	"github.com/listenupapp/listenup-onboarding/internal/id"
	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
)

const anonymousUser = "anonymous"

// Options configures a Server.
type Options struct {
	// Latency is added before every API response.
	Latency time.Duration
	// RequireToken rejects calls without a bearer token.
	RequireToken bool
	Logger       *slog.Logger
}

// Server is the development collaborator.
type Server struct {
	// FailSaves makes every preference save answer 500.
	FailSaves atomic.Bool
	// FailReports makes every report request answer 500.
	FailReports atomic.Bool

	opts   Options
	logger *slog.Logger
	router *chi.Mux

	mu      sync.Mutex
	saves   map[string]onboarding.PreferencePayload
	keys    map[string]struct{}
	applied int
	reports map[string]onboarding.ReportSnapshot
}

// New creates a Server with its routes mounted.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		opts:    opts,
		logger:  logger,
		router:  chi.NewRouter(),
		saves:   make(map[string]onboarding.PreferencePayload),
		keys:    make(map[string]struct{}),
		reports: make(map[string]onboarding.ReportSnapshot),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.latency)
		r.Use(s.identify)

		r.Get("/genres", s.handleGenres)
		r.Get("/genres/{id}/books", s.handleBooks)
		r.Get("/users/me/preferences", s.handleGetPreferences)
		r.Put("/users/me/preferences", s.handleSavePreferences)
		r.Post("/users/me/reports", s.handleReport)
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Saved returns the last payload stored for a user token.
func (s *Server) Saved(user string) (onboarding.PreferencePayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.saves[user]
	return p, ok
}

// SaveCount reports how many distinct saves were applied. Replays of an
// Idempotency-Key are not counted.
func (s *Server) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// ReportCount reports how many report requests succeeded.
func (s *Server) ReportCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

type userKey struct{}

func contextWithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func userFrom(ctx context.Context) string {
	if user, ok := ctx.Value(userKey{}).(string); ok {
		return user
	}
	return anonymousUser
}

func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := anonymousUser
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
			user = token
		} else if s.opts.RequireToken {
			response.Error(w, http.StatusUnauthorized, "missing bearer token", s.logger)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), user)))
	})
}

func (s *Server) latency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Latency > 0 {
			t := time.NewTimer(s.opts.Latency)
			select {
			case <-t.C:
			case <-r.Context().Done():
				t.Stop()
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{"status": "healthy"}, s.logger)
}

func (s *Server) handleGenres(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, catalog(), s.logger)
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	seed, ok := genre.Lookup(chi.URLParam(r, "id"))
	if !ok {
		response.NotFound(w, "genre not found", s.logger)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.BadRequest(w, "limit must be a non-negative integer", s.logger)
			return
		}
		limit = n
	}

	response.Success(w, booksFor(seed, limit), s.logger)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	p, ok := s.Saved(userFrom(r.Context()))
	if !ok {
		response.NotFound(w, "no preferences saved", s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

func (s *Server) handleSavePreferences(w http.ResponseWriter, r *http.Request) {
	if s.FailSaves.Load() {
		response.InternalError(w, "preference store unavailable", s.logger)
		return
	}

	var payload onboarding.PreferencePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.BadRequest(w, "invalid preference payload", s.logger)
		return
	}
	if len(payload.Genres) == 0 {
		response.BadRequest(w, "at least one genre is required", s.logger)
		return
	}

	user := userFrom(r.Context())
	key := r.Header.Get("Idempotency-Key")

	s.mu.Lock()
	replay := false
	if key != "" {
		_, replay = s.keys[key]
		s.keys[key] = struct{}{}
	}
	if !replay {
		s.saves[user] = payload
		s.applied++
	}
	s.mu.Unlock()

	s.logger.Info("preferences saved", "user", user, "genres", len(payload.Genres), "replay", replay)
	response.NoContent(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.FailReports.Load() {
		response.InternalError(w, "report generator unavailable", s.logger)
		return
	}

	var snapshot onboarding.ReportSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		response.BadRequest(w, "invalid report request", s.logger)
		return
	}

	reportID, err := id.Generate("rpt")
	if err != nil {
		response.InternalError(w, "failed to allocate report id", s.logger)
		return
	}

	s.mu.Lock()
	s.reports[reportID] = snapshot
	s.mu.Unlock()

	response.Created(w, onboarding.ReportHandle{ID: reportID, Status: "queued"}, s.logger)
}
