// Package service hosts the onboarding session registry behind the API.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainerrors "github.com/listenupapp/listenup-onboarding/internal/errors"
	"github.com/listenupapp/listenup-onboarding/internal/id"
	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
	"github.com/listenupapp/listenup-onboarding/internal/sse"
	"github.com/listenupapp/listenup-onboarding/internal/store"
)

// AnonymousUser is the journal user of sessions started without a token.
const AnonymousUser = "anonymous"

// DefaultSessionTTL is how long an untouched session survives.
const DefaultSessionTTL = 30 * time.Minute

// BackendFactory returns the collaborator to use for a caller token.
type BackendFactory func(token string) onboarding.Backend

// Publisher receives session events.
type Publisher interface {
	Emit(event sse.Event)
}

// OnboardingConfig configures the session service.
type OnboardingConfig struct {
	Limits           onboarding.Limits
	AnalysisDelay    time.Duration
	FetchConcurrency int
	SessionTTL       time.Duration
	// SweepInterval defaults to a quarter of SessionTTL.
	SweepInterval time.Duration
}

// Completion is the wire form of a successful submission.
type Completion struct {
	SubmissionID string                       `json:"submission_id,omitempty"`
	Payload      onboarding.PreferencePayload `json:"payload"`
	Report       *onboarding.ReportHandle     `json:"report,omitempty"`
	ReportError  string                       `json:"report_error,omitempty"`
}

// Session is what Start and Get return.
type Session struct {
	ID         string          `json:"id"`
	View       onboarding.View `json:"state"`
	Completion *Completion     `json:"completion,omitempty"`
}

type liveSession struct {
	ctrl      *onboarding.Controller
	userID    string
	createdAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *liveSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *liveSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// OnboardingService is the registry of live wizard sessions.
type OnboardingService struct {
	backends BackendFactory
	journal  store.Journal
	events   Publisher
	cfg      OnboardingConfig
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession
	closed   bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewOnboardingService creates the service and starts its TTL sweeper.
// journal and events may be nil.
func NewOnboardingService(backends BackendFactory, journal store.Journal, events Publisher, cfg OnboardingConfig, logger *slog.Logger) *OnboardingService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = cfg.SessionTTL / 4
	}

	s := &OnboardingService{
		backends: backends,
		journal:  journal,
		events:   events,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*liveSession),
		stop:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.sweepLoop()
	return s
}

// UserID derives the journal user key from a bearer token. The raw token is
// never stored.
func UserID(token string) string {
	if token == "" {
		return AnonymousUser
	}
	sum := sha256.Sum256([]byte(token))
	return "usr-" + hex.EncodeToString(sum[:8])
}

// Start opens a new wizard session for the caller.
func (s *OnboardingService) Start(_ context.Context, token string) (*Session, error) {
	sessionID, err := id.NewSession()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to allocate session id")
	}

	userID := UserID(token)
	backend := s.backends(token)
	coord := onboarding.NewSubmissionCoordinator(backend, backend, s.logger)
	if s.journal != nil {
		coord = coord.WithJournal(s.journal, userID)
	}

	ctrl := onboarding.NewController(backend, coord, onboarding.ControllerConfig{
		SessionID:        sessionID,
		Limits:           s.cfg.Limits,
		AnalysisDelay:    s.cfg.AnalysisDelay,
		FetchConcurrency: s.cfg.FetchConcurrency,
		Logger:           s.logger,
		OnChange: func(st onboarding.State) {
			s.publish(sse.NewStateEvent(sessionID, st.View()))
		},
		OnComplete: func(out onboarding.Outcome) {
			s.publish(sse.NewCompletedEvent(sessionID, completionOf(out)))
		},
	})

	now := s.now()
	live := &liveSession{ctrl: ctrl, userID: userID, createdAt: now, lastSeen: now}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ctrl.Close()
		return nil, domainerrors.Gone("service is shutting down")
	}
	s.sessions[sessionID] = live
	total := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info("onboarding session started", "session_id", sessionID, "user_id", userID, "total_sessions", total)
	return s.describe(sessionID, live), nil
}

// Get returns the current state of a session.
func (s *OnboardingService) Get(_ context.Context, sessionID string) (*Session, error) {
	live, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.describe(sessionID, live), nil
}

// Snapshot adapts Get for the SSE handler.
func (s *OnboardingService) Snapshot(ctx context.Context, sessionID string) (any, error) {
	sess, err := s.Get(ctx, sessionID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil, sse.ErrUnknownSession
	}
	if err != nil {
		return nil, err
	}
	return sess.View, nil
}

// Dispatch applies a user event. The returned session reflects the state
// after the event, also when err is non-nil.
func (s *OnboardingService) Dispatch(ctx context.Context, sessionID string, ev onboarding.Event) (*Session, error) {
	live, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	_, dispatchErr := live.ctrl.Dispatch(ctx, ev)
	sess := s.describe(sessionID, live)

	if live.ctrl.Exited() {
		s.remove(sessionID, "exited")
	}
	return sess, TranslateError(dispatchErr)
}

// Outcome returns the submission result of a completed session.
func (s *OnboardingService) Outcome(_ context.Context, sessionID string) (onboarding.Outcome, bool, error) {
	live, err := s.lookup(sessionID)
	if err != nil {
		return onboarding.Outcome{}, false, err
	}
	out, ok := live.ctrl.Outcome()
	return out, ok, nil
}

// Abandon tears a session down. Nothing is saved or journaled.
func (s *OnboardingService) Abandon(_ context.Context, sessionID string) error {
	if !s.remove(sessionID, "abandoned") {
		return domainerrors.NotFoundf("onboarding session %s not found", sessionID)
	}
	return nil
}

// LatestSubmission returns the caller's newest journaled submission.
func (s *OnboardingService) LatestSubmission(ctx context.Context, token string) (*store.SubmissionRecord, error) {
	if s.journal == nil {
		return nil, domainerrors.NotFound("submission journal is disabled")
	}
	rec, err := s.journal.LatestSubmission(ctx, UserID(token))
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("no onboarding submission yet")
	}
	if err != nil {
		return nil, TranslateError(err)
	}
	return rec, nil
}

// SessionCount returns the number of live sessions.
func (s *OnboardingService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown stops the sweeper and closes every session.
func (s *OnboardingService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*liveSession)
	s.mu.Unlock()

	close(s.stop)

	done := make(chan struct{})
	go func() {
		for sessionID, live := range sessions {
			live.ctrl.Close()
			s.publish(sse.NewClosedEvent(sessionID, "shutdown"))
		}
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("onboarding service stopped", "closed_sessions", len(sessions))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OnboardingService) lookup(sessionID string) (*liveSession, error) {
	s.mu.Lock()
	live, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, domainerrors.NotFoundf("onboarding session %s not found", sessionID)
	}
	live.touch(s.now())
	return live, nil
}

// remove drops and closes a session. It reports false if it was not live.
func (s *OnboardingService) remove(sessionID, reason string) bool {
	s.mu.Lock()
	live, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return false
	}

	live.ctrl.Close()
	s.publish(sse.NewClosedEvent(sessionID, reason))
	s.logger.Info("onboarding session removed", "session_id", sessionID, "reason", reason,
		"age", s.now().Sub(live.createdAt))
	return true
}

func (s *OnboardingService) describe(sessionID string, live *liveSession) *Session {
	sess := &Session{ID: sessionID, View: live.ctrl.State().View()}
	if out, ok := live.ctrl.Outcome(); ok {
		c := completionOf(out)
		sess.Completion = &c
	}
	return sess
}

func (s *OnboardingService) publish(ev sse.Event) {
	if s.events != nil {
		s.events.Emit(ev)
	}
}

func (s *OnboardingService) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes sessions idle for longer than the TTL, completed or not.
func (s *OnboardingService) sweep() int {
	cutoff := s.now().Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	var expired []string
	for sessionID, live := range s.sessions {
		if live.idleSince().Before(cutoff) {
			expired = append(expired, sessionID)
		}
	}
	s.mu.Unlock()

	for _, sessionID := range expired {
		s.remove(sessionID, "expired")
	}
	if len(expired) > 0 {
		s.logger.Debug("swept idle onboarding sessions", "count", len(expired))
	}
	return len(expired)
}

func completionOf(out onboarding.Outcome) Completion {
	c := Completion{
		SubmissionID: out.SubmissionID,
		Payload:      out.Payload,
		Report:       out.Report,
	}
	if out.ReportErr != nil {
		c.ReportError = out.ReportErr.Error()
	}
	return c
}
