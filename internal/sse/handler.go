package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultHeartbeatInterval is how often an idle stream gets a keepalive.
const DefaultHeartbeatInterval = 30 * time.Second

// ErrUnknownSession is returned by a Snapshotter for a session that does
// not exist.
var ErrUnknownSession = errors.New("sse: unknown session")

// Snapshotter returns the current state of a session, sent as the first
// event of every stream.
type Snapshotter func(ctx context.Context, sessionID string) (any, error)

// Handler streams one session's events.
type Handler struct {
	manager   *Manager
	snapshot  Snapshotter
	sessionID func(*http.Request) string
	logger    *slog.Logger

	// HeartbeatInterval overrides DefaultHeartbeatInterval when positive.
	HeartbeatInterval time.Duration
}

// NewHandler creates a new SSE Handler. sessionID extracts the session id
// from the request path.
func NewHandler(manager *Manager, snapshot Snapshotter, sessionID func(*http.Request) string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		manager:   manager,
		snapshot:  snapshot,
		sessionID: sessionID,
		logger:    logger,
	}
}

// ServeHTTP handles the SSE connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check if request context is already canceled (early client disconnect).
	if r.Context().Err() != nil {
		return
	}

	sessionID := h.sessionID(r)
	initial, err := h.snapshot(r.Context(), sessionID)
	if errors.Is(err, ErrUnknownSession) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to snapshot session", slog.String("session_id", sessionID), slog.String("error", err.Error()))
		http.Error(w, "Failed to read session", http.StatusInternalServerError)
		return
	}

	// Register before writing anything so no event published after the
	// snapshot is missed.
	client, err := h.manager.Connect(sessionID)
	if err != nil {
		h.logger.Error("failed to register SSE client", slog.String("error", err.Error()))
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)
	clientLogger := h.logger.With(slog.String("client_id", client.ID), slog.String("session_id", sessionID))

	if err := h.sendEvent(w, rc, NewStateEvent(sessionID, initial)); err != nil {
		clientLogger.Warn("failed to send initial state", slog.String("error", err.Error()))
		return
	}

	heartbeatTicker := time.NewTicker(h.heartbeat())
	defer heartbeatTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				return
			}
			if err := h.sendEvent(w, rc, event); err != nil {
				// Client disconnect is normal, not an error condition.
				clientLogger.Info("client disconnected during send")
				return
			}
			if event.Type == EventClosed {
				return
			}

		case <-heartbeatTicker.C:
			if err := h.sendEvent(w, rc, NewHeartbeatEvent()); err != nil {
				clientLogger.Info("client disconnected during heartbeat")
				return
			}

		case <-client.Done:
			clientLogger.Info("client closed by manager")
			return

		case <-ctx.Done():
			clientLogger.Info("client context canceled")
			return
		}
	}
}

// sendEvent writes one event in SSE framing and flushes it.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData); err != nil {
		return err
	}

	if err := rc.Flush(); err != nil {
		return err
	}

	// Reset after each write so a hung connection is eventually dropped.
	if err := rc.SetWriteDeadline(time.Now().Add(2 * h.heartbeat())); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}

	return nil
}

func (h *Handler) heartbeat() time.Duration {
	if h.HeartbeatInterval > 0 {
		return h.HeartbeatInterval
	}
	return DefaultHeartbeatInterval
}
