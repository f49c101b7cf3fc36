// Package backend is the REST client for the ListenUp collaborator the
// onboarding wizard reads its catalog from and submits to.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/listenupapp/listenup-onboarding/internal/http/response"
	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
	"github.com/listenupapp/listenup-onboarding/internal/ratelimit"
)

const (
	defaultTimeout = 10 * time.Second
	defaultRPS     = 5.0
	defaultBurst   = 10

	maxBodyBytes = 4 << 20
	userAgent    = "ListenUp-Onboarding/1.0"
)

// Operation names, also used as rate limiter keys.
const (
	OpGenres = "genres"
	OpBooks  = "books"
	OpSave   = "save"
	OpReport = "report"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client is a rate-limited backend client. It satisfies onboarding.Backend.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	timeout time.Duration
	logger  *slog.Logger
	token   string
	newKey  func() string
}

var _ onboarding.Backend = (*Client)(nil)

// New creates a client for cfg.BaseURL.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    httpClient,
		limiter: ratelimit.New(cfg.RPS, cfg.Burst),
		timeout: cfg.Timeout,
		logger:  logger,
		newKey:  uuid.NewString,
	}
}

// WithToken returns a client that sends token as a bearer credential. It
// shares the rate limiter and transport with c.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// FetchGenreCatalog loads the genre catalog.
func (c *Client) FetchGenreCatalog(ctx context.Context) ([]onboarding.Genre, error) {
	var genres []onboarding.Genre
	if err := c.do(ctx, OpGenres, http.MethodGet, "/api/v1/genres", nil, nil, &genres); err != nil {
		return nil, wrapError(OpGenres, "", err)
	}
	if genres == nil {
		genres = []onboarding.Genre{}
	}
	return genres, nil
}

// FetchBooksForGenre loads up to limit candidate books for a genre.
func (c *Client) FetchBooksForGenre(ctx context.Context, genreID string, limit int) ([]onboarding.BookSummary, error) {
	path := "/api/v1/genres/" + url.PathEscape(genreID) + "/books"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	var books []onboarding.BookSummary
	if err := c.do(ctx, OpBooks, http.MethodGet, path, nil, nil, &books); err != nil {
		return nil, wrapError(OpBooks, genreID, err)
	}
	if books == nil {
		books = []onboarding.BookSummary{}
	}
	return books, nil
}

// SavePreferences stores the payload. Every call carries a fresh
// Idempotency-Key so a retried transport attempt is not applied twice.
func (c *Client) SavePreferences(ctx context.Context, payload onboarding.PreferencePayload) error {
	hdr := http.Header{"Idempotency-Key": {c.newKey()}}
	if err := c.do(ctx, OpSave, http.MethodPut, "/api/v1/users/me/preferences", payload, hdr, nil); err != nil {
		return wrapError(OpSave, "", err)
	}
	return nil
}

// GenerateReport requests the taste report for a saved payload.
func (c *Client) GenerateReport(ctx context.Context, snapshot onboarding.ReportSnapshot) (onboarding.ReportHandle, error) {
	var handle onboarding.ReportHandle
	if err := c.do(ctx, OpReport, http.MethodPost, "/api/v1/users/me/reports", snapshot, nil, &handle); err != nil {
		return onboarding.ReportHandle{}, wrapError(OpReport, "", err)
	}
	if handle.ID == "" {
		return onboarding.ReportHandle{}, wrapError(OpReport, "", errors.New("response missing report id"))
	}
	return handle, nil
}

// do executes one rate-limited call bounded by the client timeout and
// decodes the envelope's data into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, body any, hdr http.Header, out any) error {
	if err := c.limiter.Wait(ctx, op); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range hdr {
		req.Header[k] = v
	}

	c.logger.Debug("backend request", "op", op, "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env response.RawEnvelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, env.Error)
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}
	if !env.Success {
		return fmt.Errorf("%w: %s", ErrServer, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("parse data: %w", err)
		}
	}
	return nil
}

func statusError(status int, msg string) error {
	var sentinel error
	switch {
	case status == http.StatusNotFound:
		sentinel = ErrNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		sentinel = ErrUnauthorized
	case status == http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	case status == http.StatusBadRequest:
		sentinel = ErrBadRequest
	case status >= 500:
		sentinel = ErrServer
	default:
		return fmt.Errorf("unexpected status %d: %s", status, msg)
	}
	if msg != "" {
		return fmt.Errorf("%w: %s", sentinel, msg)
	}
	return sentinel
}
