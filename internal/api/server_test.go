package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-onboarding/internal/backend"
	"github.com/listenupapp/listenup-onboarding/internal/devbackend"
	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
	"github.com/listenupapp/listenup-onboarding/internal/service"
	"github.com/listenupapp/listenup-onboarding/internal/sse"
	"github.com/listenupapp/listenup-onboarding/internal/store/sqlite"
)

// testEnvelope mirrors APIEnvelope with a typed payload.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testErrorEnvelope mirrors APIErrorEnvelope.
type testErrorEnvelope struct {
	Version int               `json:"v"`
	Success bool              `json:"success"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

type testServer struct {
	*Server
	api     humatest.TestAPI
	dev     *devbackend.Server
	journal *sqlite.Store
	manager *sse.Manager
}

func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWith(t, Options{})
}

func setupTestServerWith(t *testing.T, opts Options) *testServer {
	t.Helper()

	dev := devbackend.New(devbackend.Options{})
	backendSrv := httptest.NewServer(dev)
	t.Cleanup(backendSrv.Close)

	client := backend.New(backend.Config{BaseURL: backendSrv.URL, RPS: 1000, Burst: 1000}, nil)
	t.Cleanup(client.Close)

	journal, err := sqlite.Open(filepath.Join(t.TempDir(), "onboarding.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	manager := sse.NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)
	t.Cleanup(func() {
		cancel()
		_ = manager.Shutdown(context.Background())
	})

	svc := service.NewOnboardingService(func(token string) onboarding.Backend {
		return client.WithToken(token)
	}, journal, manager, service.OnboardingConfig{}, nil)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	handler := sse.NewHandler(manager, svc.Snapshot, SessionIDFromRequest, nil)
	s := NewServer(svc, journal, handler, manager, opts, nil)
	t.Cleanup(s.Close)

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, s.api),
		dev:     dev,
		journal: journal,
		manager: manager,
	}
}

func decodeData[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	require.True(t, env.Success, resp.Body.String())
	require.Equal(t, EnvelopeVersion, env.Version)
	return env.Data
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) testErrorEnvelope {
	t.Helper()
	var env testErrorEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	require.False(t, env.Success)
	return env
}

// startSession opens a session and returns its id.
func (ts *testServer) startSession(t *testing.T, headers ...any) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/onboarding/sessions", headers...)
	require.Equal(t, 201, resp.Code, resp.Body.String())
	return decodeData[service.Session](t, resp).ID
}

// post sends an action and requires it to succeed.
func (ts *testServer) post(t *testing.T, path string, args ...any) service.Session {
	t.Helper()
	resp := ts.api.Post(path, args...)
	require.Equal(t, 200, resp.Code, resp.Body.String())
	return decodeData[service.Session](t, resp)
}

func toggle(category onboarding.Category, id string) map[string]any {
	return map[string]any{"category": string(category), "id": id}
}
