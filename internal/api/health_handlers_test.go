package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)
	ts.startSession(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeData[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["journal"].Status)
	assert.Equal(t, "1 live session", health.Components["sessions"].Message)
	assert.Equal(t, "no connected clients", health.Components["sse"].Message)
}

func TestHealthCheck_JournalClosed(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.journal.Close())

	health := decodeData[HealthResponse](t, ts.api.Get("/health"))
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "journal unreachable", health.Components["journal"].Message)
}

func TestHealthCheck_WithoutOptionalComponents(t *testing.T) {
	ts := setupTestServer(t)
	s := NewServer(ts.onboarding, nil, nil, nil, Options{}, nil)

	out, err := s.handleHealthCheck(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, "degraded", out.Body.Status)
	assert.Equal(t, "journal not configured", out.Body.Components["journal"].Message)
}
