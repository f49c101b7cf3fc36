package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/listenup-onboarding/internal/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) RawEnvelope {
	t.Helper()
	var env RawEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestJSON_SuccessFlagFollowsStatus(t *testing.T) {
	tests := []struct {
		status  int
		success bool
	}{
		{http.StatusOK, true},
		{http.StatusCreated, true},
		{http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.status, map[string]string{"id": "g1"}, nil)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			env := decode(t, w)
			assert.Equal(t, tt.success, env.Success)
			assert.JSONEq(t, `{"id":"g1"}`, string(env.Data))
		})
	}
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestError_Helpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		msg    string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "invalid input", nil) }, http.StatusBadRequest, "invalid input"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "no such genre", nil) }, http.StatusNotFound, "no such genre"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "boom", nil) }, http.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.msg, env.Error)
			assert.Empty(t, env.Data)
		})
	}
}

func TestTooManyRequests_SetsRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequests(w, 1500*time.Millisecond, nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	w = httptest.NewRecorder()
	TooManyRequests(w, 0, nil)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestHandleError(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domainerrors.NotFoundf("session %s not found", "onb-1"), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.Equal(t, "session onb-1 not found", env.Error)

	w = httptest.NewRecorder()
	HandleError(w, errors.New("disk on fire"), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w).Error)
}
