package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
	"github.com/listenupapp/listenup-onboarding/internal/service"
)

func sessionPath(id, action string) string {
	p := "/api/v1/onboarding/sessions/" + id
	if action != "" {
		p += "/" + action
	}
	return p
}

func TestGetOptions(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/onboarding/options")
	require.Equal(t, http.StatusOK, resp.Code)

	opts := decodeData[OptionsResponse](t, resp)
	assert.Equal(t, "welcome", opts.Steps[0])
	assert.Equal(t, "submitting", opts.Steps[len(opts.Steps)-1])
	assert.Equal(t, onboarding.PurposeOptions, opts.Categories[string(onboarding.CategoryPurpose)])
	assert.NotContains(t, opts.Categories, string(onboarding.CategoryGenre))
	assert.Len(t, opts.Fields, len(onboarding.Fields))
}

func TestStartSession(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/onboarding/sessions", "Authorization: Bearer alice")
	require.Equal(t, http.StatusCreated, resp.Code)

	sess := decodeData[service.Session](t, resp)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, onboarding.StepWelcome, sess.View.Step)
	assert.Nil(t, sess.Completion)

	got := decodeData[service.Session](t, ts.api.Get(sessionPath(sess.ID, "")))
	assert.Equal(t, sess.ID, got.ID)
}

func TestStartSession_BadAuthorization(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/onboarding/sessions", "Authorization: Basic Zm9vOmJhcg==")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
}

func TestWizard_FullRun(t *testing.T) {
	ts := setupTestServer(t)
	auth := "Authorization: Bearer alice"
	id := ts.startSession(t, auth)

	sess := ts.post(t, sessionPath(id, "next"))
	assert.Equal(t, onboarding.StepGenre, sess.View.Step)
	assert.True(t, sess.View.CatalogLoaded)

	ts.post(t, sessionPath(id, "toggle"), toggle(onboarding.CategoryGenre, "fantasy"))
	sess = ts.post(t, sessionPath(id, "next"))
	require.Equal(t, onboarding.StepBooks, sess.View.Step)
	require.NotNil(t, sess.View.Books)
	assert.Equal(t, "fantasy", sess.View.Books.GenreID)

	ts.post(t, sessionPath(id, "toggle"), toggle(onboarding.CategoryBook, "fantasy-1"))
	ts.post(t, sessionPath(id, "next"))
	ts.post(t, sessionPath(id, "toggle"), toggle(onboarding.CategoryPurpose, "leisure"))
	sess = ts.post(t, sessionPath(id, "next"))
	require.Equal(t, onboarding.StepStyle, sess.View.Step)

	resp := ts.api.Put(sessionPath(id, "choice"), map[string]any{"field": "reading_pace", "value": "moderate"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	sess = decodeData[service.Session](t, resp)
	value, ok := sess.View.Choices[onboarding.FieldPace].Value()
	assert.True(t, ok)
	assert.Equal(t, "moderate", value)

	ts.post(t, sessionPath(id, "next"))
	sess = ts.post(t, sessionPath(id, "next"))
	require.Equal(t, onboarding.StepTheme, sess.View.Step)
	ts.post(t, sessionPath(id, "next"))

	var done service.Session
	require.Eventually(t, func() bool {
		resp := ts.api.Get(sessionPath(id, ""))
		if resp.Code != http.StatusOK {
			return false
		}
		done = decodeData[service.Session](t, resp)
		return done.Completion != nil
	}, 5*time.Second, 20*time.Millisecond)

	assert.True(t, done.View.Completed)
	assert.Equal(t, []string{"fantasy"}, done.Completion.Payload.Genres)
	assert.Equal(t, []string{"fantasy-1"}, done.Completion.Payload.SelectedBooks)
	require.NotNil(t, done.Completion.Report)

	latest := ts.api.Get("/api/v1/onboarding/submissions/latest", auth)
	require.Equal(t, http.StatusOK, latest.Code, latest.Body.String())
	sub := decodeData[SubmissionResponse](t, latest)
	assert.Equal(t, done.Completion.SubmissionID, sub.ID)
	assert.Equal(t, id, sub.SessionID)
	require.NotNil(t, sub.Report)
	assert.Equal(t, done.Completion.Report.ID, sub.Report.ID)

	// Completed sessions refuse further input.
	resp = ts.api.Post(sessionPath(id, "back"))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestNext_ValidationError(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.startSession(t)
	ts.post(t, sessionPath(id, "next"))

	resp := ts.api.Post(sessionPath(id, "next"))
	require.Equal(t, http.StatusBadRequest, resp.Code)

	env := decodeError(t, resp)
	assert.Equal(t, "VALIDATION", env.Code)
	assert.Equal(t, onboarding.ReasonMinGenre, env.Details["reason"])

	sess := decodeData[service.Session](t, ts.api.Get(sessionPath(id, "")))
	assert.Equal(t, onboarding.StepGenre, sess.View.Step)
}

func TestToggle_RequestValidation(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.startSession(t)
	ts.post(t, sessionPath(id, "next"))

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantField  string
	}{
		{
			name:       "unknown category",
			body:       map[string]any{"category": "colours", "id": "red"},
			wantStatus: http.StatusBadRequest,
			wantField:  "category",
		},
		{
			name:       "malformed id",
			body:       map[string]any{"category": "genres", "id": "fan\ttasy"},
			wantStatus: http.StatusBadRequest,
			wantField:  "id",
		},
		{
			name:       "opaque id outside catalog",
			body:       map[string]any{"category": "genres", "id": "urn:genre/../etc"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing id",
			body:       map[string]any{"category": "genres"},
			wantStatus: http.StatusUnprocessableEntity, // Huma rejects missing required fields
		},
		{
			name:       "option outside catalog",
			body:       map[string]any{"category": "genres", "id": "poetry"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "category of another step",
			body:       map[string]any{"category": "moods", "id": "cozy"},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post(sessionPath(id, "toggle"), tt.body)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			if tt.wantField != "" {
				assert.Contains(t, decodeError(t, resp).Details, tt.wantField)
			}
		})
	}
}

func TestSetChoice_ClearWithEmptyValue(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.startSession(t)
	ts.post(t, sessionPath(id, "next"))
	ts.post(t, sessionPath(id, "toggle"), toggle(onboarding.CategoryGenre, "fantasy"))
	ts.post(t, sessionPath(id, "next"))
	ts.post(t, sessionPath(id, "next"))
	ts.post(t, sessionPath(id, "toggle"), toggle(onboarding.CategoryPurpose, "leisure"))
	ts.post(t, sessionPath(id, "next"))

	resp := ts.api.Put(sessionPath(id, "choice"), map[string]any{"field": "preferred_length", "value": "short"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Put(sessionPath(id, "choice"), map[string]any{"field": "preferred_length", "value": ""})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	sess := decodeData[service.Session](t, resp)
	assert.False(t, sess.View.Choices[onboarding.FieldLength].IsSet())

	resp = ts.api.Put(sessionPath(id, "choice"), map[string]any{"field": "shoe_size", "value": "short"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAbandonSession(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.startSession(t)

	resp := ts.api.Delete(sessionPath(id, ""))
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, 0, ts.dev.SaveCount())

	resp = ts.api.Get(sessionPath(id, ""))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)

	resp = ts.api.Delete(sessionPath(id, ""))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestBack_FromWelcomeEndsSession(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.startSession(t)

	ts.post(t, sessionPath(id, "back"))

	resp := ts.api.Get(sessionPath(id, ""))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestReload_OnlyOnGenreStep(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.startSession(t)

	resp := ts.api.Post(sessionPath(id, "reload"))
	assert.Equal(t, http.StatusConflict, resp.Code)

	ts.post(t, sessionPath(id, "next"))
	sess := ts.post(t, sessionPath(id, "reload"))
	assert.True(t, sess.View.CatalogLoaded)
}

func TestLatestSubmission_NoneYet(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/onboarding/submissions/latest", "Authorization: Bearer nobody")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSaveFailure_ReturnsBadGatewayFreeState(t *testing.T) {
	ts := setupTestServer(t)
	ts.dev.FailSaves.Store(true)

	id := ts.startSession(t)
	ts.post(t, sessionPath(id, "next"))
	ts.post(t, sessionPath(id, "toggle"), toggle(onboarding.CategoryGenre, "mystery-thriller"))
	ts.post(t, sessionPath(id, "next"))
	ts.post(t, sessionPath(id, "next"))
	ts.post(t, sessionPath(id, "toggle"), toggle(onboarding.CategoryPurpose, "leisure"))
	for range 4 {
		ts.post(t, sessionPath(id, "next"))
	}

	require.Eventually(t, func() bool {
		sess := decodeData[service.Session](t, ts.api.Get(sessionPath(id, "")))
		return sess.View.Step == onboarding.StepTheme && sess.View.LastError != ""
	}, 5*time.Second, 20*time.Millisecond)

	sess := decodeData[service.Session](t, ts.api.Get(sessionPath(id, "")))
	assert.Nil(t, sess.Completion)
	assert.Equal(t, []string{"mystery-thriller"}, sess.View.Selected[onboarding.CategoryGenre])
}
