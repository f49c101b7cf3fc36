package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
	"github.com/listenupapp/listenup-onboarding/internal/service"
)

func (s *Server) registerOnboardingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getOnboardingOptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/onboarding/options",
		Summary:     "List static options",
		Description: "Returns the fixed catalogs of every static category and scalar field",
		Tags:        []string{"Onboarding"},
	}, s.handleGetOptions)

	huma.Register(s.api, huma.Operation{
		OperationID:   "startOnboardingSession",
		Method:        http.MethodPost,
		Path:          "/api/v1/onboarding/sessions",
		Summary:       "Start session",
		Description:   "Opens a wizard session on the Welcome step for the caller",
		Tags:          []string{"Onboarding"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleStartSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getOnboardingSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/onboarding/sessions/{id}",
		Summary:     "Get session",
		Description: "Returns the current state of a wizard session",
		Tags:        []string{"Onboarding"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "nextOnboardingStep",
		Method:      http.MethodPost,
		Path:        "/api/v1/onboarding/sessions/{id}/next",
		Summary:     "Next step",
		Description: "Validates the current step and moves forward",
		Tags:        []string{"Onboarding"},
	}, s.handleNext)

	huma.Register(s.api, huma.Operation{
		OperationID: "backOnboardingStep",
		Method:      http.MethodPost,
		Path:        "/api/v1/onboarding/sessions/{id}/back",
		Summary:     "Previous step",
		Description: "Moves backward; from the first step this leaves the wizard",
		Tags:        []string{"Onboarding"},
	}, s.handleBack)

	huma.Register(s.api, huma.Operation{
		OperationID: "reloadOnboardingGenres",
		Method:      http.MethodPost,
		Path:        "/api/v1/onboarding/sessions/{id}/reload",
		Summary:     "Reload genres",
		Description: "Refetches the genre catalog on the Genre step",
		Tags:        []string{"Onboarding"},
	}, s.handleReload)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleOnboardingOption",
		Method:      http.MethodPost,
		Path:        "/api/v1/onboarding/sessions/{id}/toggle",
		Summary:     "Toggle option",
		Description: "Selects or deselects one option of the current step's category",
		Tags:        []string{"Onboarding"},
	}, s.handleToggle)

	huma.Register(s.api, huma.Operation{
		OperationID: "setOnboardingChoice",
		Method:      http.MethodPut,
		Path:        "/api/v1/onboarding/sessions/{id}/choice",
		Summary:     "Set scalar choice",
		Description: "Sets or clears a single-valued preference on the Style step",
		Tags:        []string{"Onboarding"},
	}, s.handleSetChoice)

	huma.Register(s.api, huma.Operation{
		OperationID: "abandonOnboardingSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/onboarding/sessions/{id}",
		Summary:     "Abandon session",
		Description: "Tears the session down without saving anything",
		Tags:        []string{"Onboarding"},
	}, s.handleAbandon)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLatestSubmission",
		Method:      http.MethodGet,
		Path:        "/api/v1/onboarding/submissions/latest",
		Summary:     "Latest submission",
		Description: "Returns the caller's most recent saved preferences",
		Tags:        []string{"Onboarding"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLatestSubmission)
}

// === DTOs ===

// OptionsResponse lists the fixed catalogs.
type OptionsResponse struct {
	Steps      []string                       `json:"steps" doc:"Wizard steps in order"`
	Categories map[string][]onboarding.Option `json:"categories" doc:"Options per static category"`
	Fields     map[string][]onboarding.Option `json:"fields" doc:"Options per scalar field"`
}

// OptionsOutput wraps the options response for Huma.
type OptionsOutput struct {
	Body OptionsResponse
}

// AuthInput carries the caller's bearer token.
type AuthInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token forwarded to the backend"`
}

// SessionPathInput addresses one session.
type SessionPathInput struct {
	ID string `path:"id" doc:"Session ID"`
}

// SessionOutput wraps a session for Huma.
type SessionOutput struct {
	Body *service.Session
}

// ToggleRequest is the request body for toggling an option.
type ToggleRequest struct {
	Category string `json:"category" validate:"required,category" doc:"Category of the current step"`
	ID       string `json:"id" validate:"required,catalog_id" doc:"Option, genre or book ID"`
}

// ToggleInput wraps the toggle request for Huma.
type ToggleInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body ToggleRequest
}

// ChoiceRequest is the request body for setting a scalar choice.
type ChoiceRequest struct {
	Field string `json:"field" validate:"required,field" doc:"Scalar field"`
	Value string `json:"value" validate:"omitempty,catalog_id" doc:"Option ID; empty clears the choice"`
}

// ChoiceInput wraps the choice request for Huma.
type ChoiceInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body ChoiceRequest
}

// SubmissionResponse is a journaled submission in API responses.
type SubmissionResponse struct {
	ID          string                       `json:"id" doc:"Submission ID"`
	SessionID   string                       `json:"session_id" doc:"Session that produced it"`
	Payload     onboarding.PreferencePayload `json:"payload" doc:"Saved preferences"`
	SubmittedAt time.Time                    `json:"submitted_at" doc:"When the save succeeded"`
	Report      *onboarding.ReportHandle     `json:"report,omitempty" doc:"Taste report, if one was produced"`
	ReportedAt  *time.Time                   `json:"reported_at,omitempty" doc:"When the report was produced"`
}

// SubmissionOutput wraps the submission response for Huma.
type SubmissionOutput struct {
	Body SubmissionResponse
}

// === Handlers ===

func (s *Server) handleGetOptions(_ context.Context, _ *struct{}) (*OptionsOutput, error) {
	resp := OptionsResponse{
		Categories: make(map[string][]onboarding.Option),
		Fields:     make(map[string][]onboarding.Option, len(onboarding.Fields)),
	}
	for st := onboarding.StepWelcome; st <= onboarding.StepSubmitting; st++ {
		resp.Steps = append(resp.Steps, st.String())
	}
	for _, c := range onboarding.Categories {
		if opts := onboarding.StaticOptions(c); opts != nil {
			resp.Categories[string(c)] = opts
		}
	}
	for _, f := range onboarding.Fields {
		resp.Fields[string(f)] = onboarding.FieldOptions(f)
	}
	return &OptionsOutput{Body: resp}, nil
}

func (s *Server) handleStartSession(ctx context.Context, input *AuthInput) (*SessionOutput, error) {
	token, err := bearerToken(input.Authorization)
	if err != nil {
		return nil, err
	}

	sess, err := s.onboarding.Start(ctx, token)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SessionOutput{Body: sess}, nil
}

func (s *Server) handleGetSession(ctx context.Context, input *SessionPathInput) (*SessionOutput, error) {
	sess, err := s.onboarding.Get(ctx, input.ID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SessionOutput{Body: sess}, nil
}

func (s *Server) handleNext(ctx context.Context, input *SessionPathInput) (*SessionOutput, error) {
	return s.dispatch(ctx, input.ID, onboarding.Next{})
}

func (s *Server) handleBack(ctx context.Context, input *SessionPathInput) (*SessionOutput, error) {
	return s.dispatch(ctx, input.ID, onboarding.Back{})
}

func (s *Server) handleReload(ctx context.Context, input *SessionPathInput) (*SessionOutput, error) {
	return s.dispatch(ctx, input.ID, onboarding.Reload{})
}

func (s *Server) handleToggle(ctx context.Context, input *ToggleInput) (*SessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, toAPIError(err)
	}
	return s.dispatch(ctx, input.ID, onboarding.Toggle{
		Category: onboarding.Category(input.Body.Category),
		ID:       input.Body.ID,
	})
}

func (s *Server) handleSetChoice(ctx context.Context, input *ChoiceInput) (*SessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, toAPIError(err)
	}
	return s.dispatch(ctx, input.ID, onboarding.Pick{
		Field: onboarding.Field(input.Body.Field),
		Value: input.Body.Value,
	})
}

func (s *Server) handleAbandon(ctx context.Context, input *SessionPathInput) (*struct{}, error) {
	if err := s.onboarding.Abandon(ctx, input.ID); err != nil {
		return nil, toAPIError(err)
	}
	return nil, nil
}

func (s *Server) handleLatestSubmission(ctx context.Context, input *AuthInput) (*SubmissionOutput, error) {
	token, err := bearerToken(input.Authorization)
	if err != nil {
		return nil, err
	}

	rec, err := s.onboarding.LatestSubmission(ctx, token)
	if err != nil {
		return nil, toAPIError(err)
	}

	resp := SubmissionResponse{
		ID:          rec.ID,
		SessionID:   rec.SessionID,
		Payload:     rec.Payload,
		SubmittedAt: rec.SubmittedAt,
		ReportedAt:  rec.ReportedAt,
	}
	if rec.HasReport() {
		resp.Report = &onboarding.ReportHandle{ID: rec.ReportID, Status: rec.ReportStatus}
	}
	return &SubmissionOutput{Body: resp}, nil
}

// dispatch applies a user event. A refused event is an error response even
// though the session itself is still readable.
func (s *Server) dispatch(ctx context.Context, sessionID string, ev onboarding.Event) (*SessionOutput, error) {
	sess, err := s.onboarding.Dispatch(ctx, sessionID, ev)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SessionOutput{Body: sess}, nil
}
