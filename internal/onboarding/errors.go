package onboarding

import (
	"errors"
	"fmt"
)

// Validation reasons surfaced inline by the wizard.
const (
	ReasonMinGenre      = "min-genre"
	ReasonUnknownOption = "unknown-option"
	ReasonCatalogLoad   = "catalog-not-loaded"
)

// Sentinel errors for runtime conditions.
var (
	// ErrBusy is returned while a fetch or submission is outstanding.
	ErrBusy = errors.New("onboarding: request in flight")
	// ErrClosed is returned once the wizard has been torn down.
	ErrClosed = errors.New("onboarding: wizard closed")
	// ErrCompleted is returned for events sent after a successful submission.
	ErrCompleted = errors.New("onboarding: wizard already completed")
	// ErrEventNotAllowed is returned for events that make no sense on the current step.
	ErrEventNotAllowed = errors.New("onboarding: event not allowed on this step")
)

// ValidationError means a forward guard or an input check failed. The
// current step is not left.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation %s: %s", e.Reason, e.Message)
	}
	return "validation " + e.Reason
}

// FetchError means a collaborator read failed. The wizard stays on the step
// that requested it and the same transition may be retried.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SaveError means the preference save failed. The wizard returns to Theme
// with every selection intact.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save preferences: %v", e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// ReportGenerationError means the second submission phase failed. It never
// fails the submission.
type ReportGenerationError struct {
	Err error
}

func (e *ReportGenerationError) Error() string {
	return fmt.Sprintf("generate report: %v", e.Err)
}

func (e *ReportGenerationError) Unwrap() error { return e.Err }

// OutOfRangeError is returned by a cursor with no genre under it.
type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("cursor index %d out of range [0,%d)", e.Index, e.Len)
}

func validationErr(reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}
