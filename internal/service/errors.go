package service

import (
	"context"
	"errors"

	domainerrors "github.com/listenupapp/listenup-onboarding/internal/errors"
	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
	"github.com/listenupapp/listenup-onboarding/internal/store"
)

// TranslateError maps wizard and store errors onto coded domain errors.
// Errors that already carry a code pass through unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var (
		validationErr *onboarding.ValidationError
		fetchErr      *onboarding.FetchError
		saveErr       *onboarding.SaveError
	)
	switch {
	case errors.As(err, &validationErr):
		return domainerrors.ValidationWithDetails(validationErr.Error(), map[string]string{
			"reason": validationErr.Reason,
		})
	case errors.As(err, &fetchErr):
		return domainerrors.Wrapf(err, domainerrors.CodeFetchFailed, "could not load %s", fetchErr.Op)
	case errors.As(err, &saveErr):
		return domainerrors.Wrap(err, domainerrors.CodeSaveFailed, "could not save preferences")
	case errors.Is(err, onboarding.ErrBusy):
		return domainerrors.Wrap(err, domainerrors.CodeBusy, "a request is still in flight")
	case errors.Is(err, onboarding.ErrClosed):
		return domainerrors.Wrap(err, domainerrors.CodeGone, "session is no longer active")
	case errors.Is(err, onboarding.ErrCompleted):
		return domainerrors.Wrap(err, domainerrors.CodeConflict, "onboarding already completed")
	case errors.Is(err, onboarding.ErrEventNotAllowed):
		return domainerrors.Wrap(err, domainerrors.CodeConflict, "action not allowed on this step")
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, "not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainerrors.Wrap(err, domainerrors.CodeGone, "request cancelled")
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, "internal error")
}
