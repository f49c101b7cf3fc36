package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend operations.
var (
	ErrNotFound     = errors.New("backend: not found")
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrRateLimited  = errors.New("backend: rate limited by server")
	ErrBadRequest   = errors.New("backend: bad request")
	ErrServer       = errors.New("backend: server error")
	ErrTimeout      = errors.New("backend: request timed out")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op     string // Operation: "genres", "books", "save", "report"
	Target string // Genre id, if applicable
	Err    error
}

func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("backend %s [%s]: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, target string, err error) error {
	return &Error{Op: op, Target: target, Err: err}
}
