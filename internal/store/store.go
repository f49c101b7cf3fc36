// Package store defines the submission journal contract shared by its
// backends and the session service.
package store

import (
	"context"
	"time"

	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
)

// SubmissionRecord is one journaled successful save.
type SubmissionRecord struct {
	ID          string
	SessionID   string
	UserID      string
	Payload     onboarding.PreferencePayload
	SubmittedAt time.Time

	// Report fields stay empty until a report was produced.
	ReportID     string
	ReportStatus string
	ReportedAt   *time.Time
}

// HasReport reports whether a taste report was produced for the submission.
func (r *SubmissionRecord) HasReport() bool {
	return r.ReportID != ""
}

// Journal is the persistent record of completed onboarding runs.
type Journal interface {
	onboarding.Journal

	// LatestSubmission returns the newest submission for userID, or
	// ErrNotFound.
	LatestSubmission(ctx context.Context, userID string) (*SubmissionRecord, error)

	// PendingReports lists submissions older than olderThan that never got
	// a report, oldest first.
	PendingReports(ctx context.Context, olderThan time.Time, limit int) ([]*SubmissionRecord, error)
}
