package onboarding

import (
	"context"
	"log/slog"
	"time"
)

// Submission is a journaled successful save.
type Submission struct {
	SessionID   string
	UserID      string
	Payload     PreferencePayload
	SubmittedAt time.Time
}

// Journal records successful saves and the reports produced for them.
type Journal interface {
	RecordSubmission(ctx context.Context, sub Submission) (string, error)
	MarkReport(ctx context.Context, submissionID string, report ReportHandle) error
}

// Outcome is the result of a successful submission.
type Outcome struct {
	SubmissionID string
	Payload      PreferencePayload
	Report       *ReportHandle
	// ReportErr is set when the report could not be generated.
	ReportErr error
}

// SubmissionCoordinator runs the two-phase save-then-report sequence.
type SubmissionCoordinator struct {
	saver    PreferenceSaver
	reporter ReportGenerator
	journal  Journal
	userID   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewSubmissionCoordinator creates a coordinator. logger may be nil.
func NewSubmissionCoordinator(saver PreferenceSaver, reporter ReportGenerator, logger *slog.Logger) *SubmissionCoordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SubmissionCoordinator{
		saver:    saver,
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
}

// WithJournal records every successful save for userID.
func (c *SubmissionCoordinator) WithJournal(j Journal, userID string) *SubmissionCoordinator {
	c.journal = j
	c.userID = userID
	return c
}

// Submit saves the payload and then requests the report. Only a save failure
// fails the submission; it is returned as *SaveError. A report failure is
// logged and carried in Outcome.ReportErr.
func (c *SubmissionCoordinator) Submit(ctx context.Context, payload PreferencePayload, snapshot ReportSnapshot) (Outcome, error) {
	log := c.logger.With("session_id", snapshot.SessionID)

	if err := c.saver.SavePreferences(ctx, payload); err != nil {
		log.Error("failed to save preferences", "error", err)
		return Outcome{}, &SaveError{Err: err}
	}

	out := Outcome{Payload: payload}
	if snapshot.CompletedAt.IsZero() {
		snapshot.CompletedAt = c.now().UTC()
	}
	snapshot.PreferencePayload = payload

	if c.journal != nil {
		id, err := c.journal.RecordSubmission(ctx, Submission{
			SessionID:   snapshot.SessionID,
			UserID:      c.userID,
			Payload:     payload,
			SubmittedAt: snapshot.CompletedAt,
		})
		if err != nil {
			log.Warn("failed to journal submission", "error", err)
		}
		out.SubmissionID = id
	}

	report, err := c.reporter.GenerateReport(ctx, snapshot)
	if err != nil {
		out.ReportErr = &ReportGenerationError{Err: err}
		log.Warn("report generation failed, continuing without report", "error", err)
		return out, nil
	}
	out.Report = &report

	if c.journal != nil && out.SubmissionID != "" {
		if err := c.journal.MarkReport(ctx, out.SubmissionID, report); err != nil {
			log.Warn("failed to journal report", "submission_id", out.SubmissionID, "error", err)
		}
	}

	log.Info("preferences submitted", "report_id", report.ID)
	return out, nil
}
