package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/listenupapp/listenup-onboarding/internal/id"
	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
	"github.com/listenupapp/listenup-onboarding/internal/store"
)

// submissionColumns is the ordered list of columns selected in submissions queries.
const submissionColumns = `id, session_id, user_id, payload, submitted_at,
	report_id, report_status, reported_at`

func newSubmissionID() (string, error) {
	return id.NewSubmission()
}

// scanSubmission scans a sql.Row (or sql.Rows via its Scan method) into a store.SubmissionRecord.
func scanSubmission(scanner interface{ Scan(dest ...any) error }) (*store.SubmissionRecord, error) {
	var rec store.SubmissionRecord

	var (
		payload      string
		submittedAt  string
		reportID     sql.NullString
		reportStatus sql.NullString
		reportedAt   sql.NullString
	)

	err := scanner.Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.UserID,
		&payload,
		&submittedAt,
		&reportID,
		&reportStatus,
		&reportedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
		return nil, fmt.Errorf("decode payload of %s: %w", rec.ID, err)
	}
	rec.SubmittedAt, err = parseTime(submittedAt)
	if err != nil {
		return nil, err
	}
	rec.ReportID = reportID.String
	rec.ReportStatus = reportStatus.String
	rec.ReportedAt, err = parseNullableTime(reportedAt)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// RecordSubmission journals a successful save and returns its id.
func (s *Store) RecordSubmission(ctx context.Context, sub onboarding.Submission) (string, error) {
	subID, err := s.newID()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(sub.Payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	submittedAt := sub.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = s.now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, session_id, user_id, payload, submitted_at)
		VALUES (?, ?, ?, ?, ?)`,
		subID,
		sub.SessionID,
		sub.UserID,
		string(payload),
		formatTime(submittedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", store.ErrAlreadyExists
		}
		return "", err
	}

	s.logger.Debug("submission journaled", "submission_id", subID, "session_id", sub.SessionID)
	return subID, nil
}

// MarkReport records the report produced for a submission.
// Returns store.ErrNotFound if the submission does not exist.
func (s *Store) MarkReport(ctx context.Context, submissionID string, report onboarding.ReportHandle) error {
	if report.ID == "" {
		return store.ErrInvalidInput.WithMessage("report id is required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET report_id = ?, report_status = ?, reported_at = ?
		WHERE id = ?`,
		report.ID,
		nullString(report.Status),
		formatTime(s.now()),
		submissionID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetSubmission retrieves a submission by id.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetSubmission(ctx context.Context, submissionID string) (*store.SubmissionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, submissionID)

	rec, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return rec, err
}

// LatestSubmission returns the newest submission for a user.
// Returns store.ErrNotFound if the user never completed onboarding.
func (s *Store) LatestSubmission(ctx context.Context, userID string) (*store.SubmissionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		WHERE user_id = ?
		ORDER BY submitted_at DESC, rowid DESC
		LIMIT 1`, userID)

	rec, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return rec, err
}

// PendingReports lists submissions submitted before olderThan that have no
// report, oldest first. A non-positive limit returns all of them.
func (s *Store) PendingReports(ctx context.Context, olderThan time.Time, limit int) ([]*store.SubmissionRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		WHERE report_id IS NULL AND submitted_at < ?
		ORDER BY submitted_at ASC
		LIMIT ?`, formatTime(olderThan), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*store.SubmissionRecord
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
