package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-onboarding/internal/logger"
	"github.com/listenupapp/listenup-onboarding/internal/store"
)

const (
	reportBacklogInterval = 15 * time.Minute
	// reportBacklogGrace leaves in-flight report calls alone.
	reportBacklogGrace = 10 * time.Minute
	reportBacklogLimit = 100
)

// ReportBacklogJob periodically logs saved submissions that never got a
// taste report.
type ReportBacklogJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (j *ReportBacklogJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// ProvideReportBacklogJob provides the report backlog audit job.
func ProvideReportBacklogJob(i do.Injector) (*ReportBacklogJob, error) {
	journal := do.MustInvoke[*JournalHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	job := &ReportBacklogJob{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(job.done)

		ticker := time.NewTicker(reportBacklogInterval)
		defer ticker.Stop()

		auditReportBacklog(ctx, journal.Store, log, time.Now)
		for {
			select {
			case <-ticker.C:
				auditReportBacklog(ctx, journal.Store, log, time.Now)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Report backlog job started", "interval", reportBacklogInterval)

	return job, nil
}

// auditReportBacklog returns how many submissions lack a report.
func auditReportBacklog(ctx context.Context, journal store.Journal, log *logger.Logger, now func() time.Time) int {
	pending, err := journal.PendingReports(ctx, now().Add(-reportBacklogGrace), reportBacklogLimit)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("Report backlog audit failed", "error", err)
		}
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	log.Warn("Submissions without a taste report",
		"count", len(pending),
		"oldest_submission_id", pending[0].ID,
		"oldest_submitted_at", pending[0].SubmittedAt,
	)
	return len(pending)
}
