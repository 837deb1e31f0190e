package scheduler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/events"
	"github.com/esgsuite/reportflow/internal/model"
	"github.com/esgsuite/reportflow/internal/storage"
)

// Runner executes a single scheduled report job: render the artifact,
// register a new report version, optionally dispatch it to the
// schedule's distribution list, and record the attempt in job history.
type Runner struct {
	logger   *zap.Logger
	versions storage.VersionStore
	lists    storage.DistributionStore
	history  storage.HistoryStore
	renderer Renderer
	mailer   Mailer
	events   *events.Publisher
	now      func() time.Time
}

// NewRunner creates a job runner. publisher may be nil.
func NewRunner(versions storage.VersionStore, lists storage.DistributionStore, history storage.HistoryStore,
	renderer Renderer, mailer Mailer, publisher *events.Publisher, logger *zap.Logger) *Runner {
	return &Runner{
		logger:   logger,
		versions: versions,
		lists:    lists,
		history:  history,
		renderer: renderer,
		mailer:   mailer,
		events:   publisher,
		now:      time.Now,
	}
}

// RunJob executes one attempt for the given schedule and returns the
// history entry describing it. Render, version-registration and
// list-resolution failures mark the attempt failed; per-recipient
// dispatch failures are recorded in the dispatch log but do not fail
// the job. RunJob never returns an error: every failure mode ends up in
// the entry, and the caller decides nothing based on it except logging.
func (r *Runner) RunJob(ctx context.Context, schedule *model.ScheduleDefinition) *model.JobHistoryEntry {
	start := r.now()
	entry := &model.JobHistoryEntry{
		ScheduleID: schedule.ID,
		RunAt:      start.UTC(),
	}

	r.logger.Info("Running scheduled report",
		zap.String("schedule_id", schedule.ID),
		zap.String("name", schedule.Name),
		zap.String("report_type", schedule.ReportType))

	artifactPath, artifactSize, err := r.renderer.Render(ctx, schedule.TenantID, schedule.ReportType, schedule.Format)
	if err != nil {
		return r.fail(ctx, entry, start, &RenderError{ReportType: schedule.ReportType, Err: err})
	}

	version := &model.ReportVersion{
		TenantID:     schedule.TenantID,
		ReportType:   schedule.ReportType,
		Period:       start.UTC().Format("2006-01"),
		ArtifactPath: artifactPath,
		ArtifactSize: artifactSize,
		Checksum:     fileChecksum(artifactPath),
		CreatedBy:    "scheduler",
	}
	if err := r.versions.RegisterVersion(ctx, version); err != nil {
		return r.fail(ctx, entry, start, fmt.Errorf("register version: %w", err))
	}
	entry.VersionID = version.ID
	r.events.VersionRegistered(version)

	if schedule.AutoDispatch && schedule.DistributionListID != "" {
		if err := r.dispatch(ctx, schedule, version); err != nil {
			return r.fail(ctx, entry, start, err)
		}
	}

	entry.Outcome = model.JobOutcomeSuccess
	entry.Duration = r.now().Sub(start)
	r.record(ctx, entry)

	r.logger.Info("Scheduled report completed",
		zap.String("schedule_id", schedule.ID),
		zap.String("version_id", version.ID),
		zap.Int("version", version.VersionNumber),
		zap.Duration("duration", entry.Duration))
	return entry
}

// dispatch resolves the schedule's distribution list and hands the
// artifact to the mailer once per recipient. A failed recipient is
// recorded and skipped; only list resolution can fail the dispatch.
func (r *Runner) dispatch(ctx context.Context, schedule *model.ScheduleDefinition, version *model.ReportVersion) error {
	list, err := r.lists.GetDistributionList(ctx, schedule.DistributionListID)
	if err != nil {
		return fmt.Errorf("resolve distribution list: %w", err)
	}

	subject := fmt.Sprintf("%s report - %s", schedule.ReportType, version.Period)
	body := fmt.Sprintf("Scheduled report %q (version %d) for period %s is attached.",
		schedule.Name, version.VersionNumber, version.Period)

	recipients := make([]string, 0, len(list.To)+len(list.CC)+len(list.BCC))
	recipients = append(recipients, list.To...)
	recipients = append(recipients, list.CC...)
	recipients = append(recipients, list.BCC...)

	var failed int
	for _, recipient := range recipients {
		record := &model.DispatchRecord{
			ScheduleID: schedule.ID,
			VersionID:  version.ID,
			Recipient:  recipient,
			Subject:    subject,
			Status:     model.DispatchSent,
			SentAt:     r.now().UTC(),
		}

		if err := r.mailer.Send(recipient, subject, body, version.ArtifactPath); err != nil {
			failed++
			dispatchErr := &DispatchError{Recipient: recipient, Err: err}
			record.Status = model.DispatchFailed
			record.Error = dispatchErr.Error()
			r.logger.Warn("Dispatch failed",
				zap.String("schedule_id", schedule.ID),
				zap.String("recipient", recipient),
				zap.Error(err))
		}

		if err := r.history.RecordDispatch(ctx, record); err != nil {
			r.logger.Error("Failed to record dispatch attempt",
				zap.String("recipient", recipient),
				zap.Error(err))
		}
	}

	r.logger.Info("Dispatched report",
		zap.String("schedule_id", schedule.ID),
		zap.Int("recipients", len(recipients)),
		zap.Int("failed", failed))
	return nil
}

// fail finalizes entry as a failed attempt
func (r *Runner) fail(ctx context.Context, entry *model.JobHistoryEntry, start time.Time, cause error) *model.JobHistoryEntry {
	entry.Outcome = model.JobOutcomeFailure
	entry.Error = cause.Error()
	entry.Duration = r.now().Sub(start)
	r.record(ctx, entry)

	r.logger.Error("Scheduled report failed",
		zap.String("schedule_id", entry.ScheduleID),
		zap.Error(cause))
	return entry
}

// record appends the history entry and publishes the job event. History
// write failures are logged; the attempt result is still returned to the
// caller.
func (r *Runner) record(ctx context.Context, entry *model.JobHistoryEntry) {
	if err := r.history.AppendHistory(ctx, entry); err != nil {
		r.logger.Error("Failed to append job history",
			zap.String("schedule_id", entry.ScheduleID),
			zap.Error(err))
	}
	r.events.JobCompleted(entry)
}

// fileChecksum returns the hex SHA-256 of the file, or "" if unreadable
func fileChecksum(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
