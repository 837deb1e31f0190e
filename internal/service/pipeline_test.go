package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/cadence"
	"github.com/esgsuite/reportflow/internal/model"
	"github.com/esgsuite/reportflow/internal/render"
	"github.com/esgsuite/reportflow/internal/scheduler"
	"github.com/esgsuite/reportflow/internal/storage"
	"github.com/esgsuite/reportflow/internal/workflow"
)

type noopMailer struct{}

func (noopMailer) Send(_, _, _, _ string) error { return nil }

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStore(logger, filepath.Join(dir, "reportflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	calc := cadence.NewCalculator(logger)
	renderer := render.NewFileRenderer(filepath.Join(dir, "exports"), nil, logger)
	runner := scheduler.NewRunner(store, store, store, renderer, noopMailer{}, nil, logger)
	engine := scheduler.NewEngine(store, runner, calc, scheduler.EngineConfig{
		PollInterval: time.Minute,
	}, logger)
	workflows := workflow.NewManager(store, store, nil, logger)

	return NewPipeline(store, engine, workflows, calc, logger)
}

func TestCreateScheduleThenRunNow(t *testing.T) {
	pipeline := newTestPipeline(t)
	ctx := context.Background()

	schedule, err := pipeline.CreateSchedule(ctx, CreateScheduleRequest{
		TenantID:   "acme",
		Name:       "monthly carbon",
		ReportType: "carbon",
		Cadence:    model.CadenceMonthly,
		Format:     "json",
		StartDate:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC), schedule.NextRun)

	entry, err := pipeline.RunNow(ctx, schedule.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobOutcomeSuccess, entry.Outcome)

	versions, err := pipeline.ListVersions(ctx, "acme", "carbon")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	require.Equal(t, 1, versions[0].VersionNumber)

	// The artifact is a real file.
	info, err := os.Stat(versions[0].ArtifactPath)
	require.NoError(t, err)
	require.Equal(t, versions[0].ArtifactSize, info.Size())

	history, err := pipeline.ListJobHistory(ctx, schedule.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, model.JobOutcomeSuccess, history[0].Outcome)
}

func TestCreateSchedule_InvalidCadence(t *testing.T) {
	pipeline := newTestPipeline(t)

	_, err := pipeline.CreateSchedule(context.Background(), CreateScheduleRequest{
		TenantID:   "acme",
		Name:       "bad",
		ReportType: "carbon",
		Cadence:    model.Cadence("hourly"),
	})
	require.ErrorIs(t, err, ErrInvalidCadence)
}

func TestApprovalFlowThroughPipeline(t *testing.T) {
	pipeline := newTestPipeline(t)
	ctx := context.Background()

	schedule, err := pipeline.CreateSchedule(ctx, CreateScheduleRequest{
		TenantID:   "acme",
		Name:       "monthly carbon",
		ReportType: "carbon",
		Cadence:    model.CadenceMonthly,
		Format:     "txt",
	})
	require.NoError(t, err)

	entry, err := pipeline.RunNow(ctx, schedule.ID)
	require.NoError(t, err)

	wf, err := pipeline.SubmitForApproval(ctx, entry.VersionID, "analyst", "director", "ready")
	require.NoError(t, err)
	require.Equal(t, model.ApprovalPendingApproval, wf.Status)

	wf, err = pipeline.Approve(ctx, entry.VersionID, "director", "")
	require.NoError(t, err)
	require.Equal(t, model.ApprovalApproved, wf.Status)

	wf, err = pipeline.Publish(ctx, entry.VersionID)
	require.NoError(t, err)
	require.Equal(t, model.ApprovalPublished, wf.Status)
}

func TestRunNowRefusesDeactivatedSchedule(t *testing.T) {
	pipeline := newTestPipeline(t)
	ctx := context.Background()

	schedule, err := pipeline.CreateSchedule(ctx, CreateScheduleRequest{
		TenantID:   "acme",
		Name:       "weekly water",
		ReportType: "water",
		Cadence:    model.CadenceWeekly,
		Format:     "txt",
	})
	require.NoError(t, err)
	require.NoError(t, pipeline.SetScheduleActive(ctx, schedule.ID, false))

	// RunNow bypasses the cadence check but not the active flag.
	_, err = pipeline.RunNow(ctx, schedule.ID)
	require.ErrorIs(t, err, scheduler.ErrScheduleInactive)

	// Reactivating makes manual runs possible again.
	require.NoError(t, pipeline.SetScheduleActive(ctx, schedule.ID, true))
	entry, err := pipeline.RunNow(ctx, schedule.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobOutcomeSuccess, entry.Outcome)
}
