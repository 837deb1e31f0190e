package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	store, err := NewSQLiteStore(logger, filepath.Join(t.TempDir(), "reportflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRegisterVersion_SingleCurrentInvariant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		version := &model.ReportVersion{
			TenantID:     "acme",
			ReportType:   "carbon",
			ArtifactPath: "/tmp/report.txt",
			ArtifactSize: 128,
		}
		require.NoError(t, store.RegisterVersion(ctx, version))
		require.Equal(t, i+1, version.VersionNumber)
		require.True(t, version.IsCurrent)
	}

	versions, err := store.ListVersions(ctx, "acme", "carbon")
	require.NoError(t, err)
	require.Len(t, versions, n)

	// Newest first, exactly one current, and the current one is version n.
	require.Equal(t, n, versions[0].VersionNumber)
	var currentCount int
	for _, v := range versions {
		if v.IsCurrent {
			currentCount++
			require.Equal(t, n, v.VersionNumber)
		}
	}
	require.Equal(t, 1, currentCount)

	current, err := store.CurrentVersion(ctx, "acme", "carbon")
	require.NoError(t, err)
	require.Equal(t, n, current.VersionNumber)
}

func TestRegisterVersion_IndependentPerKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []struct{ tenant, reportType string }{
		{"acme", "carbon"},
		{"acme", "water"},
		{"globex", "carbon"},
	} {
		version := &model.ReportVersion{
			TenantID:     key.tenant,
			ReportType:   key.reportType,
			ArtifactPath: "/tmp/report.txt",
		}
		require.NoError(t, store.RegisterVersion(ctx, version))
		require.Equal(t, 1, version.VersionNumber)
	}
}

func TestListDue_OrderingAndFiltering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	later := &model.ScheduleDefinition{
		ID: "b-later", TenantID: "acme", Name: "later", ReportType: "carbon",
		Cadence: model.CadenceDaily, Format: "pdf", Active: true,
		NextRun: now.Add(-1 * time.Hour),
	}
	earlier := &model.ScheduleDefinition{
		ID: "a-earlier", TenantID: "acme", Name: "earlier", ReportType: "water",
		Cadence: model.CadenceDaily, Format: "pdf", Active: true,
		NextRun: now.Add(-48 * time.Hour),
	}
	future := &model.ScheduleDefinition{
		ID: "c-future", TenantID: "acme", Name: "future", ReportType: "energy",
		Cadence: model.CadenceDaily, Format: "pdf", Active: true,
		NextRun: now.Add(24 * time.Hour),
	}
	inactive := &model.ScheduleDefinition{
		ID: "d-inactive", TenantID: "acme", Name: "inactive", ReportType: "energy",
		Cadence: model.CadenceDaily, Format: "pdf", Active: false,
		NextRun: now.Add(-24 * time.Hour),
	}

	for _, s := range []*model.ScheduleDefinition{later, earlier, future, inactive} {
		require.NoError(t, store.CreateSchedule(ctx, s))
	}

	due, err := store.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, "a-earlier", due[0].ID)
	require.Equal(t, "b-later", due[1].ID)
}

func TestListDue_DayGranularity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	morning := time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)

	// Due later the same day: must surface at the morning wake already.
	tonight := &model.ScheduleDefinition{
		ID: "tonight", TenantID: "acme", Name: "tonight", ReportType: "carbon",
		Cadence: model.CadenceDaily, Format: "pdf", Active: true,
		NextRun: time.Date(2024, time.June, 15, 23, 0, 0, 0, time.UTC),
	}
	tomorrow := &model.ScheduleDefinition{
		ID: "tomorrow", TenantID: "acme", Name: "tomorrow", ReportType: "water",
		Cadence: model.CadenceDaily, Format: "pdf", Active: true,
		NextRun: time.Date(2024, time.June, 16, 0, 30, 0, 0, time.UTC),
	}
	for _, s := range []*model.ScheduleDefinition{tonight, tomorrow} {
		require.NoError(t, store.CreateSchedule(ctx, s))
	}

	due, err := store.ListDue(ctx, morning)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, "tonight", due[0].ID)
}

func TestListDue_TieBrokenByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"zz", "aa", "mm"} {
		require.NoError(t, store.CreateSchedule(ctx, &model.ScheduleDefinition{
			ID: id, TenantID: "acme", Name: id, ReportType: "carbon",
			Cadence: model.CadenceDaily, Format: "pdf", Active: true,
			NextRun: now,
		}))
	}

	due, err := store.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 3)
	require.Equal(t, "aa", due[0].ID)
	require.Equal(t, "mm", due[1].ID)
	require.Equal(t, "zz", due[2].ID)
}

func TestAdvanceSchedule(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)
	schedule := &model.ScheduleDefinition{
		TenantID: "acme", Name: "monthly carbon", ReportType: "carbon",
		Cadence: model.CadenceMonthly, Format: "pdf", Active: true,
		NextRun: now,
	}
	require.NoError(t, store.CreateSchedule(ctx, schedule))

	next := now.AddDate(0, 1, 0)
	require.NoError(t, store.AdvanceSchedule(ctx, schedule.ID, now, next))

	got, err := store.GetSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRun)
	require.Equal(t, now, got.LastRun.UTC())
	require.Equal(t, next, got.NextRun.UTC())

	// Advanced schedule is no longer due.
	due, err := store.ListDue(ctx, now)
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestSetScheduleActive_SoftDeactivation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	schedule := &model.ScheduleDefinition{
		TenantID: "acme", Name: "daily", ReportType: "carbon",
		Cadence: model.CadenceDaily, Format: "pdf", Active: true,
		NextRun: now.Add(-time.Hour),
	}
	require.NoError(t, store.CreateSchedule(ctx, schedule))

	require.NoError(t, store.SetScheduleActive(ctx, schedule.ID, false))

	due, err := store.ListDue(ctx, now)
	require.NoError(t, err)
	require.Empty(t, due)

	// Row is retained, not deleted.
	got, err := store.GetSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	require.False(t, got.Active)
}

func TestGetSchedule_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSchedule(context.Background(), "missing")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "missing", notFound.ID)
}

func TestDistributionList_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	list := &model.DistributionList{
		TenantID:    "acme",
		Name:        "board",
		Description: "quarterly board distribution",
		To:          []string{"ceo@acme.example", "cfo@acme.example"},
		CC:          []string{"esg@acme.example"},
	}
	require.NoError(t, store.CreateDistributionList(ctx, list))

	got, err := store.GetDistributionList(ctx, list.ID)
	require.NoError(t, err)
	require.Equal(t, list.To, got.To)
	require.Equal(t, list.CC, got.CC)
	require.Empty(t, got.BCC)
	require.Equal(t, "board", got.Name)
}

func TestGetDistributionList_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDistributionList(context.Background(), "missing")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestJobHistory_AppendAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		outcome := model.JobOutcomeSuccess
		errMsg := ""
		if i == 1 {
			outcome = model.JobOutcomeFailure
			errMsg = "render failed"
		}
		require.NoError(t, store.AppendHistory(ctx, &model.JobHistoryEntry{
			ScheduleID: "sched-1",
			RunAt:      base.Add(time.Duration(i) * time.Hour),
			Outcome:    outcome,
			Duration:   2 * time.Second,
			Error:      errMsg,
		}))
	}

	entries, err := store.ListJobHistory(ctx, "sched-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Newest first.
	require.Equal(t, base.Add(2*time.Hour), entries[0].RunAt.UTC())
	require.Equal(t, model.JobOutcomeFailure, entries[1].Outcome)
	require.Equal(t, "render failed", entries[1].Error)

	limited, err := store.ListJobHistory(ctx, "sched-1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestDispatchLog_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordDispatch(ctx, &model.DispatchRecord{
		ScheduleID: "sched-1",
		VersionID:  "ver-1",
		Recipient:  "ceo@acme.example",
		Subject:    "carbon report - 2024-06",
		Status:     model.DispatchSent,
	}))
	require.NoError(t, store.RecordDispatch(ctx, &model.DispatchRecord{
		ScheduleID: "sched-1",
		VersionID:  "ver-1",
		Recipient:  "cfo@acme.example",
		Status:     model.DispatchFailed,
		Error:      "mailbox full",
	}))

	records, err := store.ListDispatches(ctx, "ver-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, model.DispatchSent, records[0].Status)
	require.Equal(t, "mailbox full", records[1].Error)
}

func TestApprovalStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	wf := &model.ApprovalWorkflow{
		VersionID:   "ver-1",
		Status:      model.ApprovalPendingApproval,
		SubmittedBy: "analyst",
		Approver:    "director",
		SubmittedAt: &now,
		Notes:       "first submission",
	}
	require.NoError(t, store.CreateApproval(ctx, wf))

	got, err := store.GetApprovalByVersion(ctx, "ver-1")
	require.NoError(t, err)
	require.Equal(t, model.ApprovalPendingApproval, got.Status)
	require.Equal(t, "director", got.Approver)
	require.NotNil(t, got.SubmittedAt)

	got.Status = model.ApprovalApproved
	decided := now.Add(time.Hour)
	got.DecidedAt = &decided
	require.NoError(t, store.UpdateApproval(ctx, got))

	updated, err := store.GetApproval(ctx, got.ID)
	require.NoError(t, err)
	require.Equal(t, model.ApprovalApproved, updated.Status)
	require.NotNil(t, updated.DecidedAt)
}
