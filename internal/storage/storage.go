// Package storage persists the report pipeline's entities in SQLite:
// schedules, distribution lists, report versions, approval workflows,
// job history and the per-recipient dispatch log.
package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/model"
)

// ScheduleStore defines the interface for schedule persistence
type ScheduleStore interface {
	// CreateSchedule stores a new schedule definition
	CreateSchedule(ctx context.Context, schedule *model.ScheduleDefinition) error

	// GetSchedule retrieves a schedule by ID
	GetSchedule(ctx context.Context, id string) (*model.ScheduleDefinition, error)

	// ListSchedules retrieves all schedules for a tenant
	ListSchedules(ctx context.Context, tenantID string) ([]*model.ScheduleDefinition, error)

	// ListDue retrieves active schedules whose next run falls on asOf's
	// day (UTC) or earlier, ordered by next run then ID
	ListDue(ctx context.Context, asOf time.Time) ([]*model.ScheduleDefinition, error)

	// AdvanceSchedule persists a schedule's last and next run instants
	AdvanceSchedule(ctx context.Context, id string, lastRun, nextRun time.Time) error

	// SetScheduleActive toggles a schedule's active flag (soft deactivation)
	SetScheduleActive(ctx context.Context, id string, active bool) error
}

// VersionStore defines the interface for report version persistence
type VersionStore interface {
	// RegisterVersion inserts a new version with the next version number for
	// its (tenant, report type) pair and marks it current, atomically
	RegisterVersion(ctx context.Context, version *model.ReportVersion) error

	// GetVersion retrieves a version by ID
	GetVersion(ctx context.Context, id string) (*model.ReportVersion, error)

	// ListVersions retrieves all versions for (tenant, report type), newest first
	ListVersions(ctx context.Context, tenantID, reportType string) ([]*model.ReportVersion, error)

	// CurrentVersion retrieves the version flagged current for (tenant, report type)
	CurrentVersion(ctx context.Context, tenantID, reportType string) (*model.ReportVersion, error)
}

// DistributionStore defines the interface for distribution list persistence
type DistributionStore interface {
	// CreateDistributionList stores a new distribution list
	CreateDistributionList(ctx context.Context, list *model.DistributionList) error

	// GetDistributionList resolves a list by ID
	GetDistributionList(ctx context.Context, id string) (*model.DistributionList, error)
}

// HistoryStore defines the interface for the job history and dispatch logs
type HistoryStore interface {
	// AppendHistory appends one job attempt record
	AppendHistory(ctx context.Context, entry *model.JobHistoryEntry) error

	// ListJobHistory retrieves attempts for a schedule, newest first
	ListJobHistory(ctx context.Context, scheduleID string, limit int) ([]*model.JobHistoryEntry, error)

	// RecordDispatch appends one per-recipient dispatch attempt
	RecordDispatch(ctx context.Context, record *model.DispatchRecord) error

	// ListDispatches retrieves dispatch attempts for a version
	ListDispatches(ctx context.Context, versionID string) ([]*model.DispatchRecord, error)
}

// ApprovalStore defines the interface for approval workflow persistence
type ApprovalStore interface {
	// CreateApproval stores a new workflow row
	CreateApproval(ctx context.Context, wf *model.ApprovalWorkflow) error

	// GetApproval retrieves a workflow row by ID
	GetApproval(ctx context.Context, id string) (*model.ApprovalWorkflow, error)

	// GetApprovalByVersion retrieves the workflow row for a report version
	GetApprovalByVersion(ctx context.Context, versionID string) (*model.ApprovalWorkflow, error)

	// UpdateApproval replaces a workflow row's mutable fields
	UpdateApproval(ctx context.Context, wf *model.ApprovalWorkflow) error
}

// SQLiteStore implements all pipeline stores on a single SQLite database
type SQLiteStore struct {
	logger *zap.Logger
	db     *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath
func NewSQLiteStore(logger *zap.Logger, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, storageErr("open database", err)
	}

	// One writer at a time keeps the engine loop and foreground callers
	// from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		logger: logger,
		db:     db,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initialize creates the necessary tables if they don't exist
func (s *SQLiteStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS scheduled_reports (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			report_type TEXT NOT NULL,
			cadence TEXT NOT NULL,
			format TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			auto_dispatch INTEGER NOT NULL DEFAULT 0,
			distribution_list_id TEXT,
			last_run DATETIME,
			next_run DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_scheduled_reports_due
			ON scheduled_reports(active, next_run);

		CREATE TABLE IF NOT EXISTS distribution_lists (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			recipients TEXT NOT NULL,
			cc_recipients TEXT,
			bcc_recipients TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS report_versions (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			report_type TEXT NOT NULL,
			version_number INTEGER NOT NULL,
			period TEXT NOT NULL,
			artifact_path TEXT NOT NULL,
			artifact_size INTEGER NOT NULL DEFAULT 0,
			checksum TEXT,
			change_notes TEXT,
			created_by TEXT,
			is_current INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_report_versions_key
			ON report_versions(tenant_id, report_type);

		CREATE TABLE IF NOT EXISTS report_approval_workflow (
			id TEXT PRIMARY KEY,
			version_id TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			submitted_by TEXT,
			approver TEXT,
			submitted_at DATETIME,
			decided_at DATETIME,
			notes TEXT,
			rejection_reason TEXT
		);

		CREATE TABLE IF NOT EXISTS scheduler_job_history (
			id TEXT PRIMARY KEY,
			schedule_id TEXT NOT NULL,
			run_at DATETIME NOT NULL,
			outcome TEXT NOT NULL,
			duration INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			version_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_job_history_schedule
			ON scheduler_job_history(schedule_id, run_at);

		CREATE TABLE IF NOT EXISTS report_dispatch_log (
			id TEXT PRIMARY KEY,
			schedule_id TEXT,
			version_id TEXT NOT NULL,
			recipient TEXT NOT NULL,
			subject TEXT,
			status TEXT NOT NULL,
			error TEXT,
			sent_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_dispatch_log_version
			ON report_dispatch_log(version_id);
	`)
	if err != nil {
		return storageErr("initialize schema", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
