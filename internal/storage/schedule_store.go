package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/model"
)

const scheduleColumns = `id, tenant_id, name, report_type, cadence, format,
	active, auto_dispatch, distribution_list_id, last_run, next_run, created_at`

// CreateSchedule implements ScheduleStore.CreateSchedule
func (s *SQLiteStore) CreateSchedule(ctx context.Context, schedule *model.ScheduleDefinition) error {
	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_reports (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.ID,
		schedule.TenantID,
		schedule.Name,
		schedule.ReportType,
		string(schedule.Cadence),
		schedule.Format,
		schedule.Active,
		schedule.AutoDispatch,
		sql.NullString{String: schedule.DistributionListID, Valid: schedule.DistributionListID != ""},
		nullTime(schedule.LastRun),
		schedule.NextRun.UTC(),
		schedule.CreatedAt.UTC(),
	)
	if err != nil {
		return storageErr("create schedule", err)
	}

	s.logger.Info("Created schedule",
		zap.String("id", schedule.ID),
		zap.String("name", schedule.Name),
		zap.String("cadence", string(schedule.Cadence)),
		zap.Time("next_run", schedule.NextRun))
	return nil
}

// GetSchedule implements ScheduleStore.GetSchedule
func (s *SQLiteStore) GetSchedule(ctx context.Context, id string) (*model.ScheduleDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM scheduled_reports WHERE id = ?`, id)

	schedule, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "schedule", ID: id}
	}
	if err != nil {
		return nil, storageErr("get schedule", err)
	}
	return schedule, nil
}

// ListSchedules implements ScheduleStore.ListSchedules
func (s *SQLiteStore) ListSchedules(ctx context.Context, tenantID string) ([]*model.ScheduleDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM scheduled_reports
		 WHERE tenant_id = ? ORDER BY created_at, id`, tenantID)
	if err != nil {
		return nil, storageErr("list schedules", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// ListDue implements ScheduleStore.ListDue. Due is resolved at day
// granularity: a schedule whose next run falls anywhere on asOf's day
// (UTC) or earlier is due, whatever its clock time, so the first wake of
// the day picks it up. The ordering (next run, then ID) keeps a single
// engine pass deterministic.
func (s *SQLiteStore) ListDue(ctx context.Context, asOf time.Time) ([]*model.ScheduleDefinition, error) {
	dayEnd := asOf.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM scheduled_reports
		 WHERE active = 1 AND next_run < ?
		 ORDER BY next_run, id`, dayEnd)
	if err != nil {
		return nil, storageErr("list due schedules", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// AdvanceSchedule implements ScheduleStore.AdvanceSchedule
func (s *SQLiteStore) AdvanceSchedule(ctx context.Context, id string, lastRun, nextRun time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_reports SET last_run = ?, next_run = ? WHERE id = ?`,
		lastRun.UTC(), nextRun.UTC(), id)
	if err != nil {
		return storageErr("advance schedule", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "schedule", ID: id}
	}
	return nil
}

// SetScheduleActive implements ScheduleStore.SetScheduleActive
func (s *SQLiteStore) SetScheduleActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_reports SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return storageErr("set schedule active", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "schedule", ID: id}
	}

	s.logger.Info("Updated schedule active flag",
		zap.String("id", id),
		zap.Bool("active", active))
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row rowScanner) (*model.ScheduleDefinition, error) {
	var schedule model.ScheduleDefinition
	var cadence string
	var listID sql.NullString
	var lastRun sql.NullTime

	err := row.Scan(
		&schedule.ID,
		&schedule.TenantID,
		&schedule.Name,
		&schedule.ReportType,
		&cadence,
		&schedule.Format,
		&schedule.Active,
		&schedule.AutoDispatch,
		&listID,
		&lastRun,
		&schedule.NextRun,
		&schedule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	schedule.Cadence = model.Cadence(cadence)
	if listID.Valid {
		schedule.DistributionListID = listID.String
	}
	if lastRun.Valid {
		schedule.LastRun = &lastRun.Time
	}
	return &schedule, nil
}

func collectSchedules(rows *sql.Rows) ([]*model.ScheduleDefinition, error) {
	var schedules []*model.ScheduleDefinition
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, storageErr("scan schedule", err)
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate schedules", err)
	}
	return schedules, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
