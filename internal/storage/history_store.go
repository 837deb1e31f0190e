package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/esgsuite/reportflow/internal/model"
)

// AppendHistory implements HistoryStore.AppendHistory
func (s *SQLiteStore) AppendHistory(ctx context.Context, entry *model.JobHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.RunAt.IsZero() {
		entry.RunAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduler_job_history
		(id, schedule_id, run_at, outcome, duration, error, version_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ScheduleID,
		entry.RunAt.UTC(),
		string(entry.Outcome),
		int64(entry.Duration),
		sql.NullString{String: entry.Error, Valid: entry.Error != ""},
		sql.NullString{String: entry.VersionID, Valid: entry.VersionID != ""},
	)
	if err != nil {
		return storageErr("append job history", err)
	}
	return nil
}

// ListJobHistory implements HistoryStore.ListJobHistory. A limit of zero
// or less means no limit.
func (s *SQLiteStore) ListJobHistory(ctx context.Context, scheduleID string, limit int) ([]*model.JobHistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schedule_id, run_at, outcome, duration, error, version_id
		FROM scheduler_job_history
		WHERE schedule_id = ?
		ORDER BY run_at DESC, id DESC
		LIMIT ?`, scheduleID, limit)
	if err != nil {
		return nil, storageErr("list job history", err)
	}
	defer rows.Close()

	var entries []*model.JobHistoryEntry
	for rows.Next() {
		var entry model.JobHistoryEntry
		var outcome string
		var duration int64
		var errMsg, versionID sql.NullString

		err := rows.Scan(
			&entry.ID,
			&entry.ScheduleID,
			&entry.RunAt,
			&outcome,
			&duration,
			&errMsg,
			&versionID,
		)
		if err != nil {
			return nil, storageErr("scan job history", err)
		}

		entry.Outcome = model.JobOutcome(outcome)
		entry.Duration = time.Duration(duration)
		entry.Error = errMsg.String
		entry.VersionID = versionID.String
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate job history", err)
	}
	return entries, nil
}

// RecordDispatch implements HistoryStore.RecordDispatch
func (s *SQLiteStore) RecordDispatch(ctx context.Context, record *model.DispatchRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.SentAt.IsZero() {
		record.SentAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_dispatch_log
		(id, schedule_id, version_id, recipient, subject, status, error, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		sql.NullString{String: record.ScheduleID, Valid: record.ScheduleID != ""},
		record.VersionID,
		record.Recipient,
		sql.NullString{String: record.Subject, Valid: record.Subject != ""},
		string(record.Status),
		sql.NullString{String: record.Error, Valid: record.Error != ""},
		record.SentAt.UTC(),
	)
	if err != nil {
		return storageErr("record dispatch", err)
	}
	return nil
}

// ListDispatches implements HistoryStore.ListDispatches
func (s *SQLiteStore) ListDispatches(ctx context.Context, versionID string) ([]*model.DispatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schedule_id, version_id, recipient, subject, status, error, sent_at
		FROM report_dispatch_log
		WHERE version_id = ?
		ORDER BY sent_at, id`, versionID)
	if err != nil {
		return nil, storageErr("list dispatches", err)
	}
	defer rows.Close()

	var records []*model.DispatchRecord
	for rows.Next() {
		var record model.DispatchRecord
		var scheduleID, subject, errMsg sql.NullString
		var status string

		err := rows.Scan(
			&record.ID,
			&scheduleID,
			&record.VersionID,
			&record.Recipient,
			&subject,
			&status,
			&errMsg,
			&record.SentAt,
		)
		if err != nil {
			return nil, storageErr("scan dispatch record", err)
		}

		record.ScheduleID = scheduleID.String
		record.Subject = subject.String
		record.Status = model.DispatchStatus(status)
		record.Error = errMsg.String
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate dispatch records", err)
	}
	return records, nil
}
