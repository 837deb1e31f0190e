package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/esgsuite/reportflow/internal/model"
)

const approvalColumns = `id, version_id, status, submitted_by, approver,
	submitted_at, decided_at, notes, rejection_reason`

// CreateApproval implements ApprovalStore.CreateApproval
func (s *SQLiteStore) CreateApproval(ctx context.Context, wf *model.ApprovalWorkflow) error {
	if wf.ID == "" {
		wf.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_approval_workflow (`+approvalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wf.ID,
		wf.VersionID,
		string(wf.Status),
		sql.NullString{String: wf.SubmittedBy, Valid: wf.SubmittedBy != ""},
		sql.NullString{String: wf.Approver, Valid: wf.Approver != ""},
		nullTime(wf.SubmittedAt),
		nullTime(wf.DecidedAt),
		sql.NullString{String: wf.Notes, Valid: wf.Notes != ""},
		sql.NullString{String: wf.RejectionReason, Valid: wf.RejectionReason != ""},
	)
	if err != nil {
		return storageErr("create approval workflow", err)
	}
	return nil
}

// GetApproval implements ApprovalStore.GetApproval
func (s *SQLiteStore) GetApproval(ctx context.Context, id string) (*model.ApprovalWorkflow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+approvalColumns+` FROM report_approval_workflow WHERE id = ?`, id)

	wf, err := scanApproval(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "approval workflow", ID: id}
	}
	if err != nil {
		return nil, storageErr("get approval workflow", err)
	}
	return wf, nil
}

// GetApprovalByVersion implements ApprovalStore.GetApprovalByVersion
func (s *SQLiteStore) GetApprovalByVersion(ctx context.Context, versionID string) (*model.ApprovalWorkflow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+approvalColumns+` FROM report_approval_workflow WHERE version_id = ?`, versionID)

	wf, err := scanApproval(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "approval workflow for version", ID: versionID}
	}
	if err != nil {
		return nil, storageErr("get approval workflow by version", err)
	}
	return wf, nil
}

// UpdateApproval implements ApprovalStore.UpdateApproval
func (s *SQLiteStore) UpdateApproval(ctx context.Context, wf *model.ApprovalWorkflow) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE report_approval_workflow SET
			status = ?,
			submitted_by = ?,
			approver = ?,
			submitted_at = ?,
			decided_at = ?,
			notes = ?,
			rejection_reason = ?
		WHERE id = ?`,
		string(wf.Status),
		sql.NullString{String: wf.SubmittedBy, Valid: wf.SubmittedBy != ""},
		sql.NullString{String: wf.Approver, Valid: wf.Approver != ""},
		nullTime(wf.SubmittedAt),
		nullTime(wf.DecidedAt),
		sql.NullString{String: wf.Notes, Valid: wf.Notes != ""},
		sql.NullString{String: wf.RejectionReason, Valid: wf.RejectionReason != ""},
		wf.ID,
	)
	if err != nil {
		return storageErr("update approval workflow", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "approval workflow", ID: wf.ID}
	}
	return nil
}

func scanApproval(row rowScanner) (*model.ApprovalWorkflow, error) {
	var wf model.ApprovalWorkflow
	var status string
	var submittedBy, approver, notes, reason sql.NullString
	var submittedAt, decidedAt sql.NullTime

	err := row.Scan(
		&wf.ID,
		&wf.VersionID,
		&status,
		&submittedBy,
		&approver,
		&submittedAt,
		&decidedAt,
		&notes,
		&reason,
	)
	if err != nil {
		return nil, err
	}

	wf.Status = model.ApprovalStatus(status)
	wf.SubmittedBy = submittedBy.String
	wf.Approver = approver.String
	wf.Notes = notes.String
	wf.RejectionReason = reason.String
	if submittedAt.Valid {
		wf.SubmittedAt = &submittedAt.Time
	}
	if decidedAt.Valid {
		wf.DecidedAt = &decidedAt.Time
	}
	return &wf, nil
}
