package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/model"
)

const versionColumns = `id, tenant_id, report_type, version_number, period,
	artifact_path, artifact_size, checksum, change_notes, created_by, is_current, created_at`

// RegisterVersion implements VersionStore.RegisterVersion. The version
// number assignment, the demotion of the prior current version and the
// insert happen in one transaction so that exactly one row per
// (tenant, report type) carries is_current at any time.
func (v *SQLiteStore) RegisterVersion(ctx context.Context, version *model.ReportVersion) error {
	if version.ID == "" {
		version.ID = uuid.New().String()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}
	if version.Period == "" {
		version.Period = version.CreatedAt.Format("2006-01")
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin register version", err)
	}
	defer tx.Rollback()

	var maxVersion int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version_number), 0) FROM report_versions
		WHERE tenant_id = ? AND report_type = ?`,
		version.TenantID, version.ReportType).Scan(&maxVersion)
	if err != nil {
		return storageErr("read max version", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE report_versions SET is_current = 0
		WHERE tenant_id = ? AND report_type = ? AND is_current = 1`,
		version.TenantID, version.ReportType)
	if err != nil {
		return storageErr("demote current version", err)
	}

	version.VersionNumber = maxVersion + 1
	version.IsCurrent = true

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_versions (`+versionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		version.ID,
		version.TenantID,
		version.ReportType,
		version.VersionNumber,
		version.Period,
		version.ArtifactPath,
		version.ArtifactSize,
		sql.NullString{String: version.Checksum, Valid: version.Checksum != ""},
		sql.NullString{String: version.ChangeNotes, Valid: version.ChangeNotes != ""},
		sql.NullString{String: version.CreatedBy, Valid: version.CreatedBy != ""},
		version.IsCurrent,
		version.CreatedAt.UTC(),
	)
	if err != nil {
		return storageErr("insert version", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit register version", err)
	}

	v.logger.Info("Registered report version",
		zap.String("id", version.ID),
		zap.String("tenant_id", version.TenantID),
		zap.String("report_type", version.ReportType),
		zap.Int("version", version.VersionNumber))
	return nil
}

// GetVersion implements VersionStore.GetVersion
func (v *SQLiteStore) GetVersion(ctx context.Context, id string) (*model.ReportVersion, error) {
	row := v.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM report_versions WHERE id = ?`, id)

	version, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "report version", ID: id}
	}
	if err != nil {
		return nil, storageErr("get version", err)
	}
	return version, nil
}

// ListVersions implements VersionStore.ListVersions
func (v *SQLiteStore) ListVersions(ctx context.Context, tenantID, reportType string) ([]*model.ReportVersion, error) {
	rows, err := v.db.QueryContext(ctx,
		`SELECT `+versionColumns+` FROM report_versions
		 WHERE tenant_id = ? AND report_type = ?
		 ORDER BY version_number DESC`, tenantID, reportType)
	if err != nil {
		return nil, storageErr("list versions", err)
	}
	defer rows.Close()

	var versions []*model.ReportVersion
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, storageErr("scan version", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate versions", err)
	}
	return versions, nil
}

// CurrentVersion implements VersionStore.CurrentVersion
func (v *SQLiteStore) CurrentVersion(ctx context.Context, tenantID, reportType string) (*model.ReportVersion, error) {
	row := v.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM report_versions
		 WHERE tenant_id = ? AND report_type = ? AND is_current = 1`,
		tenantID, reportType)

	version, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "current version", ID: fmt.Sprintf("%s/%s", tenantID, reportType)}
	}
	if err != nil {
		return nil, storageErr("get current version", err)
	}
	return version, nil
}

func scanVersion(row rowScanner) (*model.ReportVersion, error) {
	var version model.ReportVersion
	var checksum, changeNotes, createdBy sql.NullString

	err := row.Scan(
		&version.ID,
		&version.TenantID,
		&version.ReportType,
		&version.VersionNumber,
		&version.Period,
		&version.ArtifactPath,
		&version.ArtifactSize,
		&checksum,
		&changeNotes,
		&createdBy,
		&version.IsCurrent,
		&version.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	version.Checksum = checksum.String
	version.ChangeNotes = changeNotes.String
	version.CreatedBy = createdBy.String
	return &version, nil
}
