package model

import (
	"time"
)

// ReportVersion represents one immutable generated report artifact.
// Version numbers are strictly increasing within a (tenant, report type)
// pair, and exactly one version per pair carries IsCurrent.
type ReportVersion struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	ReportType    string    `json:"report_type"`
	VersionNumber int       `json:"version_number"`
	Period        string    `json:"period"`
	ArtifactPath  string    `json:"artifact_path"`
	ArtifactSize  int64     `json:"artifact_size"`
	Checksum      string    `json:"checksum,omitempty"`
	ChangeNotes   string    `json:"change_notes,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	IsCurrent     bool      `json:"is_current"`
	CreatedAt     time.Time `json:"created_at"`
}
