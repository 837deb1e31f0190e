package model

import (
	"time"
)

// ApprovalStatus represents the state of a report version's approval workflow
type ApprovalStatus string

const (
	ApprovalDraft           ApprovalStatus = "draft"
	ApprovalPendingApproval ApprovalStatus = "pending_approval"
	ApprovalNeedsRevision   ApprovalStatus = "needs_revision"
	ApprovalApproved        ApprovalStatus = "approved"
	ApprovalPublished       ApprovalStatus = "published"
	ApprovalCancelled       ApprovalStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s
func (s ApprovalStatus) Terminal() bool {
	return s == ApprovalPublished || s == ApprovalCancelled
}

// ApprovalWorkflow tracks the approval state of a single report version
type ApprovalWorkflow struct {
	ID              string         `json:"id"`
	VersionID       string         `json:"version_id"`
	Status          ApprovalStatus `json:"status"`
	SubmittedBy     string         `json:"submitted_by,omitempty"`
	Approver        string         `json:"approver,omitempty"`
	SubmittedAt     *time.Time     `json:"submitted_at,omitempty"`
	DecidedAt       *time.Time     `json:"decided_at,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
}
