// Package workflow implements the approval state machine over report
// versions:
//
//	draft → pending_approval → approved → published
//	                         ↘ needs_revision → pending_approval (resubmit)
//	any non-terminal → cancelled
//
// Published and cancelled are terminal. Guard failures and transitions
// out of a terminal state return InvalidTransitionError without touching
// the stored row.
package workflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/events"
	"github.com/esgsuite/reportflow/internal/model"
	"github.com/esgsuite/reportflow/internal/storage"
)

// Manager drives approval workflows for report versions
type Manager struct {
	approvals storage.ApprovalStore
	versions  storage.VersionStore
	events    *events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager creates a workflow manager. publisher may be nil.
func NewManager(approvals storage.ApprovalStore, versions storage.VersionStore, publisher *events.Publisher, logger *zap.Logger) *Manager {
	return &Manager{
		approvals: approvals,
		versions:  versions,
		events:    publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns the workflow row for a version
func (m *Manager) Get(ctx context.Context, versionID string) (*model.ApprovalWorkflow, error) {
	return m.approvals.GetApprovalByVersion(ctx, versionID)
}

// Submit sends a version to its approver. A freshly registered version
// has no workflow row yet (implicit draft); submitting creates it.
// Resubmitting is allowed from needs_revision.
func (m *Manager) Submit(ctx context.Context, versionID, submitter, approver, notes string) (*model.ApprovalWorkflow, error) {
	if _, err := m.versions.GetVersion(ctx, versionID); err != nil {
		return nil, err
	}

	wf, err := m.load(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if wf.Status != model.ApprovalDraft && wf.Status != model.ApprovalNeedsRevision {
		return nil, &InvalidTransitionError{Event: "submit", State: wf.Status}
	}
	if approver == "" {
		return nil, &InvalidTransitionError{Event: "submit", State: wf.Status, Reason: "approver is required"}
	}

	now := m.now().UTC()
	wf.Status = model.ApprovalPendingApproval
	wf.SubmittedBy = submitter
	wf.Approver = approver
	wf.SubmittedAt = &now
	wf.DecidedAt = nil
	wf.Notes = notes
	wf.RejectionReason = ""

	if err := m.save(ctx, wf); err != nil {
		return nil, err
	}

	m.logger.Info("Submitted version for approval",
		zap.String("version_id", versionID),
		zap.String("approver", approver))
	m.publish(wf, submitter)
	return wf, nil
}

// Approve records the assigned approver's approval
func (m *Manager) Approve(ctx context.Context, versionID, approver, notes string) (*model.ApprovalWorkflow, error) {
	wf, err := m.approvals.GetApprovalByVersion(ctx, versionID)
	if err != nil {
		return nil, m.asDraftTransition(err, "approve")
	}

	if wf.Status != model.ApprovalPendingApproval {
		return nil, &InvalidTransitionError{Event: "approve", State: wf.Status}
	}
	if approver != wf.Approver {
		return nil, &InvalidTransitionError{Event: "approve", State: wf.Status, Reason: "not the assigned approver"}
	}

	now := m.now().UTC()
	wf.Status = model.ApprovalApproved
	wf.DecidedAt = &now
	if notes != "" {
		wf.Notes = notes
	}

	if err := m.save(ctx, wf); err != nil {
		return nil, err
	}

	m.logger.Info("Approved version", zap.String("version_id", versionID))
	m.publish(wf, approver)
	return wf, nil
}

// Reject sends the version back for revision. A reason is required.
func (m *Manager) Reject(ctx context.Context, versionID, approver, reason string) (*model.ApprovalWorkflow, error) {
	wf, err := m.approvals.GetApprovalByVersion(ctx, versionID)
	if err != nil {
		return nil, m.asDraftTransition(err, "reject")
	}

	if wf.Status != model.ApprovalPendingApproval {
		return nil, &InvalidTransitionError{Event: "reject", State: wf.Status}
	}
	if reason == "" {
		return nil, &InvalidTransitionError{Event: "reject", State: wf.Status, Reason: "rejection reason is required"}
	}

	now := m.now().UTC()
	wf.Status = model.ApprovalNeedsRevision
	wf.DecidedAt = &now
	wf.RejectionReason = reason

	if err := m.save(ctx, wf); err != nil {
		return nil, err
	}

	m.logger.Info("Rejected version",
		zap.String("version_id", versionID),
		zap.String("reason", reason))
	m.publish(wf, approver)
	return wf, nil
}

// Publish marks an approved version as published (terminal)
func (m *Manager) Publish(ctx context.Context, versionID string) (*model.ApprovalWorkflow, error) {
	wf, err := m.approvals.GetApprovalByVersion(ctx, versionID)
	if err != nil {
		return nil, m.asDraftTransition(err, "publish")
	}

	if wf.Status != model.ApprovalApproved {
		return nil, &InvalidTransitionError{Event: "publish", State: wf.Status}
	}

	wf.Status = model.ApprovalPublished
	if err := m.save(ctx, wf); err != nil {
		return nil, err
	}

	m.logger.Info("Published version", zap.String("version_id", versionID))
	m.publish(wf, "")
	return wf, nil
}

// Cancel moves any non-terminal workflow to cancelled (terminal).
// Cancelling an already-cancelled workflow is a no-op; cancelling a
// published one is an error.
func (m *Manager) Cancel(ctx context.Context, versionID string) (*model.ApprovalWorkflow, error) {
	wf, err := m.load(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if wf.Status == model.ApprovalCancelled {
		return wf, nil
	}
	if wf.Status == model.ApprovalPublished {
		return nil, &InvalidTransitionError{Event: "cancel", State: wf.Status}
	}

	now := m.now().UTC()
	wf.Status = model.ApprovalCancelled
	wf.DecidedAt = &now

	if err := m.save(ctx, wf); err != nil {
		return nil, err
	}

	m.logger.Info("Cancelled workflow", zap.String("version_id", versionID))
	m.publish(wf, "")
	return wf, nil
}

// load fetches the workflow row for a version, materializing the
// implicit draft when none exists yet. The draft row is not persisted
// until a transition succeeds.
func (m *Manager) load(ctx context.Context, versionID string) (*model.ApprovalWorkflow, error) {
	wf, err := m.approvals.GetApprovalByVersion(ctx, versionID)
	if err == nil {
		return wf, nil
	}
	var notFound *storage.NotFoundError
	if errors.As(err, &notFound) {
		return &model.ApprovalWorkflow{
			VersionID: versionID,
			Status:    model.ApprovalDraft,
		}, nil
	}
	return nil, err
}

// save creates or updates the workflow row
func (m *Manager) save(ctx context.Context, wf *model.ApprovalWorkflow) error {
	if wf.ID == "" {
		return m.approvals.CreateApproval(ctx, wf)
	}
	return m.approvals.UpdateApproval(ctx, wf)
}

// asDraftTransition converts "no workflow row" into the transition error
// the caller would see from an implicit draft. Approving, rejecting or
// publishing a never-submitted version is an invalid transition, not a
// lookup failure.
func (m *Manager) asDraftTransition(err error, event string) error {
	var notFound *storage.NotFoundError
	if errors.As(err, &notFound) {
		return &InvalidTransitionError{Event: event, State: model.ApprovalDraft}
	}
	return err
}

func (m *Manager) publish(wf *model.ApprovalWorkflow, actor string) {
	m.events.ApprovalChanged(&events.ApprovalEvent{
		VersionID: wf.VersionID,
		Status:    wf.Status,
		Actor:     actor,
		At:        m.now().UTC(),
	})
}
