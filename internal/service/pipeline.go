// Package service exposes the report pipeline's API to the rest of the
// application: schedule and distribution list management, manual
// triggers, engine lifecycle, the approval workflow and the read-side
// queries.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/cadence"
	"github.com/esgsuite/reportflow/internal/model"
	"github.com/esgsuite/reportflow/internal/scheduler"
	"github.com/esgsuite/reportflow/internal/storage"
	"github.com/esgsuite/reportflow/internal/workflow"
)

// ErrInvalidCadence is returned when a schedule is created with a
// cadence outside the known set
var ErrInvalidCadence = errors.New("invalid cadence")

// CreateScheduleRequest describes a new scheduled report
type CreateScheduleRequest struct {
	TenantID           string
	Name               string
	ReportType         string
	Cadence            model.Cadence
	Format             string
	AutoDispatch       bool
	DistributionListID string

	// StartDate anchors the first run; the schedule first fires one
	// cadence period after it. Zero means now.
	StartDate time.Time
}

// Pipeline is the application-facing surface of the report pipeline
type Pipeline struct {
	logger    *zap.Logger
	store     *storage.SQLiteStore
	engine    *scheduler.Engine
	workflows *workflow.Manager
	calc      *cadence.Calculator
}

// NewPipeline creates the pipeline facade
func NewPipeline(store *storage.SQLiteStore, engine *scheduler.Engine, workflows *workflow.Manager, calc *cadence.Calculator, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		logger:    logger,
		store:     store,
		engine:    engine,
		workflows: workflows,
		calc:      calc,
	}
}

// Start launches the background scheduler loop
func (p *Pipeline) Start(ctx context.Context) {
	p.engine.Start(ctx)
}

// Stop stops the background scheduler loop
func (p *Pipeline) Stop() {
	p.engine.Stop()
}

// CreateSchedule stores a new schedule. Its first run is one cadence
// period after the start date.
func (p *Pipeline) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*model.ScheduleDefinition, error) {
	if !req.Cadence.Valid() {
		return nil, ErrInvalidCadence
	}

	start := req.StartDate
	if start.IsZero() {
		start = time.Now()
	}

	schedule := &model.ScheduleDefinition{
		TenantID:           req.TenantID,
		Name:               req.Name,
		ReportType:         req.ReportType,
		Cadence:            req.Cadence,
		Format:             req.Format,
		Active:             true,
		AutoDispatch:       req.AutoDispatch,
		DistributionListID: req.DistributionListID,
		NextRun:            p.calc.NextRun(start, req.Cadence),
	}
	if err := p.store.CreateSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// GetSchedule retrieves a schedule by ID
func (p *Pipeline) GetSchedule(ctx context.Context, id string) (*model.ScheduleDefinition, error) {
	return p.store.GetSchedule(ctx, id)
}

// ListSchedules lists a tenant's schedules
func (p *Pipeline) ListSchedules(ctx context.Context, tenantID string) ([]*model.ScheduleDefinition, error) {
	return p.store.ListSchedules(ctx, tenantID)
}

// SetScheduleActive activates or soft-deactivates a schedule
func (p *Pipeline) SetScheduleActive(ctx context.Context, id string, active bool) error {
	return p.store.SetScheduleActive(ctx, id, active)
}

// CreateDistributionList stores a named recipient list
func (p *Pipeline) CreateDistributionList(ctx context.Context, tenantID, name string, to, cc, bcc []string, description string) (*model.DistributionList, error) {
	list := &model.DistributionList{
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		To:          to,
		CC:          cc,
		BCC:         bcc,
	}
	if err := p.store.CreateDistributionList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// RunNow triggers a schedule immediately, bypassing its cadence
func (p *Pipeline) RunNow(ctx context.Context, scheduleID string) (*model.JobHistoryEntry, error) {
	return p.engine.RunNow(ctx, scheduleID)
}

// SubmitForApproval sends a report version to an approver
func (p *Pipeline) SubmitForApproval(ctx context.Context, versionID, submitter, approver, notes string) (*model.ApprovalWorkflow, error) {
	return p.workflows.Submit(ctx, versionID, submitter, approver, notes)
}

// Approve records the assigned approver's approval of a version
func (p *Pipeline) Approve(ctx context.Context, versionID, approver, notes string) (*model.ApprovalWorkflow, error) {
	return p.workflows.Approve(ctx, versionID, approver, notes)
}

// Reject sends a version back for revision with a reason
func (p *Pipeline) Reject(ctx context.Context, versionID, approver, reason string) (*model.ApprovalWorkflow, error) {
	return p.workflows.Reject(ctx, versionID, approver, reason)
}

// Publish marks an approved version as published
func (p *Pipeline) Publish(ctx context.Context, versionID string) (*model.ApprovalWorkflow, error) {
	return p.workflows.Publish(ctx, versionID)
}

// Cancel cancels a version's workflow
func (p *Pipeline) Cancel(ctx context.Context, versionID string) (*model.ApprovalWorkflow, error) {
	return p.workflows.Cancel(ctx, versionID)
}

// ListVersions lists report versions for (tenant, report type), newest first
func (p *Pipeline) ListVersions(ctx context.Context, tenantID, reportType string) ([]*model.ReportVersion, error) {
	return p.store.ListVersions(ctx, tenantID, reportType)
}

// ListJobHistory lists run attempts for a schedule, newest first
func (p *Pipeline) ListJobHistory(ctx context.Context, scheduleID string, limit int) ([]*model.JobHistoryEntry, error) {
	return p.store.ListJobHistory(ctx, scheduleID, limit)
}

// ListDispatches lists per-recipient dispatch attempts for a version
func (p *Pipeline) ListDispatches(ctx context.Context, versionID string) ([]*model.DispatchRecord, error) {
	return p.store.ListDispatches(ctx, versionID)
}
