// Package events publishes report pipeline lifecycle events over NATS
// JetStream so the host application can react to job results, new report
// versions and approval decisions without polling the store.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/model"
)

const (
	streamName     = "REPORTS"
	streamSubjects = "reports.*"

	SubjectJobCompleted      = "reports.job"
	SubjectVersionRegistered = "reports.version"
	SubjectApprovalChanged   = "reports.approval"

	streamMaxAge = 7 * 24 * time.Hour
)

// ApprovalEvent is the payload published on approval transitions
type ApprovalEvent struct {
	VersionID string               `json:"version_id"`
	Status    model.ApprovalStatus `json:"status"`
	Actor     string               `json:"actor,omitempty"`
	At        time.Time            `json:"at"`
}

// Publisher publishes pipeline events. A nil Publisher is valid and
// publishes nothing, so event delivery stays optional.
type Publisher struct {
	logger *zap.Logger
	js     nats.JetStreamContext
}

// NewPublisher creates a publisher and ensures the REPORTS stream exists
func NewPublisher(js nats.JetStreamContext, logger *zap.Logger) (*Publisher, error) {
	_, err := js.StreamInfo(streamName)
	if err != nil {
		if err != nats.ErrStreamNotFound {
			return nil, fmt.Errorf("failed to get stream info: %w", err)
		}

		_, err = js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{streamSubjects},
			Storage:  nats.FileStorage,
			MaxAge:   streamMaxAge,
			MaxMsgs:  -1,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stream: %w", err)
		}
		logger.Info("Created event stream", zap.String("name", streamName))
	}

	return &Publisher{logger: logger, js: js}, nil
}

// JobCompleted publishes the outcome of a job attempt
func (p *Publisher) JobCompleted(entry *model.JobHistoryEntry) {
	p.publish(SubjectJobCompleted, entry)
}

// VersionRegistered publishes a newly registered report version
func (p *Publisher) VersionRegistered(version *model.ReportVersion) {
	p.publish(SubjectVersionRegistered, version)
}

// ApprovalChanged publishes an approval workflow transition
func (p *Publisher) ApprovalChanged(event *ApprovalEvent) {
	p.publish(SubjectApprovalChanged, event)
}

// publish marshals and publishes one event. Failures are logged, never
// surfaced: event delivery must not fail pipeline operations.
func (p *Publisher) publish(subject string, payload interface{}) {
	if p == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal event",
			zap.String("subject", subject),
			zap.Error(err))
		return
	}

	if _, err := p.js.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("subject", subject),
			zap.Error(err))
		return
	}

	p.logger.Debug("Published event", zap.String("subject", subject))
}
