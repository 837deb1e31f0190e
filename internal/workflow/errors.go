package workflow

import (
	"fmt"

	"github.com/esgsuite/reportflow/internal/model"
)

// InvalidTransitionError is returned when a workflow event is not legal
// from the current state or one of its guards fails. The workflow row is
// left unchanged.
type InvalidTransitionError struct {
	Event  string
	State  model.ApprovalStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition: %s from %s: %s", e.Event, e.State, e.Reason)
	}
	return fmt.Sprintf("invalid transition: %s from %s", e.Event, e.State)
}
