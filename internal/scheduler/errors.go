package scheduler

import (
	"errors"
	"fmt"
)

// ErrScheduleInactive is returned by RunNow for a deactivated schedule
var ErrScheduleInactive = errors.New("schedule is not active")

// RenderError wraps a failure of the external report renderer. The job
// attempt is recorded as failed; the schedule's cadence still advances.
type RenderError struct {
	ReportType string
	Err        error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s report: %v", e.ReportType, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// DispatchError wraps a per-recipient mail failure. It is recorded in
// the dispatch log and does not fail the job.
type DispatchError struct {
	Recipient string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s: %v", e.Recipient, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
