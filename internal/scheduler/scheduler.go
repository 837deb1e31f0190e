// Package scheduler runs scheduled reports: a Runner executes a single
// job (render, register version, dispatch, record history) and an Engine
// owns the background loop that finds due schedules and advances their
// next-run instants.
package scheduler

import (
	"context"
)

// Renderer produces a report artifact for (tenant, report type, format).
// The pipeline is agnostic to report content; the renderer is the
// authority on valid report types and formats.
type Renderer interface {
	// Render generates the artifact and returns its path and size in bytes
	Render(ctx context.Context, tenantID, reportType, format string) (string, int64, error)
}

// Mailer hands one rendered artifact to one recipient. Recipient
// identifiers are opaque; validation and delivery are the mailer's
// concern.
type Mailer interface {
	// Send delivers the attachment to a single recipient
	Send(recipient, subject, body, attachmentPath string) error
}
