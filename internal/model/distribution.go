package model

import (
	"time"
)

// DistributionList is a named set of report recipients for one tenant.
// Recipient identifiers are opaque to the pipeline; deliverability is
// the mailer's concern.
type DistributionList struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	To          []string  `json:"to"`
	CC          []string  `json:"cc,omitempty"`
	BCC         []string  `json:"bcc,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
