package model

import (
	"time"
)

// Cadence represents the recurrence rule of a scheduled report
type Cadence string

const (
	CadenceDaily     Cadence = "daily"
	CadenceWeekly    Cadence = "weekly"
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceYearly    Cadence = "yearly"
)

// Valid reports whether c is one of the known cadences
func (c Cadence) Valid() bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly, CadenceQuarterly, CadenceYearly:
		return true
	}
	return false
}

// ScheduleDefinition represents a recurring report job
type ScheduleDefinition struct {
	ID                 string     `json:"id"`
	TenantID           string     `json:"tenant_id"`
	Name               string     `json:"name"`
	ReportType         string     `json:"report_type"`
	Cadence            Cadence    `json:"cadence"`
	Format             string     `json:"format"`
	Active             bool       `json:"active"`
	AutoDispatch       bool       `json:"auto_dispatch"`
	DistributionListID string     `json:"distribution_list_id,omitempty"`
	LastRun            *time.Time `json:"last_run,omitempty"`
	NextRun            time.Time  `json:"next_run"`
	CreatedAt          time.Time  `json:"created_at"`
}
