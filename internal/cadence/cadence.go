// Package cadence computes the next run instant for a recurring report
// schedule. The arithmetic is deterministic: the same reference instant
// and cadence always yield the same result, so a schedule's next run can
// be recomputed identically at any point.
package cadence

import (
	"time"

	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/model"
)

// Calculator maps a reference instant and a cadence to the next run instant
type Calculator struct {
	logger *zap.Logger
}

// NewCalculator creates a new cadence calculator
func NewCalculator(logger *zap.Logger) *Calculator {
	return &Calculator{logger: logger}
}

// NextRun returns the instant one cadence period after ref.
//
// Monthly and quarterly recurrences keep the day-of-month, clamped to the
// last day of the target month (Jan 31 + monthly = Feb 29 in a leap year,
// Feb 28 otherwise). Yearly keeps month and day with the same clamp
// (Feb 29 + yearly = Feb 28). An unknown cadence falls back to one day.
func (c *Calculator) NextRun(ref time.Time, cad model.Cadence) time.Time {
	switch cad {
	case model.CadenceDaily:
		return ref.AddDate(0, 0, 1)
	case model.CadenceWeekly:
		return ref.AddDate(0, 0, 7)
	case model.CadenceMonthly:
		return addMonthsClamped(ref, 1)
	case model.CadenceQuarterly:
		return addMonthsClamped(ref, 3)
	case model.CadenceYearly:
		return addMonthsClamped(ref, 12)
	default:
		c.logger.Warn("Unknown cadence, defaulting to daily",
			zap.String("cadence", string(cad)),
			zap.Time("reference", ref))
		return ref.AddDate(0, 0, 1)
	}
}

// addMonthsClamped advances ref by n months, clamping the day-of-month to
// the length of the target month instead of letting it spill over.
func addMonthsClamped(ref time.Time, n int) time.Time {
	year, month, day := ref.Date()
	month += time.Month(n)
	for month > 12 {
		month -= 12
		year++
	}
	if last := daysIn(year, month); day > last {
		day = last
	}
	h, m, s := ref.Clock()
	return time.Date(year, month, day, h, m, s, ref.Nanosecond(), ref.Location())
}

// daysIn returns the number of days in the given month
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
