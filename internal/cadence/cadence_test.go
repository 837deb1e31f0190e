package cadence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextRun_AllCadences(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	calc := NewCalculator(logger)

	ref := date(2024, time.March, 15)

	tests := []struct {
		cadence model.Cadence
		want    time.Time
	}{
		{model.CadenceDaily, date(2024, time.March, 16)},
		{model.CadenceWeekly, date(2024, time.March, 22)},
		{model.CadenceMonthly, date(2024, time.April, 15)},
		{model.CadenceQuarterly, date(2024, time.June, 15)},
		{model.CadenceYearly, date(2025, time.March, 15)},
	}

	for _, tt := range tests {
		t.Run(string(tt.cadence), func(t *testing.T) {
			require.Equal(t, tt.want, calc.NextRun(ref, tt.cadence))
		})
	}
}

func TestNextRun_Idempotent(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	calc := NewCalculator(logger)

	ref := date(2024, time.January, 31)
	for _, cadence := range []model.Cadence{
		model.CadenceDaily,
		model.CadenceWeekly,
		model.CadenceMonthly,
		model.CadenceQuarterly,
		model.CadenceYearly,
	} {
		first := calc.NextRun(ref, cadence)
		second := calc.NextRun(ref, cadence)
		require.Equal(t, first, second, "cadence %s must be deterministic", cadence)
	}
}

func TestNextRun_Monotonic(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	calc := NewCalculator(logger)

	for _, cadence := range []model.Cadence{
		model.CadenceDaily,
		model.CadenceWeekly,
		model.CadenceMonthly,
		model.CadenceQuarterly,
		model.CadenceYearly,
	} {
		ref := date(2023, time.November, 30)
		for i := 0; i < 24; i++ {
			next := calc.NextRun(ref, cadence)
			require.True(t, next.After(ref),
				"cadence %s: %v not after %v", cadence, next, ref)
			ref = next
		}
	}
}

func TestNextRun_MonthEndClamp(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	calc := NewCalculator(logger)

	// Jan 31 + one month clamps to the last day of February.
	require.Equal(t, date(2024, time.February, 29),
		calc.NextRun(date(2024, time.January, 31), model.CadenceMonthly))
	require.Equal(t, date(2023, time.February, 28),
		calc.NextRun(date(2023, time.January, 31), model.CadenceMonthly))

	// May 31 + monthly clamps to Jun 30.
	require.Equal(t, date(2024, time.June, 30),
		calc.NextRun(date(2024, time.May, 31), model.CadenceMonthly))
}

func TestNextRun_QuarterlyYearRollover(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	calc := NewCalculator(logger)

	require.Equal(t, date(2025, time.February, 28),
		calc.NextRun(date(2024, time.November, 30), model.CadenceQuarterly))
	require.Equal(t, date(2025, time.January, 31),
		calc.NextRun(date(2024, time.October, 31), model.CadenceQuarterly))
}

func TestNextRun_YearlyLeapDay(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	calc := NewCalculator(logger)

	require.Equal(t, date(2025, time.February, 28),
		calc.NextRun(date(2024, time.February, 29), model.CadenceYearly))
}

func TestNextRun_UnknownCadenceFallsBackToDaily(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	calc := NewCalculator(logger)

	ref := date(2024, time.March, 15)
	require.Equal(t, ref.AddDate(0, 0, 1), calc.NextRun(ref, model.Cadence("hourly")))
}

func TestNextRun_PreservesClockAndLocation(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	calc := NewCalculator(logger)

	loc := time.FixedZone("UTC+3", 3*60*60)
	ref := time.Date(2024, time.January, 31, 9, 30, 0, 0, loc)

	next := calc.NextRun(ref, model.CadenceMonthly)
	require.Equal(t, 9, next.Hour())
	require.Equal(t, 30, next.Minute())
	require.Equal(t, loc, next.Location())
	require.Equal(t, 29, next.Day())
}
