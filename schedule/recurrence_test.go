/*
recurrence_test.go - Calendar edge cases for occurrence expansion

These tests pin down the calendar behavior the rest of the engine leans
on: day-of-month clamping, step counting from the anchor date, inclusive
end dates, and weekend shifts.
*/
package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/schedule"
)

func dates(ss ...string) []schedule.Date {
	out := make([]schedule.Date, 0, len(ss))
	for _, s := range ss {
		out = append(out, schedule.MustDate(s))
	}
	return out
}

func TestRecurrence_MonthlyDay31_ClampsToShortMonths(t *testing.T) {
	// GIVEN a monthly bill anchored to the 31st in a leap year
	r := schedule.Monthly(schedule.MustDate("2024-01-31"))

	// WHEN expanded over January through April 2024
	got, err := r.Occurrences(schedule.MustDate("2024-01-01"), schedule.MustDate("2024-05-01"))
	require.NoError(t, err)

	// THEN short months clamp to their last day (Feb 29: leap year)
	assert.Equal(t, dates("2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"), got)
}

func TestRecurrence_WindowIntersectsStartAndEnd(t *testing.T) {
	end := schedule.MustDate("2024-03-15")
	r := schedule.Recurrence{
		Kind:     schedule.RecurrenceCalendar,
		Interval: schedule.IntervalMonthly,
		Every:    1,
		Start:    schedule.MustDate("2024-02-15"),
		End:      &end,
	}

	got, err := r.Occurrences(schedule.MustDate("2024-01-01"), schedule.MustDate("2025-01-01"))
	require.NoError(t, err)

	// End is inclusive: the March 15 occurrence is the last.
	assert.Equal(t, dates("2024-02-15", "2024-03-15"), got)
}

func TestRecurrence_EveryTwoMonths_CountsFromStart(t *testing.T) {
	r := schedule.EveryNMonths(schedule.MustDate("2024-01-10"), 2)

	// The window opens mid-pattern; steps still count from the anchor.
	got, err := r.Occurrences(schedule.MustDate("2024-02-01"), schedule.MustDate("2024-08-01"))
	require.NoError(t, err)

	assert.Equal(t, dates("2024-03-10", "2024-05-10", "2024-07-10"), got)
}

func TestRecurrence_WeeklyInterval(t *testing.T) {
	r := schedule.Weekly(schedule.MustDate("2024-01-05")) // a Friday

	got, err := r.Occurrences(schedule.MustDate("2024-01-01"), schedule.MustDate("2024-02-01"))
	require.NoError(t, err)

	assert.Equal(t, dates("2024-01-05", "2024-01-12", "2024-01-19", "2024-01-26"), got)
}

func TestRecurrence_IntervalDaily_EveryN(t *testing.T) {
	r := schedule.Recurrence{
		Kind:     schedule.RecurrenceInterval,
		Interval: schedule.IntervalDaily,
		Every:    10,
		Start:    schedule.MustDate("2024-01-01"),
	}

	got, err := r.Occurrences(schedule.MustDate("2024-01-01"), schedule.MustDate("2024-02-01"))
	require.NoError(t, err)

	assert.Equal(t, dates("2024-01-01", "2024-01-11", "2024-01-21", "2024-01-31"), got)
}

func TestRecurrence_Yearly(t *testing.T) {
	r := schedule.Recurrence{
		Kind:     schedule.RecurrenceCalendar,
		Interval: schedule.IntervalYearly,
		Every:    1,
		Start:    schedule.MustDate("2023-06-15"),
	}

	got, err := r.Occurrences(schedule.MustDate("2024-01-01"), schedule.MustDate("2026-01-01"))
	require.NoError(t, err)

	assert.Equal(t, dates("2024-06-15", "2025-06-15"), got)
}

func TestRecurrence_InvalidDescriptors(t *testing.T) {
	start := schedule.MustDate("2024-05-01")
	endBefore := schedule.MustDate("2024-01-01")

	cases := map[string]schedule.Recurrence{
		"every below one": {Kind: schedule.RecurrenceInterval, Interval: schedule.IntervalDaily, Every: 0, Start: start},
		"end before start": {
			Kind: schedule.RecurrenceCalendar, Interval: schedule.IntervalMonthly, Every: 1,
			Start: start, End: &endBefore,
		},
		"missing start":    {Kind: schedule.RecurrenceCalendar, Interval: schedule.IntervalMonthly, Every: 1},
		"unknown interval": {Kind: schedule.RecurrenceCalendar, Interval: "fortnightly", Every: 1, Start: start},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Occurrences(schedule.MustDate("2024-01-01"), schedule.MustDate("2025-01-01"))
			require.Error(t, err)
			assert.ErrorIs(t, err, schedule.ErrRecurrence)
		})
	}
}

func TestAdjustWeekend(t *testing.T) {
	sat := schedule.MustDate("2024-03-16")
	require.Equal(t, time.Saturday, sat.Weekday())

	assert.Equal(t, schedule.MustDate("2024-03-15"), schedule.AdjustWeekend(sat, schedule.AdjustLastWorkingDay))
	assert.Equal(t, schedule.MustDate("2024-03-18"), schedule.AdjustWeekend(sat, schedule.AdjustNextWorkingDay))

	sun := schedule.MustDate("2024-03-17")
	assert.Equal(t, schedule.MustDate("2024-03-15"), schedule.AdjustWeekend(sun, schedule.AdjustLastWorkingDay))
	assert.Equal(t, schedule.MustDate("2024-03-18"), schedule.AdjustWeekend(sun, schedule.AdjustNextWorkingDay))

	// Weekdays and AdjustNone pass through.
	fri := schedule.MustDate("2024-03-15")
	assert.Equal(t, fri, schedule.AdjustWeekend(fri, schedule.AdjustLastWorkingDay))
	assert.Equal(t, sat, schedule.AdjustWeekend(sat, schedule.AdjustNone))
}

func TestAdjustedOccurrences_ShiftAcrossMonthBoundary(t *testing.T) {
	// GIVEN a payment on June 1, 2024 - a Saturday
	r := schedule.Monthly(schedule.MustDate("2024-06-01"))

	// WHEN expanding May with last-working-day adjustment
	got, err := r.AdjustedOccurrences(
		schedule.MustDate("2024-05-01"), schedule.MustDate("2024-06-01"),
		schedule.AdjustLastWorkingDay,
	)
	require.NoError(t, err)

	// THEN the adjusted date (May 31) belongs to May, not June
	require.Len(t, got, 1)
	assert.Equal(t, schedule.MustDate("2024-05-31"), got[0].Date)
	assert.Equal(t, schedule.MustDate("2024-06-01"), got[0].Original)

	// AND June no longer contains it
	june, err := r.AdjustedOccurrences(
		schedule.MustDate("2024-06-01"), schedule.MustDate("2024-07-01"),
		schedule.AdjustLastWorkingDay,
	)
	require.NoError(t, err)
	assert.Empty(t, june)
}

func TestFundingMonth(t *testing.T) {
	// Due after the cutoff: funded by its own month.
	assert.Equal(t, schedule.NewMonth(2024, time.January),
		schedule.FundingMonth(schedule.MustDate("2024-01-25"), 22))

	// Due on or before the cutoff: funded by the prior month.
	assert.Equal(t, schedule.NewMonth(2023, time.December),
		schedule.FundingMonth(schedule.MustDate("2024-01-15"), 22))

	// Exactly on the cutoff counts as before.
	assert.Equal(t, schedule.NewMonth(2024, time.February),
		schedule.FundingMonth(schedule.MustDate("2024-03-22"), 22))
}

func TestMonth_Arithmetic(t *testing.T) {
	jan := schedule.NewMonth(2024, time.January)
	assert.Equal(t, schedule.NewMonth(2023, time.December), jan.Prev())
	assert.Equal(t, schedule.NewMonth(2024, time.February), jan.Next())
	assert.Equal(t, schedule.NewMonth(2025, time.March), jan.AddMonths(14))
	assert.Equal(t, schedule.MustDate("2024-02-29"), schedule.NewMonth(2024, time.February).End())
	assert.True(t, jan.Contains(schedule.MustDate("2024-01-31")))
	assert.False(t, jan.Contains(schedule.MustDate("2024-02-01")))
}
