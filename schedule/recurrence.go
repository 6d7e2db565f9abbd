/*
recurrence.go - Recurrence descriptors and occurrence expansion

PURPOSE:
  Expands a recurrence descriptor into the ordered sequence of occurrence
  dates inside a window. This is the calendar core everything else builds
  on: bill due-dates, price-history windows, and income payment dates all
  come from here.

KEY CONCEPTS:
  - Calendar recurrence: anchored to the start date's day-of-month.
    A monthly bill starting Jan 31 falls on the 31st, clamped to the
    last day of shorter months (Feb 29 in a leap year, Apr 30).
  - Interval recurrence: a fixed step of N units from the start date.
  - Weekend adjustment: applied AFTER generation. Shifting can move a
    date into an adjacent calendar month; month membership is always
    judged on the adjusted date.

EDGE CASES THE TESTS PIN DOWN:
  - day 31 over Feb/Apr (clamping)
  - every > 1 steps counted from start, not from the window
  - end date is inclusive
  - Saturday/Sunday shifts to Friday or Monday by mode

SEE ALSO:
  - aggregate.go: expands bill recurrences with weekend adjustment
  - income.go: expands pay schedules (per-schedule adjustment mode)
*/
package schedule

import "time"

// =============================================================================
// RECURRENCE - Closed variant {Calendar, Interval}
// =============================================================================

type RecurrenceKind string

const (
	// RecurrenceCalendar anchors occurrences to the start date's
	// day-of-month (or weekday for sub-monthly units).
	RecurrenceCalendar RecurrenceKind = "calendar"

	// RecurrenceInterval steps a fixed N units from the start date.
	RecurrenceInterval RecurrenceKind = "interval"
)

type Interval string

const (
	IntervalDaily     Interval = "daily"
	IntervalWeekly    Interval = "weekly"
	IntervalMonthly   Interval = "monthly"
	IntervalQuarterly Interval = "quarterly"
	IntervalYearly    Interval = "yearly"
)

// monthsPer returns the month-step for month-based intervals, or 0 for
// day-based intervals.
func (i Interval) monthsPer() int {
	switch i {
	case IntervalMonthly:
		return 1
	case IntervalQuarterly:
		return 3
	case IntervalYearly:
		return 12
	default:
		return 0
	}
}

// daysPer returns the day-step for day-based intervals, or 0 for
// month-based intervals.
func (i Interval) daysPer() int {
	switch i {
	case IntervalDaily:
		return 1
	case IntervalWeekly:
		return 7
	default:
		return 0
	}
}

// Recurrence describes when something repeats. Start anchors the pattern;
// End (inclusive) bounds it when present. Every is the step multiplier
// and must be >= 1.
type Recurrence struct {
	Kind     RecurrenceKind
	Interval Interval
	Every    int
	Start    Date
	End      *Date
}

// Monthly is the most common pattern: on Start's day-of-month, every month.
func Monthly(start Date) Recurrence {
	return Recurrence{Kind: RecurrenceCalendar, Interval: IntervalMonthly, Every: 1, Start: start}
}

// EveryNMonths is a calendar pattern with a multi-month step.
func EveryNMonths(start Date, n int) Recurrence {
	return Recurrence{Kind: RecurrenceCalendar, Interval: IntervalMonthly, Every: n, Start: start}
}

// Weekly pays on Start's weekday every week.
func Weekly(start Date) Recurrence {
	return Recurrence{Kind: RecurrenceInterval, Interval: IntervalWeekly, Every: 1, Start: start}
}

func (r Recurrence) Validate() error {
	switch r.Kind {
	case RecurrenceCalendar, RecurrenceInterval:
	default:
		return &RecurrenceError{Reason: "kind must be calendar or interval"}
	}
	switch r.Interval {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalQuarterly, IntervalYearly:
	default:
		return &RecurrenceError{Reason: "unknown interval " + string(r.Interval)}
	}
	if r.Every < 1 {
		return &RecurrenceError{Reason: "every must be >= 1"}
	}
	if r.Start.IsZero() {
		return &RecurrenceError{Reason: "start date is required"}
	}
	if r.End != nil && r.End.Before(r.Start) {
		return &RecurrenceError{Reason: "end before start"}
	}
	return nil
}

// Occurrences returns the ordered, deduplicated occurrence dates in the
// [from, to) window, intersected with the recurrence's own [Start, End].
func (r Recurrence) Occurrences(from, to Date) ([]Date, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, nil
	}

	var out []Date
	emit := func(d Date) {
		if d.Before(from) || !d.Before(to) {
			return
		}
		if len(out) > 0 && out[len(out)-1].Equal(d) {
			return
		}
		out = append(out, d)
	}

	if months := r.Interval.monthsPer(); months > 0 {
		step := months * r.Every
		anchorDay := r.Start.Day()
		for k := 0; ; k++ {
			m := r.Start.MonthOf().AddMonths(k * step)
			d := dateInMonthClamped(m, anchorDay)
			if r.ended(d) || !d.Before(to) {
				break
			}
			emit(d)
		}
		return out, nil
	}

	step := r.Interval.daysPer() * r.Every
	for d := r.Start; ; d = d.AddDays(step) {
		if r.ended(d) || !d.Before(to) {
			break
		}
		emit(d)
	}
	return out, nil
}

func (r Recurrence) ended(d Date) bool {
	return r.End != nil && d.After(*r.End)
}

// =============================================================================
// WEEKEND ADJUSTMENT
// =============================================================================

type WeekendAdjustment string

const (
	// AdjustNone leaves weekend dates as they are.
	AdjustNone WeekendAdjustment = ""

	// AdjustLastWorkingDay shifts Saturday/Sunday back to Friday.
	AdjustLastWorkingDay WeekendAdjustment = "last_working_day"

	// AdjustNextWorkingDay shifts Saturday/Sunday forward to Monday.
	AdjustNextWorkingDay WeekendAdjustment = "next_working_day"
)

func (w WeekendAdjustment) Valid() bool {
	switch w {
	case AdjustNone, AdjustLastWorkingDay, AdjustNextWorkingDay:
		return true
	}
	return false
}

// AdjustWeekend shifts a weekend date to the adjacent working day.
// Weekday dates pass through untouched.
func AdjustWeekend(d Date, mode WeekendAdjustment) Date {
	if !d.IsWeekend() {
		return d
	}
	switch mode {
	case AdjustLastWorkingDay:
		if d.Weekday() == time.Saturday {
			return d.AddDays(-1)
		}
		return d.AddDays(-2) // Sunday
	case AdjustNextWorkingDay:
		if d.Weekday() == time.Saturday {
			return d.AddDays(2)
		}
		return d.AddDays(1) // Sunday
	default:
		return d
	}
}

// adjustedWindowPad widens a raw generation window so that occurrences
// shifted across a month boundary by weekend adjustment are still seen.
// Two days covers the worst case (Sunday -> Friday).
const adjustedWindowPad = 2

// AdjustedOccurrence pairs an adjusted occurrence with the date the
// recurrence originally produced, for shortfall reporting.
type AdjustedOccurrence struct {
	Date     Date
	Original Date
}

// AdjustedOccurrences expands the recurrence over [from, to) with weekend
// adjustment applied, judging window membership on the ADJUSTED date.
// Occurrences that collide after adjustment are preserved: they remain
// distinct payments.
func (r Recurrence) AdjustedOccurrences(from, to Date, mode WeekendAdjustment) ([]AdjustedOccurrence, error) {
	raw, err := r.Occurrences(from.AddDays(-adjustedWindowPad), to.AddDays(adjustedWindowPad))
	if err != nil {
		return nil, err
	}
	var out []AdjustedOccurrence
	for _, d := range raw {
		adj := AdjustWeekend(d, mode)
		if adj.Before(from) || !adj.Before(to) {
			continue
		}
		out = append(out, AdjustedOccurrence{Date: adj, Original: d})
	}
	return out, nil
}
