package schedule

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (the only precision the engine needs)
// =============================================================================

// Date is a calendar date with day granularity, always in UTC.
// The engine never deals with times of day or time zones.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in ISO form (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("unparsable date %q", s)}
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// MustDate is a test and fixture helper; it panics on a malformed date.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// MonthOf returns the calendar month containing the date.
func (d Date) MonthOf() Month { return Month{Year: d.Year(), Month: d.Month()} }

// =============================================================================
// MONTH - A (year, month) pair, the unit of projection and funding
// =============================================================================

type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month { return Month{Year: year, Month: month} }

func (m Month) AddMonths(n int) Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) Next() Month { return m.AddMonths(1) }
func (m Month) Prev() Month { return m.AddMonths(-1) }

func (m Month) Before(other Month) bool {
	return m.Year < other.Year || (m.Year == other.Year && m.Month < other.Month)
}
func (m Month) After(other Month) bool { return other.Before(m) }
func (m Month) Equal(other Month) bool { return m.Year == other.Year && m.Month == other.Month }

// Start returns the first day of the month.
func (m Month) Start() Date { return NewDate(m.Year, m.Month, 1) }

// End returns the last day of the month.
func (m Month) End() Date {
	return Date{Time: time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// Days returns the number of days in the month.
func (m Month) Days() int { return m.End().Day() }

func (m Month) Contains(d Date) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// =============================================================================
// CLAMPED MONTH ARITHMETIC
// =============================================================================

// dateInMonthClamped places anchorDay in the given month, clamping to the
// month's last day when the month is shorter (day 31 in April -> April 30).
func dateInMonthClamped(m Month, anchorDay int) Date {
	if last := m.Days(); anchorDay > last {
		anchorDay = last
	}
	return NewDate(m.Year, m.Month, anchorDay)
}
