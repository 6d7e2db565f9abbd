package schedule

// FundingMonth maps a bill due-date to the income month that pays for it.
// Due-dates after the cutoff day are funded by their own month; dates on
// or before it are funded by the prior calendar month (wrapping year
// boundaries, e.g. January 15 -> previous December).
//
// This is a pure, stateless function with no other engine dependencies;
// the schedule-config diagnostic calls it directly.
func FundingMonth(due Date, cutoffDay int) Month {
	m := due.MonthOf()
	if due.Day() > cutoffDay {
		return m
	}
	return m.Prev()
}
