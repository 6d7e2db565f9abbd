package schedule

// Projection length bounds and the cutoff-day range.
const (
	MinProjectionMonths = 1
	MaxProjectionMonths = 60
	MinCutoffDay        = 1
	MaxCutoffDay        = 31
)

// ScheduleOptions carries the household-wide scheduling knobs. Values are
// validated once at the boundary; engine code assumes they hold.
type ScheduleOptions struct {
	// CutoffDay decides which income month funds a bill: due-dates after
	// the cutoff are funded by their own month, on-or-before by the
	// prior month. See FundingMonth.
	CutoffDay int

	// WeekendAdjustment applies to bill due-dates that land on weekends.
	// Income dates use each pay schedule's own setting.
	WeekendAdjustment WeekendAdjustment

	// DefaultProjectionMonths is the window length used when the caller
	// does not specify one.
	DefaultProjectionMonths int
}

// DefaultOptions mirrors the defaults of the original household setup:
// cutoff on the 28th, shift back to Friday, 12-month projection.
func DefaultOptions() ScheduleOptions {
	return ScheduleOptions{
		CutoffDay:               28,
		WeekendAdjustment:       AdjustLastWorkingDay,
		DefaultProjectionMonths: 12,
	}
}

func (o ScheduleOptions) Validate() error {
	if o.CutoffDay < MinCutoffDay || o.CutoffDay > MaxCutoffDay {
		return &RangeError{What: "cutoff_day", Value: o.CutoffDay, Min: MinCutoffDay, Max: MaxCutoffDay}
	}
	if o.WeekendAdjustment != AdjustLastWorkingDay && o.WeekendAdjustment != AdjustNextWorkingDay {
		return &ValidationError{Field: "schedule_options.weekend_adjustment",
			Reason: "must be last_working_day or next_working_day"}
	}
	if o.DefaultProjectionMonths < MinProjectionMonths || o.DefaultProjectionMonths > MaxProjectionMonths {
		return &RangeError{
			What:  "default_projection_months",
			Value: o.DefaultProjectionMonths,
			Min:   MinProjectionMonths,
			Max:   MaxProjectionMonths,
		}
	}
	return nil
}
