/*
payee.go - Payees and their income streams

PURPOSE:
  A Payee is a household member with zero or more recurring income
  streams and an optional default share percentage. Before an optional
  start date the payee is inactive: excluded from equal-split
  denominators and shown with no contribution, even when a bill's
  explicit share list names them.

PAY SCHEDULES:
  Each stream has an amount, a recurrence, and an optional contribution
  percentage. A stream with a percentage contributes that fraction of
  the payee's requirement regardless of its size ("fixed"); streams
  without one absorb the remainder in proportion to their amounts
  ("proportional", see project.go).

SEE ALSO:
  - income.go: expanding pay schedules into dated occurrences
  - project.go: fixed vs proportional contribution allocation
*/
package schedule

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAY SCHEDULE - One recurring income stream
// =============================================================================

type PaySchedule struct {
	Description string
	Amount      decimal.Decimal
	Recurrence  Recurrence

	// ContributionPercentage, when set, fixes this stream's contribution
	// to pct/100 of its own amount. When nil the stream participates in
	// proportional allocation.
	ContributionPercentage *decimal.Decimal

	// WeekendAdjustment shifts payment dates that land on weekends.
	// AdjustNone leaves them alone; bills use the household-wide option
	// instead (see ScheduleOptions).
	WeekendAdjustment WeekendAdjustment
}

func (ps PaySchedule) validate(payeeName string, i int) error {
	field := fmt.Sprintf("payee[%s].pay_schedules[%d]", payeeName, i)
	if ps.Amount.IsNegative() {
		return &ValidationError{Field: field + ".amount", Reason: "must not be negative"}
	}
	if ps.ContributionPercentage != nil {
		pct := *ps.ContributionPercentage
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return &ValidationError{
				Field:  field + ".contribution_percentage",
				Reason: fmt.Sprintf("percentage %s outside [0, 100]", pct),
			}
		}
	}
	if !ps.WeekendAdjustment.Valid() {
		return &ValidationError{
			Field:  field + ".weekend_adjustment",
			Reason: "unknown mode " + string(ps.WeekendAdjustment),
		}
	}
	if err := ps.Recurrence.Validate(); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// =============================================================================
// PAYEE
// =============================================================================

type Payee struct {
	Name string

	// DefaultSharePercentage applies to bills that do not fix a custom
	// percentage for this payee. Nil means equal-split participation.
	DefaultSharePercentage *decimal.Decimal

	// StartDate, when set, is the first date the payee contributes.
	StartDate *Date

	PaySchedules []PaySchedule
}

// ActiveOn reports whether the payee contributes on the given date.
func (p Payee) ActiveOn(d Date) bool {
	return p.StartDate == nil || p.StartDate.BeforeOrEqual(d)
}

func (p Payee) validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "payee.name", Reason: "must not be empty"}
	}
	if p.DefaultSharePercentage != nil {
		pct := *p.DefaultSharePercentage
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return &ValidationError{
				Field:  fmt.Sprintf("payee[%s].default_share_percentage", p.Name),
				Reason: fmt.Sprintf("percentage %s outside [0, 100]", pct),
			}
		}
	}
	for i, ps := range p.PaySchedules {
		if err := ps.validate(p.Name, i); err != nil {
			return err
		}
	}
	return nil
}
