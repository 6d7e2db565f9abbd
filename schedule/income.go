/*
income.go - Income occurrence expansion for a funding month

PURPOSE:
  Expands a payee's pay schedules into dated income occurrences within a
  month. Each occurrence carries its stream's contribution percentage,
  or a nil percentage marking it proportional.

DUPLICATES:
  Duplicate dates within one schedule are preserved - two payments
  adjusted onto the same Friday are still two payments.
*/
package schedule

import (
	"sort"

	"github.com/shopspring/decimal"
)

// IncomeOccurrence is one dated income payment inside a funding month.
type IncomeOccurrence struct {
	Payee  string
	Stream string
	Date   Date
	// Original is the date before weekend adjustment.
	Original Date
	Amount   decimal.Decimal

	// Percentage is the stream's fixed contribution percentage, or nil
	// for proportional allocation.
	Percentage *decimal.Decimal
}

// Fixed reports whether the occurrence has a fixed contribution
// percentage.
func (o IncomeOccurrence) Fixed() bool { return o.Percentage != nil }

// IncomeInMonth expands every pay schedule of the payee over the month.
// Month membership is judged on the weekend-adjusted payment date, using
// each schedule's own adjustment mode.
func IncomeInMonth(p Payee, m Month) ([]IncomeOccurrence, error) {
	from, to := m.Start(), m.End().AddDays(1)

	var out []IncomeOccurrence
	for _, ps := range p.PaySchedules {
		occs, err := ps.Recurrence.AdjustedOccurrences(from, to, ps.WeekendAdjustment)
		if err != nil {
			return nil, err
		}
		for _, occ := range occs {
			out = append(out, IncomeOccurrence{
				Payee:      p.Name,
				Stream:     ps.Description,
				Date:       occ.Date,
				Original:   occ.Original,
				Amount:     ps.Amount,
				Percentage: ps.ContributionPercentage,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
