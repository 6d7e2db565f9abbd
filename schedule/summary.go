/*
summary.go - Payment planning summary

PURPOSE:
  Derives per-payee planning figures from the allocator's output: the
  lightest and heaviest months across the projection window, and whether
  the required contribution is flat enough to set up a fixed standing
  order.
*/
package schedule

import "github.com/shopspring/decimal"

// PayeeSummary is the per-payee contribution range over the projection
// window. Min/Max are the monthly required totals; MinMonths/MaxMonths
// list every month achieving them. Consistent is true when all active
// months agree within a cent.
type PayeeSummary struct {
	Payee      string
	Min        decimal.Decimal
	Max        decimal.Decimal
	MinMonths  []Month
	MaxMonths  []Month
	Consistent bool
}

// summarize computes the contribution range per payee. Only months where
// the payee is active count; a payee inactive for the whole window gets
// no summary. Months with no dues count as zero-contribution months.
func summarize(entries []MonthlyScheduleEntry, payees []Payee, start Month, months int) []PayeeSummary {
	totals := make(map[string]map[Month]decimal.Decimal)
	for _, e := range entries {
		for _, ps := range e.PerPayee {
			if totals[ps.Payee] == nil {
				totals[ps.Payee] = make(map[Month]decimal.Decimal)
			}
			totals[ps.Payee][e.Month] = totals[ps.Payee][e.Month].Add(ps.ShareAmount)
		}
	}

	var out []PayeeSummary
	for _, p := range payees {
		s := PayeeSummary{Payee: p.Name}
		seen := false
		for i := 0; i < months; i++ {
			m := start.AddMonths(i)
			if !p.ActiveOn(m.End()) {
				continue
			}
			total := totals[p.Name][m]

			if !seen {
				s.Min, s.Max = total, total
				s.MinMonths, s.MaxMonths = []Month{m}, []Month{m}
				seen = true
				continue
			}
			switch {
			case total.LessThan(s.Min):
				s.Min, s.MinMonths = total, []Month{m}
			case total.Equal(s.Min):
				s.MinMonths = append(s.MinMonths, m)
			}
			switch {
			case total.GreaterThan(s.Max):
				s.Max, s.MaxMonths = total, []Month{m}
			case total.Equal(s.Max):
				s.MaxMonths = append(s.MaxMonths, m)
			}
		}
		if !seen {
			continue
		}
		s.Consistent = s.Max.Sub(s.Min).LessThanOrEqual(centTolerance)
		out = append(out, s)
	}
	return out
}
