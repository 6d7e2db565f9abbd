/*
aggregate.go - Monthly bill due-amount expansion

PURPOSE:
  Expands every bill's currently-effective recurrence over a target
  month and sums the matched occurrences. The per-occurrence triples
  feed the share resolver; the totals feed the projection's monthly
  rollup.

EFFECTIVE RECURRENCE:
  A bill's recurrence can change mid-stream via its price history. Each
  history entry is only expanded inside its own effective window (from
  its effective date until the next entry's), so a rhythm change takes
  effect exactly on the new entry's effective date.

MONTH MEMBERSHIP:
  Judged on the weekend-ADJUSTED date. A due-date shifted from Saturday
  the 1st back to Friday the 31st counts in the earlier month.
*/
package schedule

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DueOccurrence is one bill charge falling in a target month.
type DueOccurrence struct {
	Bill    string
	DueDate Date
	// Original is the date before weekend adjustment.
	Original Date
	Amount   decimal.Decimal
}

// dueOccurrences expands one bill over the month, honoring effective
// windows and weekend adjustment.
func dueOccurrences(b Bill, m Month, adj WeekendAdjustment) ([]DueOccurrence, error) {
	from, to := m.Start(), m.End().AddDays(1)

	var out []DueOccurrence
	for _, w := range b.effectiveWindows() {
		occs, err := w.entry.Recurrence.AdjustedOccurrences(from, to, adj)
		if err != nil {
			return nil, err
		}
		for _, occ := range occs {
			// Effectiveness is judged on the generation-time date: a
			// weekend shift moves an occurrence between months, never in
			// or out of its price entry's window.
			if occ.Original.Before(w.from) || (w.to != nil && !occ.Original.Before(*w.to)) {
				continue
			}
			out = append(out, DueOccurrence{
				Bill:     b.Name,
				DueDate:  occ.Date,
				Original: occ.Original,
				Amount:   w.entry.Amount,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

// MonthlyBillTotal sums every bill's due amounts falling in the target
// month and returns the contributing occurrences. Bills with no
// occurrence contribute zero; an empty bill set totals zero.
func MonthlyBillTotal(bills []Bill, m Month, adj WeekendAdjustment) (decimal.Decimal, []DueOccurrence, error) {
	total := decimal.Zero
	var all []DueOccurrence
	for _, b := range bills {
		occs, err := dueOccurrences(b, m, adj)
		if err != nil {
			return decimal.Zero, nil, err
		}
		for _, occ := range occs {
			total = total.Add(occ.Amount)
		}
		all = append(all, occs...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].DueDate.Equal(all[j].DueDate) {
			return all[i].DueDate.Before(all[j].DueDate)
		}
		return all[i].Bill < all[j].Bill
	})
	return total, all, nil
}
