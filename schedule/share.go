/*
share.go - Per-payee percentage resolution for a bill

PURPOSE:
  Computes each active payee's percentage of a bill for one due-date.
  Every caller goes through this single resolver so tie-breaks and
  validation behave identically everywhere.

ALGORITHM (in order):
  1. Explicit list: listed percentages used directly; must total 100.
  2. Otherwise remove excluded and inactive payees from the active set.
  3. Apply the bill's custom percentages to payees still in the set.
  4. Apply payee default percentages to the rest.
  5. Split whatever remains equally among payees with neither; if none
     remain and the remainder is not zero, the configuration cannot be
     reconciled -> AllocationError.

ACTIVITY:
  A payee is active for a due-date when their start date is on or before
  it (or unset). Inactive payees never appear in the output, even when
  an explicit list names them.
*/
package schedule

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ResolveShares returns the payee -> percentage mapping for one bill
// due-date, covering exactly the active payee set. Multiplying each
// percentage by the occurrence amount / 100 yields the payee's due share.
func ResolveShares(b Bill, payees []Payee, due Date) (map[string]decimal.Decimal, error) {
	active := make([]Payee, 0, len(payees))
	for _, p := range payees {
		if p.ActiveOn(due) {
			active = append(active, p)
		}
	}

	if b.Share.Mode == ShareExplicit {
		return resolveExplicit(b, active, due)
	}

	// Drop bill-level exclusions.
	eligible := active[:0:0]
	for _, p := range active {
		if !b.Share.excludes(p.Name) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		// Nobody pays this bill on this date.
		return map[string]decimal.Decimal{}, nil
	}

	shares := make(map[string]decimal.Decimal, len(eligible))
	remainder := hundred
	var unassigned []Payee

	// Bill-level custom percentages first.
	for _, p := range eligible {
		if pct, ok := b.Share.Percentages[p.Name]; ok {
			shares[p.Name] = pct
			remainder = remainder.Sub(pct)
		} else {
			unassigned = append(unassigned, p)
		}
	}

	// Payee defaults next.
	var equalSplit []Payee
	for _, p := range unassigned {
		if p.DefaultSharePercentage != nil {
			shares[p.Name] = *p.DefaultSharePercentage
			remainder = remainder.Sub(*p.DefaultSharePercentage)
		} else {
			equalSplit = append(equalSplit, p)
		}
	}

	// Equal split of the remainder.
	switch {
	case len(equalSplit) > 0:
		if remainder.IsNegative() && remainder.Abs().GreaterThan(percentTolerance) {
			return nil, &AllocationError{
				Month:  due.MonthOf(),
				Bill:   b.Name,
				Reason: fmt.Sprintf("custom and default percentages total %s, exceeding 100", hundred.Sub(remainder)),
			}
		}
		each := remainder.Div(decimal.NewFromInt(int64(len(equalSplit))))
		for _, p := range equalSplit {
			shares[p.Name] = each
		}
	case remainder.Abs().GreaterThan(percentTolerance):
		return nil, &AllocationError{
			Month:  due.MonthOf(),
			Bill:   b.Name,
			Reason: fmt.Sprintf("percentages total %s with no payee left to absorb the remainder", hundred.Sub(remainder)),
		}
	}

	return shares, nil
}

func resolveExplicit(b Bill, active []Payee, due Date) (map[string]decimal.Decimal, error) {
	total := decimal.Zero
	for _, pct := range b.Share.Percentages {
		total = total.Add(pct)
	}
	if total.Sub(hundred).Abs().GreaterThan(percentTolerance) {
		return nil, &AllocationError{
			Month:  due.MonthOf(),
			Bill:   b.Name,
			Reason: fmt.Sprintf("explicit percentages total %s, must total 100", total),
		}
	}

	shares := make(map[string]decimal.Decimal, len(active))
	for _, p := range active {
		if pct, ok := b.Share.Percentages[p.Name]; ok {
			shares[p.Name] = pct
		} else {
			shares[p.Name] = decimal.Zero
		}
	}
	return shares, nil
}
