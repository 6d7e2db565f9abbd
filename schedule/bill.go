/*
bill.go - Bills, price history, and sharing rules

PURPOSE:
  A Bill is a recurring obligation with a price history and a sharing
  rule. The price history answers "how much, and on what rhythm, on this
  date"; the ShareConfig answers "who pays what fraction of it".

PRICE HISTORY:
  An ordered list of {amount, effective date, recurrence} entries. The
  entry in effect on a date is the last one whose effective date is on or
  before it. Before the first entry the bill is inactive (no charge).
  The list is re-sorted on construction - callers never have to pre-sort.

SHARE CONFIG:
  A closed variant:
    ShareEqual    - equal split among active payees (the default)
    ShareExclude  - named payees excluded, the rest split equally
    ShareCustom   - named percentages plus optional exclusions; unlisted
                    payees split the remainder
    ShareExplicit - a full payee->percentage map that must total 100

SEE ALSO:
  - share.go: the five-step percentage resolution algorithm
  - aggregate.go: monthly due-amount expansion
*/
package schedule

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRICE HISTORY
// =============================================================================

// PriceHistoryEntry records a bill's amount and recurrence from an
// effective date onward, until superseded by a later entry.
type PriceHistoryEntry struct {
	Amount        decimal.Decimal
	EffectiveDate Date
	Recurrence    Recurrence
}

// =============================================================================
// BILL
// =============================================================================

type Bill struct {
	Name         string
	PriceHistory []PriceHistoryEntry
	Share        ShareConfig
}

// NewBill builds a bill with its price history sorted by effective date.
// The sort is stable so that entries sharing an effective date keep their
// listed order, and the later-listed one wins (see PriceOn).
func NewBill(name string, history []PriceHistoryEntry, share ShareConfig) Bill {
	b := Bill{Name: name, PriceHistory: append([]PriceHistoryEntry(nil), history...), Share: share}
	b.sortHistory()
	return b
}

func (b *Bill) sortHistory() {
	sort.SliceStable(b.PriceHistory, func(i, j int) bool {
		return b.PriceHistory[i].EffectiveDate.Before(b.PriceHistory[j].EffectiveDate)
	})
}

func (b Bill) validate() error {
	if b.Name == "" {
		return &ValidationError{Field: "bill.name", Reason: "must not be empty"}
	}
	if len(b.PriceHistory) == 0 {
		return &ValidationError{
			Field:  fmt.Sprintf("bill[%s].price_history", b.Name),
			Reason: "must have at least one entry",
		}
	}
	for i, e := range b.PriceHistory {
		field := fmt.Sprintf("bill[%s].price_history[%d]", b.Name, i)
		if e.Amount.IsNegative() {
			return &ValidationError{Field: field + ".amount", Reason: "must not be negative"}
		}
		if e.EffectiveDate.IsZero() {
			return &ValidationError{Field: field + ".effective_date", Reason: "is required"}
		}
		if err := e.Recurrence.Validate(); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return b.Share.validate(b.Name)
}

// duplicateEffectiveDates reports effective dates shared by more than one
// entry. Accepted (later-listed wins) but flagged: it usually signals a
// configuration mistake.
func (b Bill) duplicateEffectiveDates() []Date {
	var dups []Date
	for i := 1; i < len(b.PriceHistory); i++ {
		if b.PriceHistory[i].EffectiveDate.Equal(b.PriceHistory[i-1].EffectiveDate) {
			d := b.PriceHistory[i].EffectiveDate
			if len(dups) == 0 || !dups[len(dups)-1].Equal(d) {
				dups = append(dups, d)
			}
		}
	}
	return dups
}

// =============================================================================
// PRICE RESOLVER
// =============================================================================

// PriceOn selects the price-history entry in effect on the given date:
// the last entry with an effective date on or before it. The second
// return is false when the bill is inactive on that date.
//
// Assumes the history is sorted (NewBill and the Projector both sort).
// Entries sharing an effective date resolve to the later-listed one.
func (b Bill) PriceOn(d Date) (PriceHistoryEntry, bool) {
	var (
		found PriceHistoryEntry
		ok    bool
	)
	for _, e := range b.PriceHistory {
		if e.EffectiveDate.After(d) {
			break
		}
		found, ok = e, true
	}
	return found, ok
}

// effectiveWindows pairs each history entry with the window in which it is
// the effective one: from its own effective date (exclusive end at the
// next entry's). The last entry's window is open-ended.
type effectiveWindow struct {
	entry PriceHistoryEntry
	from  Date
	to    *Date // exclusive; nil = open
}

func (b Bill) effectiveWindows() []effectiveWindow {
	var ws []effectiveWindow
	for i, e := range b.PriceHistory {
		w := effectiveWindow{entry: e, from: e.EffectiveDate}
		// Later-listed wins on equal dates: an entry superseded at its own
		// effective date gets an empty window.
		for j := i + 1; j < len(b.PriceHistory); j++ {
			next := b.PriceHistory[j].EffectiveDate
			w.to = &next
			break
		}
		ws = append(ws, w)
	}
	return ws
}

// =============================================================================
// SHARE CONFIG - Closed variant for who pays what
// =============================================================================

type ShareMode string

const (
	ShareEqual    ShareMode = "equal"
	ShareExclude  ShareMode = "exclude"
	ShareCustom   ShareMode = "custom"
	ShareExplicit ShareMode = "explicit"
)

type ShareConfig struct {
	Mode        ShareMode
	Exclude     []string
	Percentages map[string]decimal.Decimal
}

// EqualSplit is the default: every active payee pays the same fraction.
func EqualSplit() ShareConfig { return ShareConfig{Mode: ShareEqual} }

// ExcludeSplit removes the named payees; the rest split equally.
func ExcludeSplit(names ...string) ShareConfig {
	return ShareConfig{Mode: ShareExclude, Exclude: names}
}

// CustomSplit fixes percentages for some payees; unlisted, non-excluded
// payees split the remainder (after payee defaults) equally.
func CustomSplit(percentages map[string]decimal.Decimal, exclude ...string) ShareConfig {
	return ShareConfig{Mode: ShareCustom, Percentages: percentages, Exclude: exclude}
}

// ExplicitSplit fixes every payee's percentage; the map must total 100.
func ExplicitSplit(percentages map[string]decimal.Decimal) ShareConfig {
	return ShareConfig{Mode: ShareExplicit, Percentages: percentages}
}

func (s ShareConfig) validate(billName string) error {
	field := fmt.Sprintf("bill[%s].share", billName)
	switch s.Mode {
	case "", ShareEqual, ShareExclude, ShareCustom, ShareExplicit:
	default:
		return &ValidationError{Field: field, Reason: "unknown share mode " + string(s.Mode)}
	}
	for name, pct := range s.Percentages {
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return &ValidationError{
				Field:  fmt.Sprintf("%s[%s]", field, name),
				Reason: fmt.Sprintf("percentage %s outside [0, 100]", pct),
			}
		}
	}
	if s.Mode == ShareExplicit {
		total := decimal.Zero
		for _, pct := range s.Percentages {
			total = total.Add(pct)
		}
		if total.Sub(hundred).Abs().GreaterThan(percentTolerance) {
			return &ValidationError{
				Field:  field,
				Reason: fmt.Sprintf("explicit percentages total %s, must total 100", total),
			}
		}
	}
	return nil
}

// excludes reports whether the config excludes the named payee.
func (s ShareConfig) excludes(name string) bool {
	for _, ex := range s.Exclude {
		if ex == name {
			return true
		}
	}
	return false
}

// referencedPayees returns every payee name the config mentions, for
// cross-reference validation.
func (s ShareConfig) referencedPayees() []string {
	names := append([]string(nil), s.Exclude...)
	for name := range s.Percentages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
