/*
project.go - The projection engine (contribution allocator)

PURPOSE:
  Ties the resolvers together into the month-by-month schedule: which
  income payment funds which bill obligation, and each payee's required
  contribution. This is the reconciliation core.

TWO-PASS ORDERING:
  Funding-month requirements aggregate across due-months (a January bill
  due before the cutoff is funded by December income), so allocation
  cannot run as a per-month pipeline:

  Pass 1: for every projected month, expand dues, resolve shares, and
          accumulate each payee's requirement per FUNDING month.
  Pass 2: for every (payee, funding month), expand income occurrences,
          take fixed-percentage contributions off the top, and spread
          the remainder across proportional streams weighted by their
          amounts.

FAILURE MODE:
  Allocation is deterministic arithmetic. Any inconsistency - share
  percentages that cannot be reconciled, or zero proportional income
  against a positive remaining requirement - is a configuration error
  surfaced as an AllocationError naming the payee and month. The engine
  never silently zeroes or corrects a requirement.

PURITY:
  A Projector is a pure function of (bills, payees, options): no stored
  state between runs, no I/O, byte-identical output for identical input.
*/
package schedule

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OUTPUT RECORDS - Immutable per run
// =============================================================================

// IncomeAllocation ties part of an income payment to a bill obligation.
type IncomeAllocation struct {
	Stream string
	Date   Date
	Amount decimal.Decimal
}

// PayeeShare is one payee's slice of a schedule entry: their share of
// the bill and the income payments that cover it.
type PayeeShare struct {
	Payee             string
	ShareAmount       decimal.Decimal
	IncomeAllocations []IncomeAllocation
}

// MonthlyScheduleEntry is the engine's unit of output: one bill in one
// due-month, with its due dates, total, and per-payee breakdown.
type MonthlyScheduleEntry struct {
	Month       Month
	Bill        string
	DueDates    []Date
	TotalAmount decimal.Decimal
	PerPayee    []PayeeShare
}

// MonthlyTotal is the all-bills total due in one projected month.
type MonthlyTotal struct {
	Month Month
	Total decimal.Decimal
}

// WeekendShift records a date moved off a weekend, for display: renderers
// surface these so a payment appearing in the "wrong" month is explained.
type WeekendShift struct {
	Bill     string // set for bill due-dates
	Payee    string // set for income payments
	Stream   string
	Original Date
	Adjusted Date
	Amount   decimal.Decimal
}

// Projection is the complete engine output for one run.
type Projection struct {
	Start         Month
	Months        int
	Entries       []MonthlyScheduleEntry
	MonthlyTotals []MonthlyTotal
	WeekendShifts []WeekendShift
	Summaries     []PayeeSummary
}

// =============================================================================
// PROJECTOR
// =============================================================================

// Projector is the validated, immutable engine input set. Construct one
// per (bills, payees, options) triple; Project may be called any number
// of times.
type Projector struct {
	bills    []Bill
	payees   []Payee
	opts     ScheduleOptions
	warnings []Warning

	billByName  map[string]Bill
	payeeByName map[string]Payee
}

// NewProjector validates the cross-referential invariants (structural
// validation belongs to the loading collaborator, but is cheap enough to
// repeat here) and re-sorts every price history. The inputs are copied;
// callers may reuse their slices.
func NewProjector(bills []Bill, payees []Payee, opts ScheduleOptions) (*Projector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	p := &Projector{
		opts:        opts,
		billByName:  make(map[string]Bill, len(bills)),
		payeeByName: make(map[string]Payee, len(payees)),
	}

	for _, payee := range payees {
		if err := payee.validate(); err != nil {
			return nil, err
		}
		if _, dup := p.payeeByName[payee.Name]; dup {
			return nil, &ValidationError{Field: "payees", Reason: "duplicate payee name " + payee.Name}
		}
		p.payeeByName[payee.Name] = payee
		p.payees = append(p.payees, payee)
	}

	for _, bill := range bills {
		b := NewBill(bill.Name, bill.PriceHistory, bill.Share)
		if err := b.validate(); err != nil {
			return nil, err
		}
		if _, dup := p.billByName[b.Name]; dup {
			return nil, &ValidationError{Field: "bills", Reason: "duplicate bill name " + b.Name}
		}
		for _, name := range b.Share.referencedPayees() {
			if _, ok := p.payeeByName[name]; !ok {
				return nil, &ValidationError{
					Field:  "bill[" + b.Name + "].share",
					Reason: "references unknown payee " + name,
				}
			}
		}
		for _, d := range b.duplicateEffectiveDates() {
			p.warnings = append(p.warnings, Warning{
				Code:    "duplicate_effective_date",
				Message: "bill " + b.Name + " has multiple price entries effective " + d.String() + "; the last listed wins",
			})
		}
		p.billByName[b.Name] = b
		p.bills = append(p.bills, b)
	}

	return p, nil
}

// Warnings returns the non-fatal findings collected during validation.
func (p *Projector) Warnings() []Warning { return p.warnings }

// Options returns the validated schedule options.
func (p *Projector) Options() ScheduleOptions { return p.opts }

// Bills returns the validated bills with their price histories sorted.
func (p *Projector) Bills() []Bill { return p.bills }

// Payees returns the validated payees.
func (p *Projector) Payees() []Payee { return p.payees }

// entryKey identifies one (due-month, bill) output entry.
type entryKey struct {
	m    Month
	bill string
}

// Project computes the schedule for [start, start+months). The
// projection length must be within [1, 60].
func (p *Projector) Project(start Month, months int) (*Projection, error) {
	if months < MinProjectionMonths || months > MaxProjectionMonths {
		return nil, &RangeError{What: "months", Value: months, Min: MinProjectionMonths, Max: MaxProjectionMonths}
	}
	if start.Year < 1900 || start.Year > 2200 {
		return nil, &RangeError{What: "start year", Value: start.Year, Min: 1900, Max: 2200}
	}

	proj := &Projection{Start: start, Months: months}

	entries := make(map[entryKey]*MonthlyScheduleEntry)
	var keys []entryKey

	// required[payee][funding month] and its per-entry breakdown for
	// attributing income allocations back to bills.
	required := make(map[string]map[Month]decimal.Decimal)
	requiredByEntry := make(map[string]map[Month]map[entryKey]decimal.Decimal)

	// ---- Pass 1: dues, shares, funding-month requirements ----
	for i := 0; i < months; i++ {
		m := start.AddMonths(i)
		total, occs, err := MonthlyBillTotal(p.bills, m, p.opts.WeekendAdjustment)
		if err != nil {
			return nil, err
		}
		proj.MonthlyTotals = append(proj.MonthlyTotals, MonthlyTotal{Month: m, Total: total})

		for _, occ := range occs {
			bill := p.billByName[occ.Bill]
			shares, err := ResolveShares(bill, p.payees, occ.DueDate)
			if err != nil {
				return nil, err
			}

			key := entryKey{m: m, bill: occ.Bill}
			e, ok := entries[key]
			if !ok {
				e = &MonthlyScheduleEntry{Month: m, Bill: occ.Bill}
				entries[key] = e
				keys = append(keys, key)
			}
			e.DueDates = append(e.DueDates, occ.DueDate)
			e.TotalAmount = e.TotalAmount.Add(occ.Amount)

			if !occ.Original.Equal(occ.DueDate) {
				proj.WeekendShifts = append(proj.WeekendShifts, WeekendShift{
					Bill: occ.Bill, Original: occ.Original, Adjusted: occ.DueDate, Amount: occ.Amount,
				})
			}

			funding := FundingMonth(occ.DueDate, p.opts.CutoffDay)
			for _, name := range sortedKeys(shares) {
				amt := pctOf(shares[name], occ.Amount)
				addPayeeShare(e, name, amt)

				if required[name] == nil {
					required[name] = make(map[Month]decimal.Decimal)
					requiredByEntry[name] = make(map[Month]map[entryKey]decimal.Decimal)
				}
				required[name][funding] = required[name][funding].Add(amt)
				if requiredByEntry[name][funding] == nil {
					requiredByEntry[name][funding] = make(map[entryKey]decimal.Decimal)
				}
				requiredByEntry[name][funding][key] = requiredByEntry[name][funding][key].Add(amt)
			}
		}
	}

	// ---- Pass 2: income allocation per (payee, funding month) ----
	for _, payeeName := range sortedKeys(required) {
		payee := p.payeeByName[payeeName]
		for _, funding := range sortedMonths(required[payeeName]) {
			r := required[payeeName][funding]
			if r.LessThanOrEqual(decimal.Zero) {
				continue
			}

			allocs, shifts, err := p.allocateIncome(payee, funding, r)
			if err != nil {
				return nil, err
			}
			proj.WeekendShifts = append(proj.WeekendShifts, shifts...)

			// Attribute the funding-month allocations back to each bill
			// entry in proportion to that entry's slice of the payee's
			// requirement.
			breakdown := requiredByEntry[payeeName][funding]
			for _, key := range sortedEntryKeys(breakdown) {
				factor := breakdown[key].Div(r)
				ps := payeeShareOf(entries[key], payeeName)
				for _, a := range allocs {
					ps.IncomeAllocations = append(ps.IncomeAllocations, IncomeAllocation{
						Stream: a.Stream,
						Date:   a.Date,
						Amount: a.Amount.Mul(factor),
					})
				}
			}
		}
	}

	// ---- Assemble ordered output ----
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].m.Equal(keys[j].m) {
			return keys[i].m.Before(keys[j].m)
		}
		return keys[i].bill < keys[j].bill
	})
	for _, key := range keys {
		e := entries[key]
		sort.SliceStable(e.PerPayee, func(i, j int) bool { return e.PerPayee[i].Payee < e.PerPayee[j].Payee })
		proj.Entries = append(proj.Entries, *e)
	}

	proj.Summaries = summarize(proj.Entries, p.payees, start, months)
	return proj, nil
}

// allocateIncome distributes a payee's funding-month requirement across
// their income occurrences: fixed-percentage streams contribute
// pct/100 x their own amount off the top, proportional streams split the
// remainder weighted by amount.
func (p *Projector) allocateIncome(payee Payee, funding Month, required decimal.Decimal) ([]IncomeAllocation, []WeekendShift, error) {
	occs, err := IncomeInMonth(payee, funding)
	if err != nil {
		return nil, nil, err
	}

	var shifts []WeekendShift
	for _, occ := range occs {
		if !occ.Original.Equal(occ.Date) {
			shifts = append(shifts, WeekendShift{
				Payee: payee.Name, Stream: occ.Stream,
				Original: occ.Original, Adjusted: occ.Date, Amount: occ.Amount,
			})
		}
	}

	fixedTotal := decimal.Zero
	propSum := decimal.Zero
	for _, occ := range occs {
		if occ.Fixed() {
			fixedTotal = fixedTotal.Add(pctOf(*occ.Percentage, occ.Amount))
		} else {
			propSum = propSum.Add(occ.Amount)
		}
	}

	remaining := required.Sub(fixedTotal)
	if remaining.IsNegative() {
		// Fixed contributions are independent of the requirement and are
		// never reduced; proportional streams simply get nothing.
		remaining = decimal.Zero
	}

	if propSum.IsZero() && remaining.GreaterThan(centTolerance) {
		return nil, nil, &AllocationError{
			Payee:  payee.Name,
			Month:  funding,
			Reason: "no proportional income to cover remaining requirement " + remaining.StringFixed(2),
		}
	}

	allocs := make([]IncomeAllocation, 0, len(occs))
	for _, occ := range occs {
		var amount decimal.Decimal
		switch {
		case occ.Fixed():
			amount = pctOf(*occ.Percentage, occ.Amount)
		case propSum.IsZero():
			// Nothing left to spread (fixed streams covered it all) and
			// the proportional weight is zero. Guard the division.
			amount = decimal.Zero
		default:
			amount = remaining.Mul(occ.Amount).Div(propSum)
		}
		allocs = append(allocs, IncomeAllocation{Stream: occ.Stream, Date: occ.Date, Amount: amount})
	}
	return allocs, shifts, nil
}

// =============================================================================
// SMALL HELPERS
// =============================================================================

func addPayeeShare(e *MonthlyScheduleEntry, payee string, amt decimal.Decimal) {
	ps := payeeShareOf(e, payee)
	ps.ShareAmount = ps.ShareAmount.Add(amt)
}

func payeeShareOf(e *MonthlyScheduleEntry, payee string) *PayeeShare {
	for i := range e.PerPayee {
		if e.PerPayee[i].Payee == payee {
			return &e.PerPayee[i]
		}
	}
	e.PerPayee = append(e.PerPayee, PayeeShare{Payee: payee})
	return &e.PerPayee[len(e.PerPayee)-1]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMonths[V any](m map[Month]V) []Month {
	months := make([]Month, 0, len(m))
	for k := range m {
		months = append(months, k)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}

func sortedEntryKeys[V any](m map[entryKey]V) []entryKey {
	keys := make([]entryKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].m.Equal(keys[j].m) {
			return keys[i].m.Before(keys[j].m)
		}
		return keys[i].bill < keys[j].bill
	})
	return keys
}
