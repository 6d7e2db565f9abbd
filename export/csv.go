/*
csv.go - CSV rendering of a projection's payment plan

PURPOSE:
  Flattens a projection into one row per (payee, payment date, income
  stream): how much of that payment the payee should set aside, and
  what fraction of the payment that is. The column set is the stable
  contract with spreadsheet users:

    payee_name, schedule_description, income_amount,
    required_contribution, contribution_percentage, payment_date,
    is_before_cutoff
*/
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/schedule"
)

var csvHeader = []string{
	"payee_name",
	"schedule_description",
	"income_amount",
	"required_contribution",
	"contribution_percentage",
	"payment_date",
	"is_before_cutoff",
}

type planRow struct {
	payee    string
	stream   string
	date     schedule.Date
	required decimal.Decimal
}

// WriteCSV renders the projection's income allocations. Allocations of
// the same payment (payee, date, stream) are summed across bills into a
// single row; the income amount comes from the payee's pay schedule.
func WriteCSV(w io.Writer, proj *schedule.Projection, payees []schedule.Payee, cutoffDay int) error {
	type rowKey struct {
		payee  string
		stream string
		date   schedule.Date
	}
	totals := make(map[rowKey]decimal.Decimal)
	for _, e := range proj.Entries {
		for _, ps := range e.PerPayee {
			for _, a := range ps.IncomeAllocations {
				k := rowKey{payee: ps.Payee, stream: a.Stream, date: a.Date}
				totals[k] = totals[k].Add(a.Amount)
			}
		}
	}

	rows := make([]planRow, 0, len(totals))
	for k, required := range totals {
		rows = append(rows, planRow{payee: k.payee, stream: k.stream, date: k.date, required: required})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].payee != rows[j].payee {
			return rows[i].payee < rows[j].payee
		}
		if !rows[i].date.Equal(rows[j].date) {
			return rows[i].date.Before(rows[j].date)
		}
		return rows[i].stream < rows[j].stream
	})

	incomes := streamAmounts(payees)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		income := incomes[streamKey{payee: row.payee, stream: row.stream}]

		pct := decimal.Zero
		if income.IsPositive() {
			pct = row.required.Mul(decimal.NewFromInt(100)).Div(income)
		}

		record := []string{
			row.payee,
			row.stream,
			income.StringFixed(2),
			row.required.StringFixed(2),
			pct.StringFixed(1) + "%",
			row.date.String(),
			fmt.Sprintf("%t", row.date.Day() <= cutoffDay),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type streamKey struct {
	payee  string
	stream string
}

func streamAmounts(payees []schedule.Payee) map[streamKey]decimal.Decimal {
	out := make(map[streamKey]decimal.Decimal)
	for _, p := range payees {
		for _, ps := range p.PaySchedules {
			out[streamKey{payee: p.Name, stream: ps.Description}] = ps.Amount
		}
	}
	return out
}
