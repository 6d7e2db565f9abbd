package schedule

import "github.com/shopspring/decimal"

// Shared decimal constants and tolerances. Percentage totals reconcile to
// 1e-6; money comparisons reconcile to one cent.
var (
	hundred          = decimal.NewFromInt(100)
	percentTolerance = decimal.RequireFromString("0.000001")
	centTolerance    = decimal.RequireFromString("0.01")
)

// Dec is a fixture and test helper for literal amounts.
func Dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// pctOf applies a percentage to an amount: pct/100 * amount.
func pctOf(pct, amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}
