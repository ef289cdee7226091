package invoice

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToCents converts a dollar amount to minor units: round(amount * 100),
// half away from zero. The multiplication is exact, so 10.50 → 1050 and
// 0.015 → 2. Callers validate amount against MaxAmount first.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FormatCents renders a minor-unit amount as a dollar string, e.g. 1050 → "$10.50".
func FormatCents(cents int64) string {
	d := decimal.New(cents, -2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
