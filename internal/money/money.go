// Package money centralizes the decimal arithmetic used for every monetary
// field in the engine. Floating point is never used for money.
package money

import "github.com/shopspring/decimal"

// DefaultTolerance is the absolute epsilon applied when deciding a balance
// is fully settled. It absorbs rounding drift from installment splits.
var DefaultTolerance = decimal.NewFromFloat(0.01)

// Remaining returns total - paid, floored at zero.
func Remaining(total, paid decimal.Decimal) decimal.Decimal {
	remaining := total.Sub(paid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsSettled reports whether paid covers total within the given tolerance.
func IsSettled(paid, total, tolerance decimal.Decimal) bool {
	return total.Sub(paid).Abs().LessThanOrEqual(tolerance) || paid.GreaterThanOrEqual(total)
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// IsPositive reports whether v is strictly greater than zero.
func IsPositive(v decimal.Decimal) bool {
	return v.GreaterThan(decimal.Zero)
}
