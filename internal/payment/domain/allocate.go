package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/congrego/congrego/internal/money"
)

// AllocationTarget is one inscription a payment may be distributed to, in
// the order the payer selected it.
type AllocationTarget struct {
	InscriptionID snowflake.ID
	RemainingDebt decimal.Decimal
}

// AllocationLine is one computed distribution entry.
type AllocationLine struct {
	InscriptionID snowflake.ID
	Value         decimal.Decimal
}

// Allocate distributes totalValue across targets first-fit in the order
// given: each target receives min(remainingDebt, remainingValue), zero-value
// targets are skipped, and distribution stops once nothing remains. The
// arithmetic is decimal-exact; when totalValue equals the sum of all debts
// the remainder ends at exactly zero.
//
// Callers must enforce totalValue <= sum of remaining debts beforehand;
// Allocate returns ErrOverpaymentNotAllowed if value would be left over.
func Allocate(totalValue decimal.Decimal, targets []AllocationTarget) ([]AllocationLine, error) {
	if !totalValue.IsPositive() {
		return nil, ErrInvalidValue
	}

	remaining := totalValue
	lines := make([]AllocationLine, 0, len(targets))
	for _, target := range targets {
		if !remaining.IsPositive() {
			break
		}
		if target.RemainingDebt.IsNegative() {
			return nil, ErrInvalidValue
		}
		value := money.Min(target.RemainingDebt, remaining)
		if !value.IsPositive() {
			continue
		}
		lines = append(lines, AllocationLine{
			InscriptionID: target.InscriptionID,
			Value:         value,
		})
		remaining = remaining.Sub(value)
	}

	if remaining.IsPositive() {
		return nil, ErrOverpaymentNotAllowed
	}
	return lines, nil
}
