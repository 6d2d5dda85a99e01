package settlement

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultSettlementDecimals is the number of decimals of the settlement token.
const DefaultSettlementDecimals int32 = 6

var (
	ErrNonPositiveAmount = errors.New("settlement: amount must be positive")
	ErrFractionalAmount  = errors.New("settlement: amount has a fraction below the smallest denomination")
	ErrAmountOverflow    = errors.New("settlement: amount exceeds the representable range")
)

// ToSmallestUnit converts units × unitPrice settlement units into the token's
// smallest denomination. The result must be an exact positive integer; any
// residue below one smallest unit is rejected rather than rounded.
func ToSmallestUnit(units int64, unitPrice decimal.Decimal, decimals int32) (int64, error) {
	if units <= 0 || !unitPrice.IsPositive() {
		return 0, ErrNonPositiveAmount
	}

	total := unitPrice.Mul(decimal.NewFromInt(units)).Shift(decimals)
	if !total.Equal(total.Truncate(0)) {
		return 0, ErrFractionalAmount
	}
	if total.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, ErrAmountOverflow
	}
	return total.IntPart(), nil
}

// FromSmallestUnit converts an amount in the smallest denomination back to settlement units.
func FromSmallestUnit(amount int64, decimals int32) decimal.Decimal {
	return decimal.NewFromInt(amount).Shift(-decimals)
}
