package mathutil

import (
	"errors"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeAmount ...
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrAmountTooPrecise ...
	ErrAmountTooPrecise = errors.New("amount has more decimals than the unit allows")
	// ErrAmountOverflow ...
	ErrAmountOverflow = errors.New("amount overflows 64 bit base units")
)

var maxUint64 = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// ToBaseUnits converts a whole unit amount (ie. 1.5 SOL) to base units
// (ie. lamports) given the precision of the unit.
func ToBaseUnits(amount decimal.Decimal, precision int32) (uint64, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}
	units := amount.Shift(precision)
	if !units.Equal(units.Truncate(0)) {
		return 0, ErrAmountTooPrecise
	}
	if units.GreaterThan(maxUint64) {
		return 0, ErrAmountOverflow
	}
	return units.BigInt().Uint64(), nil
}

// ParseBaseUnits parses a whole unit amount string and converts it to base
// units.
func ParseBaseUnits(amount string, precision int32) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, err
	}
	return ToBaseUnits(d, precision)
}

// FromBaseUnits converts base units to a whole unit amount.
func FromBaseUnits(units uint64, precision int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -precision)
}

// FormatBaseUnits returns the whole unit representation of units with fixed
// precision, ie. 150000000 sats -> "1.50000000".
func FormatBaseUnits(units uint64, precision int32) string {
	return FromBaseUnits(units, precision).StringFixed(precision)
}

// SubFloor returns x - y, or zero if y is greater than x.
func SubFloor(x, y uint64) uint64 {
	if y >= x {
		return 0
	}
	return x - y
}
