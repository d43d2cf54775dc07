// Package mathutil provides common mathematical utility functions on decimals.
package mathutil

import (
	"github.com/iwvelando/financing-forecast/pkg/constants"
	"github.com/shopspring/decimal"
)

var (
	hundred   = decimal.NewFromInt(constants.PercentageMultiplier)
	tolerance = decimal.RequireFromString(constants.SettlementTolerance)
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for display and for making logical comparisons.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.CurrencyPlaces)
}

// Trim rounds an intermediate amount to the working precision.
func Trim(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.WorkingPlaces)
}

// IsSettled checks if a value is at or below the settlement tolerance.
// Negative values are settled.
func IsSettled(val decimal.Decimal) bool {
	return val.LessThanOrEqual(tolerance)
}

// NonNegative clamps a value at zero.
func NonNegative(val decimal.Decimal) decimal.Decimal {
	if val.IsNegative() {
		return decimal.Zero
	}
	return val
}

// Min returns the minimum of two values
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// PercentToRate converts a percentage (e.g. 0.45) into a fraction (0.0045).
func PercentToRate(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(hundred)
}

// SafeDiv divides a by b, returning zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
