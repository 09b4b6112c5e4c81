package shared

import (
	"math"

	"github.com/shopspring/decimal"
)

// CurrencyEpsilon is the tolerance used when comparing monetary amounts.
const CurrencyEpsilon = 0.01

// RoundCurrency rounds to whole currency units, half away from zero.
func RoundCurrency(v float64) float64 {
	return RoundTo(v, 0)
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// AmountsEqual compares two monetary values within CurrencyEpsilon.
func AmountsEqual(a, b float64) bool {
	return math.Abs(a-b) <= CurrencyEpsilon
}

// Finite replaces NaN and infinities with zero.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
