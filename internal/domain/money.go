package domain

import (
	"math"
	"strconv"
)

// Cents is a monetary amount in hundredths of the currency unit.
type Cents int64

// CentsFromFloat converts a decimal amount to cents, rounding half away from
// zero. ok is false for NaN, infinities and values that overflow.
func CentsFromFloat(v float64) (Cents, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	scaled := math.Round(v * 100)
	if scaled > math.MaxInt64/2 || scaled < math.MinInt64/2 {
		return 0, false
	}
	return Cents(scaled), true
}

// Float64 returns the amount in currency units.
func (c Cents) Float64() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	return strconv.FormatFloat(c.Float64(), 'f', 2, 64)
}
