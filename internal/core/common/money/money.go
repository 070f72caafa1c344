// Package money holds the arithmetic shared by the finance components.
// Amounts are int64 minor currency units; ratios and percentages go through
// decimal so that rounding never depends on float representation.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percent returns part/whole*100 rounded to two decimals. A zero whole yields 0.
func Percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(part).
		Div(decimal.NewFromInt(whole)).
		Mul(hundred).
		Round(2).
		InexactFloat64()
}

// ApplyRatio returns round(amount * ratio), rounding halves away from zero.
func ApplyRatio(amount int64, ratio float64) int64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(ratio)).
		Round(0).
		IntPart()
}

// DivRound returns round(amount / divisor), or 0 for a zero divisor.
func DivRound(amount, divisor int64) int64 {
	if divisor == 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Div(decimal.NewFromInt(divisor)).
		Round(0).
		IntPart()
}

// DivFloor returns floor(amount / divisor), or 0 for a zero divisor.
func DivFloor(amount, divisor int64) int64 {
	if divisor == 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Div(decimal.NewFromInt(divisor)).
		Floor().
		IntPart()
}

func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func Sum(values ...int64) int64 {
	var total int64
	for _, v := range values {
		total += v
	}
	return total
}

// NonNegative floors v at zero.
func NonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
