package models

import "github.com/shopspring/decimal"

const (
	// AmountScale is how many decimals a stored amount keeps.
	AmountScale = 16
	// AmountPrecision bounds a submitted price or quantity so that their
	// product still fits AmountScale.
	AmountPrecision = 8
)

// RoundAmount truncates a derived amount, such as a fee, to AmountScale.
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundDown(AmountScale)
}

// CeilAmount rounds a reservation up to AmountScale, so it still covers
// what it was computed for.
func CeilAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundUp(AmountScale)
}

// FitsPrecision reports whether amount has at most places decimals.
func FitsPrecision(amount decimal.Decimal, places int32) bool {
	return amount.Equal(amount.Truncate(places))
}
