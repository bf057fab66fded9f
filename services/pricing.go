// Package services provides catalog, pricing and export functions for quotes.
package services

import (
	"errors"
	"fmt"
	"math"
)

// TaxPercent is the VAT applied to the quote subtotal.
const TaxPercent = 10

// TaxRate is TaxPercent as a fraction.
const TaxRate = TaxPercent / 100.0

// HighMarginPercent is the margin above which the form shows an
// informational note. It is not a limit.
const HighMarginPercent = 100.0

// MaxAmount is the largest unit price, line amount or subtotal an estimate
// accepts. Whole won up to this value are exact in a float64.
const MaxAmount int64 = 1_000_000_000_000_000

// ErrAmountTooLarge is returned when a price or amount leaves the
// [-MaxAmount, MaxAmount] range.
var ErrAmountTooLarge = errors.New("amount too large")

// UnitPrice applies a percentage margin to a base price.
func UnitPrice(basePrice, marginPercent float64) float64 {
	return basePrice * (1 + marginPercent/100)
}

// HighMargin reports whether marginPercent is above HighMarginPercent.
func HighMargin(marginPercent float64) bool {
	return marginPercent > HighMarginPercent
}

// RoundWon rounds to the nearest whole won. Ties go to the even neighbour.
// Callers pricing user input should use CheckedRoundWon.
func RoundWon(v float64) int64 {
	return int64(math.RoundToEven(v))
}

// CheckedRoundWon is RoundWon with a range check against MaxAmount.
func CheckedRoundWon(v float64) (int64, error) {
	r := math.RoundToEven(v)
	if math.IsNaN(r) || math.Abs(r) > float64(MaxAmount) {
		return 0, fmt.Errorf("%w: %g", ErrAmountTooLarge, v)
	}
	return int64(r), nil
}

// LineAmount is quantity times unitPrice rounded to whole won.
func LineAmount(quantity float64, unitPrice int64) (int64, error) {
	return CheckedRoundWon(quantity * float64(unitPrice))
}

// Summary holds the totals shown under the estimate.
type Summary struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// CalcSummary sums line amounts and adds VAT on the subtotal.
func CalcSummary(lines []LineItem) Summary {
	var s Summary
	for _, l := range lines {
		s.Subtotal += l.Amount
	}
	s.Tax = calcTax(s.Subtotal)
	s.Total = s.Subtotal + s.Tax
	return s
}

// calcTax is subtotal * TaxPercent / 100 rounded half to even, in integer
// arithmetic only.
func calcTax(subtotal int64) int64 {
	const divisor = 100 / TaxPercent
	q, r := subtotal/divisor, subtotal%divisor
	if r < 0 {
		q, r = q-1, r+divisor
	}
	switch {
	case 2*r > divisor:
		q++
	case 2*r == divisor && q%2 != 0:
		q++
	}
	return q
}
