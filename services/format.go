package services

import (
	"math"

	"github.com/dustin/go-humanize"
)

// FormatWon formats a whole-won amount with thousands separators,
// e.g. 82500 -> "82,500원".
func FormatWon(amount int64) string {
	return humanize.Comma(amount) + "원"
}

// FormatAmount is FormatWon without the currency suffix, for the PDF where
// the built-in fonts have no Hangul glyphs.
func FormatAmount(amount int64) string {
	return humanize.Comma(amount)
}

// FormatQty formats a quantity. Whole numbers get no decimals; fractional
// values are rounded to 2 decimals.
func FormatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return humanize.Comma(int64(qty))
	}
	return humanize.CommafWithDigits(qty, 2)
}

// FormatPercent formats a margin percentage for display, e.g. 12.5 -> "12.5%".
func FormatPercent(p float64) string {
	return humanize.FtoaWithDigits(p, 2) + "%"
}
