package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var amountStripRe = regexp.MustCompile(`[€$\s]+`)

// parseAmount normalizes a money or quantity cell to an exact decimal.
// Spaces act as thousands separators and either "." or "," as the decimal
// marker, so "12,50", "12.50" and "1 250,00" all parse. Anything left
// ambiguous after normalization (two markers, no digits) reports !ok.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = amountStripRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" || strings.Count(s, ".") > 1 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// quantityFrom floors a parsed quantity cell to a positive integer.
// Non-positive and fractional quantities collapse to 1.
func quantityFrom(d decimal.Decimal) int {
	if d.Sign() > 0 && d.IsInteger() {
		return int(d.IntPart())
	}
	return 1
}

// sumItems computes quantity × price over all items in exact decimal
// arithmetic, rounded to two places.
func sumItems(items []LineItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum = sum.Add(line)
	}
	return sum.Round(2).InexactFloat64()
}
