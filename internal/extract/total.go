package extract

import "regexp"

var (
	totalLineRe = regexp.MustCompile(`(?i)^(?:grand\s+total|total\s*(?:ttc|ht|due)?|montant\s*(?:total|ttc|ht)?|amount\s*(?:due)?)\s*:?\s*[€$]?\s*(\d[\d\s.,]*)\s*[€$]?\s*$`)

	// Bare label, value printed on the following line.
	totalLabelRe = regexp.MustCompile(`(?i)^(?:grand\s+total|total\s*(?:ttc|ht|due)?|montant\s*(?:total|ttc|ht)?|amount\s*(?:due)?)\s*:\s*$`)
)

// extractTotal prefers a printed total line (a localized total keyword
// with a trailing amount, currency tolerated) over arithmetic: printed
// totals may include taxes or discounts the items do not model, and the
// caller is expected to reconcile. Without one, the advisory total is the
// two-place sum of quantity × price across items.
func extractTotal(lines []string, items []LineItem) float64 {
	for i, line := range lines {
		if m := totalLineRe.FindStringSubmatch(line); m != nil {
			if d, ok := parseAmount(m[1]); ok && d.Sign() > 0 {
				return d.Round(2).InexactFloat64()
			}
			continue
		}
		if totalLabelRe.MatchString(line) && i+1 < len(lines) && isNumericLine(lines[i+1]) {
			if d, ok := parseAmount(lines[i+1]); ok && d.Sign() > 0 {
				return d.Round(2).InexactFloat64()
			}
		}
	}
	return sumItems(items)
}
