package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	minInlineDescLen = 3
	maxCellNumbers   = 3
)

// Single-amount rows must look like money, not any stray integer.
var decimalMarkRe = regexp.MustCompile(`[.,]\d+\s*[€$]?\s*$`)

var maxInlinePrice = decimal.NewFromInt(1_000_000)

// extractItems recovers billable rows. The table pass handles documents
// with an explicit item header, including layouts that print each cell on
// its own line. Without a header, or when the table pass comes up empty,
// every line is tried as an inline row.
func extractItems(lines []string) []LineItem {
	if items := tableItems(lines); len(items) > 0 {
		return items
	}
	return inlineItems(lines)
}

// tableItems parses rows between an item-table header and the closing
// total line. Rows are either inline (all cells on one line) or split
// with the description on one line and up to three numeric cells on the
// following lines.
func tableItems(lines []string) []LineItem {
	header := -1
	for i, line := range lines {
		low := strings.ToLower(line)
		if strings.Contains(low, "description") || strings.Contains(low, "désignation") || strings.Contains(low, "libellé") {
			header = i
			break
		}
	}
	if header == -1 {
		return nil
	}

	var items []LineItem
	i := header + 1
	for i < len(lines) && isHeaderCell(lines[i]) {
		i++
	}

	for i < len(lines) {
		line := lines[i]
		if strings.HasPrefix(strings.ToLower(line), "total") {
			break
		}

		if it, ok := parseInlineRow(line); ok {
			items = append(items, it)
			i++
			continue
		}

		if startsWithLetter(line) && !metadataRe.MatchString(line) && !isHeaderRow(line) {
			vals, oks, j := collectCellNumbers(lines, i+1)
			if len(vals) > 0 {
				qty, price := cellsToItem(vals, oks)
				items = append(items, LineItem{Description: line, Quantity: qty, Price: price})
				i = j
				continue
			}
		}
		i++
	}
	return items
}

// collectCellNumbers gathers up to maxCellNumbers numeric cell lines
// starting at idx, stopping at the next description or total line. It
// returns the parsed values, per-value parse success, and the index of
// the first unconsumed line.
func collectCellNumbers(lines []string, idx int) ([]decimal.Decimal, []bool, int) {
	var vals []decimal.Decimal
	var oks []bool
	j := idx
	for j < len(lines) && len(vals) < maxCellNumbers {
		next := lines[j]
		if strings.HasPrefix(strings.ToLower(next), "total") {
			break
		}
		if startsWithLetter(next) && !isNumericLine(next) {
			break
		}
		if isNumericLine(next) {
			d, ok := parseAmount(next)
			vals = append(vals, d)
			oks = append(oks, ok)
		}
		j++
	}
	return vals, oks, j
}

// inlineItems scans every line for the one-line row shape
// "description … quantity … price [… line total]".
func inlineItems(lines []string) []LineItem {
	var items []LineItem
	for _, line := range lines {
		if it, ok := parseInlineRow(line); ok {
			items = append(items, it)
		}
	}
	return items
}

// parseInlineRow splits a line on tabs or runs of two-plus spaces into a
// description column followed by numeric columns. The first numeric cell
// is the quantity when a second exists, otherwise the single cell is the
// price with quantity 1. Numeric columns beyond quantity and price (a
// printed line total) are ignored.
func parseInlineRow(line string) (LineItem, bool) {
	if utf8.RuneCountInString(line) < 5 || isKeywordLine(line) || isNumericLine(line) {
		return LineItem{}, false
	}

	cols := columnSplitRe.Split(line, -1)
	if len(cols) < 2 {
		return LineItem{}, false
	}

	desc := strings.TrimSpace(cols[0])
	if utf8.RuneCountInString(desc) < minInlineDescLen || !startsWithLetter(desc) || metadataRe.MatchString(desc) {
		return LineItem{}, false
	}

	cells := cols[1:]
	vals := make([]decimal.Decimal, 0, len(cells))
	oks := make([]bool, 0, len(cells))
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if !numericLineRe.MatchString(c) {
			return LineItem{}, false
		}
		d, ok := parseAmount(c)
		vals = append(vals, d)
		oks = append(oks, ok)
	}

	if len(vals) == 1 {
		cell := strings.TrimSpace(cells[0])
		if !strings.ContainsAny(cell, "€$") && !decimalMarkRe.MatchString(cell) {
			return LineItem{}, false
		}
		if oks[0] && vals[0].Cmp(maxInlinePrice) >= 0 {
			return LineItem{}, false
		}
	}

	qty, price := cellsToItem(vals, oks)
	return LineItem{Description: desc, Quantity: qty, Price: price}, true
}

// cellsToItem maps parsed numeric cells to (quantity, price). A single
// cell is a price with the quantity floored to 1; with two or more, the
// first is the quantity and the second the unit price. Unparseable cells
// degrade: quantity to 1, price to 0.
func cellsToItem(vals []decimal.Decimal, oks []bool) (int, float64) {
	if len(vals) == 1 {
		if !oks[0] {
			return 1, 0
		}
		return 1, vals[0].InexactFloat64()
	}
	qty := 1
	if oks[0] {
		qty = quantityFrom(vals[0])
	}
	price := 0.0
	if oks[1] {
		price = vals[1].InexactFloat64()
	}
	return qty, price
}

func startsWithLetter(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r)
}
