package extract

import (
	"regexp"
	"strings"
)

const (
	minRegionLines = 2
	maxBlockLines  = 5
)

// extractAddresses locates the issuer and recipient blocks. Labeled
// blocks win: a "From"/"De"-style label claims the issuer, a "Bill To"/
// "Destinataire"-style label the recipient. When labels are missing the
// first unclaimed address-shaped region in document order is the issuer
// and the next one the recipient. Anything unresolved stays an empty
// sequence; the extractor never guesses an address from arbitrary text.
func extractAddresses(lines []string) (from, to []string) {
	from, to = []string{}, []string{}
	claimed := make([]bool, len(lines))

	if blk := labeledBlock(lines, claimed, issuerLabelRe, issuerInlineRe); len(blk) > 0 {
		from = blk
	}
	if blk := labeledBlock(lines, claimed, recipLabelRe, recipInlineRe); len(blk) > 0 {
		to = blk
	}

	if len(from) > 0 && len(to) > 0 {
		return from, to
	}

	regions := addressRegions(lines, claimed)
	next := 0
	if len(from) == 0 && next < len(regions) {
		from = regions[next]
		next++
	}
	if len(to) == 0 && next < len(regions) {
		to = regions[next]
	}
	return from, to
}

// labeledBlock finds the first unclaimed label line matching labelRe or
// inlineRe and collects up to maxBlockLines address lines after it. The
// label line and collected lines are marked claimed so the unlabeled
// fallback cannot reuse them.
func labeledBlock(lines []string, claimed []bool, labelRe, inlineRe *regexp.Regexp) []string {
	for i, line := range lines {
		if claimed[i] {
			continue
		}

		var block []string
		matched := false
		if m := inlineRe.FindStringSubmatch(line); m != nil {
			block = append(block, strings.TrimSpace(m[1]))
			matched = true
		} else if labelRe.MatchString(line) {
			matched = true
		}
		if !matched {
			continue
		}

		claimed[i] = true
		for j := i + 1; j < len(lines) && len(block) < maxBlockLines; j++ {
			if claimed[j] || !addressy(lines[j]) {
				break
			}
			block = append(block, lines[j])
			claimed[j] = true
		}
		if len(block) == 0 {
			// Bare label with nothing under it; keep scanning.
			continue
		}
		return block
	}
	return nil
}

// addressRegions returns the unclaimed address-shaped regions in order.
// A region is a run of 2 to 5 consecutive addressy lines; blank lines
// end a run. Shorter runs are noise and longer runs are body text,
// neither is treated as an address.
func addressRegions(lines []string, claimed []bool) [][]string {
	var regions [][]string
	i := 0
	for i < len(lines) {
		if claimed[i] || !addressy(lines[i]) {
			i++
			continue
		}
		j := i
		for j < len(lines) && !claimed[j] && addressy(lines[j]) {
			j++
		}
		if run := j - i; run >= minRegionLines && run <= maxBlockLines {
			regions = append(regions, lines[i:j])
		}
		i = j
	}
	return regions
}
