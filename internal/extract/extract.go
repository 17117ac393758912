// Package extract turns raw text recovered from an uploaded PDF into a
// structured draft invoice or estimate. The heuristics are ordered,
// first-match-wins pattern scans, not a document-understanding pipeline:
// the output is a best-effort guess that a human reviews and edits before
// anything is persisted. Extraction never fails; unresolved fields fall
// back to documented defaults.
package extract

import "strings"

// Mode distinguishes a binding invoice from a non-binding estimate.
type Mode string

const (
	ModeInvoice  Mode = "invoice"
	ModeEstimate Mode = "estimate"
)

// Language is the detected document language.
type Language string

const (
	LangEN Language = "en"
	LangFR Language = "fr"
)

// LineItem is one billable row recovered from the document.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"` // always >= 1
	Price       float64 `json:"price"`    // unit price, >= 0
}

// Draft is the extractor's sole output. Every field is always present;
// unresolved fields carry their zero defaults. The caller owns the Draft
// after the call and may edit any field before committing it.
type Draft struct {
	Mode        Mode       `json:"mode"`
	Language    Language   `json:"language"`
	FromAddress []string   `json:"from_address"`
	ToAddress   []string   `json:"to_address"`
	Items       []LineItem `json:"items"`
	DocTitle    string     `json:"doc_title"`
	Total       float64    `json:"total"` // advisory; callers recompute from items
	RawText     string     `json:"raw_text"`
}

// Extract produces a Draft from raw document text. It is a pure function:
// same text in, same Draft out. Detectors run in a fixed order (language,
// mode, title, addresses, items, total) and each one degrades to a default
// instead of failing, so malformed or empty input still yields a complete
// Draft with the raw text passed through for human review.
func Extract(text string) Draft {
	lines := splitLines(text)
	lower := strings.ToLower(text)

	draft := Draft{
		Mode:        detectMode(lower),
		Language:    detectLanguage(lower),
		FromAddress: []string{},
		ToAddress:   []string{},
		Items:       []LineItem{},
		RawText:     text,
	}

	draft.DocTitle = extractTitle(lines)
	draft.FromAddress, draft.ToAddress = extractAddresses(splitAllLines(text))
	if items := extractItems(lines); items != nil {
		draft.Items = items
	}
	draft.Total = extractTotal(lines, draft.Items)

	return draft
}

// detectLanguage votes between French and English indicator tokens.
// French needs a strict majority; ties and token-free text resolve to
// English deterministically.
func detectLanguage(lower string) Language {
	fr := countTokens(lower, frenchTokens)
	en := countTokens(lower, englishTokens)
	if fr > en {
		return LangFR
	}
	return LangEN
}

// detectMode votes between estimate and invoice keywords in either
// language. Invoice is the default when counts tie or nothing matches.
func detectMode(lower string) Mode {
	est := countTokens(lower, estimateKeywords)
	inv := countTokens(lower, invoiceKeywords)
	if est > inv {
		return ModeEstimate
	}
	return ModeInvoice
}

// extractTitle returns the first non-empty line that is not a recognized
// keyword, label, header, number or date line. Item-shaped rows with a
// trailing amount are skipped as well. No qualifying line leaves the
// title blank for the caller's UI to fill.
func extractTitle(lines []string) string {
	for _, line := range lines {
		if isKeywordLine(line) || isNumericLine(line) || endsWithAmount(line) {
			continue
		}
		return line
	}
	return ""
}
