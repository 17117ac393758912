package extract

import (
	"regexp"
	"strings"
)

// Keyword votes. Counting is substring-based and case-insensitive, the
// same coarse scheme the document types use in practice: a handful of
// hits is enough to tip the vote, and ties keep the safe default.
var (
	estimateKeywords = []string{"devis", "estimate", "quotation", "quote", "proforma"}
	invoiceKeywords  = []string{"facture", "invoice", "bill", "receipt"}

	frenchTokens = []string{
		"facture", "devis", "montant", "quantité", "prix", "émetteur",
		"destinataire", "adresse", "référence", "règlement", "échéance",
		"numéro", "siret", "tva", "rue", "avenue", "boulevard", "france", "€",
	}
	englishTokens = []string{
		"invoice", "estimate", "quotation", "amount", "quantity", "price",
		"customer", "reference", "bill to", "due date", "subtotal",
		"street", "road", "city", "state", "zip",
	}
)

var (
	// Metadata and document-keyword lines: type keywords, reference and
	// date stamps, fiscal identifiers, totals. These never qualify as a
	// title, an address line or an item description.
	metadataRe = regexp.MustCompile(`(?i)^(?:` +
		`devis\b|facture\b|invoice\b|estimate\b|quotation\b|quote\b|proforma\b|bill\b|receipt\b` +
		`|n[°o]\.?\s*:?\s*\d|r[ée]f(?:[ée]rence)?\b|num[ée]ro\b|number\b` +
		`|date\b|client\b|valide?\b|[ée]mis\b|issued\b` +
		`|page\s+\d|siret\b|iban\b|bic\b|tva\b|tax\b` +
		`|sous-total\b|subtotal\b|montant\b|total\b|amount\b` +
		`|\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}` +
		`)`)

	// Section labels introducing the issuer and recipient blocks. A label
	// is either the bare word (optionally with a colon) or the word, a
	// colon and the first address line on the same line.
	issuerLabelRe    = regexp.MustCompile(`(?i)^(?:from|de|[ée]metteur|exp[ée]diteur|vendeur|seller)\s*:?\s*$`)
	issuerInlineRe   = regexp.MustCompile(`(?i)^(?:from|de|[ée]metteur|exp[ée]diteur|vendeur|seller)\s*:\s*(\S.*)$`)
	recipLabelRe     = regexp.MustCompile(`(?i)^(?:to|[àa]|destinataire|client|bill\s*to|facturer\s*[àa]|adress[ée]\s*[àa]|customer|acheteur|buyer)\s*:?\s*$`)
	recipInlineRe    = regexp.MustCompile(`(?i)^(?:to|[àa]|destinataire|client|bill\s*to|facturer\s*[àa]|adress[ée]\s*[àa]|customer|acheteur|buyer)\s*:\s*(\S.*)$`)
	numericLineRe    = regexp.MustCompile(`^[€$]?\s*\d[\d\s.,]*\s*[€$]?$`)
	trailingAmountRe = regexp.MustCompile(`\d[.,]\d{2}\s*[€$]?\s*$`)
	columnSplitRe    = regexp.MustCompile(`\t+|\s{2,}`)
)

// Header vocabulary for item tables, both languages. Multi-word column
// titles are collapsed before the per-token check.
var headerBigrams = []string{"prix unitaire", "unit price", "line total"}

var headerWords = map[string]bool{
	"description": true, "désignation": true, "libellé": true,
	"qty": true, "qté": true, "quantity": true, "quantité": true,
	"price": true, "prix": true, "unitprice": true, "prixunitaire": true,
	"total": true, "montant": true, "amount": true, "linetotal": true,
}

// splitLines returns the trimmed non-empty lines of the document in order.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// splitAllLines returns every trimmed line including empty ones. Address
// detection needs the blanks: an empty line separates one block from the
// next, which the compacted view cannot see.
func splitAllLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

func countTokens(lower string, tokens []string) int {
	n := 0
	for _, t := range tokens {
		n += strings.Count(lower, t)
	}
	return n
}

// isKeywordLine reports whether a line is document furniture: a type or
// metadata keyword, a section label, or an item-table header row.
func isKeywordLine(line string) bool {
	if metadataRe.MatchString(line) {
		return true
	}
	if issuerLabelRe.MatchString(line) || recipLabelRe.MatchString(line) {
		return true
	}
	if issuerInlineRe.MatchString(line) || recipInlineRe.MatchString(line) {
		return true
	}
	return isHeaderRow(line) || isHeaderCell(line)
}

// isNumericLine reports whether a line is nothing but digits, separators
// and an optional currency symbol.
func isNumericLine(line string) bool {
	return numericLineRe.MatchString(line)
}

// endsWithAmount reports whether a line finishes with a decimal amount,
// the shape of an item row or printed total.
func endsWithAmount(line string) bool {
	return trailingAmountRe.MatchString(line)
}

// isHeaderRow reports whether every token on the line belongs to the item
// table header vocabulary. Such rows carry the word "Total" yet must never
// become line items.
func isHeaderRow(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, bg := range headerBigrams {
		lower = strings.ReplaceAll(lower, bg, strings.ReplaceAll(bg, " ", ""))
	}
	fields := strings.Fields(lower)
	if len(fields) < 2 {
		return false
	}
	for _, f := range fields {
		f = strings.Trim(f, ":()€$")
		if f == "" {
			continue
		}
		if !headerWords[f] {
			return false
		}
	}
	return true
}

// isHeaderCell reports whether a line is a single header column printed on
// its own line, the layout some generators emit for tables.
func isHeaderCell(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "description", "désignation", "libellé",
		"quantité", "quantity", "qty", "qté",
		"prix unitaire", "unit price", "prix unitaire (€)", "unit price ($)", "prix", "price",
		"total", "total (€)", "total ($)", "montant", "amount":
		return true
	}
	return false
}

// addressy reports whether a line could belong to an address block: it is
// not furniture, not a bare number, and does not trail off into an amount.
func addressy(line string) bool {
	if line == "" {
		return false
	}
	if isKeywordLine(line) || isNumericLine(line) || endsWithAmount(line) {
		return false
	}
	return true
}
