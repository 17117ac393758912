// Package i18n holds the English and French label tables used when
// rendering documents. The tables are fixed: adding a language means
// adding a Locale here and nothing else.
package i18n

import "strings"

// Headers are the item-table column titles.
type Headers struct {
	Description string
	Quantity    string
	UnitPrice   string
	Total       string
}

// Locale bundles every rendered string for one language.
type Locale struct {
	Code           string
	ModeInvoice    string
	ModeEstimate   string
	CurrencySymbol string
	Headers        Headers
	LabelFrom      string
	LabelTo        string
}

var english = Locale{
	Code:           "en",
	ModeInvoice:    "Invoice",
	ModeEstimate:   "Estimate",
	CurrencySymbol: "$",
	Headers: Headers{
		Description: "Description",
		Quantity:    "Quantity",
		UnitPrice:   "Unit Price ($)",
		Total:       "Total ($)",
	},
	LabelFrom: "From:",
	LabelTo:   "To:",
}

var french = Locale{
	Code:           "fr",
	ModeInvoice:    "Facture",
	ModeEstimate:   "Devis",
	CurrencySymbol: "€",
	Headers: Headers{
		Description: "Description",
		Quantity:    "Quantité",
		UnitPrice:   "Prix Unitaire (€)",
		Total:       "Total (€)",
	},
	LabelFrom: "De :",
	LabelTo:   "À :",
}

// Lookup returns the locale for a language code, falling back to English
// for anything unknown.
func Lookup(lang string) Locale {
	if strings.ToLower(lang) == "fr" {
		return french
	}
	return english
}

// Codes lists the supported language codes.
func Codes() []string {
	return []string{"en", "fr"}
}

// ModeLabel translates a document mode. Unknown modes fall back to the
// capitalized raw value so a bad record still renders something legible.
func (l Locale) ModeLabel(mode string) string {
	switch strings.ToLower(mode) {
	case "invoice":
		return l.ModeInvoice
	case "estimate":
		return l.ModeEstimate
	}
	if mode == "" {
		return ""
	}
	return strings.ToUpper(mode[:1]) + mode[1:]
}
