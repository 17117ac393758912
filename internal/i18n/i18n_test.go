package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	assert.Equal(t, "fr", Lookup("fr").Code)
	assert.Equal(t, "fr", Lookup("FR").Code)
	assert.Equal(t, "en", Lookup("en").Code)
	assert.Equal(t, "en", Lookup("de").Code, "unknown languages fall back to English")
	assert.Equal(t, "en", Lookup("").Code)
}

func TestModeLabel(t *testing.T) {
	fr := Lookup("fr")
	en := Lookup("en")

	assert.Equal(t, "Facture", fr.ModeLabel("invoice"))
	assert.Equal(t, "Devis", fr.ModeLabel("estimate"))
	assert.Equal(t, "Invoice", en.ModeLabel("invoice"))
	assert.Equal(t, "Estimate", en.ModeLabel("estimate"))
	assert.Equal(t, "Receipt", en.ModeLabel("receipt"), "unknown modes render capitalized")
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "€", Lookup("fr").CurrencySymbol)
	assert.Equal(t, "$", Lookup("en").CurrencySymbol)
}
