// Package render produces the printable PDF for an invoice or estimate.
// The layout is a fixed single-page Letter grid: logo and mode banner on
// top, issuer and recipient blocks side by side, then the item table and
// the grand total. Labels and currency come from the document language.
package render

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/facturier/facturier/internal/extract"
	"github.com/facturier/facturier/internal/i18n"
)

// Letter page size in points.
const (
	pageWidth  = 612.0
	pageHeight = 792.0
)

// Document carries everything the renderer needs. Dates and numbers are
// preformatted strings; the renderer does no business logic beyond line
// total arithmetic.
type Document struct {
	Mode        extract.Mode
	Language    extract.Language
	Number      string
	Date        string
	DocTitle    string
	FromAddress []string
	ToAddress   []string
	Items       []extract.LineItem
	Total       float64
}

// Renderer draws Documents. An empty LogoPath, or a path that does not
// exist, simply omits the logo.
type Renderer struct {
	LogoPath string
}

// NewRenderer creates a Renderer with an optional logo file.
func NewRenderer(logoPath string) *Renderer {
	return &Renderer{LogoPath: logoPath}
}

// Render returns the PDF bytes for doc.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	loc := i18n.Lookup(string(doc.Language))
	modeLabel := loc.ModeLabel(string(doc.Mode))

	pdf := fpdf.New("P", "pt", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if r.LogoPath != "" {
		if _, err := os.Stat(r.LogoPath); err == nil {
			pdf.ImageOptions(r.LogoPath, 6, 30, 100, 50, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}

	pdf.SetFont("Helvetica", "B", 24)
	pdf.Text(150, 65, tr(strings.ToUpper(modeLabel)))

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(pageWidth-180, 40, tr(fmt.Sprintf("%s #: %s", modeLabel, doc.Number)))
	pdf.Text(pageWidth-180, 55, tr("Date: "+doc.Date))

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(30, 120, tr(loc.LabelFrom))
	pdf.Text(300, 120, tr(loc.LabelTo))

	pdf.SetFont("Helvetica", "", 10)
	y := 140.0
	for _, line := range doc.FromAddress {
		pdf.Text(30, y, tr(line))
		y += 15
	}
	y = 140.0
	for _, line := range doc.ToAddress {
		pdf.Text(300, y, tr(line))
		y += 15
	}

	y = 220.0
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(30, y, tr(loc.Headers.Description))
	pdf.Text(300, y, tr(loc.Headers.Quantity))
	pdf.Text(400, y, tr(loc.Headers.UnitPrice))
	pdf.Text(500, y, tr(loc.Headers.Total))
	pdf.Line(30, y+5, pageWidth-30, y+5)

	pdf.SetFont("Helvetica", "", 10)
	y += 20
	for _, item := range doc.Items {
		price := decimal.NewFromFloat(item.Price)
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))

		pdf.Text(30, y, tr(item.Description))
		pdf.Text(300, y, strconv.Itoa(item.Quantity))
		pdf.Text(400, y, price.StringFixed(2))
		pdf.Text(500, y, lineTotal.StringFixed(2))
		y += 20
	}

	pdf.Line(480, y-5, pageWidth-30, y-5)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(400, y+15, "Total:")
	pdf.Text(500, y+15, tr(loc.CurrencySymbol+decimal.NewFromFloat(doc.Total).StringFixed(2)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename derives the download name for doc. Titles keep letters,
// digits, spaces, hyphens and underscores; spaces become underscores and
// the date is appended as yymmdd. Documents without a usable title fall
// back to mode and number.
func Filename(doc Document, at time.Time) string {
	var b strings.Builder
	for _, r := range doc.DocTitle {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.TrimSpace(b.String())
	if safe == "" {
		return fmt.Sprintf("%s_%s.pdf", doc.Mode, doc.Number)
	}
	return strings.ReplaceAll(safe, " ", "_") + "_" + at.Format("060102") + ".pdf"
}
