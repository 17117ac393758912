// Package pdftext recovers plain text from uploaded PDF bytes using the
// MuPDF bindings. It is the single text source feeding the draft
// extractor; callers bound latency with the context.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// MaxPages caps how many pages contribute text. Invoices are one or two
// pages; anything past ten adds noise, not fields.
const MaxPages = 10

// ErrNotPDF reports input that is not a PDF document.
var ErrNotPDF = errors.New("not a PDF file")

// Reader extracts text from PDF bytes. The zero value is ready to use.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Text returns the concatenated text of at most MaxPages pages, one
// newline between pages.
func (r *Reader) Text(ctx context.Context, data []byte) (string, error) {
	if err := Sniff(data); err != nil {
		return "", err
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages > MaxPages {
		pages = MaxPages
	}

	var b strings.Builder
	for n := 0; n < pages; n++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", n+1, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return b.String(), nil
}

// Sniff rejects bytes that cannot be a PDF without opening them: empty
// input and anything missing the %PDF- magic header.
func Sniff(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty input", ErrNotPDF)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return fmt.Errorf("%w: missing %%PDF- header", ErrNotPDF)
	}
	return nil
}
