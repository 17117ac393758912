package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/facturier/facturier/internal/extract"
	"github.com/facturier/facturier/internal/storage"
)

func TestBuildWorkbook(t *testing.T) {
	created := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)
	invoices := []*storage.Invoice{
		{
			Number:    "20260825-093045",
			Date:      "2026-08-25",
			Mode:      extract.ModeEstimate,
			Language:  extract.LangFR,
			DocTitle:  "Atelier Lumière",
			ToAddress: storage.AddressLines{"Studio Nord", "59000 Lille"},
			Items: storage.LineItems{
				{Description: "Consulting", Quantity: 2, Price: 100},
				{Description: "Design", Quantity: 1, Price: 50},
			},
			Total:     250,
			CreatedAt: created,
		},
		{
			Number:   "20260824-120000",
			Date:     "2026-08-24",
			Mode:     extract.ModeInvoice,
			Language: extract.LangEN,
			Items:    storage.LineItems{},
			Total:    0,
		},
	}

	data, err := BuildWorkbook(invoices)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t,
		[]string{"Number", "Date", "Type", "Language", "Title", "Client", "Items", "Total", "Created"},
		rows[0])

	assert.Equal(t, "20260825-093045", rows[1][0])
	assert.Equal(t, "2026-08-25", rows[1][1])
	assert.Equal(t, "estimate", rows[1][2])
	assert.Equal(t, "fr", rows[1][3])
	assert.Equal(t, "Atelier Lumière", rows[1][4])
	assert.Equal(t, "Studio Nord", rows[1][5])
	assert.Equal(t, "2", rows[1][6])
	assert.Equal(t, "250", rows[1][7])
	assert.Equal(t, "2026-08-25 09:30", rows[1][8])

	// an invoice with no recipient exports an empty client cell
	assert.Equal(t, "20260824-120000", rows[2][0])
	client, err := f.GetCellValue(sheet, "F3")
	require.NoError(t, err)
	assert.Equal(t, "", client)
}

func TestBuildWorkbook_Empty(t *testing.T) {
	data, err := BuildWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 1, "only the header row")
}
