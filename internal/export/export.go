// Package export builds the XLSX download of a user's invoice history.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/facturier/facturier/internal/storage"
)

const sheet = "Invoices"

// BuildWorkbook returns an XLSX workbook with one row per invoice,
// newest first when the input is ordered that way.
func BuildWorkbook(invoices []*storage.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{
		"Number",
		"Date",
		"Type",
		"Language",
		"Title",
		"Client",
		"Items",
		"Total",
		"Created",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, inv := range invoices {
		client := ""
		if len(inv.ToAddress) > 0 {
			client = inv.ToAddress[0]
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, inv.Number)
		write(2, inv.Date)
		write(3, string(inv.Mode))
		write(4, string(inv.Language))
		write(5, inv.DocTitle)
		write(6, client)
		write(7, len(inv.Items))
		write(8, inv.Total)
		if !inv.CreatedAt.IsZero() {
			write(9, inv.CreatedAt.Format("2006-01-02 15:04"))
		} else {
			write(9, "")
		}

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 18) // number
	_ = f.SetColWidth(sheet, "B", "B", 12) // date
	_ = f.SetColWidth(sheet, "C", "D", 10) // type, language
	_ = f.SetColWidth(sheet, "E", "F", 28) // title, client
	_ = f.SetColWidth(sheet, "H", "H", 12) // total
	_ = f.SetColWidth(sheet, "I", "I", 18) // created

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
