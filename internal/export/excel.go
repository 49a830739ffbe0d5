// Package export renders the outstanding view as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"stock-ledger/internal/outstanding"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Outstanding"

var header = []any{
	"Source", "Order ID", "Record ID", "Counterparty", "Product", "SKU",
	"Ordered", "Received", "Remaining", "Unit Price", "Exposure", "Date",
}

// OutstandingWorkbook lays the view out as one sheet: a header row, one row per
// entry and a totals row.
func OutstandingWorkbook(v outstanding.View) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		f.Close()
		return nil, err
	}

	row := 2
	for _, e := range v.Entries {
		cells := []any{
			string(e.Source), e.OrderID, e.RecordID, e.Counterparty, e.ProductName, e.SKU,
			e.Ordered, e.Received, e.Remaining,
			e.UnitPrice.InexactFloat64(), e.Exposure.InexactFloat64(),
			e.Date.Format("2006-01-02"),
		}
		if err := f.SetSheetRow(SheetName, cell(row), &cells); err != nil {
			f.Close()
			return nil, err
		}
		row++
	}

	total := v.Totals[outstanding.SourceAll]
	totals := []any{"Total", "", "", "", "", "", "", "", total.Remaining, "", total.Exposure.InexactFloat64()}
	if err := f.SetSheetRow(SheetName, cell(row), &totals); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetRowStyle(SheetName, row, row, bold); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetColWidth(SheetName, "D", "E", 24); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteOutstanding streams the workbook for v to w.
func WriteOutstanding(w io.Writer, v outstanding.View) error {
	f, err := OutstandingWorkbook(v)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cell(row int) string {
	return fmt.Sprintf("A%d", row)
}
