package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes one worksheet per section. Amounts are stored as numbers.
func WriteXLSX(w io.Writer, sections []Section) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	for i, s := range sections {
		name := sheetName(s.Title)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}

		header := make([]any, len(s.Header))
		for j, h := range s.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("write header %s: %w", name, err)
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			values := make([]any, len(row))
			for j, v := range row {
				values[j] = xlsxValue(v)
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return fmt.Errorf("write row %d of %s: %w", r+1, name, err)
			}
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func xlsxValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return CellString(v)
}

// sheetName keeps worksheet names within the 31 character limit.
func sheetName(title string) string {
	if len(title) > 31 {
		return title[:31]
	}
	return title
}
