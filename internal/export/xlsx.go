package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the exported records
const SheetName = "Receipts"

// XLSX renders the table as a workbook with a header row. Amounts are
// written as numbers and original currency cells are filled.
func (t Table) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"F3F4F6"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	highlightStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "000000"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FEF9C3"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("creating highlight style: %w", err)
	}

	for i, col := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, col.Label); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("styling header: %w", err)
		}
	}

	for r, row := range t.Rows {
		for i, c := range row.Cells {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			var v any = c.Plain
			if c.Amount != nil {
				v = *c.Amount
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", r+1, err)
			}
			if c.Highlight {
				if err := f.SetCellStyle(SheetName, cell, cell, highlightStyle); err != nil {
					return nil, fmt.Errorf("styling row %d: %w", r+1, err)
				}
			}
		}
	}

	last, _ := excelize.ColumnNumberToName(len(t.Columns))
	_ = f.SetColWidth(SheetName, "A", last, 14)
	_ = f.SetColWidth(SheetName, "D", "E", 28) // supplier, description

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
