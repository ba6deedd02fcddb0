// Package export renders completed receipt records as the review table and
// its clipboard and spreadsheet serializations.
package export

import (
	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-scan/internal/currency"
	"github.com/zombor/receipt-scan/internal/scanning"
)

// Column is one fixed column of the review table.
// Currency is set only for amount columns.
type Column struct {
	Key      string        `json:"key"`
	Label    string        `json:"label"`
	Currency currency.Code `json:"currency,omitempty"`

	text func(*scanning.ReceiptData) string
}

// IsAmount reports whether the column holds a currency amount
func (c Column) IsAmount() bool {
	return c.Currency != ""
}

func textColumn(key, label string, text func(*scanning.ReceiptData) string) Column {
	return Column{Key: key, Label: label, text: text}
}

// Columns lists the table columns in display order
var Columns = buildColumns()

func buildColumns() []Column {
	cols := []Column{
		textColumn("entity", "Entity", func(r *scanning.ReceiptData) string { return r.Entity }),
		textColumn("paidBy", "Paid by", func(r *scanning.ReceiptData) string { return r.PaidBy }),
		textColumn("month", "Month", func(r *scanning.ReceiptData) string { return r.Month }),
		textColumn("supplier", "Supplier", func(r *scanning.ReceiptData) string { return r.Supplier }),
		textColumn("description", "Description", func(r *scanning.ReceiptData) string { return r.Description }),
		textColumn("catNumber", "Cat#", func(r *scanning.ReceiptData) string { return r.CatNumber }),
		textColumn("cat", "Cat", func(r *scanning.ReceiptData) string { return r.Cat }),
		textColumn("invoiceNo", "Invoice No", func(r *scanning.ReceiptData) string { return r.InvoiceNo }),
	}
	for _, c := range currency.All {
		cols = append(cols, Column{Key: c.Field(), Label: c.Label(), Currency: c})
	}
	return append(cols,
		textColumn("pic", "PIC", func(r *scanning.ReceiptData) string { return r.PIC }),
		textColumn("remarks", "Remarks", func(r *scanning.ReceiptData) string { return r.Remarks }),
	)
}

// Cell is one rendered table cell. Plain is the raw form used for delimited
// text, Display the form shown to people. Amount is nil for text and blank cells.
type Cell struct {
	Plain     string   `json:"plain"`
	Display   string   `json:"display"`
	Highlight bool     `json:"highlight"`
	Amount    *float64 `json:"-"`
}

// Blank reports whether the cell renders as empty
func (c Cell) Blank() bool {
	return c.Plain == ""
}

// CellValue renders one record field. Amount columns outside the
// always-filled set stay blank unless they hold the record's original
// currency, whatever value the record carries. Always-filled amounts render 0
// when missing. The original currency column is highlighted.
func CellValue(r *scanning.ReceiptData, col Column) Cell {
	if !col.IsAmount() {
		v := col.text(r)
		return Cell{Plain: v, Display: v}
	}

	original := col.Currency.Matches(r.OriginalCurrency)
	if !col.Currency.AlwaysFilled() && !original {
		return Cell{}
	}

	amount := r.Amount(col.Currency)
	if amount == nil {
		if !col.Currency.AlwaysFilled() {
			return Cell{Highlight: original}
		}
		zero := 0.0
		amount = &zero
	}

	d := decimal.NewFromFloat(*amount)
	return Cell{
		Plain:     d.String(),
		Display:   d.StringFixed(2),
		Highlight: original,
		Amount:    amount,
	}
}

// Row is the rendered form of one record
type Row struct {
	ID    string `json:"id"`
	Cells []Cell `json:"cells"`
}

// Table is the single derivation every serialization reads from
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Derive renders records in order, one row each
func Derive(records []*scanning.ReceiptData) Table {
	t := Table{Columns: Columns, Rows: make([]Row, 0, len(records))}
	for _, r := range records {
		row := Row{ID: r.ID, Cells: make([]Cell, len(Columns))}
		for i, col := range Columns {
			row.Cells[i] = CellValue(r, col)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Empty reports whether the table has no rows
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}
