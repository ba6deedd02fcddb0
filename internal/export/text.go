package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// TSV renders the rows as tab-separated text without a header
func (t Table) TSV() string {
	rows := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.Plain
		}
		rows[i] = strings.Join(cells, "\t")
	}
	return strings.Join(rows, "\n")
}

var htmlTable = template.Must(template.New("table").Parse(
	`<table border="1" style="border-collapse: collapse; font-family: sans-serif; font-size: 11px;"><thead><tr>` +
		`{{range .Columns}}<th style="background-color: #f3f4f6; padding: 6px; border: 1px solid #d1d5db; text-align: left;">{{.Label}}</th>{{end}}` +
		`</tr></thead><tbody>` +
		`{{range .Rows}}<tr>{{range .Cells}}` +
		`<td style="padding: 6px; border: 1px solid #d1d5db;{{if .Highlight}}background-color: #fef9c3; font-weight: bold; color: #000;{{end}}">{{.Display}}</td>` +
		`{{end}}</tr>{{end}}` +
		`</tbody></table>`,
))

// HTML renders the table with a header row, highlighting original
// currency cells
func (t Table) HTML() (string, error) {
	var buf bytes.Buffer
	if err := htmlTable.Execute(&buf, t); err != nil {
		return "", fmt.Errorf("rendering html table: %w", err)
	}
	return buf.String(), nil
}
