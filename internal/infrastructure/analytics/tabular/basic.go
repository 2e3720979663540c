package tabular

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const previewRows = 10

// BasicSummary is the fallback tier: descriptive statistics and a short data
// preview per sheet, with none of the KPI/trend/anomaly passes. Used when
// the advanced analysis fails partway through a workbook.
func BasicSummary(content []byte) (string, *WorkbookAnalysis, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	wa := &WorkbookAnalysis{SheetNames: f.GetSheetList()}
	var parts []string

	for _, sheet := range wa.SheetNames {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		table := NewTable(sheet, rows)
		if table == nil {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "=== SHEET: %s ===\n", sheet)
		fmt.Fprintf(&b, "Rows: %d, Columns: %d\n", table.Rows, len(table.Columns))

		if numeric := table.NumericColumns(); len(numeric) > 0 {
			b.WriteString("NUMERIC SUMMARY:\n")
			for _, col := range numeric {
				series := col.Series()
				if len(series) == 0 {
					continue
				}
				lo, hi := minMax(series)
				fmt.Fprintf(&b, "  %s: mean %.2f, sum %.2f, min/max %.2f / %.2f\n",
					col.Name, mean(series), sum(series), lo, hi)
			}
		}

		b.WriteString("DATA PREVIEW:\n")
		b.WriteString(renderPreview(table))

		sa := &SheetAnalysis{Sheet: sheet, Structure: analyzeStructure(table)}
		wa.Sheets = append(wa.Sheets, sa)
		parts = append(parts, b.String())
	}

	return strings.Join(parts, "\n\n"), wa, nil
}

func renderPreview(t *Table) string {
	var b strings.Builder
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	b.WriteString(strings.Join(names, " | "))

	limit := t.Rows
	if limit > previewRows {
		limit = previewRows
	}
	for row := 0; row < limit; row++ {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = col.Cells[row]
		}
		b.WriteString("\n" + strings.Join(cells, " | "))
	}
	return b.String()
}
