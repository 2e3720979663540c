package tabular

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// AnalyzeWorkbook parses workbook bytes and runs the full analysis over every
// non-empty sheet. The returned narrative starts with a workbook-level
// summary followed by the per-sheet sections. A parse failure is returned as
// an error; the caller decides whether to fall back to the basic summarizer.
func (a *Analyzer) AnalyzeWorkbook(content []byte) (string, *WorkbookAnalysis, error) {
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

		narrative, sa := a.AnalyzeSheet(table)
		wa.Sheets = append(wa.Sheets, sa)
		wa.Insights = append(wa.Insights, detectInsights(table)...)
		parts = append(parts, narrative)
	}

	sections := append([]string{renderWorkbookSummary(wa)}, parts...)
	return strings.Join(sections, "\n\n"), wa, nil
}
