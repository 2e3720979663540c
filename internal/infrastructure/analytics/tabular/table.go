package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindDate    ColumnKind = "date"
	KindText    ColumnKind = "text"
)

// Column is a typed column descriptor produced once per sheet. Nums holds a
// row-aligned numeric view with NaN for missing or non-numeric cells, so the
// later passes never re-probe cell types.
type Column struct {
	Name  string
	Kind  ColumnKind
	Cells []string
	Nums  []float64
}

// Series returns the column's non-missing numeric values in row order.
func (c *Column) Series() []float64 {
	out := make([]float64, 0, len(c.Nums))
	for _, v := range c.Nums {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

type Table struct {
	Sheet   string
	Columns []Column
	Rows    int
}

// NewTable builds a typed table from raw sheet rows. The first row is the
// header. Fully empty rows and fully empty columns are dropped before
// classification, matching how row/column counts are reported.
func NewTable(sheet string, rows [][]string) *Table {
	if len(rows) < 2 {
		return nil
	}
	header := rows[0]
	data := dropEmptyRows(rows[1:])
	if len(data) == 0 {
		return nil
	}

	width := len(header)
	for _, row := range data {
		if len(row) > width {
			width = len(row)
		}
	}

	t := &Table{Sheet: sheet, Rows: len(data)}
	for col := 0; col < width; col++ {
		name := ""
		if col < len(header) {
			name = strings.TrimSpace(header[col])
		}
		cells := make([]string, len(data))
		empty := true
		for i, row := range data {
			if col < len(row) {
				cells[i] = strings.TrimSpace(row[col])
			}
			if cells[i] != "" {
				empty = false
			}
		}
		if empty && name == "" {
			continue
		}
		if name == "" {
			name = fmt.Sprintf("column_%d", col+1)
		}
		t.Columns = append(t.Columns, classifyColumn(name, cells))
	}
	if len(t.Columns) == 0 {
		return nil
	}
	return t
}

func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for i := range t.Columns {
		if t.Columns[i].Kind == KindNumeric {
			out = append(out, &t.Columns[i])
		}
	}
	return out
}

func dropEmptyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func classifyColumn(name string, cells []string) Column {
	col := Column{
		Name:  name,
		Cells: cells,
		Nums:  make([]float64, len(cells)),
	}

	nonEmpty := 0
	numeric := 0
	dates := 0
	for i, cell := range cells {
		col.Nums[i] = math.NaN()
		if cell == "" {
			continue
		}
		nonEmpty++
		if v, ok := parseNumber(cell); ok {
			col.Nums[i] = v
			numeric++
			continue
		}
		if parseDate(cell) {
			dates++
		}
	}

	switch {
	case nonEmpty > 0 && numeric == nonEmpty:
		col.Kind = KindNumeric
	case nonEmpty > 0 && dates == nonEmpty:
		col.Kind = KindDate
		for i := range col.Nums {
			col.Nums[i] = math.NaN()
		}
	default:
		col.Kind = KindText
		for i := range col.Nums {
			col.Nums[i] = math.NaN()
		}
	}
	return col
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	// Decimal comma, common in Finnish-locale exports.
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/06 15:04",
	"01/02/2006",
	"2.1.2006",
}

func parseDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
