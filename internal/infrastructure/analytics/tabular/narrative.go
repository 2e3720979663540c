package tabular

import (
	"fmt"
	"sort"
	"strings"
)

// Narrative rendering for analysis results. The output is what gets chunked
// and embedded, so section banners double as chunking boundaries.

func renderSheet(t *Table, sa *SheetAnalysis) string {
	parts := []string{renderStructure(t, sa)}
	if kpi := renderKPIs(sa); kpi != "" {
		parts = append(parts, kpi)
	}
	if trend := renderTrends(sa); trend != "" {
		parts = append(parts, trend)
	}
	if anomalies := renderAnomalies(sa); anomalies != "" {
		parts = append(parts, anomalies)
	}
	return strings.Join(parts, "\n\n")
}

func renderStructure(t *Table, sa *SheetAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== SHEET: %s ===\n", sa.Sheet)
	fmt.Fprintf(&b, "STRUCTURE:\n")
	fmt.Fprintf(&b, "- Rows: %d\n", sa.Structure.Rows)
	fmt.Fprintf(&b, "- Columns: %d\n", sa.Structure.Cols)
	fmt.Fprintf(&b, "- Numeric: %d\n", len(sa.Structure.NumericColumns))
	fmt.Fprintf(&b, "- Dates: %d\n", len(sa.Structure.DateColumns))
	fmt.Fprintf(&b, "- Text: %d\n", len(sa.Structure.TextColumns))

	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		names = append(names, col.Name)
	}
	fmt.Fprintf(&b, "COLUMNS: %s", strings.Join(names, ", "))

	if len(sa.Structure.TimeSeriesColumns) > 0 {
		fmt.Fprintf(&b, "\nTIME-SERIES COLUMNS: %s", strings.Join(sa.Structure.TimeSeriesColumns, ", "))
	}
	return b.String()
}

func renderKPIs(sa *SheetAnalysis) string {
	if len(sa.KPIs) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "KPI ANALYSIS (%s):", sa.Sheet)
	for _, category := range append(categoryOrder, CategoryOther) {
		group, ok := sa.KPIs[category]
		if !ok {
			continue
		}
		for _, name := range group.Columns {
			stats, ok := group.Stats[name]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "\n  %s - %s:\n", strings.ToUpper(string(category)), name)
			fmt.Fprintf(&b, "    Sum: %.0f\n", stats.Sum)
			fmt.Fprintf(&b, "    Mean: %.0f\n", stats.Mean)
			fmt.Fprintf(&b, "    Median: %.0f\n", stats.Median)
			fmt.Fprintf(&b, "    Range: %.0f - %.0f", stats.Min, stats.Max)
			if stats.GrowthRate != nil {
				fmt.Fprintf(&b, "\n    Growth: %.1f%% per period", *stats.GrowthRate)
			}
		}
	}
	return b.String()
}

func renderTrends(sa *SheetAnalysis) string {
	if len(sa.Trends) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TREND ANALYSIS (%s):", sa.Sheet)
	for _, name := range sortedKeys(sa.Trends) {
		trend := sa.Trends[name]
		fmt.Fprintf(&b, "\n  %s:\n", name)
		fmt.Fprintf(&b, "    Direction: %s\n", trend.Direction)
		fmt.Fprintf(&b, "    Change: %+.1f%%\n", trend.ChangePct)
		fmt.Fprintf(&b, "    Volatility: %.1f%%", trend.Volatility)
	}
	return b.String()
}

func renderAnomalies(sa *SheetAnalysis) string {
	if len(sa.Anomalies) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ANOMALY ANALYSIS (%s):", sa.Sheet)
	for _, name := range sortedKeys(sa.Anomalies) {
		anomalies := sa.Anomalies[name]
		fmt.Fprintf(&b, "\n  %s:\n", name)
		fmt.Fprintf(&b, "    Outliers: %d (%.1f%%)\n", anomalies.OutlierCount, anomalies.OutlierPct)
		fmt.Fprintf(&b, "    Normal range: %.0f - %.0f\n", anomalies.NormalMin, anomalies.NormalMax)
		fmt.Fprintf(&b, "    Largest deviations: %s", formatValues(topByMagnitude(anomalies.Outliers, 3)))
	}
	return b.String()
}

// RenderInsight turns one structured insight into a sentence.
func RenderInsight(i Insight) string {
	switch i.Tag {
	case InsightLargeValue:
		return fmt.Sprintf("%s: %s contains an exceptionally large value (%.0f), %.1fx above the column mean",
			i.Sheet, i.Column, i.Value, i.Multiple)
	case InsightNegativeValues:
		return fmt.Sprintf("%s: %s contains %d negative values - check for errors or losses",
			i.Sheet, i.Column, i.Count)
	case InsightStrongCorrelation:
		direction := "positive"
		if i.Coefficient < 0 {
			direction = "negative"
		}
		return fmt.Sprintf("%s: strong %s correlation between %s and %s (%.2f)",
			i.Sheet, direction, i.Column, i.OtherColumn, i.Coefficient)
	default:
		return fmt.Sprintf("%s: %s", i.Sheet, i.Column)
	}
}

const maxSummaryInsights = 5

func renderWorkbookSummary(wa *WorkbookAnalysis) string {
	var b strings.Builder
	b.WriteString("=== WORKBOOK ANALYSIS ===\n")
	fmt.Fprintf(&b, "Sheets analyzed: %d", len(wa.SheetNames))

	kpiCounts := false
	for _, sa := range wa.Sheets {
		if len(sa.KPIs) == 0 {
			continue
		}
		if !kpiCounts {
			b.WriteString("\nKPIs FOUND:")
			kpiCounts = true
		}
		for _, category := range append(categoryOrder, CategoryOther) {
			group, ok := sa.KPIs[category]
			if !ok || len(group.Stats) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n  %s/%s: %d metrics", sa.Sheet, category, len(group.Stats))
		}
	}

	if len(wa.Insights) > 0 {
		fmt.Fprintf(&b, "\nBUSINESS INSIGHTS: %d", len(wa.Insights))
		for i, insight := range wa.Insights {
			if i == maxSummaryInsights {
				break
			}
			fmt.Fprintf(&b, "\n  - %s", RenderInsight(insight))
		}
	}
	return b.String()
}

func formatValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.0f", v)
	}
	return strings.Join(parts, ", ")
}

func topByMagnitude(values []float64, n int) []float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Slice(s, func(i, j int) bool { return abs(s[i]) > abs(s[j]) })
	if len(s) > n {
		s = s[:n]
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
