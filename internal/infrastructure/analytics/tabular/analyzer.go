package tabular

import (
	"strings"
)

const (
	minTrendSamples   = 3
	minAnomalySamples = 5
	outlierZThreshold = 2.0
	// A lone extreme value among n samples tops out at exactly sqrt(n-1)
	// population deviations, a hair under round thresholds. The comparison
	// leaves slack so such values still count as outliers.
	outlierZSlack = 1e-3
)

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// Stats is the descriptive summary of one categorized numeric column.
type Stats struct {
	Sum        float64  `json:"sum"`
	Mean       float64  `json:"mean"`
	Median     float64  `json:"median"`
	StdDev     float64  `json:"std_dev"`
	Min        float64  `json:"min"`
	Max        float64  `json:"max"`
	GrowthRate *float64 `json:"growth_rate,omitempty"`
}

type Trend struct {
	Direction  TrendDirection `json:"direction"`
	Slope      float64        `json:"slope"`
	ChangePct  float64        `json:"change_pct"`
	Volatility float64        `json:"volatility"`
}

type Anomalies struct {
	OutlierCount int       `json:"outlier_count"`
	OutlierPct   float64   `json:"outlier_pct"`
	Outliers     []float64 `json:"outliers"`
	NormalMin    float64   `json:"normal_min"`
	NormalMax    float64   `json:"normal_max"`
}

type Structure struct {
	Rows              int      `json:"rows"`
	Cols              int      `json:"cols"`
	NumericColumns    []string `json:"numeric_columns"`
	DateColumns       []string `json:"date_columns"`
	TextColumns       []string `json:"text_columns"`
	TimeSeriesColumns []string `json:"time_series_columns,omitempty"`
}

// KPIGroup holds the columns assigned to one category and the statistics of
// its numeric members.
type KPIGroup struct {
	Columns []string         `json:"columns"`
	Stats   map[string]Stats `json:"stats"`
}

type SheetAnalysis struct {
	Sheet     string                 `json:"sheet"`
	Structure Structure              `json:"structure"`
	KPIs      map[Category]KPIGroup  `json:"kpis,omitempty"`
	Trends    map[string]Trend       `json:"trends,omitempty"`
	Anomalies map[string]Anomalies   `json:"anomalies,omitempty"`
}

type WorkbookAnalysis struct {
	SheetNames []string         `json:"sheets"`
	Sheets     []*SheetAnalysis `json:"sheet_analyses,omitempty"`
	Insights   []Insight        `json:"insights,omitempty"`
	Err        string           `json:"error,omitempty"`
}

type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// AnalyzeSheet runs the structure, KPI, trend and anomaly passes over one
// typed table and renders the per-sheet narrative.
func (a *Analyzer) AnalyzeSheet(t *Table) (string, *SheetAnalysis) {
	sa := &SheetAnalysis{
		Sheet:     t.Sheet,
		Structure: analyzeStructure(t),
		KPIs:      categorizeKPIs(t),
		Trends:    analyzeTrends(t),
		Anomalies: detectAnomalies(t),
	}
	return renderSheet(t, sa), sa
}

func analyzeStructure(t *Table) Structure {
	s := Structure{Rows: t.Rows, Cols: len(t.Columns)}
	for _, col := range t.Columns {
		switch col.Kind {
		case KindNumeric:
			s.NumericColumns = append(s.NumericColumns, col.Name)
		case KindDate:
			s.DateColumns = append(s.DateColumns, col.Name)
		default:
			s.TextColumns = append(s.TextColumns, col.Name)
			if matchesTimePattern(col.Name) {
				s.TimeSeriesColumns = append(s.TimeSeriesColumns, col.Name)
			}
		}
	}
	return s
}

func matchesTimePattern(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range timePatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// categorizeKPIs assigns every column to the first matching keyword category;
// unmatched numeric columns fall into "other", unmatched non-numeric columns
// are dropped. Returns nil when nothing was categorized.
func categorizeKPIs(t *Table) map[Category]KPIGroup {
	out := make(map[Category]KPIGroup)

	for i := range t.Columns {
		col := &t.Columns[i]
		category := matchCategory(col.Name)
		if category == "" {
			if col.Kind != KindNumeric {
				continue
			}
			category = CategoryOther
		}

		group := out[category]
		group.Columns = append(group.Columns, col.Name)
		if col.Kind == KindNumeric {
			series := col.Series()
			if len(series) > 0 {
				if group.Stats == nil {
					group.Stats = make(map[string]Stats)
				}
				group.Stats[col.Name] = columnStats(series)
			}
		}
		out[category] = group
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func matchCategory(name string) Category {
	lower := strings.ToLower(name)
	for _, category := range categoryOrder {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(lower, keyword) {
				return category
			}
		}
	}
	return ""
}

func columnStats(series []float64) Stats {
	lo, hi := minMax(series)
	return Stats{
		Sum:        sum(series),
		Mean:       mean(series),
		Median:     median(series),
		StdDev:     stdDev(series),
		Min:        lo,
		Max:        hi,
		GrowthRate: growthRate(series),
	}
}

// analyzeTrends fits a least-squares line per numeric column with at least
// minTrendSamples values. Returns nil when no column qualifies.
func analyzeTrends(t *Table) map[string]Trend {
	out := make(map[string]Trend)
	for _, col := range t.NumericColumns() {
		series := col.Series()
		if len(series) < minTrendSamples {
			continue
		}

		m := slope(series)
		sd := stdDev(series)

		// A zero slope is always stable, even when the series is constant
		// and the stddev threshold collapses to zero.
		direction := TrendStable
		if m != 0 && abs(m) >= 0.1*sd {
			if m > 0 {
				direction = TrendIncreasing
			} else {
				direction = TrendDecreasing
			}
		}

		changePct := 0.0
		if start := series[0]; start != 0 {
			changePct = (series[len(series)-1] - start) / abs(start) * 100
		}

		volatility := 0.0
		if mu := mean(series); mu != 0 {
			volatility = sd / mu * 100
		}

		out[col.Name] = Trend{
			Direction:  direction,
			Slope:      m,
			ChangePct:  changePct,
			Volatility: volatility,
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// detectAnomalies flags values more than outlierZThreshold population
// standard deviations from the mean. Columns with no outliers are omitted.
func detectAnomalies(t *Table) map[string]Anomalies {
	out := make(map[string]Anomalies)
	for _, col := range t.NumericColumns() {
		series := col.Series()
		if len(series) < minAnomalySamples {
			continue
		}

		mu := mean(series)
		sd := stdDev(series)
		if sd == 0 {
			continue
		}

		var outliers []float64
		for _, v := range series {
			if abs(v-mu)/sd > outlierZThreshold-outlierZSlack {
				outliers = append(outliers, v)
			}
		}
		if len(outliers) == 0 {
			continue
		}

		out[col.Name] = Anomalies{
			OutlierCount: len(outliers),
			OutlierPct:   float64(len(outliers)) / float64(len(series)) * 100,
			Outliers:     outliers,
			NormalMin:    percentile(series, 0.05),
			NormalMax:    percentile(series, 0.95),
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
