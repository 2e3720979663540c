package tabular

type InsightTag string

const (
	InsightLargeValue        InsightTag = "large_value_outlier"
	InsightNegativeValues    InsightTag = "negative_values"
	InsightStrongCorrelation InsightTag = "strong_correlation"
)

// Insight is one heuristic finding as structured data. Rendering to prose is
// a separate step so detection stays testable independent of phrasing.
type Insight struct {
	Tag         InsightTag `json:"tag"`
	Sheet       string     `json:"sheet"`
	Column      string     `json:"column"`
	OtherColumn string     `json:"other_column,omitempty"`
	Value       float64    `json:"value,omitempty"`
	Multiple    float64    `json:"multiple,omitempty"`
	Coefficient float64    `json:"coefficient,omitempty"`
	Count       int        `json:"count,omitempty"`
}

const strongCorrelationThreshold = 0.7

func detectInsights(t *Table) []Insight {
	var out []Insight

	numeric := t.NumericColumns()
	for _, col := range numeric {
		series := col.Series()
		if len(series) == 0 {
			continue
		}

		mu := mean(series)
		_, hi := minMax(series)
		if mu > 0 && hi > mu*3 {
			out = append(out, Insight{
				Tag:      InsightLargeValue,
				Sheet:    t.Sheet,
				Column:   col.Name,
				Value:    hi,
				Multiple: hi / mu,
			})
		}

		negatives := 0
		for _, v := range series {
			if v < 0 {
				negatives++
			}
		}
		if negatives > 0 {
			out = append(out, Insight{
				Tag:    InsightNegativeValues,
				Sheet:  t.Sheet,
				Column: col.Name,
				Count:  negatives,
			})
		}
	}

	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			r, ok := pearson(numeric[i].Nums, numeric[j].Nums)
			if !ok || abs(r) <= strongCorrelationThreshold {
				continue
			}
			out = append(out, Insight{
				Tag:         InsightStrongCorrelation,
				Sheet:       t.Sheet,
				Column:      numeric[i].Name,
				OtherColumn: numeric[j].Name,
				Coefficient: r,
			})
		}
	}

	return out
}
