package tabular

import (
	"strings"
	"testing"
)

func findInsight(insights []Insight, tag InsightTag) *Insight {
	for i := range insights {
		if insights[i].Tag == tag {
			return &insights[i]
		}
	}
	return nil
}

func TestDetectInsightsLargeValue(t *testing.T) {
	table := numericTable(t, "Sales", []string{"10", "10", "10", "100"})
	insights := detectInsights(table)

	insight := findInsight(insights, InsightLargeValue)
	if insight == nil {
		t.Fatalf("expected a large value insight, got %v", insights)
	}
	if insight.Value != 100 {
		t.Fatalf("value = %v, want 100", insight.Value)
	}
	if !almostEqual(insight.Multiple, 100.0/32.5, 1e-9) {
		t.Fatalf("multiple = %v, want %v", insight.Multiple, 100.0/32.5)
	}
}

func TestDetectInsightsLargeValueNeedsPositiveMean(t *testing.T) {
	table := numericTable(t, "Delta", []string{"-10", "-10", "5"})
	if insight := findInsight(detectInsights(table), InsightLargeValue); insight != nil {
		t.Fatalf("non-positive mean should not produce a large value insight")
	}
}

func TestDetectInsightsNegativeValues(t *testing.T) {
	table := numericTable(t, "Result", []string{"5", "-3", "-7", "2"})
	insight := findInsight(detectInsights(table), InsightNegativeValues)
	if insight == nil {
		t.Fatalf("expected a negative values insight")
	}
	if insight.Count != 2 {
		t.Fatalf("count = %d, want 2", insight.Count)
	}
}

func TestDetectInsightsCorrelation(t *testing.T) {
	table := NewTable("Sheet1", [][]string{
		{"Units", "Refunds"},
		{"1", "10"},
		{"2", "8"},
		{"3", "6"},
		{"4", "4"},
	})
	insight := findInsight(detectInsights(table), InsightStrongCorrelation)
	if insight == nil {
		t.Fatalf("expected a correlation insight")
	}
	if insight.Column != "Units" || insight.OtherColumn != "Refunds" {
		t.Fatalf("pair = %s/%s, want Units/Refunds", insight.Column, insight.OtherColumn)
	}
	if !almostEqual(insight.Coefficient, -1.0, 1e-9) {
		t.Fatalf("coefficient = %v, want -1.0", insight.Coefficient)
	}

	sentence := RenderInsight(*insight)
	if !strings.Contains(sentence, "strong negative correlation") {
		t.Fatalf("sentence = %q", sentence)
	}
}

func TestDetectInsightsWeakCorrelationIgnored(t *testing.T) {
	table := NewTable("Sheet1", [][]string{
		{"A", "B"},
		{"1", "5"},
		{"2", "1"},
		{"3", "9"},
		{"4", "2"},
		{"5", "6"},
	})
	if insight := findInsight(detectInsights(table), InsightStrongCorrelation); insight != nil {
		t.Fatalf("weak correlation flagged: %+v", insight)
	}
}
