package tabular

import "regexp"

// Category is the semantic KPI bucket a column falls into.
type Category string

const (
	CategoryRevenue Category = "revenue"
	CategoryProfit  Category = "profit"
	CategoryCost    Category = "cost"
	CategoryGrowth  Category = "growth"
	CategoryOther   Category = "other"
)

// categoryOrder is the matching priority: the first keyword set that matches
// a column name wins.
var categoryOrder = []Category{CategoryRevenue, CategoryProfit, CategoryCost, CategoryGrowth}

// Keyword tables cover Finnish and English financial vocabulary. They are
// process-wide constants, shared across requests without locking.
var categoryKeywords = map[Category][]string{
	CategoryRevenue: {
		"liikevaihto", "myynti", "tulot", "revenue", "sales", "income",
		"net sales", "gross revenue", "turnover",
	},
	CategoryProfit: {
		"voitto", "tulos", "kate", "profit", "ebit", "ebitda",
		"operating income", "net income", "gross profit", "margin",
	},
	CategoryCost: {
		"kulut", "kustannukset", "menot", "costs", "expenses",
		"operating costs", "cogs", "overhead",
	},
	CategoryGrowth: {
		"kasvu", "muutos", "growth", "change", "increase",
		"delta", "variance", "yoy", "mom",
	},
}

// timePatterns flag text columns that look like period labels: quarter
// tokens, 4-digit years, month abbreviations in English and Finnish.
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`q[1-4]`),
	regexp.MustCompile(`quarter`),
	regexp.MustCompile(`kvartaali`),
	regexp.MustCompile(`neljännes`),
	regexp.MustCompile(`\d{4}`),
	regexp.MustCompile(`jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec`),
	regexp.MustCompile(`tammi|helmi|maalis|huhti|touko|kesä|heinä|elo|syys|loka|marras|joulu`),
}
