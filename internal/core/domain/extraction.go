package domain

// AnalysisTier records which tabular analysis actually ran for a workbook.
type AnalysisTier string

const (
	AnalysisAdvanced AnalysisTier = "advanced"
	AnalysisBasic    AnalysisTier = "basic"
	AnalysisNone     AnalysisTier = ""
)

// ExtractionMetadata is the structured half of an extraction result. Every
// extractor branch fills FileType; the remaining fields depend on the format.
// A non-empty Err marks a recovered extraction failure: the narrative text
// then carries a human-readable reason instead of document content.
type ExtractionMetadata struct {
	FileType       FileType     `json:"file_type"`
	CharacterCount int          `json:"character_count,omitempty"`
	Encoding       string       `json:"encoding,omitempty"`
	PageCount      int          `json:"page_count,omitempty"`
	Sheets         []string     `json:"sheets,omitempty"`
	Analysis       AnalysisTier `json:"analysis,omitempty"`
	Err            string       `json:"error,omitempty"`
}
