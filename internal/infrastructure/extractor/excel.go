package extractor

import (
	"fmt"
	"unicode/utf8"

	"github.com/jmattila/document-intelligence/internal/core/domain"
)

// extractWorkbook runs the advanced tabular analysis and falls back to the
// basic per-sheet summary when it fails. The metadata records which tier
// actually produced the narrative. Only a double failure yields an
// error-tagged result, and even then the ingestion continues.
func (e *Extractor) extractWorkbook(content []byte) (string, domain.ExtractionMetadata, error) {
	meta := domain.ExtractionMetadata{FileType: domain.FileTypeTabular}

	text, wa, err := e.advanced(content)
	if err == nil {
		meta.Analysis = domain.AnalysisAdvanced
		meta.Sheets = wa.SheetNames
		meta.CharacterCount = utf8.RuneCountInString(text)
		return text, meta, nil
	}

	if e.log != nil {
		e.log.Warn("advanced workbook analysis failed, falling back to basic", "error", err)
	}

	text, wa, basicErr := e.basic(content)
	if basicErr != nil {
		meta.Err = err.Error()
		return fmt.Sprintf("Failed to analyze workbook: %s", err), meta, nil
	}

	meta.Analysis = domain.AnalysisBasic
	meta.Sheets = wa.SheetNames
	meta.CharacterCount = utf8.RuneCountInString(text)
	return text, meta, nil
}
