package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/jmattila/document-intelligence/internal/core/domain"
)

// extractPaged pulls per-page text from a PDF. Each non-blank page is
// prefixed with a page banner so the segmenter can snap chunk boundaries to
// page starts. Parse failures are recovered into the metadata.
func extractPaged(content []byte) (text string, meta domain.ExtractionMetadata, _ error) {
	meta = domain.ExtractionMetadata{FileType: domain.FileTypePaged}

	// The pdf library panics on some malformed inputs; keep those failures
	// inside the metadata like every other parse problem.
	defer func() {
		if r := recover(); r != nil {
			meta.Err = fmt.Sprint(r)
			text = fmt.Sprintf("Failed to parse PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		meta.Err = err.Error()
		return fmt.Sprintf("Failed to parse PDF: %s", err), meta, nil
	}

	pageCount := reader.NumPage()
	var parts []string
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(pageText) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("\n=== PAGE %d/%d ===\n", i, pageCount), pageText, "\n")
	}

	text = strings.Join(parts, "")
	meta.PageCount = pageCount
	meta.CharacterCount = utf8.RuneCountInString(text)
	return text, meta, nil
}
