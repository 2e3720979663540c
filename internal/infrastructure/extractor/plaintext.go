package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/jmattila/document-intelligence/internal/core/domain"
)

// extractPlainText decodes the content as UTF-8 and falls back to Latin-1
// when the bytes are not valid UTF-8. Latin-1 maps every byte to the code
// point of the same value, so the fallback cannot fail.
func extractPlainText(content []byte) (string, domain.ExtractionMetadata, error) {
	meta := domain.ExtractionMetadata{FileType: domain.FileTypeText, Encoding: "utf-8"}

	var text string
	if utf8.Valid(content) {
		text = string(content)
	} else {
		text = decodeLatin1(content)
		meta.Encoding = "latin-1"
	}

	meta.CharacterCount = utf8.RuneCountInString(text)
	return text, meta, nil
}

func decodeLatin1(content []byte) string {
	var b strings.Builder
	b.Grow(len(content))
	for _, c := range content {
		b.WriteRune(rune(c))
	}
	return b.String()
}
