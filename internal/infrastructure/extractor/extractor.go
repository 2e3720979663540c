package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/jmattila/document-intelligence/internal/core/domain"
	"github.com/jmattila/document-intelligence/internal/core/ports"
	"github.com/jmattila/document-intelligence/internal/infrastructure/analytics/tabular"
)

// Extractor reads a stored document and dispatches it to a format-specific
// extraction branch. Recovered extraction problems are reported inside the
// metadata; the error return covers only failures reading the stored object.
type Extractor struct {
	storage ports.ObjectStorage
	log     *slog.Logger

	// Tabular analysis tiers, advanced first with basic as fallback.
	advanced workbookAnalysis
	basic    workbookAnalysis
}

type workbookAnalysis func(content []byte) (string, *tabular.WorkbookAnalysis, error)

var _ ports.DocumentExtractor = (*Extractor)(nil)

func New(storage ports.ObjectStorage, log *slog.Logger) *Extractor {
	return &Extractor{
		storage:  storage,
		log:      log,
		advanced: tabular.NewAnalyzer().AnalyzeWorkbook,
		basic:    tabular.BasicSummary,
	}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, domain.ExtractionMetadata, error) {
	rc, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", domain.ExtractionMetadata{}, fmt.Errorf("open stored document %s: %w", doc.ID, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", domain.ExtractionMetadata{}, fmt.Errorf("read stored document %s: %w", doc.ID, err)
	}

	switch detectFileType(doc.Filename, doc.ContentType) {
	case domain.FileTypeTabular:
		return e.extractWorkbook(content)
	case domain.FileTypePaged:
		return extractPaged(content)
	case domain.FileTypeText:
		return extractPlainText(content)
	default:
		ext := extension(doc.Filename)
		text := fmt.Sprintf("File type %q is not supported. Supported types: txt, md, pdf, xlsx, xls.", ext)
		return text, domain.ExtractionMetadata{
			FileType: domain.FileTypeUnsupported,
			Err:      fmt.Sprintf("unsupported extension %q", ext),
		}, nil
	}
}

// detectFileType dispatches on the filename extension first, then on the
// declared content type.
func detectFileType(filename, contentType string) domain.FileType {
	ext := extension(filename)
	ct := strings.ToLower(contentType)

	switch {
	case ext == "xlsx" || ext == "xls",
		strings.Contains(ct, "spreadsheet") || strings.Contains(ct, "excel"):
		return domain.FileTypeTabular
	case ext == "pdf", strings.Contains(ct, "pdf"):
		return domain.FileTypePaged
	case ext == "txt" || ext == "md",
		strings.HasPrefix(ct, "text/"):
		return domain.FileTypeText
	default:
		return domain.FileTypeUnsupported
	}
}

func extension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
}
