package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmattila/document-intelligence/internal/core/domain"
)

func newProcessFixture(extractor *extractorFake, chunker *chunkerFake) (*ProcessDocumentUseCase, *docRepoFake, *embedderFake, *vectorFake) {
	repo := &docRepoFake{
		docs: map[string]*domain.Document{
			"doc-1": {
				ID:          "doc-1",
				UserID:      "user-1",
				Filename:    "notes.txt",
				StoragePath: "user-1/doc-1_notes.txt",
				Status:      domain.StatusUploaded,
			},
		},
	}
	embedder := &embedderFake{}
	vector := &vectorFake{}
	uc := NewProcessDocumentUseCase(repo, extractor, chunker, embedder, vector, testLogger())
	return uc, repo, embedder, vector
}

func TestProcessByIDHappyPath(t *testing.T) {
	extractor := &extractorFake{
		text: "first part\n\nsecond part",
		meta: domain.ExtractionMetadata{FileType: domain.FileTypeText, CharacterCount: 23},
	}
	chunker := &chunkerFake{chunks: []string{"first part", "second pärt"}}
	uc, repo, embedder, vector := newProcessFixture(extractor, chunker)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID: %v", err)
	}

	want := []statusChange{
		{status: domain.StatusProcessing},
		{status: domain.StatusReady},
	}
	if len(repo.statuses) != len(want) {
		t.Fatalf("status changes = %+v", repo.statuses)
	}
	for i, sc := range want {
		if repo.statuses[i] != sc {
			t.Fatalf("status change %d = %+v, want %+v", i, repo.statuses[i], sc)
		}
	}
	if chunker.fileType != domain.FileTypeText {
		t.Fatalf("chunker got file type %q", chunker.fileType)
	}
	if len(repo.savedChunks) != 2 {
		t.Fatalf("saved %d chunks", len(repo.savedChunks))
	}
	if c := repo.savedChunks[1]; c.Index != 1 || c.DocumentID != "doc-1" || c.CharCount != 11 {
		t.Fatalf("chunk 1 = %+v, want rune count 11", c)
	}
	if len(embedder.batched) != 2 || embedder.batched[0] != "first part" {
		t.Fatalf("embedded texts = %v", embedder.batched)
	}
	if len(vector.indexedChunks) != 2 {
		t.Fatalf("indexed %d chunks", len(vector.indexedChunks))
	}
	if vector.indexedDoc.FileType != domain.FileTypeText {
		t.Fatalf("indexed doc file type = %q", vector.indexedDoc.FileType)
	}
	if repo.extractType != domain.FileTypeText || repo.extractN != 2 {
		t.Fatalf("extraction saved as %q/%d", repo.extractType, repo.extractN)
	}
}

func TestProcessByIDUnsupportedMarksFailedAndConsumes(t *testing.T) {
	extractor := &extractorFake{
		text: `File type ".exe" is not supported.`,
		meta: domain.ExtractionMetadata{
			FileType: domain.FileTypeUnsupported,
			Err:      `unsupported extension ".exe"`,
		},
	}
	uc, repo, embedder, vector := newProcessFixture(extractor, &chunkerFake{})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("unsupported documents must consume the event, got %v", err)
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last.status != domain.StatusFailed || !strings.Contains(last.errMsg, ".exe") {
		t.Fatalf("final status = %+v", last)
	}
	if repo.extractType != domain.FileTypeUnsupported || repo.extractN != 0 {
		t.Fatalf("extraction saved as %q/%d", repo.extractType, repo.extractN)
	}
	if embedder.batched != nil || vector.indexedChunks != nil {
		t.Fatalf("no embedding or indexing should happen for unsupported files")
	}
}

func TestProcessByIDRecoveredExtractionError(t *testing.T) {
	extractor := &extractorFake{
		text: "Failed to parse PDF: corrupt xref table",
		meta: domain.ExtractionMetadata{
			FileType: domain.FileTypePaged,
			Err:      "Failed to parse PDF: corrupt xref table",
		},
	}
	uc, repo, _, _ := newProcessFixture(extractor, &chunkerFake{})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("recovered extraction errors must consume the event, got %v", err)
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last.status != domain.StatusFailed || !strings.Contains(last.errMsg, "corrupt xref") {
		t.Fatalf("final status = %+v", last)
	}
}

func TestProcessByIDExtractorIOErrorPropagates(t *testing.T) {
	extractor := &extractorFake{err: errors.New("open object: disk gone")}
	uc, repo, _, _ := newProcessFixture(extractor, &chunkerFake{})

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Fatalf("expected extractor error, got %v", err)
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("final status = %+v", last)
	}
}

func TestProcessByIDZeroChunksFails(t *testing.T) {
	extractor := &extractorFake{
		text: "   ",
		meta: domain.ExtractionMetadata{FileType: domain.FileTypeText},
	}
	uc, repo, _, vector := newProcessFixture(extractor, &chunkerFake{chunks: nil})

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if vector.indexedChunks != nil {
		t.Fatalf("nothing should be indexed")
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("final status = %+v", last)
	}
}

func TestProcessByIDEmbedMismatchFailsWithoutPartialIndex(t *testing.T) {
	extractor := &extractorFake{
		text: "a\n\nb",
		meta: domain.ExtractionMetadata{FileType: domain.FileTypeText},
	}
	chunker := &chunkerFake{chunks: []string{"a", "b"}}
	uc, repo, embedder, vector := newProcessFixture(extractor, chunker)
	embedder.short = true

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput on vector count mismatch, got %v", err)
	}
	if repo.savedChunks != nil || vector.indexedChunks != nil {
		t.Fatalf("no chunk rows or index entries may exist after a mismatch")
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last.status != domain.StatusFailed || !strings.Contains(last.errMsg, "mismatch") {
		t.Fatalf("final status = %+v", last)
	}
}

func TestProcessByIDUnknownDocument(t *testing.T) {
	uc, _, _, _ := newProcessFixture(&extractorFake{}, &chunkerFake{})

	err := uc.ProcessByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
