package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/jmattila/document-intelligence/internal/core/domain"
	"github.com/jmattila/document-intelligence/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.DocumentExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	log       *slog.Logger
}

var _ ports.DocumentProcessor = (*ProcessDocumentUseCase)(nil)

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.DocumentExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	log *slog.Logger,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectorDB:  vectorDB,
		log:       log,
	}
}

// ProcessByID runs the extraction pipeline for one uploaded document:
// extract, segment, embed, index, persist. A recovered extraction problem
// (unsupported type, corrupt bytes) marks the document failed with the reason
// and consumes the event; collaborator failures propagate so the caller can
// decide about redelivery.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	text, meta, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return uc.fail(ctx, documentID, fmt.Errorf("extract document: %w", err))
	}

	doc.FileType = meta.FileType

	if meta.Err != "" || meta.FileType == domain.FileTypeUnsupported {
		reason := meta.Err
		if reason == "" {
			reason = "unsupported file type"
		}
		if err := uc.repo.SaveExtraction(ctx, documentID, meta.FileType, 0); err != nil {
			return fmt.Errorf("save extraction result: %w", err)
		}
		if err := uc.markStatus(ctx, documentID, domain.StatusFailed, reason); err != nil {
			return fmt.Errorf("set status=failed: %w", err)
		}
		uc.log.Warn("document not processable", "document_id", documentID, "file_type", meta.FileType, "reason", reason)
		return nil
	}

	chunks, err := uc.segment(text, meta.FileType, documentID)
	if err != nil {
		return uc.fail(ctx, documentID, err)
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return uc.fail(ctx, documentID, err)
	}

	if err := uc.repo.SaveChunks(ctx, documentID, chunks); err != nil {
		return uc.fail(ctx, documentID, fmt.Errorf("save chunk rows: %w", err))
	}
	if err := uc.vectorDB.IndexChunks(ctx, doc, chunks, vectors); err != nil {
		return uc.fail(ctx, documentID, fmt.Errorf("index chunks in vector db: %w", err))
	}
	if err := uc.repo.SaveExtraction(ctx, documentID, meta.FileType, len(chunks)); err != nil {
		return uc.fail(ctx, documentID, fmt.Errorf("save extraction result: %w", err))
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	uc.log.Info("document processed",
		"document_id", documentID,
		"file_type", meta.FileType,
		"chunks", len(chunks),
		"analysis", meta.Analysis,
	)
	return nil
}

func (uc *ProcessDocumentUseCase) segment(text string, fileType domain.FileType, documentID string) ([]domain.Chunk, error) {
	pieces := uc.chunker.Split(text, fileType)
	if len(pieces) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "segment document", errors.New("segmentation produced zero chunks"))
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			DocumentID: documentID,
			Index:      i,
			Content:    piece,
			CharCount:  utf8.RuneCountInString(piece),
		}
	}
	return chunks, nil
}

// embed issues one batched embedding call. A count mismatch fails the whole
// ingestion: no partial chunk set is ever indexed.
func (uc *ProcessDocumentUseCase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) fail(ctx context.Context, documentID string, processErr error) error {
	if failErr := uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error()); failErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", processErr, failErr)
	}
	return processErr
}
