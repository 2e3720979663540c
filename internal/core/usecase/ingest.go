package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmattila/document-intelligence/internal/core/domain"
	"github.com/jmattila/document-intelligence/internal/core/ports"
)

type IngestDocumentUseCase struct {
	users    ports.UserRepository
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
	vectorDB ports.VectorStore
	log      *slog.Logger
}

var _ ports.DocumentIngestor = (*IngestDocumentUseCase)(nil)

func NewIngestDocumentUseCase(
	users ports.UserRepository,
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	vectorDB ports.VectorStore,
	log *slog.Logger,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		users:    users,
		repo:     repo,
		storage:  storage,
		queue:    queue,
		vectorDB: vectorDB,
		log:      log,
	}
}

// Upload stores the raw bytes, creates the metadata row and publishes the
// processing event. Extraction and indexing happen asynchronously in the
// worker.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	userEmail, filename, contentType string,
	body io.Reader,
) (*domain.Document, error) {
	if strings.TrimSpace(userEmail) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("missing user email"))
	}
	if strings.TrimSpace(filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("missing filename"))
	}
	if body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("missing file body"))
	}

	user, err := uc.users.GetOrCreateByEmail(ctx, userEmail, "")
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s/%s_%s", user.ID, id, sanitizeFilename(filename))
	now := time.Now().UTC()

	size, err := uc.storage.Save(ctx, storageKey, body)
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		UserID:      user.ID,
		Filename:    filename,
		ContentType: contentType,
		StoragePath: storageKey,
		SizeBytes:   size,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		if removeErr := uc.storage.Remove(ctx, storageKey); removeErr != nil {
			uc.log.Warn("orphaned stored object after failed create", "key", storageKey, "error", removeErr)
		}
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	uc.log.Info("document uploaded", "document_id", doc.ID, "user_id", user.ID, "bytes", size)
	return doc, nil
}

// Delete removes the vector index entries, the stored object and the
// metadata rows (chunks cascade). Only the owning user can delete a document.
func (uc *IngestDocumentUseCase) Delete(ctx context.Context, userEmail, documentID string) error {
	user, err := uc.users.GetOrCreateByEmail(ctx, userEmail, "")
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.UserID != user.ID {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}

	if err := uc.vectorDB.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete vector entries: %w", err)
	}
	if err := uc.storage.Remove(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("remove stored object: %w", err)
	}
	if err := uc.repo.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document rows: %w", err)
	}

	uc.log.Info("document deleted", "document_id", documentID, "user_id", user.ID)
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
