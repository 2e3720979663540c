package ports

import (
	"context"
	"io"

	"github.com/jmattila/document-intelligence/internal/core/domain"
)

// DocumentIngestor is the inbound contract for upload and delete orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, userEmail, filename, contentType string, body io.Reader) (*domain.Document, error)
	Delete(ctx context.Context, userEmail, documentID string) error
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// QueryRequest carries one grounded-answer request.
type QueryRequest struct {
	UserEmail string
	Question  string
	TopK      int
	Persona   domain.Persona
	SessionID int64
}

// QueryService is the inbound contract for retrieval-augmented answering.
type QueryService interface {
	Answer(ctx context.Context, req QueryRequest) (*domain.Answer, error)
}

// DocumentReader is the inbound read model for document metadata.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Document, error)
}

// ChatReader exposes chat history, session listings and per-user stats.
type ChatReader interface {
	History(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)
	RecentSessions(ctx context.Context, userID string, limit int) ([]domain.SessionSummary, error)
	Stats(ctx context.Context, userID string) (*domain.UserStats, error)
}
