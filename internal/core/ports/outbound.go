package ports

import (
	"context"
	"io"

	"github.com/jmattila/document-intelligence/internal/core/domain"
)

// UserRepository resolves users by identifier, creating them on first use.
type UserRepository interface {
	GetOrCreateByEmail(ctx context.Context, email, name string) (*domain.User, error)
}

// DocumentRepository persists document metadata and chunk rows.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveExtraction(ctx context.Context, id string, fileType domain.FileType, chunkCount int) error
	SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
	Delete(ctx context.Context, id string) error
}

// ChatStore persists query sessions and messages.
type ChatStore interface {
	EnsureSession(ctx context.Context, userID string, sessionID int64) (int64, error)
	AppendMessage(ctx context.Context, msg domain.ChatMessage) (int64, error)
	History(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)
	RecentSessions(ctx context.Context, userID string, limit int) ([]domain.SessionSummary, error)
	Stats(ctx context.Context, userID string) (*domain.UserStats, error)
}

// ObjectStorage stores raw uploaded documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentExtractor turns a stored document into narrative text plus
// structured metadata. Extraction problems (corrupt bytes, unsupported
// formats) are reported inside the metadata, not as an error; the error
// return is reserved for I/O failures reading the stored object.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, domain.ExtractionMetadata, error)
}

// Chunker splits extracted text into overlapping chunks. The file type tag
// lets the implementation pick a larger window for banner-structured
// narratives (tabular analysis output).
type Chunker interface {
	Split(text string, fileType domain.FileType) []string
}

// Embedder builds vectors for chunk batches and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes chunks and performs filtered nearest-neighbour search.
type VectorStore interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// AnswerGenerator produces the final answer text. Temperature is passed
// through unchanged from the selected persona.
type AnswerGenerator interface {
	Generate(ctx context.Context, system, prompt string, temperature float64) (string, error)
}
