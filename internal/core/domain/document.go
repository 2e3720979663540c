package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// FileType is the detected document format tag. It is written into the vector
// index payload and drives chunk sizing and source labelling downstream, so
// the values are part of the persisted contract.
type FileType string

const (
	FileTypeText        FileType = "text"
	FileTypeTabular     FileType = "tabular"
	FileTypePaged       FileType = "paged"
	FileTypeUnsupported FileType = "unsupported"
)

type Document struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Filename    string         `json:"filename"`
	ContentType string         `json:"content_type"`
	StoragePath string         `json:"storage_path"`
	FileType    FileType       `json:"file_type,omitempty"`
	SizeBytes   int64          `json:"size_bytes"`
	ChunkCount  int            `json:"chunk_count"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Chunk is one ordered fragment of a document's extracted text. Chunks are
// immutable after ingestion and removed only with their owning document.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"`
	Content    string `json:"content"`
	CharCount  int    `json:"char_count"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}
