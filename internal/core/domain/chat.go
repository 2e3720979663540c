package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatSession struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatMessage struct {
	ID                int64     `json:"id"`
	SessionID         int64     `json:"session_id"`
	Role              string    `json:"role"`
	Content           string    `json:"content"`
	Confidence        *float64  `json:"confidence,omitempty"`
	SourceDocumentIDs []string  `json:"source_document_ids,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// HistoryEntry is a chat message joined with its session name for the
// history listing.
type HistoryEntry struct {
	SessionID   int64     `json:"session_id"`
	SessionName string    `json:"session_name"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	Confidence  *float64  `json:"confidence,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type SessionSummary struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserStats struct {
	DocumentCount int   `json:"document_count"`
	TotalBytes    int64 `json:"total_bytes"`
	ChunkCount    int   `json:"chunk_count"`
	SessionCount  int   `json:"session_count"`
	MessageCount  int   `json:"message_count"`
}
