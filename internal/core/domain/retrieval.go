package domain

// SearchFilter restricts vector search to one user's chunks and optionally to
// a single document (used for cascading deletes).
type SearchFilter struct {
	UserID     string
	DocumentID string
}

// ScoredChunk is a raw vector index hit. Distance is the index's cosine
// distance; similarity conversion happens in the ranking layer.
type ScoredChunk struct {
	DocumentID string
	Filename   string
	ChunkIndex int
	FileType   FileType
	Text       string
	Distance   float64
}

// RetrievedSource is the per-query provenance record surfaced to the caller.
type RetrievedSource struct {
	Filename   string   `json:"filename"`
	ChunkIndex int      `json:"chunk_index"`
	DocumentID string   `json:"document_id"`
	Similarity float64  `json:"similarity"`
	FileType   FileType `json:"file_type"`
	Preview    string   `json:"preview"`
}

type Answer struct {
	Text       string            `json:"text"`
	Sources    []RetrievedSource `json:"sources"`
	Confidence float64           `json:"confidence"`
	SessionID  int64             `json:"session_id"`
}

// Persona selects the response style for answer composition. It only changes
// the generation instructions and temperature, never retrieval.
type Persona string

const (
	PersonaPlain      Persona = "plain"
	PersonaAnalytical Persona = "analytical"
	PersonaCreative   Persona = "creative"
	PersonaExecutive  Persona = "executive"
)
