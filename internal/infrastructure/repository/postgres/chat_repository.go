package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmattila/document-intelligence/internal/core/domain"
	"github.com/jmattila/document-intelligence/internal/core/ports"
)

type ChatRepository struct {
	db *sql.DB
}

var _ ports.ChatStore = (*ChatRepository)(nil)

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// EnsureSession returns the session id to use for a query. A provided id is
// reused only when it belongs to the user; otherwise a fresh session is
// created, so stale or foreign ids never fail a query.
func (r *ChatRepository) EnsureSession(ctx context.Context, userID string, sessionID int64) (int64, error) {
	if sessionID > 0 {
		var id int64
		err := r.db.QueryRowContext(ctx, `
SELECT id FROM chat_sessions WHERE id = $1 AND user_id = $2
`, sessionID, userID).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("look up session: %w", err)
		}
	}

	now := time.Now().UTC()
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO chat_sessions (user_id, created_at, updated_at)
VALUES ($1, $2, $2)
RETURNING id
`, userID, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (r *ChatRepository) AppendMessage(ctx context.Context, msg domain.ChatMessage) (int64, error) {
	sourceIDs := msg.SourceDocumentIDs
	if sourceIDs == nil {
		sourceIDs = []string{}
	}
	sourcesJSON, err := json.Marshal(sourceIDs)
	if err != nil {
		return 0, fmt.Errorf("marshal source ids: %w", err)
	}

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin message tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var id int64
	err = tx.QueryRowContext(ctx, `
INSERT INTO chat_messages (session_id, role, content, confidence, source_document_ids, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`, msg.SessionID, msg.Role, msg.Content, msg.Confidence, sourcesJSON, createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE chat_sessions SET updated_at = $2 WHERE id = $1
`, msg.SessionID, createdAt); err != nil {
		return 0, fmt.Errorf("touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit message tx: %w", err)
	}
	return id, nil
}

func (r *ChatRepository) History(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT m.session_id, s.name, m.role, m.content, m.confidence, m.created_at
FROM chat_messages m
JOIN chat_sessions s ON s.id = m.session_id
WHERE s.user_id = $1
ORDER BY m.created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(&entry.SessionID, &entry.SessionName, &entry.Role, &entry.Content, &entry.Confidence, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func (r *ChatRepository) RecentSessions(ctx context.Context, userID string, limit int) ([]domain.SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT s.id, s.name, COUNT(m.id), s.updated_at
FROM chat_sessions s
LEFT JOIN chat_messages m ON m.session_id = s.id
WHERE s.user_id = $1
GROUP BY s.id, s.name, s.updated_at
ORDER BY s.updated_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionSummary
	for rows.Next() {
		var s domain.SessionSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.MessageCount, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (r *ChatRepository) Stats(ctx context.Context, userID string) (*domain.UserStats, error) {
	var stats domain.UserStats
	err := r.db.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM documents WHERE user_id = $1),
	(SELECT COALESCE(SUM(size_bytes), 0) FROM documents WHERE user_id = $1),
	(SELECT COUNT(*) FROM document_chunks c JOIN documents d ON d.id = c.document_id WHERE d.user_id = $1),
	(SELECT COUNT(*) FROM chat_sessions WHERE user_id = $1),
	(SELECT COUNT(*) FROM chat_messages m JOIN chat_sessions s ON s.id = m.session_id WHERE s.user_id = $1)
`, userID).Scan(&stats.DocumentCount, &stats.TotalBytes, &stats.ChunkCount, &stats.SessionCount, &stats.MessageCount)
	if err != nil {
		return nil, fmt.Errorf("query user stats: %w", err)
	}
	return &stats, nil
}
