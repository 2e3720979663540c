package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/jmattila/document-intelligence/internal/core/domain"
)

func newChatRepoWithMock(t *testing.T) (*ChatRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ChatRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestEnsureSessionReusesOwnedSession(t *testing.T) {
	repo, mock, done := newChatRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id FROM chat_sessions").
		WithArgs(int64(42), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := repo.EnsureSession(context.Background(), "user-1", 42)
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	if id != 42 {
		t.Fatalf("id = %d, want 42", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSessionCreatesFreshSessionForForeignID(t *testing.T) {
	repo, mock, done := newChatRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id FROM chat_sessions").
		WithArgs(int64(42), "user-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO chat_sessions").
		WithArgs("user-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.EnsureSession(context.Background(), "user-1", 42)
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendMessageTouchesSession(t *testing.T) {
	repo, mock, done := newChatRepoWithMock(t)
	defer done()

	confidence := 0.73
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO chat_messages").
		WithArgs(int64(7), domain.RoleAssistant, "the answer", &confidence, []byte(`["doc-1"]`), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(99)))
	mock.ExpectExec("UPDATE chat_sessions SET updated_at").
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.AppendMessage(context.Background(), domain.ChatMessage{
		SessionID:         7,
		Role:              domain.RoleAssistant,
		Content:           "the answer",
		Confidence:        &confidence,
		SourceDocumentIDs: []string{"doc-1"},
	})
	if err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if id != 99 {
		t.Fatalf("id = %d, want 99", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStatsScansAllCounters(t *testing.T) {
	repo, mock, done := newChatRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"docs", "bytes", "chunks", "sessions", "messages"}).
			AddRow(3, int64(4096), 17, 2, 9))

	stats, err := repo.Stats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DocumentCount != 3 || stats.TotalBytes != 4096 || stats.ChunkCount != 17 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.SessionCount != 2 || stats.MessageCount != 9 {
		t.Fatalf("stats = %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHistoryScansJoinedRows(t *testing.T) {
	repo, mock, done := newChatRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	confidence := 0.5
	mock.ExpectQuery("SELECT m.session_id, s.name").
		WithArgs("user-1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "name", "role", "content", "confidence", "created_at"}).
			AddRow(int64(7), "New chat", domain.RoleAssistant, "answer", &confidence, now).
			AddRow(int64(7), "New chat", domain.RoleUser, "question", nil, now.Add(-time.Minute)))

	entries, err := repo.History(context.Background(), "user-1", 20)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Confidence == nil || *entries[0].Confidence != 0.5 {
		t.Fatalf("confidence = %v", entries[0].Confidence)
	}
	if entries[1].Confidence != nil {
		t.Fatalf("user message should carry no confidence")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
