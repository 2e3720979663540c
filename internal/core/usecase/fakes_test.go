package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jmattila/document-intelligence/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type userRepoFake struct {
	err error
}

func (f *userRepoFake) GetOrCreateByEmail(_ context.Context, email, _ string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.User{ID: "user-1", Email: email}, nil
}

type chatStoreFake struct {
	ensuredUser    string
	ensuredSession int64
	messages       []domain.ChatMessage
	appendErr      error
}

func (f *chatStoreFake) EnsureSession(_ context.Context, userID string, sessionID int64) (int64, error) {
	f.ensuredUser = userID
	f.ensuredSession = sessionID
	if sessionID > 0 {
		return sessionID, nil
	}
	return 7, nil
}

func (f *chatStoreFake) AppendMessage(_ context.Context, msg domain.ChatMessage) (int64, error) {
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	f.messages = append(f.messages, msg)
	return int64(len(f.messages)), nil
}

func (f *chatStoreFake) History(context.Context, string, int) ([]domain.HistoryEntry, error) {
	return nil, nil
}

func (f *chatStoreFake) RecentSessions(context.Context, string, int) ([]domain.SessionSummary, error) {
	return nil, nil
}

func (f *chatStoreFake) Stats(context.Context, string) (*domain.UserStats, error) {
	return &domain.UserStats{}, nil
}

type statusChange struct {
	status domain.DocumentStatus
	errMsg string
}

type docRepoFake struct {
	docs        map[string]*domain.Document
	statuses    []statusChange
	savedChunks []domain.Chunk
	extractType domain.FileType
	extractN    int
	deleted     []string
	createErr   error
	chunksErr   error
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.docs == nil {
		f.docs = make(map[string]*domain.Document)
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	copied := *doc
	return &copied, nil
}

func (f *docRepoFake) ListByUser(context.Context, string) ([]domain.Document, error) {
	return nil, nil
}

func (f *docRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statuses = append(f.statuses, statusChange{status: status, errMsg: errMessage})
	return nil
}

func (f *docRepoFake) SaveExtraction(_ context.Context, _ string, fileType domain.FileType, chunkCount int) error {
	f.extractType = fileType
	f.extractN = chunkCount
	return nil
}

func (f *docRepoFake) SaveChunks(_ context.Context, _ string, chunks []domain.Chunk) error {
	if f.chunksErr != nil {
		return f.chunksErr
	}
	f.savedChunks = chunks
	return nil
}

func (f *docRepoFake) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type storageFake struct {
	saved   map[string]string
	removed []string
	saveErr error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[key] = string(content)
	return int64(len(content)), nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.saved[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (f *storageFake) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	delete(f.saved, key)
	return nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

type vectorFake struct {
	indexedDoc    *domain.Document
	indexedChunks []domain.Chunk
	searchLimit   int
	searchFilter  domain.SearchFilter
	results       []domain.ScoredChunk
	deleted       []string
	searchErr     error
	indexErr      error
}

func (f *vectorFake) IndexChunks(_ context.Context, doc *domain.Document, chunks []domain.Chunk, _ [][]float32) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexedDoc = doc
	f.indexedChunks = chunks
	return nil
}

func (f *vectorFake) Search(_ context.Context, _ []float32, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error) {
	f.searchLimit = limit
	f.searchFilter = filter
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *vectorFake) DeleteByDocument(_ context.Context, documentID string) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

type embedderFake struct {
	batched  []string
	query    string
	short    bool
	embedErr error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	f.batched = texts
	n := len(texts)
	if f.short && n > 0 {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	f.query = text
	return []float32{0.1, 0.2}, nil
}

type extractorFake struct {
	text string
	meta domain.ExtractionMetadata
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, domain.ExtractionMetadata, error) {
	return f.text, f.meta, f.err
}

type chunkerFake struct {
	fileType domain.FileType
	chunks   []string
}

func (f *chunkerFake) Split(_ string, fileType domain.FileType) []string {
	f.fileType = fileType
	return f.chunks
}

type generatorFake struct {
	system      string
	prompt      string
	temperature float64
	calls       int
	err         error
}

func (f *generatorFake) Generate(_ context.Context, system, prompt string, temperature float64) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	f.system = system
	f.prompt = prompt
	f.temperature = temperature
	return "generated answer", nil
}
