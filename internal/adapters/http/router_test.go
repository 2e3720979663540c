package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmattila/document-intelligence/internal/config"
	"github.com/jmattila/document-intelligence/internal/core/domain"
	"github.com/jmattila/document-intelligence/internal/core/ports"
)

type ingestFake struct {
	uploadedEmail string
	deletedID     string
	err           error
}

func (f *ingestFake) Upload(_ context.Context, userEmail, filename, contentType string, body io.Reader) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	f.uploadedEmail = userEmail
	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		UserID:      "user-1",
		Filename:    filename,
		ContentType: contentType,
		StoragePath: "user-1/doc-1_" + filename,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (f *ingestFake) Delete(_ context.Context, _, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedID = documentID
	return nil
}

type queryFake struct {
	req ports.QueryRequest
	err error
}

func (f *queryFake) Answer(_ context.Context, req ports.QueryRequest) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.req = req
	return &domain.Answer{
		Text:       "the answer",
		Sources:    []domain.RetrievedSource{{Filename: "a.txt", DocumentID: "doc-1", Similarity: 0.8}},
		Confidence: 0.8,
		SessionID:  7,
	}, nil
}

type docsFake struct {
	doc *domain.Document
	err error
}

func (f *docsFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func (f *docsFake) ListByUser(context.Context, string) ([]domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

type chatFake struct {
	err error
}

func (f *chatFake) History(context.Context, string, int) ([]domain.HistoryEntry, error) {
	return nil, f.err
}

func (f *chatFake) RecentSessions(context.Context, string, int) ([]domain.SessionSummary, error) {
	return nil, f.err
}

func (f *chatFake) Stats(context.Context, string) (*domain.UserStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.UserStats{DocumentCount: 3}, nil
}

type usersFake struct{}

func (usersFake) GetOrCreateByEmail(_ context.Context, email, _ string) (*domain.User, error) {
	return &domain.User{ID: "user-1", Email: email}, nil
}

type fixtures struct {
	ingest *ingestFake
	query  *queryFake
	docs   *docsFake
	chat   *chatFake
}

func newTestHandler(cfg config.Config, f fixtures) http.Handler {
	if f.ingest == nil {
		f.ingest = &ingestFake{}
	}
	if f.query == nil {
		f.query = &queryFake{}
	}
	if f.docs == nil {
		f.docs = &docsFake{doc: &domain.Document{ID: "doc-1", UserID: "user-1", Status: domain.StatusReady}}
	}
	if f.chat == nil {
		f.chat = &chatFake{}
	}
	return NewRouter(cfg, f.ingest, f.query, f.docs, f.chat, usersFake{}, nil).Handler()
}

func baseConfig() config.Config {
	cfg := config.Default()
	cfg.APIRateLimitRPS = 0
	return cfg
}

func authed(req *http.Request) *http.Request {
	req.Header.Set(userHeader, "a@b.c")
	return req
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(baseConfig(), fixtures{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestUploadDocumentSuccess(t *testing.T) {
	ingest := &ingestFake{}
	handler := newTestHandler(baseConfig(), fixtures{ingest: ingest})

	body, contentType := multipartUpload(t, "file", "report.xlsx", "workbook bytes")
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/documents", body))
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if ingest.uploadedEmail != "a@b.c" {
		t.Fatalf("upload email = %q", ingest.uploadedEmail)
	}

	var doc map[string]any
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc["id"] != "doc-1" {
		t.Fatalf("unexpected response: %+v", doc)
	}
}

func TestUploadDocumentRequiresUserHeader(t *testing.T) {
	handler := newTestHandler(baseConfig(), fixtures{})

	body, contentType := multipartUpload(t, "file", "a.txt", "hello")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	handler := newTestHandler(baseConfig(), fixtures{})

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewBufferString("plain-text")))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetDocumentForeignOwnerReturns404(t *testing.T) {
	docs := &docsFake{doc: &domain.Document{ID: "doc-1", UserID: "someone-else"}}
	handler := newTestHandler(baseConfig(), fixtures{docs: docs})

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1", nil))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestDeleteDocumentMapsNotFound(t *testing.T) {
	ingest := &ingestFake{err: domain.WrapError(domain.ErrNotFound, "delete", errors.New("id=missing"))}
	handler := newTestHandler(baseConfig(), fixtures{ingest: ingest})

	req := authed(httptest.NewRequest(http.MethodDelete, "/v1/documents/missing", nil))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestQueryRAGSuccessAndTopKDefault(t *testing.T) {
	query := &queryFake{}
	cfg := baseConfig()
	cfg.RAGTopK = 7
	handler := newTestHandler(cfg, fixtures{query: query})

	payload, _ := json.Marshal(map[string]any{"question": "how did revenue develop?", "persona": "analytical"})
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/rag/query", bytes.NewReader(payload)))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if query.req.TopK != 7 {
		t.Fatalf("top k = %d, want config default 7", query.req.TopK)
	}
	if query.req.Persona != domain.PersonaAnalytical {
		t.Fatalf("persona = %q", query.req.Persona)
	}

	var answer map[string]any
	if err := json.NewDecoder(res.Body).Decode(&answer); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if answer["text"] != "the answer" {
		t.Fatalf("unexpected answer payload: %+v", answer)
	}
}

func TestQueryRAGMapsDomainErrors(t *testing.T) {
	cases := []struct {
		kind error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{domain.ErrTemporary, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		query := &queryFake{err: domain.WrapError(tc.kind, "answer", errors.New("boom"))}
		handler := newTestHandler(baseConfig(), fixtures{query: query})

		payload, _ := json.Marshal(map[string]any{"question": "q"})
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/rag/query", bytes.NewReader(payload)))
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)

		if res.Code != tc.want {
			t.Fatalf("kind %v: expected %d, got %d", tc.kind, tc.want, res.Code)
		}
	}
}

func TestQueryRAGAcceptsBodyEmail(t *testing.T) {
	query := &queryFake{}
	handler := newTestHandler(baseConfig(), fixtures{query: query})

	payload, _ := json.Marshal(map[string]any{"question": "q", "user_email": "body@b.c"})
	req := httptest.NewRequest(http.MethodPost, "/v1/rag/query", bytes.NewReader(payload))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if query.req.UserEmail != "body@b.c" {
		t.Fatalf("user email = %q", query.req.UserEmail)
	}
}

func TestListDocumentsAcceptsQueryParamEmail(t *testing.T) {
	handler := newTestHandler(baseConfig(), fixtures{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents?user_email=a@b.c", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestChatAndStatsEndpoints(t *testing.T) {
	handler := newTestHandler(baseConfig(), fixtures{})

	for _, path := range []string{"/v1/chat/history", "/v1/chat/sessions", "/v1/stats"} {
		req := authed(httptest.NewRequest(http.MethodGet, path, nil))
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, res.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user header, got %d", res.Code)
	}
}

func TestListDocumentsReturnsEmptyArray(t *testing.T) {
	handler := newTestHandler(baseConfig(), fixtures{})

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/documents", nil))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp["documents"].([]any); !ok {
		t.Fatalf("documents should always be an array, got %+v", resp["documents"])
	}
}
