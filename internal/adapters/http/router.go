package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmattila/document-intelligence/internal/config"
	"github.com/jmattila/document-intelligence/internal/core/domain"
	"github.com/jmattila/document-intelligence/internal/core/ports"
	"github.com/jmattila/document-intelligence/internal/observability/metrics"
)

// userHeader identifies the calling user. Users are provisioned on first use,
// so any syntactically present email is accepted.
const (
	userHeader     = "X-User-Email"
	userNameHeader = "X-User-Name"

	defaultHistoryLimit = 50
	defaultSessionLimit = 20
)

type Router struct {
	cfg     config.Config
	ingest  ports.DocumentIngestor
	query   ports.QueryService
	docs    ports.DocumentReader
	chat    ports.ChatReader
	users   ports.UserRepository
	metrics *metrics.APIMetrics
}

func NewRouter(
	cfg config.Config,
	ingest ports.DocumentIngestor,
	query ports.QueryService,
	docs ports.DocumentReader,
	chat ports.ChatReader,
	users ports.UserRepository,
	m *metrics.APIMetrics,
) *Router {
	return &Router{
		cfg:     cfg,
		ingest:  ingest,
		query:   query,
		docs:    docs,
		chat:    chat,
		users:   users,
		metrics: m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/documents/", rt.documentByID)
	mux.HandleFunc("/v1/rag/query", rt.queryRAG)
	mux.HandleFunc("/v1/chat/history", rt.chatHistory)
	mux.HandleFunc("/v1/chat/sessions", rt.chatSessions)
	mux.HandleFunc("/v1/stats", rt.stats)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	email, err := callerEmail(r)
	if err != nil {
		if formEmail := strings.TrimSpace(r.FormValue("user_email")); formEmail != "" {
			email, err = formEmail, nil
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := rt.ingest.Upload(
		r.Context(),
		email,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	user, err := rt.caller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	docs, err := rt.docs.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		rt.getDocument(w, r, id)
	case http.MethodDelete:
		rt.deleteDocument(w, r, id)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	user, err := rt.caller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if doc.UserID != user.ID {
		writeError(w, domain.WrapError(domain.ErrNotFound, "get document", errors.New("id="+id)))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	email, err := callerEmail(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := rt.ingest.Delete(r.Context(), email, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (rt *Router) queryRAG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req struct {
		Question  string `json:"question"`
		TopK      int    `json:"top_k"`
		Persona   string `json:"persona"`
		UserEmail string `json:"user_email"`
		SessionID int64  `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	email := strings.TrimSpace(req.UserEmail)
	if email == "" {
		var err error
		if email, err = callerEmail(r); err != nil {
			writeError(w, err)
			return
		}
	}

	topK := req.TopK
	if topK <= 0 {
		topK = rt.cfg.RAGTopK
	}

	start := time.Now()
	answer, err := rt.query.Answer(r.Context(), ports.QueryRequest{
		UserEmail: email,
		Question:  req.Question,
		TopK:      topK,
		Persona:   domain.Persona(req.Persona),
		SessionID: req.SessionID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordQuery(req.Persona, len(answer.Sources), answer.Confidence, time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) chatHistory(w http.ResponseWriter, r *http.Request) {
	user, err := rt.caller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := rt.chat.History(r.Context(), user.ID, queryLimit(r, defaultHistoryLimit))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": entries})
}

func (rt *Router) chatSessions(w http.ResponseWriter, r *http.Request) {
	user, err := rt.caller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sessions, err := rt.chat.RecentSessions(r.Context(), user.ID, queryLimit(r, defaultSessionLimit))
	if err != nil {
		writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []domain.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	user, err := rt.caller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	stats, err := rt.chat.Stats(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) caller(r *http.Request) (*domain.User, error) {
	email, err := callerEmail(r)
	if err != nil {
		return nil, err
	}
	return rt.users.GetOrCreateByEmail(r.Context(), email, r.Header.Get(userNameHeader))
}

// callerEmail accepts the identity either as the X-User-Email header or as a
// user_email query parameter.
func callerEmail(r *http.Request) (string, error) {
	email := strings.TrimSpace(r.Header.Get(userHeader))
	if email == "" {
		email = strings.TrimSpace(r.URL.Query().Get("user_email"))
	}
	if email == "" {
		return "", domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("missing "+userHeader+" header or user_email parameter"))
	}
	return email, nil
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
