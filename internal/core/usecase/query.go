package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmattila/document-intelligence/internal/core/domain"
	"github.com/jmattila/document-intelligence/internal/core/ports"
)

const (
	defaultTopK   = 5
	previewRunes  = 200
	noSourcesText = "I could not find any relevant documents to answer this question. " +
		"Upload documents first, or try rephrasing the question."
)

type QueryUseCase struct {
	users     ports.UserRepository
	chat      ports.ChatStore
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	generator ports.AnswerGenerator
	log       *slog.Logger
}

var _ ports.QueryService = (*QueryUseCase)(nil)

func NewQueryUseCase(
	users ports.UserRepository,
	chat ports.ChatStore,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	generator ports.AnswerGenerator,
	log *slog.Logger,
) *QueryUseCase {
	return &QueryUseCase{
		users:     users,
		chat:      chat,
		embedder:  embedder,
		vectorDB:  vectorDB,
		generator: generator,
		log:       log,
	}
}

// Answer runs one retrieval-augmented query: embed the question, search the
// user's own chunks, compose a persona-conditioned prompt and persist both
// sides of the exchange. An empty retrieval result yields a fixed
// zero-confidence answer without calling the generator.
func (uc *QueryUseCase) Answer(ctx context.Context, req ports.QueryRequest) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer query", errors.New("missing question"))
	}
	if strings.TrimSpace(req.UserEmail) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer query", errors.New("missing user email"))
	}
	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	user, err := uc.users.GetOrCreateByEmail(ctx, req.UserEmail, "")
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	sessionID, err := uc.chat.EnsureSession(ctx, user.ID, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("ensure session: %w", err)
	}
	if _, err := uc.chat.AppendMessage(ctx, domain.ChatMessage{
		SessionID: sessionID,
		Role:      domain.RoleUser,
		Content:   question,
	}); err != nil {
		return nil, fmt.Errorf("persist question: %w", err)
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := uc.vectorDB.Search(ctx, queryVector, topK, domain.SearchFilter{UserID: user.ID})
	if err != nil {
		return nil, fmt.Errorf("search vector db: %w", err)
	}

	if len(chunks) == 0 {
		answer := &domain.Answer{
			Text:       noSourcesText,
			Sources:    []domain.RetrievedSource{},
			Confidence: 0.0,
			SessionID:  sessionID,
		}
		if err := uc.persistAnswer(ctx, sessionID, answer); err != nil {
			return nil, err
		}
		return answer, nil
	}

	sources := rankSources(chunks)
	profile := resolvePersona(req.Persona)
	prompt := buildPrompt(question, buildContext(chunks))

	answerText, err := uc.generator.Generate(ctx, profile.system, prompt, profile.temperature)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := &domain.Answer{
		Text:       answerText,
		Sources:    sources,
		Confidence: meanSimilarity(sources),
		SessionID:  sessionID,
	}
	if err := uc.persistAnswer(ctx, sessionID, answer); err != nil {
		return nil, err
	}

	uc.log.Info("query answered",
		"user_id", user.ID,
		"session_id", sessionID,
		"sources", len(sources),
		"confidence", answer.Confidence,
	)
	return answer, nil
}

// rankSources converts index distances to clamped similarities, preserving
// the ranking order returned by the index.
func rankSources(chunks []domain.ScoredChunk) []domain.RetrievedSource {
	sources := make([]domain.RetrievedSource, len(chunks))
	for i, chunk := range chunks {
		sources[i] = domain.RetrievedSource{
			Filename:   chunk.Filename,
			ChunkIndex: chunk.ChunkIndex,
			DocumentID: chunk.DocumentID,
			Similarity: clampSimilarity(1 - chunk.Distance),
			FileType:   chunk.FileType,
			Preview:    preview(chunk.Text),
		}
	}
	return sources
}

func clampSimilarity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func meanSimilarity(sources []domain.RetrievedSource) float64 {
	if len(sources) == 0 {
		return 0.0
	}
	var total float64
	for _, s := range sources {
		total += s.Similarity
	}
	return total / float64(len(sources))
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}

func (uc *QueryUseCase) persistAnswer(ctx context.Context, sessionID int64, answer *domain.Answer) error {
	confidence := answer.Confidence
	msg := domain.ChatMessage{
		SessionID:         sessionID,
		Role:              domain.RoleAssistant,
		Content:           answer.Text,
		Confidence:        &confidence,
		SourceDocumentIDs: sourceDocumentIDs(answer.Sources),
	}
	if _, err := uc.chat.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("persist answer: %w", err)
	}
	return nil
}

func sourceDocumentIDs(sources []domain.RetrievedSource) []string {
	seen := make(map[string]struct{}, len(sources))
	var ids []string
	for _, s := range sources {
		if _, ok := seen[s.DocumentID]; ok {
			continue
		}
		seen[s.DocumentID] = struct{}{}
		ids = append(ids, s.DocumentID)
	}
	return ids
}
