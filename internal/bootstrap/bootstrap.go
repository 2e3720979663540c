package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmattila/document-intelligence/internal/config"
	"github.com/jmattila/document-intelligence/internal/core/ports"
	"github.com/jmattila/document-intelligence/internal/core/usecase"
	"github.com/jmattila/document-intelligence/internal/infrastructure/chunking"
	"github.com/jmattila/document-intelligence/internal/infrastructure/extractor"
	"github.com/jmattila/document-intelligence/internal/infrastructure/llm/ollama"
	"github.com/jmattila/document-intelligence/internal/infrastructure/queue/nats"
	"github.com/jmattila/document-intelligence/internal/infrastructure/repository/postgres"
	"github.com/jmattila/document-intelligence/internal/infrastructure/resilience"
	"github.com/jmattila/document-intelligence/internal/infrastructure/storage/localfs"
	"github.com/jmattila/document-intelligence/internal/infrastructure/vector/qdrant"
)

// App holds the wired object graph shared by the api and worker binaries.
type App struct {
	Config config.Config
	Log    *slog.Logger

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository
	Users ports.UserRepository
	Chat  ports.ChatStore

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	QueryUC   ports.QueryService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	users := postgres.NewUserRepository(db)
	repo := postgres.NewDocumentRepository(db)
	chat := postgres.NewChatRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	exec := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: exec,
		Logger:             log,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, exec)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSegmenter(cfg.ChunkSize, cfg.ChunkOverlap)
	docExtractor := extractor.New(storage, log)

	ingestUC := usecase.NewIngestDocumentUseCase(users, repo, storage, queue, vectorDB, log)
	processUC := usecase.NewProcessDocumentUseCase(repo, docExtractor, chunker, embedder, vectorDB, log)
	queryUC := usecase.NewQueryUseCase(users, chat, embedder, vectorDB, generator, log)

	return &App{
		Config: cfg,
		Log:    log,

		Queue: queue,
		Repo:  repo,
		Users: users,
		Chat:  chat,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		QueryUC:   queryUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
