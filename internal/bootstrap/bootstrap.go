package bootstrap

import (
	"context"
	"fmt"

	"github.com/budala187/nexora-context-backend/internal/config"
	"github.com/budala187/nexora-context-backend/internal/core/ports"
	"github.com/budala187/nexora-context-backend/internal/core/usecase"
	"github.com/budala187/nexora-context-backend/internal/infrastructure/chunking"
	"github.com/budala187/nexora-context-backend/internal/infrastructure/extractor/plaintext"
	"github.com/budala187/nexora-context-backend/internal/infrastructure/llm/ollama"
	"github.com/budala187/nexora-context-backend/internal/infrastructure/queue/nats"
	"github.com/budala187/nexora-context-backend/internal/infrastructure/repository/postgres"
	"github.com/budala187/nexora-context-backend/internal/infrastructure/resilience"
	"github.com/budala187/nexora-context-backend/internal/infrastructure/storage/localfs"
	"github.com/budala187/nexora-context-backend/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue       ports.MessageQueue
	Repo        ports.DocumentRepository
	IngestUC    ports.DocumentIngestor
	ProcessUC   ports.DocumentProcessor
	RetrievalUC ports.RetrievalService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	corpus := postgres.NewCorpusRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	graphExtractor := ollama.NewGraphExtractor(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, embedder)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := plaintext.NewExtractor(storage)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, extractor, chunker, corpus, embedder, vectorDB, graphExtractor, corpus)

	retrievalUC := usecase.NewRetrieveUseCase(
		usecase.NewQueryExpander(ollamaClient),
		usecase.NewKeywordSearch(corpus),
		usecase.NewGraphSearch(ollamaClient, corpus),
		usecase.NewVectorSearch(vectorDB),
		usecase.NewAnswerSynthesizer(ollamaClient),
	)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:    ingestUC,
		ProcessUC:   processUC,
		RetrievalUC: retrievalUC,

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
