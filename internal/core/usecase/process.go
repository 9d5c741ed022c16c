package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
	"github.com/budala187/nexora-context-backend/internal/core/ports"
)

// ProcessDocumentUseCase indexes an uploaded document into the three stores
// the retrieval pipeline searches: relational chunks for keyword lookup,
// tenant-tagged vectors for similarity lookup, and the entity/relationship
// graph.
type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	chunks    ports.ChunkStore
	embedder  ports.Embedder
	vectorDB  ports.VectorIndexer
	graphs    ports.GraphExtractor
	graphDB   ports.GraphWriter
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	chunks ports.ChunkStore,
	embedder ports.Embedder,
	vectorDB ports.VectorIndexer,
	graphs ports.GraphExtractor,
	graphDB ports.GraphWriter,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		chunks:    chunks,
		embedder:  embedder,
		vectorDB:  vectorDB,
		graphs:    graphs,
		graphDB:   graphDB,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, documentID); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return err
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	if err := uc.chunks.SaveChunks(ctx, doc, chunks); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}

	if err := uc.indexVectors(ctx, doc, chunks); err != nil {
		return err
	}

	return uc.indexGraph(ctx, doc, text)
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *ProcessDocumentUseCase) indexVectors(ctx context.Context, doc *domain.Document, chunks []string) error {
	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	if err := uc.vectorDB.IndexChunks(ctx, doc, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks in vector db: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) indexGraph(ctx context.Context, doc *domain.Document, text string) error {
	graph, err := uc.graphs.ExtractGraph(ctx, text)
	if err != nil {
		return fmt.Errorf("extract document graph: %w", err)
	}
	if len(graph.Entities) == 0 && len(graph.Relationships) == 0 {
		slog.Info("document_graph_empty", "document_id", doc.ID)
		return nil
	}
	if err := uc.graphDB.SaveGraph(ctx, doc, graph); err != nil {
		return fmt.Errorf("persist document graph: %w", err)
	}
	return nil
}
