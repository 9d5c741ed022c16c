package ports

import (
	"context"
	"io"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
)

// CompletionModel is the language-model collaborator: role-tagged messages
// in, one text completion out. CompleteJSON requests strict JSON output.
type CompletionModel interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
	CompleteJSON(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// CorpusSearchStore exposes the four user-scoped relational query
// operations the retrieval pipeline depends on.
type CorpusSearchStore interface {
	SearchKeywordContext(ctx context.Context, query, userID string, windowWords int) ([]domain.KeywordMatch, error)
	LookupEntities(ctx context.Context, name, userID string) ([]domain.GraphEntity, error)
	LookupRelationships(ctx context.Context, entityName, userID, documentID string) ([]domain.GraphRelationship, error)
	LookupCoLocatedEntities(ctx context.Context, entityName, userID, documentID string) ([]domain.GraphEntity, error)
}

// VectorSearcher performs tenant-isolated nearest-neighbor lookups by query
// concept text. A non-nil filter constrains hits to one source document.
type VectorSearcher interface {
	SearchConcept(ctx context.Context, concept, tenantID string, limit int, filter *domain.DocumentFilter) ([]domain.VectorHit, error)
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// ChunkStore persists extracted document chunks for keyword search.
type ChunkStore interface {
	SaveChunks(ctx context.Context, doc *domain.Document, chunks []string) error
}

// GraphWriter persists the entity/relationship graph extracted from a
// document.
type GraphWriter interface {
	SaveGraph(ctx context.Context, doc *domain.Document, graph domain.DocumentGraph) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndexer writes chunk vectors into the tenant-isolated index.
type VectorIndexer interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error
}

// GraphExtractor derives entities and relationship triples from document
// text.
type GraphExtractor interface {
	ExtractGraph(ctx context.Context, text string) (domain.DocumentGraph, error)
}
