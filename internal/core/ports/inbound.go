package ports

import (
	"context"
	"io"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
)

// RetrievalService is the inbound contract for the retrieval fusion
// pipeline: one question against one user's corpus, one refined answer.
type RetrievalService interface {
	Answer(ctx context.Context, query, userID string) (*domain.RefinedAnswer, error)
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, userID, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous corpus indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
