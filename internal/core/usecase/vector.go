package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
	"github.com/budala187/nexora-context-backend/internal/core/ports"
)

const (
	vectorSearchLimit    = 5
	entityExpansionLimit = 3
)

// VectorSearch runs tenant-scoped nearest-neighbor lookups: once per
// expanded query for the primary pass, and once per confirmed
// (entity, document) pair for the secondary expansion pass.
//
// Per-item lookups are sequential to bound concurrent load on the index.
// Individual failures are logged and skipped; a pass only errors when every
// attempted lookup failed.
type VectorSearch struct {
	index ports.VectorSearcher
}

func NewVectorSearch(index ports.VectorSearcher) *VectorSearch {
	return &VectorSearch{index: index}
}

func (s *VectorSearch) Search(ctx context.Context, queries []string, userID string) ([]domain.SearchResult, error) {
	var out []domain.SearchResult
	attempted, failed := 0, 0
	var lastErr error

	for _, query := range queries {
		attempted++
		hits, err := s.index.SearchConcept(ctx, query, userID, vectorSearchLimit, nil)
		if err != nil {
			failed++
			lastErr = err
			slog.Warn("vector_query_skipped", "query", query, "error", err)
			continue
		}
		for _, hit := range hits {
			out = append(out, vectorResult(hit, map[string]any{
				"query":       query,
				"distance":    hit.Distance,
				"document_id": hit.DocumentID,
			}))
		}
	}

	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("all %d vector queries failed: %w", attempted, lastErr)
	}
	return out, nil
}

// ExpandEntities recovers passages a generic top-k search can miss: for each
// entity the graph confirmed, it searches only inside the entity's
// originating document, using the entity name as the query concept.
func (s *VectorSearch) ExpandEntities(ctx context.Context, pairs []domain.EntityWithDocument, userID string) ([]domain.SearchResult, error) {
	var out []domain.SearchResult
	attempted, failed := 0, 0
	var lastErr error

	for _, pair := range pairs {
		attempted++
		filter := &domain.DocumentFilter{DocumentID: pair.DocumentID}
		hits, err := s.index.SearchConcept(ctx, pair.Entity, userID, entityExpansionLimit, filter)
		if err != nil {
			failed++
			lastErr = err
			slog.Warn("entity_vector_expansion_skipped", "entity", pair.Entity, "document_id", pair.DocumentID, "error", err)
			continue
		}
		for _, hit := range hits {
			out = append(out, vectorResult(hit, map[string]any{
				"entity":      pair.Entity,
				"distance":    hit.Distance,
				"document_id": hit.DocumentID,
			}))
		}
	}

	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("all %d entity vector expansions failed: %w", attempted, lastErr)
	}
	return out, nil
}

func vectorResult(hit domain.VectorHit, metadata map[string]any) domain.SearchResult {
	certainty := hit.Certainty
	return domain.SearchResult{
		Source:   domain.SourceVector,
		Content:  hit.Content,
		Metadata: metadata,
		Score:    &certainty,
	}
}
