package usecase

import (
	"context"
	"fmt"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
	"github.com/budala187/nexora-context-backend/internal/core/ports"
)

const keywordWindowWords = 50

// KeywordSearch performs full-text lookup against the user's relational
// corpus, returning context-windowed matches.
type KeywordSearch struct {
	store ports.CorpusSearchStore
}

func NewKeywordSearch(store ports.CorpusSearchStore) *KeywordSearch {
	return &KeywordSearch{store: store}
}

func (s *KeywordSearch) Search(ctx context.Context, query, userID string) ([]domain.SearchResult, error) {
	matches, err := s.store.SearchKeywordContext(ctx, query, userID, keywordWindowWords)
	if err != nil {
		return nil, fmt.Errorf("keyword context search: %w", err)
	}

	out := make([]domain.SearchResult, 0, len(matches))
	for _, match := range matches {
		out = append(out, domain.SearchResult{
			Source:  domain.SourceKeyword,
			Content: match.Snippet,
			Metadata: map[string]any{
				"position":      match.Position,
				"total_matches": match.TotalMatches,
				"document_id":   match.DocumentID,
			},
		})
	}
	return out, nil
}
