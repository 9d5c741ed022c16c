package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
)

type keywordStoreFake struct {
	matches []domain.KeywordMatch
	err     error

	gotQuery  string
	gotUserID string
	gotWindow int
}

func (f *keywordStoreFake) SearchKeywordContext(_ context.Context, query, userID string, windowWords int) ([]domain.KeywordMatch, error) {
	f.gotQuery = query
	f.gotUserID = userID
	f.gotWindow = windowWords
	return f.matches, f.err
}

func (f *keywordStoreFake) LookupEntities(context.Context, string, string) ([]domain.GraphEntity, error) {
	return nil, nil
}

func (f *keywordStoreFake) LookupRelationships(context.Context, string, string, string) ([]domain.GraphRelationship, error) {
	return nil, nil
}

func (f *keywordStoreFake) LookupCoLocatedEntities(context.Context, string, string, string) ([]domain.GraphEntity, error) {
	return nil, nil
}

func TestKeywordSearchMapsMatchesToResults(t *testing.T) {
	store := &keywordStoreFake{
		matches: []domain.KeywordMatch{
			{Snippet: "the turbine needs oil", Position: 1, TotalMatches: 2, DocumentID: "doc-1"},
			{Snippet: "replace the turbine filter", Position: 2, TotalMatches: 2, DocumentID: "doc-2"},
		},
	}
	search := NewKeywordSearch(store)

	results, err := search.Search(context.Background(), "turbine", "user-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, "turbine", store.gotQuery)
	require.Equal(t, "user-1", store.gotUserID)
	require.Equal(t, keywordWindowWords, store.gotWindow)

	first := results[0]
	require.Equal(t, domain.SourceKeyword, first.Source)
	require.Equal(t, "the turbine needs oil", first.Content)
	require.Equal(t, 1, first.Metadata["position"])
	require.Equal(t, 2, first.Metadata["total_matches"])
	require.Equal(t, "doc-1", first.Metadata["document_id"])
	require.Nil(t, first.Score)
}

func TestKeywordSearchPropagatesStoreError(t *testing.T) {
	store := &keywordStoreFake{err: fmt.Errorf("connection refused")}
	search := NewKeywordSearch(store)

	_, err := search.Search(context.Background(), "turbine", "user-1")
	require.ErrorContains(t, err, "keyword context search")
}

func TestKeywordSearchEmptyCorpusYieldsNoResults(t *testing.T) {
	search := NewKeywordSearch(&keywordStoreFake{})

	results, err := search.Search(context.Background(), "turbine", "user-1")
	require.NoError(t, err)
	require.Empty(t, results)
}
