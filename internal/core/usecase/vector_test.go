package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
)

type conceptCall struct {
	concept string
	tenant  string
	limit   int
	filter  *domain.DocumentFilter
}

type vectorIndexFake struct {
	hits    map[string][]domain.VectorHit
	failFor map[string]error
	calls   []conceptCall
}

func (f *vectorIndexFake) SearchConcept(_ context.Context, concept, tenant string, limit int, filter *domain.DocumentFilter) ([]domain.VectorHit, error) {
	f.calls = append(f.calls, conceptCall{concept: concept, tenant: tenant, limit: limit, filter: filter})
	if err, ok := f.failFor[concept]; ok {
		return nil, err
	}
	return f.hits[concept], nil
}

func TestVectorSearchRunsEachQueryWithTopFive(t *testing.T) {
	index := &vectorIndexFake{
		hits: map[string][]domain.VectorHit{
			"q1": {{Content: "hit-a", Certainty: 0.9, Distance: 0.1, DocumentID: "doc-1"}},
			"q2": {{Content: "hit-b", Certainty: 0.8, Distance: 0.2, DocumentID: "doc-2"}},
		},
	}
	search := NewVectorSearch(index)

	results, err := search.Search(context.Background(), []string{"q1", "q2"}, "user-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Len(t, index.calls, 2)
	for _, call := range index.calls {
		require.Equal(t, "user-1", call.tenant)
		require.Equal(t, 5, call.limit)
		require.Nil(t, call.filter)
	}

	require.Equal(t, domain.SourceVector, results[0].Source)
	require.NotNil(t, results[0].Score)
	require.InDelta(t, 0.9, *results[0].Score, 1e-9)
}

func TestVectorSearchOneFailingQueryKeepsOtherResults(t *testing.T) {
	index := &vectorIndexFake{
		hits: map[string][]domain.VectorHit{
			"good": {{Content: "kept", Certainty: 0.7}},
		},
		failFor: map[string]error{"bad": errors.New("index timeout")},
	}
	search := NewVectorSearch(index)

	results, err := search.Search(context.Background(), []string{"bad", "good"}, "user-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "kept", results[0].Content)
}

func TestVectorSearchAllQueriesFailingReturnsError(t *testing.T) {
	index := &vectorIndexFake{
		failFor: map[string]error{
			"a": errors.New("down"),
			"b": errors.New("down"),
		},
	}
	search := NewVectorSearch(index)

	_, err := search.Search(context.Background(), []string{"a", "b"}, "user-1")
	require.Error(t, err)
}

func TestExpandEntitiesScopesEachLookupToItsDocument(t *testing.T) {
	index := &vectorIndexFake{
		hits: map[string][]domain.VectorHit{
			"Ada":     {{Content: "passage-1", Certainty: 0.6, DocumentID: "doc-1"}},
			"Babbage": {{Content: "passage-2", Certainty: 0.5, DocumentID: "doc-2"}},
		},
	}
	search := NewVectorSearch(index)

	pairs := []domain.EntityWithDocument{
		{Entity: "Ada", DocumentID: "doc-1"},
		{Entity: "Babbage", DocumentID: "doc-2"},
	}
	results, err := search.ExpandEntities(context.Background(), pairs, "user-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Len(t, index.calls, 2)
	require.Equal(t, 3, index.calls[0].limit)
	require.NotNil(t, index.calls[0].filter)
	require.Equal(t, "doc-1", index.calls[0].filter.DocumentID)
	require.Equal(t, "doc-2", index.calls[1].filter.DocumentID)
}

func TestExpandEntitiesZeroPairsPerformsZeroLookups(t *testing.T) {
	index := &vectorIndexFake{}
	search := NewVectorSearch(index)

	results, err := search.ExpandEntities(context.Background(), nil, "user-1")
	require.NoError(t, err)
	require.Empty(t, results)
	require.Empty(t, index.calls)
}

func TestExpandEntitiesPerPairFailureIsSkipped(t *testing.T) {
	index := &vectorIndexFake{
		hits:    map[string][]domain.VectorHit{"ok": {{Content: "kept"}}},
		failFor: map[string]error{"broken": errors.New("filter error")},
	}
	search := NewVectorSearch(index)

	pairs := []domain.EntityWithDocument{
		{Entity: "broken", DocumentID: "doc-1"},
		{Entity: "ok", DocumentID: "doc-2"},
	}
	results, err := search.ExpandEntities(context.Background(), pairs, "user-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
}
