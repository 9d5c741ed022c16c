package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
	"github.com/budala187/nexora-context-backend/internal/core/ports"
)

// RetrieveUseCase is the retrieval fusion pipeline: query expansion, a
// concurrent fan-out across keyword, knowledge graph and vector search,
// entity-driven vector expansion, and one synthesis call over everything
// that came back.
//
// The three primary branches run as independent goroutines behind a join
// barrier; each owns its accumulator, so merging needs no locking. There is
// no per-call timeout here: the caller's context is the only deadline.
type RetrieveUseCase struct {
	expander *QueryExpander
	keyword  *KeywordSearch
	graph    *GraphSearch
	vector   *VectorSearch
	synth    *AnswerSynthesizer
}

func NewRetrieveUseCase(
	expander *QueryExpander,
	keyword *KeywordSearch,
	graph *GraphSearch,
	vector *VectorSearch,
	synth *AnswerSynthesizer,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		expander: expander,
		keyword:  keyword,
		graph:    graph,
		vector:   vector,
		synth:    synth,
	}
}

func (uc *RetrieveUseCase) Answer(ctx context.Context, query, userID string) (*domain.RefinedAnswer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve answer", fmt.Errorf("query is required"))
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve answer", fmt.Errorf("user_id is required"))
	}

	queries := append([]string{query}, uc.expander.Expand(ctx, query)...)

	var (
		wg sync.WaitGroup

		keywordResults []domain.SearchResult
		keywordExec    domain.SubExecution

		graphOut  GraphSearchOutput
		graphExec domain.SubExecution

		vectorResults []domain.SearchResult
		vectorExec    domain.SubExecution
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		started := time.Now()
		results, err := uc.keyword.Search(ctx, query, userID)
		keywordResults = results
		keywordExec = branchOutcome("keyword_search", started, err)
	}()
	go func() {
		defer wg.Done()
		started := time.Now()
		out, err := uc.graph.Search(ctx, query, userID)
		graphOut = out
		graphExec = branchOutcome("knowledge_graph_search", started, err)
	}()
	go func() {
		defer wg.Done()
		started := time.Now()
		results, err := uc.vector.Search(ctx, queries, userID)
		vectorResults = results
		vectorExec = branchOutcome("vector_search", started, err)
	}()
	wg.Wait()

	executions := []domain.SubExecution{keywordExec, graphExec, vectorExec}

	// Entity expansion depends on the graph branch, so it runs strictly
	// after the join. With zero pairs it is not attempted and not scored.
	var entityResults []domain.SearchResult
	if len(graphOut.EntityDocuments) > 0 {
		started := time.Now()
		results, err := uc.vector.ExpandEntities(ctx, graphOut.EntityDocuments, userID)
		entityResults = results
		executions = append(executions, branchOutcome("entity_vector_expansion", started, err))
	}

	evidence := mergeEvidence(keywordResults, graphOut.Results, vectorResults, entityResults)

	slog.Info("retrieval_complete",
		"user_id", userID,
		"expanded_queries", len(queries),
		"graph_entities", len(graphOut.EntityNames),
		"evidence_items", len(evidence),
		"successful_branches", countSuccesses(executions),
		"attempted_branches", len(executions),
	)

	return uc.synth.Synthesize(ctx, query, evidence, executions)
}

// mergeEvidence concatenates the four result streams in fixed order:
// keyword, graph, vector, entity-vector. No deduplication, no reranking.
func mergeEvidence(streams ...[]domain.SearchResult) []domain.SearchResult {
	size := 0
	for _, stream := range streams {
		size += len(stream)
	}
	merged := make([]domain.SearchResult, 0, size)
	for _, stream := range streams {
		merged = append(merged, stream...)
	}
	return merged
}

func branchOutcome(name string, started time.Time, err error) domain.SubExecution {
	exec := domain.SubExecution{
		Name:      name,
		Succeeded: err == nil,
		Elapsed:   time.Since(started),
	}
	if err != nil {
		exec.ErrorDetail = err.Error()
		slog.Warn("retrieval_branch_failed", "branch", name, "error", err)
	}
	return exec
}

var _ ports.RetrievalService = (*RetrieveUseCase)(nil)
