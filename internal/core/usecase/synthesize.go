package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
	"github.com/budala187/nexora-context-backend/internal/core/ports"
)

const notFoundAnswer = "I could not find the information needed to answer your question in your knowledge base."

const synthesisSystemPrompt = `You answer a user's question from retrieved evidence.
Rules:
- Answer the question directly.
- Merge all evidence into one coherent answer and remove duplicate information.
- Stay conversational.
- Never mention searches, databases, indexes or how the evidence was retrieved.`

// AnswerSynthesizer combines all retrieved evidence and the original query
// into one natural-language answer through a single completion call.
type AnswerSynthesizer struct {
	model ports.CompletionModel
}

func NewAnswerSynthesizer(model ports.CompletionModel) *AnswerSynthesizer {
	return &AnswerSynthesizer{model: model}
}

// Synthesize produces the final answer. When no sub-execution succeeded it
// short-circuits to the fixed not-found response without touching the model.
// A temporary collaborator outage or context cancellation propagates so the
// caller can map it; any other model failure degrades to the not-found
// response.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, query string, evidence []domain.SearchResult, execs []domain.SubExecution) (*domain.RefinedAnswer, error) {
	failed := failedBranchNames(execs)

	if countSuccesses(execs) == 0 {
		return &domain.RefinedAnswer{
			Content:        notFoundAnswer,
			Confidence:     0,
			FailedBranches: failed,
		}, nil
	}

	confidence := scoreConfidence(execs)

	content, err := s.model.Complete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: synthesisSystemPrompt},
		{Role: domain.RoleUser, Content: buildSynthesisPrompt(query, evidence)},
	})
	if err != nil {
		if domain.IsKind(err, domain.ErrTemporary) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("synthesize answer: %w", err)
		}
		slog.Warn("answer_synthesis_degraded", "error", err)
		return &domain.RefinedAnswer{
			Content:        notFoundAnswer,
			Confidence:     0,
			EvidenceCount:  len(evidence),
			FailedBranches: failed,
		}, nil
	}

	return &domain.RefinedAnswer{
		Content:        strings.TrimSpace(content),
		Confidence:     confidence,
		EvidenceCount:  len(evidence),
		FailedBranches: failed,
	}, nil
}

func failedBranchNames(execs []domain.SubExecution) []string {
	var failed []string
	for _, exec := range execs {
		if !exec.Succeeded {
			failed = append(failed, exec.Name)
		}
	}
	return failed
}

func buildSynthesisPrompt(query string, evidence []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("Question:\n")
	b.WriteString(query)
	b.WriteString("\n\nEvidence:\n")
	for idx, result := range evidence {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", idx+1, result.Source, result.Content)
	}
	return b.String()
}
