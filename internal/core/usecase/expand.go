package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
	"github.com/budala187/nexora-context-backend/internal/core/ports"
)

const expansionSystemPrompt = `You rephrase search queries.
Given the user query, produce exactly two alternate phrasings that capture different aspects or synonyms of the same information need.
Return a strict JSON array of two strings. No markdown, no extra keys.`

const maxQueryExpansions = 2

// QueryExpander broadens recall by asking the completion model for alternate
// phrasings of the original query. Expansion is best-effort: any model or
// parse failure yields an empty list, never an error.
type QueryExpander struct {
	model ports.CompletionModel
}

func NewQueryExpander(model ports.CompletionModel) *QueryExpander {
	return &QueryExpander{model: model}
}

func (e *QueryExpander) Expand(ctx context.Context, query string) []string {
	raw, err := e.model.CompleteJSON(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: expansionSystemPrompt},
		{Role: domain.RoleUser, Content: query},
	})
	if err != nil {
		slog.Warn("query_expansion_skipped", "error", err)
		return nil
	}

	phrasings, err := parseStringArray(raw)
	if err != nil {
		slog.Warn("query_expansion_unparseable", "error", err)
		return nil
	}

	out := make([]string, 0, maxQueryExpansions)
	for _, phrasing := range phrasings {
		phrasing = strings.TrimSpace(phrasing)
		if phrasing == "" || strings.EqualFold(phrasing, query) {
			continue
		}
		out = append(out, phrasing)
		if len(out) == maxQueryExpansions {
			break
		}
	}
	return out
}

// parseStringArray tolerates the usual model output defects (markdown
// fences, trailing commas, single quotes) by repairing before unmarshalling.
func parseStringArray(raw string) ([]string, error) {
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, err
	}
	var items []string
	if err := json.Unmarshal([]byte(repaired), &items); err != nil {
		return nil, err
	}
	return items, nil
}
