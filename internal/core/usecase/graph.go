package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
	"github.com/budala187/nexora-context-backend/internal/core/ports"
)

const entityExtractionSystemPrompt = `You extract named entities and concepts from a search query.
Identify every person, place, organization, project, product or distinct concept mentioned.
Return a strict JSON object of the form {"entities": ["..."]}. No markdown, no extra keys.`

// GraphSearchOutput bundles everything the knowledge graph adapter produces
// for one query: the evidence itself, the entity names that matched, and the
// (entity, document) pairs that seed entity-driven vector expansion.
type GraphSearchOutput struct {
	Results         []domain.SearchResult
	EntityNames     []string
	EntityDocuments []domain.EntityWithDocument
}

// GraphSearch extracts entities from the query with the completion model,
// then walks the user's entity/relationship store rooted at each one.
//
// Traversal is deliberately sequential per entity to bound concurrent load
// on the shared per-tenant store; every sub-step failure is logged and
// skipped so one bad entity never aborts the rest.
type GraphSearch struct {
	model ports.CompletionModel
	store ports.CorpusSearchStore
}

func NewGraphSearch(model ports.CompletionModel, store ports.CorpusSearchStore) *GraphSearch {
	return &GraphSearch{model: model, store: store}
}

func (s *GraphSearch) Search(ctx context.Context, query, userID string) (GraphSearchOutput, error) {
	entities, err := s.extractEntities(ctx, query)
	if err != nil {
		return GraphSearchOutput{}, fmt.Errorf("extract query entities: %w", err)
	}
	if len(entities) == 0 {
		return GraphSearchOutput{}, nil
	}

	var out GraphSearchOutput
	for _, entity := range entities {
		s.traverseEntity(ctx, entity, userID, &out)
	}
	return out, nil
}

func (s *GraphSearch) extractEntities(ctx context.Context, query string) ([]string, error) {
	raw, err := s.model.CompleteJSON(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: entityExtractionSystemPrompt},
		{Role: domain.RoleUser, Content: query},
	})
	if err != nil {
		return nil, err
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, fmt.Errorf("repair extraction output: %w", err)
	}

	var parsed struct {
		Entities []string `json:"entities"`
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, fmt.Errorf("parse extraction output: %w", err)
	}

	out := make([]string, 0, len(parsed.Entities))
	for _, name := range parsed.Entities {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// traverseEntity folds one extracted entity's lookups into the accumulator.
// Failures at any sub-step skip that step's contribution and continue.
func (s *GraphSearch) traverseEntity(ctx context.Context, entity, userID string, out *GraphSearchOutput) {
	matches, err := s.store.LookupEntities(ctx, entity, userID)
	if err != nil {
		slog.Warn("graph_entity_lookup_skipped", "entity", entity, "error", err)
		return
	}

	for _, match := range matches {
		out.Results = append(out.Results, entityResult(match))
		out.EntityNames = append(out.EntityNames, match.Name)
		out.EntityDocuments = append(out.EntityDocuments, domain.EntityWithDocument{
			Entity:     match.Name,
			DocumentID: match.DocumentID,
		})

		relationships, err := s.store.LookupRelationships(ctx, match.Name, userID, match.DocumentID)
		if err != nil {
			slog.Warn("graph_relationship_lookup_skipped", "entity", match.Name, "error", err)
		} else {
			for _, rel := range relationships {
				out.Results = append(out.Results, relationshipResult(rel))
			}
		}

		related, err := s.store.LookupCoLocatedEntities(ctx, match.Name, userID, match.DocumentID)
		if err != nil {
			slog.Warn("graph_related_lookup_skipped", "entity", match.Name, "error", err)
			continue
		}
		for _, neighbor := range related {
			out.Results = append(out.Results, relatedEntityResult(match.Name, neighbor))
		}
	}
}

func entityResult(entity domain.GraphEntity) domain.SearchResult {
	content := entity.Name
	if entity.Type != "" {
		content = fmt.Sprintf("%s (%s)", entity.Name, entity.Type)
	}
	if entity.Description != "" {
		content = fmt.Sprintf("%s: %s", content, entity.Description)
	}
	return domain.SearchResult{
		Source:  domain.SourceKnowledgeGraph,
		Content: content,
		Metadata: map[string]any{
			"type":        "entity",
			"entity_name": entity.Name,
			"entity_type": entity.Type,
			"document_id": entity.DocumentID,
		},
	}
}

func relationshipResult(rel domain.GraphRelationship) domain.SearchResult {
	return domain.SearchResult{
		Source:  domain.SourceKnowledgeGraph,
		Content: fmt.Sprintf("%s -> %s -> %s", rel.Subject, rel.Predicate, rel.Object),
		Metadata: map[string]any{
			"type":        "relationship",
			"subject":     rel.Subject,
			"predicate":   rel.Predicate,
			"object":      rel.Object,
			"document_id": rel.DocumentID,
		},
	}
}

func relatedEntityResult(anchor string, neighbor domain.GraphEntity) domain.SearchResult {
	content := neighbor.Name
	if neighbor.Description != "" {
		content = fmt.Sprintf("%s: %s", neighbor.Name, neighbor.Description)
	}
	return domain.SearchResult{
		Source:  domain.SourceKnowledgeGraph,
		Content: content,
		Metadata: map[string]any{
			"type":        "related_entity",
			"entity_name": neighbor.Name,
			"entity_type": neighbor.Type,
			"related_to":  anchor,
			"document_id": neighbor.DocumentID,
		},
	}
}
