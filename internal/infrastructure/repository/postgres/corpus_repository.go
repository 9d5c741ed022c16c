package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
)

const (
	keywordMatchLimit       = 10
	entityLookupLimit       = 25
	relationshipLookupLimit = 25
	coLocatedLookupLimit    = 10
)

// CorpusRepository holds the searchable corpus derived from ingested
// documents: full-text chunks plus the extracted entity/relationship
// graph, all scoped by user_id.
type CorpusRepository struct {
	db *sql.DB
}

func NewCorpusRepository(db *sql.DB) *CorpusRepository {
	return &CorpusRepository{db: db}
}

func (r *CorpusRepository) SaveChunks(ctx context.Context, doc *domain.Document, chunks []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunks tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}

	for idx, content := range chunks {
		_, err := tx.ExecContext(ctx, `
INSERT INTO document_chunks (id, document_id, user_id, chunk_index, content)
VALUES ($1,$2,$3,$4,$5)
`, uuid.NewString(), doc.ID, doc.UserID, idx, content)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", idx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *CorpusRepository) SaveGraph(ctx context.Context, doc *domain.Document, graph domain.DocumentGraph) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin graph tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("delete stale entities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM relationships WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("delete stale relationships: %w", err)
	}

	for _, ent := range graph.Entities {
		_, err := tx.ExecContext(ctx, `
INSERT INTO entities (id, document_id, user_id, name, type, description)
VALUES ($1,$2,$3,$4,$5,$6)
`, uuid.NewString(), doc.ID, doc.UserID, ent.Name, ent.Type, ent.Description)
		if err != nil {
			return fmt.Errorf("insert entity %q: %w", ent.Name, err)
		}
	}

	for _, rel := range graph.Relationships {
		_, err := tx.ExecContext(ctx, `
INSERT INTO relationships (id, document_id, user_id, subject, predicate, object)
VALUES ($1,$2,$3,$4,$5,$6)
`, uuid.NewString(), doc.ID, doc.UserID, rel.Subject, rel.Predicate, rel.Object)
		if err != nil {
			return fmt.Errorf("insert relationship %q: %w", rel.Subject, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit graph tx: %w", err)
	}
	return nil
}

// SearchKeywordContext runs a full-text match over the user's chunks and
// returns a word window around the first occurrence of a query term in
// each matching chunk.
func (r *CorpusRepository) SearchKeywordContext(ctx context.Context, query, userID string, windowWords int) ([]domain.KeywordMatch, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT content, document_id, COUNT(*) OVER() AS total_matches
FROM document_chunks
WHERE user_id = $1
  AND to_tsvector('english', content) @@ plainto_tsquery('english', $2)
ORDER BY document_id, chunk_index
LIMIT $3
`, userID, query, keywordMatchLimit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	terms := strings.Fields(strings.ToLower(query))

	var matches []domain.KeywordMatch
	for rows.Next() {
		var content, documentID string
		var total int
		if err := rows.Scan(&content, &documentID, &total); err != nil {
			return nil, fmt.Errorf("scan keyword match: %w", err)
		}
		snippet, position := contextWindow(content, terms, windowWords)
		matches = append(matches, domain.KeywordMatch{
			Snippet:      snippet,
			Position:     position,
			TotalMatches: total,
			DocumentID:   documentID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword matches: %w", err)
	}
	return matches, nil
}

// contextWindow centers a window of windowWords words on the first word
// containing any query term. Stemmed matches the tsquery found but the
// raw terms miss fall back to the chunk head.
func contextWindow(content string, terms []string, windowWords int) (string, int) {
	words := strings.Fields(content)
	if windowWords <= 0 || len(words) <= windowWords {
		return strings.Join(words, " "), firstTermIndex(words, terms)
	}

	matchIdx := firstTermIndex(words, terms)
	start := matchIdx - windowWords/2
	if start < 0 {
		start = 0
	}
	end := start + windowWords
	if end > len(words) {
		end = len(words)
		start = end - windowWords
	}
	return strings.Join(words[start:end], " "), matchIdx
}

func firstTermIndex(words, terms []string) int {
	for i, word := range words {
		lower := strings.ToLower(word)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return i
			}
		}
	}
	return 0
}

func (r *CorpusRepository) LookupEntities(ctx context.Context, name, userID string) ([]domain.GraphEntity, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT name, type, description, document_id
FROM entities
WHERE user_id = $1 AND name ILIKE '%' || $2 || '%'
ORDER BY name
LIMIT $3
`, userID, name, entityLookupLimit)
	if err != nil {
		return nil, fmt.Errorf("lookup entities: %w", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

func (r *CorpusRepository) LookupRelationships(ctx context.Context, entityName, userID, documentID string) ([]domain.GraphRelationship, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT subject, predicate, object, document_id
FROM relationships
WHERE user_id = $1 AND document_id = $2
  AND (subject ILIKE '%' || $3 || '%' OR object ILIKE '%' || $3 || '%')
LIMIT $4
`, userID, documentID, entityName, relationshipLookupLimit)
	if err != nil {
		return nil, fmt.Errorf("lookup relationships: %w", err)
	}
	defer rows.Close()

	var relationships []domain.GraphRelationship
	for rows.Next() {
		var rel domain.GraphRelationship
		if err := rows.Scan(&rel.Subject, &rel.Predicate, &rel.Object, &rel.DocumentID); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		relationships = append(relationships, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}
	return relationships, nil
}

func (r *CorpusRepository) LookupCoLocatedEntities(ctx context.Context, entityName, userID, documentID string) ([]domain.GraphEntity, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT name, type, description, document_id
FROM entities
WHERE user_id = $1 AND document_id = $2 AND lower(name) <> lower($3)
ORDER BY name
LIMIT $4
`, userID, documentID, entityName, coLocatedLookupLimit)
	if err != nil {
		return nil, fmt.Errorf("lookup co-located entities: %w", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

func scanEntities(rows *sql.Rows) ([]domain.GraphEntity, error) {
	var entities []domain.GraphEntity
	for rows.Next() {
		var ent domain.GraphEntity
		var entType, description sql.NullString
		if err := rows.Scan(&ent.Name, &entType, &description, &ent.DocumentID); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		ent.Type = entType.String
		ent.Description = description.String
		entities = append(entities, ent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return entities, nil
}
