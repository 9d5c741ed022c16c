package domain

import "time"

// ResultSource tags where a piece of evidence came from.
type ResultSource string

const (
	SourceKeyword        ResultSource = "keyword"
	SourceKnowledgeGraph ResultSource = "knowledge_graph"
	SourceVector         ResultSource = "vector"
)

// SearchResult is one piece of retrieved evidence. It is created by exactly
// one adapter and never mutated afterwards. Score, when present, is the
// similarity certainty reported by the vector index; it is advisory and is
// not clamped or validated here.
type SearchResult struct {
	Source   ResultSource   `json:"source"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Score    *float64       `json:"score,omitempty"`
}

// EntityWithDocument links an entity confirmed by the knowledge graph to the
// document it was extracted from. It only lives for the duration of one
// request, bridging graph search to the entity-driven vector expansion.
type EntityWithDocument struct {
	Entity     string `json:"entity"`
	DocumentID string `json:"document_id"`
}

// SubExecution records the outcome of one top-level retrieval branch.
// The confidence scorer consumes these; they are discarded after scoring.
type SubExecution struct {
	Name        string        `json:"name"`
	Succeeded   bool          `json:"succeeded"`
	ErrorDetail string        `json:"error_detail,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
}

// RefinedAnswer is the terminal artifact of one retrieval request.
// EvidenceCount and FailedBranches describe how the answer was assembled
// and feed the service metrics.
type RefinedAnswer struct {
	Content        string   `json:"content"`
	Confidence     int      `json:"confidence"`
	EvidenceCount  int      `json:"evidence_count"`
	FailedBranches []string `json:"failed_branches,omitempty"`
}

// KeywordMatch is one row from the keyword-context search: a fixed-size word
// window around a match inside a user's corpus.
type KeywordMatch struct {
	Snippet      string `json:"snippet"`
	Position     int    `json:"position"`
	TotalMatches int    `json:"total_matches"`
	DocumentID   string `json:"document_id"`
}

// GraphEntity is a named concept stored in a user's knowledge graph.
type GraphEntity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	DocumentID  string `json:"document_id"`
}

// GraphRelationship is a directed (subject, predicate, object) fact scoped
// to one source document.
type GraphRelationship struct {
	Subject    string `json:"subject"`
	Predicate  string `json:"predicate"`
	Object     string `json:"object"`
	DocumentID string `json:"document_id"`
}

// VectorHit is one nearest-neighbor result from the tenant-isolated
// embedding index. Certainty is normalized, higher is better.
type VectorHit struct {
	Content    string  `json:"content"`
	Certainty  float64 `json:"certainty"`
	Distance   float64 `json:"distance"`
	DocumentID string  `json:"document_id"`
}

// DocumentFilter restricts a vector search to a single source document.
type DocumentFilter struct {
	DocumentID string
}
