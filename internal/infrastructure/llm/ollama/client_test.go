package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
	"github.com/budala187/nexora-context-backend/internal/infrastructure/resilience"
)

func newTestExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1.0,
		BreakerEnabled:      false,
	})
}

func TestCompleteSendsChatRequest(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Role: "assistant", Content: "  hello there \n"}})
	}))
	defer server.Close()

	client := New(server.URL, "llama3", "nomic-embed-text", nil)
	out, err := client.Complete(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "hello there" {
		t.Errorf("expected trimmed content, got %q", out)
	}
	if captured.Model != "llama3" {
		t.Errorf("expected model llama3, got %q", captured.Model)
	}
	if captured.Stream {
		t.Error("expected stream=false")
	}
	if captured.Format != "" {
		t.Errorf("expected no format hint, got %q", captured.Format)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != domain.RoleSystem || captured.Messages[1].Content != "hi" {
		t.Errorf("unexpected messages: %+v", captured.Messages)
	}
}

func TestCompleteJSONRequestsJSONFormat(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: `{"ok":true}`}})
	}))
	defer server.Close()

	client := New(server.URL, "llama3", "nomic-embed-text", nil)
	out, err := client.CompleteJSON(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "json please"}})
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if out != `{"ok":true}` {
		t.Errorf("unexpected output %q", out)
	}
	if captured.Format != "json" {
		t.Errorf("expected format json, got %q", captured.Format)
	}
}

func TestCompleteRejectsEmptyMessageList(t *testing.T) {
	client := New("http://127.0.0.1:1", "llama3", "nomic-embed-text", nil)
	if _, err := client.Complete(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty message list")
	}
}

func TestChatRetriesRetryableStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: "recovered"}})
	}))
	defer server.Close()

	client := New(server.URL, "llama3", "nomic-embed-text", newTestExecutor())
	out, err := client.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "recovered" {
		t.Errorf("unexpected output %q", out)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestChatWrapsOutagesAsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "llama3", "nomic-embed-text", newTestExecutor())
	_, err := client.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Errorf("expected temporary error, got %v", err)
	}
}

func TestChatDoesNotWrapClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "llama3", "nomic-embed-text", newTestExecutor())
	_, err := client.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Errorf("client error should not be temporary: %v", err)
	}
	if calls != 1 {
		t.Errorf("client error should not be retried, got %d calls", calls)
	}
}

func TestEmbedderBatchesAndEmbedsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("unexpected embed model %q", req.Model)
		}
		vectors := make([][]float32, len(req.Input))
		for i := range vectors {
			vectors[i] = []float32{float32(i), 0.5}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": vectors})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3", "nomic-embed-text", nil))

	vectors, err := embedder.Embed(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}

	vector, err := embedder.EmbedQuery(context.Background(), "just one")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if len(vector) != 2 {
		t.Errorf("expected 2 dimensions, got %d", len(vector))
	}
}

func TestEmbedderSkipsEmptyInput(t *testing.T) {
	embedder := NewEmbedder(New("http://127.0.0.1:1", "llama3", "nomic-embed-text", nil))
	vectors, err := embedder.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vectors != nil {
		t.Errorf("expected nil result, got %v", vectors)
	}
}

func TestGraphExtractorParsesEntitiesAndRelationships(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := `Here you go: {"entities":[{"name":"Ada Lovelace","type":"person","description":"mathematician"},{"name":"","type":"person"},{"name":"Analytical Engine","type":"machine","description":""}],"relationships":[{"subject":"Ada Lovelace","predicate":"programmed","object":"Analytical Engine"},{"subject":"","predicate":"x","object":"y"}],}`
		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: content}})
	}))
	defer server.Close()

	extractor := NewGraphExtractor(New(server.URL, "llama3", "nomic-embed-text", nil))
	graph, err := extractor.ExtractGraph(context.Background(), "Ada Lovelace programmed the Analytical Engine.")
	if err != nil {
		t.Fatalf("ExtractGraph: %v", err)
	}
	if len(graph.Entities) != 2 {
		t.Fatalf("expected 2 entities after blank filtering, got %d", len(graph.Entities))
	}
	if graph.Entities[0].Name != "Ada Lovelace" || graph.Entities[0].Type != "person" {
		t.Errorf("unexpected first entity: %+v", graph.Entities[0])
	}
	if len(graph.Relationships) != 1 {
		t.Fatalf("expected 1 relationship after blank filtering, got %d", len(graph.Relationships))
	}
	rel := graph.Relationships[0]
	if rel.Subject != "Ada Lovelace" || rel.Predicate != "programmed" || rel.Object != "Analytical Engine" {
		t.Errorf("unexpected relationship: %+v", rel)
	}
}

func TestGraphExtractorFailsOnUnparseableReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: "no graph today"}})
	}))
	defer server.Close()

	extractor := NewGraphExtractor(New(server.URL, "llama3", "nomic-embed-text", nil))
	if _, err := extractor.ExtractGraph(context.Background(), "text"); err == nil {
		t.Fatal("expected parse error")
	}
}
