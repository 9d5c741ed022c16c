package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
	"github.com/budala187/nexora-context-backend/internal/infrastructure/resilience"
)

// Client speaks the Ollama HTTP API and implements ports.CompletionModel.
// Every call goes through the resilience executor: retries with backoff
// plus a per-operation circuit breaker.
type Client struct {
	baseURL    string
	chatModel  string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, chatModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	return c.chat(ctx, messages, "")
}

func (c *Client) CompleteJSON(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	return c.chat(ctx, messages, "json")
}

func (c *Client) chat(ctx context.Context, messages []domain.ChatMessage, format string) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("ollama chat: empty message list")
	}

	request := chatRequest{
		Model:    c.chatModel,
		Messages: make([]chatMessage, 0, len(messages)),
		Stream:   false,
		Format:   format,
	}
	for _, msg := range messages {
		request.Messages = append(request.Messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}

	var response chatResponse
	err := c.execute(ctx, "ollama_chat", func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/chat", request, &response, "chat")
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Message.Content), nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, fn(ctx))
	}
	err := c.executor.Execute(ctx, operation, fn, classifyOllamaError)
	return wrapTemporaryIfNeeded(operation, err)
}

// Embedder implements ports.Embedder on top of the shared client.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.execute(ctx, "ollama_embed", func(ctx context.Context) error {
		return e.client.postJSON(ctx, "/api/embed", request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// GraphExtractor asks the chat model for the entity/relationship graph of
// a document and parses its JSON reply, repairing sloppy output when
// necessary.
type GraphExtractor struct {
	client *Client
}

func NewGraphExtractor(client *Client) *GraphExtractor {
	return &GraphExtractor{client: client}
}

func (g *GraphExtractor) ExtractGraph(ctx context.Context, text string) (domain.DocumentGraph, error) {
	respText, err := g.client.CompleteJSON(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: graphExtractionSystemPrompt},
		{Role: domain.RoleUser, Content: truncateForExtraction(text)},
	})
	if err != nil {
		return domain.DocumentGraph{}, err
	}

	var payload struct {
		Entities []struct {
			Name        string `json:"name"`
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"entities"`
		Relationships []struct {
			Subject   string `json:"subject"`
			Predicate string `json:"predicate"`
			Object    string `json:"object"`
		} `json:"relationships"`
	}
	if err := unmarshalLenient(extractJSONObject(respText), &payload); err != nil {
		return domain.DocumentGraph{}, fmt.Errorf("parse graph json: %w", err)
	}

	graph := domain.DocumentGraph{}
	for _, ent := range payload.Entities {
		name := strings.TrimSpace(ent.Name)
		if name == "" {
			continue
		}
		graph.Entities = append(graph.Entities, domain.GraphEntity{
			Name:        name,
			Type:        strings.TrimSpace(ent.Type),
			Description: strings.TrimSpace(ent.Description),
		})
	}
	for _, rel := range payload.Relationships {
		if strings.TrimSpace(rel.Subject) == "" || strings.TrimSpace(rel.Object) == "" {
			continue
		}
		graph.Relationships = append(graph.Relationships, domain.GraphRelationship{
			Subject:   strings.TrimSpace(rel.Subject),
			Predicate: strings.TrimSpace(rel.Predicate),
			Object:    strings.TrimSpace(rel.Object),
		})
	}
	return graph, nil
}

func unmarshalLenient(raw string, out any) error {
	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return fmt.Errorf("repair json: %w", err)
	}
	return json.Unmarshal([]byte(repaired), out)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
