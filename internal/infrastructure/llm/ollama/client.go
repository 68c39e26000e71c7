package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, genModel, embedModel string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   strings.TrimSpace(genModel),
		embedModel: strings.TrimSpace(embedModel),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithResilience routes every Ollama call through executor.
func (c *Client) WithResilience(executor *resilience.Executor) *Client {
	c.executor = executor
	return c
}

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
	if err := e.client.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed returned %d vectors for %d inputs", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type Generator struct {
	client  *Client
	enabled bool
}

// NewGenerator returns a generator that reports itself unavailable when
// disabled or when no generation model is configured.
func NewGenerator(client *Client, enabled bool) *Generator {
	return &Generator{client: client, enabled: enabled}
}

func (g *Generator) Available() bool {
	return g != nil && g.enabled && g.client != nil && g.client.genModel != ""
}

func (g *Generator) GenerateAnswer(ctx context.Context, question string, docs []domain.ContextDocument, lang string) (string, error) {
	if !g.Available() {
		return "", domain.WrapError(domain.ErrInvalidInput, "ollama generate", fmt.Errorf("generation is not configured"))
	}
	reqBody := map[string]any{
		"model":  g.client.genModel,
		"system": systemPrompt,
		"prompt": buildAnswerPrompt(question, docs, lang),
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := g.client.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
