package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"macgpt/internal/domain"
	"macgpt/internal/embedding"
)

// Client adapts the OpenAI embeddings API to the Embedder port. OpenAI has no
// notion of retrieval task types, so queries and documents share one encoding.
type Client struct {
	client *openai.Client
	model  string
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	var inner *openai.Client
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		inner = openai.NewClientWithConfig(oc)
	}
	return &Client{client: inner, model: cfg.Model}
}

// Embed returns an embedding vector for the given text. The task type is
// accepted for interface compatibility and ignored.
func (c *Client) Embed(ctx context.Context, text string, _ domain.TaskType) ([]float64, error) {
	if c.client == nil {
		return nil, embedding.ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, embedding.ErrEmptyText
	}
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embeddings: no embedding returned")
	}
	src := resp.Data[0].Embedding
	vec := make([]float64, len(src))
	for i, v := range src {
		vec[i] = float64(v)
	}
	return vec, nil
}
