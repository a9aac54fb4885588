package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"macgpt/internal/domain"
)

// Client adapts the OpenAI chat completions API to the Generator port.
type Client struct {
	client *openai.Client
	model  string
}

// Config configures the OpenAI-compatible generation client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewClient creates a new generation client using the provided configuration.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
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

// Generate sends the prompt as a single user message. A content-filter finish
// reason surfaces in Reply.BlockReason, not as an error.
func (c *Client) Generate(ctx context.Context, prompt string) (domain.Reply, error) {
	if c.client == nil {
		return domain.Reply{}, errors.New("openai chat: API key not configured")
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return domain.Reply{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Reply{}, nil
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return domain.Reply{BlockReason: string(choice.FinishReason)}, nil
	}
	return domain.Reply{Text: choice.Message.Content}, nil
}
