package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"macgpt/internal/domain"
)

// Client is a minimal REST client to the Generative Language generateContent
// endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// Config configures the Gemini generation client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewClient creates a new generation client using the provided configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash-latest"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: t},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends the prompt to the model and returns its reply. A safety
// block surfaces in Reply.BlockReason, not as an error.
func (c *Client) Generate(ctx context.Context, prompt string) (domain.Reply, error) {
	if c.apiKey == "" {
		return domain.Reply{}, errors.New("gemini generateContent: API key not configured")
	}
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return domain.Reply{}, err
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return domain.Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("gemini generateContent: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("gemini generateContent: %w", err)
	}
	if resp.StatusCode >= 300 {
		return domain.Reply{}, fmt.Errorf("gemini generateContent: %s", resp.Status)
	}
	var out generateResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return domain.Reply{}, fmt.Errorf("gemini generateContent: %w", err)
	}
	if out.PromptFeedback.BlockReason != "" {
		return domain.Reply{BlockReason: out.PromptFeedback.BlockReason}, nil
	}
	var sb strings.Builder
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		break
	}
	return domain.Reply{Text: sb.String()}, nil
}
