package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultClaudeModel = "claude-3-5-haiku-latest"
	defaultMaxTokens   = 1024
)

// Enricher turns a prompt into free-form commentary.
type Enricher interface {
	Enrich(ctx context.Context, prompt string) (string, error)
	Name() string
}

// GeminiEnricher generates commentary with the Gemini API.
type GeminiEnricher struct {
	client *genai.Client
	model  string
}

// NewGeminiEnricher creates a Gemini-backed enricher.
func NewGeminiEnricher(ctx context.Context, apiKey, model string) (*GeminiEnricher, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiEnricher{client: client, model: model}, nil
}

func (g *GeminiEnricher) Name() string { return "gemini" }

func (g *GeminiEnricher) Enrich(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", errors.New("gemini: no content generated")
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

// ClaudeEnricher generates commentary with the Anthropic Messages API.
type ClaudeEnricher struct {
	messages  *anthropic.MessageService
	model     string
	maxTokens int64
}

// NewClaudeEnricher creates a Claude-backed enricher.
func NewClaudeEnricher(apiKey, model string) *ClaudeEnricher {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = DefaultClaudeModel
	}
	return &ClaudeEnricher{messages: &client.Messages, model: model, maxTokens: defaultMaxTokens}
}

func (c *ClaudeEnricher) Name() string { return "claude" }

func (c *ClaudeEnricher) Enrich(ctx context.Context, prompt string) (string, error) {
	resp, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	})
	if err != nil {
		return "", fmt.Errorf("claude messages: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("claude: no text in response")
	}
	return b.String(), nil
}

// WebhookEnricher posts {"prompt": ...} to an endpoint and reads {"text": ...} back.
type WebhookEnricher struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewWebhookEnricher creates an enricher for a self-hosted text endpoint.
func NewWebhookEnricher(endpoint, apiKey string) *WebhookEnricher {
	return &WebhookEnricher{Endpoint: endpoint, APIKey: apiKey, Client: &http.Client{}}
}

func (w *WebhookEnricher) Name() string { return "webhook" }

func (w *WebhookEnricher) Enrich(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", fmt.Errorf("marshal prompt: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.APIKey)
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode webhook response: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", errors.New("webhook: empty text")
	}
	return out.Text, nil
}
