// Package openaichat implements the Generator and Interpreter contracts
// against an OpenAI-compatible Chat Completions backend.
package openaichat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/askframe/askframe/pkg/provider"
)

// Config holds client settings.
type Config struct {
	// BaseURL is the backend root, e.g. "https://api.openai.com".
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Model is the model name for both operations.
	Model string

	// GenerationTemperature applies to script generation. Default 0.1.
	GenerationTemperature float64

	// InterpretationTemperature applies to result interpretation.
	// Default 0.3.
	InterpretationTemperature float64

	// MaxTokens caps completion length. Default 2000.
	MaxTokens int

	// Timeout is the per-request HTTP timeout. Default 60s.
	Timeout time.Duration
}

// Client is a Chat Completions client implementing both Generator and
// Interpreter. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

var (
	_ provider.Generator   = (*Client)(nil)
	_ provider.Interpreter = (*Client)(nil)
)

// New creates a Client. BaseURL and Model are required.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openaichat: base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openaichat: model is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.GenerationTemperature == 0 {
		cfg.GenerationTemperature = 0.1
	}
	if cfg.InterpretationTemperature == 0 {
		cfg.InterpretationTemperature = 0.3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}, nil
}

// GenerateScript asks the backend for a script answering the question.
// The returned text is stripped of markdown fences but otherwise raw and
// untrusted.
func (c *Client) GenerateScript(ctx context.Context, req *provider.GenerationRequest) (string, error) {
	text, err := c.complete(ctx, c.cfg.GenerationTemperature, []ChatMessage{
		{Role: "system", Content: provider.GenerationSystemPrompt},
		{Role: "user", Content: provider.BuildGenerationPrompt(req)},
	})
	if err != nil {
		return "", fmt.Errorf("generate script: %w", err)
	}
	return provider.StripCodeFences(text), nil
}

// InterpretResult asks the backend for a natural-language explanation.
func (c *Client) InterpretResult(ctx context.Context, req *provider.InterpretationRequest) (string, error) {
	text, err := c.complete(ctx, c.cfg.InterpretationTemperature, []ChatMessage{
		{Role: "system", Content: provider.InterpretationSystemPrompt},
		{Role: "user", Content: provider.BuildInterpretationPrompt(req)},
	})
	if err != nil {
		return "", fmt.Errorf("interpret result: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// complete performs one Chat Completions call and returns the first
// choice's content.
func (c *Client) complete(ctx context.Context, temperature float64, messages []ChatMessage) (string, error) {
	chatReq := ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   &c.cfg.MaxTokens,
	}
	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.cfg.BaseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("backend request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", mapHTTPError(httpResp.StatusCode, respBody)
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("backend error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("backend produced no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// mapHTTPError converts a non-2xx response into an error, surfacing the
// backend's message when the body parses as an error payload.
func mapHTTPError(status int, body []byte) error {
	var payload struct {
		Error *ChatError `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != nil {
		return fmt.Errorf("backend returned HTTP %d: %s", status, payload.Error.Message)
	}
	return fmt.Errorf("backend returned HTTP %d", status)
}
