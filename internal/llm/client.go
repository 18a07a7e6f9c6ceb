// Package llm talks to an OpenAI-compatible chat-completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mercascan/mercascan/internal/config"
	"github.com/mercascan/mercascan/internal/domain"
)

// Completer produces one completion for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client handles communication with the completion API.
type Client struct {
	cfg        config.CompletionConfig
	httpClient *http.Client
	log        zerolog.Logger
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the chat-completions request body.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Response is the chat-completions response body.
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice is a single completion choice.
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// NewClient creates a completion client from configuration.
func NewClient(cfg config.CompletionConfig, log zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// Complete sends one chat request and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.cfg.Enabled() {
		return "", domain.InputError("completion API key not configured", nil)
	}

	body, err := json.Marshal(Request{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", domain.BadResponseError("failed to marshal completion request", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", domain.BadResponseError(
			fmt.Sprintf("completion API returned status %d: %s", resp.StatusCode, string(raw)), nil)
	}

	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", domain.BadResponseError("failed to decode completion response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", domain.BadResponseError("completion response has no choices", nil)
	}

	content := parsed.Choices[0].Message.Content
	c.log.Debug().
		Str("model", c.cfg.Model).
		Int("chars", len(content)).
		Msg("completion received")
	return content, nil
}
