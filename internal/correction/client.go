package correction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"note-backend/internal/shared/metrics"
	"note-backend/internal/shared/telemetry"
)

const defaultTimeout = 20 * time.Second

// Result is the outcome of a correction attempt. The gateway never fails
// outward: when the external call cannot be completed, Text carries the
// original input, Fallback is true, and Cause records why.
type Result struct {
	Text     string
	Fallback bool
	Cause    error
}

// Gateway corrects raw OCR text via an external chat-completions endpoint.
type Gateway interface {
	Correct(ctx context.Context, recognizedText string) Result
}

// Client implements Gateway against an OpenAI-compatible endpoint.
type Client struct {
	url        string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a correction client. An empty API key is allowed;
// every call will then fall back to the original text, which keeps the
// pipeline alive in environments without credentials.
func NewClient(url, model, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(model) == "" {
		model = "gpt-3.5-turbo"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:    strings.TrimSpace(url),
		model:  model,
		apiKey: strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Correct sends the recognized text for correction and returns the corrected
// text, or the original text as a fallback on any failure. Correction is a
// quality enhancement, not a pipeline dependency, so this method never
// returns an error.
func (c *Client) Correct(ctx context.Context, recognizedText string) Result {
	corrected, err := c.correctOnce(ctx, recognizedText)
	if err != nil {
		metrics.IncCorrectionFallback()
		telemetry.Warn("correction.fallback", map[string]any{
			"error": err.Error(),
		})
		return Result{Text: recognizedText, Fallback: true, Cause: err}
	}
	return Result{Text: corrected}
}

func (c *Client) correctOnce(ctx context.Context, recognizedText string) (string, error) {
	if c.url == "" {
		return "", fmt.Errorf("correction url not configured")
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("correction api key not configured")
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(recognizedText)},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode correction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build correction request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post correction: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read correction response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("correction returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode correction response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("correction error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("correction response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func buildPrompt(recognizedText string) string {
	return fmt.Sprintf(`The following text was recognized from a handwritten-note image by OCR. It may contain recognition errors. Correct it into natural, accurate sentences while preserving the original meaning as much as possible.

Recognized text:
%s
`, recognizedText)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Gateway = (*Client)(nil)
