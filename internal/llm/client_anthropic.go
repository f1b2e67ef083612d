package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AnthropicClient implements Client for the Anthropic messages API.
type AnthropicClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxRetries  int
	httpClient  *http.Client
	logger      *zap.Logger
	mu          sync.Mutex
	lastRequest time.Time
}

// DefaultAnthropicConfig returns sensible defaults.
func DefaultAnthropicConfig(apiKey string) AnthropicConfig {
	return AnthropicConfig{
		APIKey:     apiKey,
		BaseURL:    "https://api.anthropic.com/v1",
		Model:      "claude-sonnet-4-5-20250514",
		Timeout:    5 * time.Minute,
		MaxRetries: 3,
	}
}

// NewAnthropicClient creates a new Anthropic client with default config.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return NewAnthropicClientWithConfig(DefaultAnthropicConfig(apiKey))
}

// NewAnthropicClientWithConfig creates a new Anthropic client with custom config.
func NewAnthropicClientWithConfig(config AnthropicConfig) *AnthropicClient {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnthropicClient{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		model:      config.Model,
		maxRetries: config.MaxRetries,
		logger:     logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Complete sends a prompt and returns the completion.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *AnthropicClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	// Auto-apply timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	c.logger.Debug("anthropic request",
		zap.String("model", c.model),
		zap.Int("system_len", len(systemPrompt)),
		zap.Int("user_len", len(userPrompt)))

	if c.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	// Rate limiting
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	reqBody := AnthropicRequest{
		Model:     c.model,
		MaxTokens: 8192,
		System:    strings.TrimSpace(systemPrompt),
		Messages: []AnthropicMessage{
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	// Retry loop for rate limits and transient errors
	var lastErr error

	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			time.Sleep(time.Duration(1<<uint(i-1)) * time.Second)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(jsonData))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var anthropicResp AnthropicResponse
		if err := json.Unmarshal(body, &anthropicResp); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}

		if anthropicResp.Error != nil {
			return "", fmt.Errorf("API error: %s", anthropicResp.Error.Message)
		}

		if len(anthropicResp.Content) == 0 {
			return "", fmt.Errorf("no completion returned")
		}

		var result strings.Builder
		for _, block := range anthropicResp.Content {
			if block.Type == "text" {
				result.WriteString(block.Text)
			}
		}

		response := strings.TrimSpace(result.String())
		c.logger.Debug("anthropic response",
			zap.Duration("elapsed", time.Since(startTime)),
			zap.Int("response_len", len(response)))
		return response, nil
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// SetModel changes the model used for completions.
func (c *AnthropicClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *AnthropicClient) GetModel() string {
	return c.model
}
