package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient implements Client on top of the google.golang.org/genai SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	timeout     time.Duration
	maxRetries  int
	logger      *zap.Logger
	mu          sync.Mutex
	lastRequest time.Time
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:     apiKey,
		Model:      "gemini-2.5-flash",
		Timeout:    5 * time.Minute,
		MaxRetries: 3,
	}
}

// NewGeminiClient creates a new Gemini client with default config.
func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	return NewGeminiClientWithConfig(DefaultGeminiConfig(apiKey))
}

// NewGeminiClientWithConfig creates a new Gemini client with custom config.
func NewGeminiClientWithConfig(config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GeminiClient{
		client:     client,
		model:      config.Model,
		timeout:    config.Timeout,
		maxRetries: config.MaxRetries,
		logger:     logger,
	}, nil
}

// Complete sends a prompt and returns the completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system instruction.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	// Auto-apply timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	c.logger.Debug("gemini request",
		zap.String("model", c.model),
		zap.Int("system_len", len(systemPrompt)),
		zap.Int("user_len", len(userPrompt)))

	// Rate limiting
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}
	if strings.TrimSpace(systemPrompt) != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}

	// Retry loop for rate limits and transient errors
	var lastErr error

	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			time.Sleep(time.Duration(1<<uint(i-1)) * time.Second)
		}

		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genConfig)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = fmt.Errorf("generate content failed: %w", err)
			continue
		}

		response := strings.TrimSpace(resp.Text())
		if response == "" {
			return "", fmt.Errorf("no completion returned")
		}

		c.logger.Debug("gemini response",
			zap.Duration("elapsed", time.Since(startTime)),
			zap.Int("response_len", len(response)))
		return response, nil
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// SetModel changes the model used for completions.
func (c *GeminiClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *GeminiClient) GetModel() string {
	return c.model
}
