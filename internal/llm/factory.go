package llm

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider identifies an LLM provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// ClientConfig holds the resolved provider, credentials, and model overrides
// used to construct a client.
type ClientConfig struct {
	Provider   Provider
	APIKey     string
	Model      string        // optional model override
	BaseURL    string        // optional endpoint override (openai, anthropic)
	Timeout    time.Duration // optional request timeout override
	MaxRetries int           // optional retry budget override
	Logger     *zap.Logger
}

// Parse splits a provider-qualified model ID such as "openai:gpt-5-mini".
// Unqualified IDs are matched by model family; the returned provider is empty
// when the name matches no known family, letting the caller fall back to a
// configured or detected provider.
func Parse(modelID string) (Provider, string, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return "", "", fmt.Errorf("empty model ID")
	}

	if qualifier, model, ok := strings.Cut(modelID, ":"); ok {
		p := Provider(strings.ToLower(strings.TrimSpace(qualifier)))
		model = strings.TrimSpace(model)
		if model == "" {
			return "", "", fmt.Errorf("model ID %q names a provider but no model", modelID)
		}
		switch p {
		case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
			return p, model, nil
		default:
			return "", "", fmt.Errorf("unknown provider %q in model ID %q (valid: openai, anthropic, gemini)", qualifier, modelID)
		}
	}

	switch {
	case strings.HasPrefix(modelID, "gpt"),
		strings.HasPrefix(modelID, "o1"),
		strings.HasPrefix(modelID, "o3"),
		strings.HasPrefix(modelID, "o4"):
		return ProviderOpenAI, modelID, nil
	case strings.HasPrefix(modelID, "claude"):
		return ProviderAnthropic, modelID, nil
	case strings.HasPrefix(modelID, "gemini"):
		return ProviderGemini, modelID, nil
	}

	return "", modelID, nil
}

// DetectProvider finds the first provider with an API key in the environment.
// Priority: OPENAI_API_KEY > ANTHROPIC_API_KEY > GEMINI_API_KEY.
func DetectProvider() (Provider, string, error) {
	providers := []struct {
		envVar   string
		provider Provider
	}{
		{"OPENAI_API_KEY", ProviderOpenAI},
		{"ANTHROPIC_API_KEY", ProviderAnthropic},
		{"GEMINI_API_KEY", ProviderGemini},
	}

	for _, p := range providers {
		if key := os.Getenv(p.envVar); key != "" {
			return p.provider, key, nil
		}
	}

	return "", "", fmt.Errorf("no API key found; set one of: OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY")
}

// EnvAPIKey returns the conventional environment API key for a provider.
func EnvAPIKey(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}

// NewClient creates a client for the configured provider.
func NewClient(cfg ClientConfig) (Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		config := DefaultOpenAIConfig(cfg.APIKey)
		if cfg.Model != "" {
			config.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			config.Timeout = cfg.Timeout
		}
		if cfg.MaxRetries > 0 {
			config.MaxRetries = cfg.MaxRetries
		}
		config.Logger = cfg.Logger
		return NewOpenAIClientWithConfig(config), nil

	case ProviderAnthropic:
		config := DefaultAnthropicConfig(cfg.APIKey)
		if cfg.Model != "" {
			config.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			config.Timeout = cfg.Timeout
		}
		if cfg.MaxRetries > 0 {
			config.MaxRetries = cfg.MaxRetries
		}
		config.Logger = cfg.Logger
		return NewAnthropicClientWithConfig(config), nil

	case ProviderGemini:
		config := DefaultGeminiConfig(cfg.APIKey)
		if cfg.Model != "" {
			config.Model = cfg.Model
		}
		if cfg.Timeout > 0 {
			config.Timeout = cfg.Timeout
		}
		if cfg.MaxRetries > 0 {
			config.MaxRetries = cfg.MaxRetries
		}
		config.Logger = cfg.Logger
		return NewGeminiClientWithConfig(config)

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
