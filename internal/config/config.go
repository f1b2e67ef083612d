package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slavadubrov/anything2anki/internal/prompt"
)

// Config holds all anything2anki configuration.
type Config struct {
	// LLM channel configuration
	LLM LLMConfig `yaml:"llm"`

	// Workflow configuration
	Workflow WorkflowConfig `yaml:"workflow"`

	// Deck rendering configuration
	Deck DeckConfig `yaml:"deck"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the completion channel.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // openai, anthropic, gemini; empty means infer from model
	Model      string `yaml:"model"`    // may be provider-qualified, e.g. "openai:gpt-5-mini"
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
}

// WorkflowConfig configures the generate/reflect/improve loop.
type WorkflowConfig struct {
	MaxReflections int    `yaml:"max_reflections"`
	Preset         string `yaml:"preset"`
}

// DeckConfig configures deck rendering.
type DeckConfig struct {
	Name      string `yaml:"name"`
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:      "openai:gpt-5-mini",
			Timeout:    "5m",
			MaxRetries: 3,
		},

		Workflow: WorkflowConfig{
			MaxReflections: 1,
			Preset:         string(prompt.DefaultPreset),
		},

		Deck: DeckConfig{
			Name: "Generated Deck",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".anything2anki.yaml"
	}
	return filepath.Join(home, ".anything2anki.yaml")
}

// Load loads configuration from a YAML file. An empty path means
// DefaultPath; a missing file is not an error, defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if model := os.Getenv("ANYTHING2ANKI_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if preset := os.Getenv("ANYTHING2ANKI_PRESET"); preset != "" {
		c.Workflow.Preset = preset
	}

	// API keys normally stay out of the config file; pick one up from the
	// environment when the file left it empty and the provider is pinned.
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "gemini":
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// GetTimeout returns the LLM request timeout as a duration.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"openai", "anthropic", "gemini"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.Provider != "" {
		validProvider := false
		for _, p := range ValidProviders {
			if c.LLM.Provider == p {
				validProvider = true
				break
			}
		}
		if !validProvider {
			return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
		}
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}

	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be >= 0, got %d", c.LLM.MaxRetries)
	}

	if c.Workflow.MaxReflections < 0 {
		return fmt.Errorf("workflow.max_reflections must be >= 0, got %d", c.Workflow.MaxReflections)
	}

	if _, err := prompt.ParsePreset(c.Workflow.Preset); err != nil {
		return fmt.Errorf("workflow.preset: %w", err)
	}

	return nil
}
