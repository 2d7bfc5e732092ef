// Package config loads and validates the frozen run configuration. The file
// is YAML with environment variable expansion ($VAR / ${VAR}) so secrets
// stay out of the file. Configuration is read once at startup; the core
// never reloads it mid-run.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure so callers can map
// configuration errors to a distinct exit code.
var ErrInvalid = errors.New("invalid configuration")

// Config is the frozen configuration for one run.
type Config struct {
	// Provider selects the generation backend: openai, anthropic, azure
	// or mock.
	Provider string `yaml:"provider"`

	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Azure     AzureConfig     `yaml:"azure"`

	// Prompt is the initial premise for the series. PromptFile, when set,
	// is read instead.
	Prompt     string `yaml:"prompt"`
	PromptFile string `yaml:"prompt_file"`

	// Stories is the target story count, >= 1.
	Stories int `yaml:"stories"`

	// OutputDir receives outline.txt and story_NN.txt.
	OutputDir string `yaml:"output_dir"`

	// SimilarityThreshold rejects a story whose word-trigram Jaccard
	// similarity against any finalized story reaches the threshold.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	Retry  RetryConfig  `yaml:"retry"`
	Limits LimitsConfig `yaml:"limits"`

	// OnStoryFailure decides what a story exhausting its retries means for
	// the run: "skip" continues with the remaining stories, "abort" stops
	// the run (finalized artifacts are preserved either way).
	OnStoryFailure string `yaml:"on_story_failure"`

	Logging LoggingConfig `yaml:"logging"`
}

// OpenAIConfig parameterizes the OpenAI provider. The API key comes from
// the environment (OPENAI_API_KEY) per SDK convention.
type OpenAIConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// AnthropicConfig parameterizes the Anthropic provider.
type AnthropicConfig struct {
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// AzureConfig parameterizes the Azure OpenAI (or OpenAI-compatible) provider.
type AzureConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Deployment  string  `yaml:"deployment"`
	APIVersion  string  `yaml:"api_version"`
	APIKey      string  `yaml:"api_key"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// RetryConfig bounds the validation gate's retry loop.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffCap  time.Duration `yaml:"backoff_cap"`
}

// UnmarshalYAML accepts duration strings ("2s", "1m30s") for the backoff
// fields. Absent keys keep the values already present, so a partial retry
// block merges over the defaults.
func (r *RetryConfig) UnmarshalYAML(node *yaml.Node) error {
	aux := struct {
		MaxAttempts *int    `yaml:"max_attempts"`
		BackoffBase *string `yaml:"backoff_base"`
		BackoffCap  *string `yaml:"backoff_cap"`
	}{}
	if err := node.Decode(&aux); err != nil {
		return err
	}
	if aux.MaxAttempts != nil {
		r.MaxAttempts = *aux.MaxAttempts
	}
	if aux.BackoffBase != nil {
		d, err := time.ParseDuration(*aux.BackoffBase)
		if err != nil {
			return fmt.Errorf("retry.backoff_base: %w", err)
		}
		r.BackoffBase = d
	}
	if aux.BackoffCap != nil {
		d, err := time.ParseDuration(*aux.BackoffCap)
		if err != nil {
			return fmt.Errorf("retry.backoff_cap: %w", err)
		}
		r.BackoffCap = d
	}
	return nil
}

// LimitsConfig bounds resource usage per run.
type LimitsConfig struct {
	// MaxModelCalls caps total generation calls per run, 0 for unlimited.
	MaxModelCalls int `yaml:"max_model_calls"`
	// MaxContextChars bounds the rendered prompt size per agent call.
	MaxContextChars int `yaml:"max_context_chars"`
	// MinStoryWords is the minimum length for a finalized story.
	MinStoryWords int `yaml:"min_story_words"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the baseline configuration a minimal file is merged over.
func Default() Config {
	return Config{
		Provider:            "openai",
		OpenAI:              OpenAIConfig{Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 4096},
		Anthropic:           AnthropicConfig{Temperature: 0.7, MaxTokens: 4096},
		Azure:               AzureConfig{Temperature: 0.7, MaxTokens: 4096},
		Stories:             2,
		OutputDir:           "story_output",
		SimilarityThreshold: 0.35,
		Retry: RetryConfig{
			MaxAttempts: 3,
			BackoffBase: 2 * time.Second,
			BackoffCap:  30 * time.Second,
		},
		Limits: LimitsConfig{
			MaxModelCalls:   200,
			MaxContextChars: 24000,
			MinStoryWords:   300,
		},
		OnStoryFailure: "skip",
		Logging:        LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads, expands and validates the configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalid, path, err)
	}
	return Parse(raw)
}

// Parse decodes configuration bytes over the defaults and validates.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration invariants. All failures wrap ErrInvalid.
func (c *Config) Validate() error {
	switch c.Provider {
	case "openai", "anthropic", "azure", "mock":
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalid, c.Provider)
	}
	if c.Stories < 1 {
		return fmt.Errorf("%w: stories must be >= 1, got %d", ErrInvalid, c.Stories)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalid)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold must be in (0,1], got %g", ErrInvalid, c.SimilarityThreshold)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be >= 1, got %d", ErrInvalid, c.Retry.MaxAttempts)
	}
	if c.Retry.BackoffBase < 0 || c.Retry.BackoffCap < 0 {
		return fmt.Errorf("%w: backoff durations must not be negative", ErrInvalid)
	}
	switch c.OnStoryFailure {
	case "skip", "abort":
	default:
		return fmt.Errorf("%w: on_story_failure must be skip or abort, got %q", ErrInvalid, c.OnStoryFailure)
	}
	if c.Provider == "azure" && c.Azure.Endpoint == "" {
		return fmt.Errorf("%w: azure provider requires an endpoint", ErrInvalid)
	}
	return nil
}

// InitialPrompt resolves the premise text, preferring PromptFile.
func (c *Config) InitialPrompt() (string, error) {
	if c.PromptFile != "" {
		raw, err := os.ReadFile(c.PromptFile)
		if err != nil {
			return "", fmt.Errorf("%w: read prompt file %s: %v", ErrInvalid, c.PromptFile, err)
		}
		return string(raw), nil
	}
	if c.Prompt == "" {
		return "", fmt.Errorf("%w: prompt or prompt_file is required", ErrInvalid)
	}
	return c.Prompt, nil
}
