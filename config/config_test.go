package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MergesOverDefaults(t *testing.T) {
	raw := []byte(`
provider: mock
prompt: "A lighthouse keeper finds a map."
stories: 3
retry:
  max_attempts: 5
  backoff_base: 500ms
`)
	cfg, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Provider)
	assert.Equal(t, 3, cfg.Stories)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BackoffBase)
	// Untouched fields keep their defaults.
	assert.Equal(t, "story_output", cfg.OutputDir)
	assert.Equal(t, 0.35, cfg.SimilarityThreshold)
	assert.Equal(t, 30*time.Second, cfg.Retry.BackoffCap)
	assert.Equal(t, "skip", cfg.OnStoryFailure)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_STORY_PROMPT", "A premise from the environment")
	cfg, err := Parse([]byte("provider: mock\nprompt: $TEST_STORY_PROMPT\n"))
	require.NoError(t, err)
	assert.Equal(t, "A premise from the environment", cfg.Prompt)
}

func TestParse_BadDuration(t *testing.T) {
	_, err := Parse([]byte("provider: mock\nretry:\n  backoff_base: soon\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("provider: [unterminated"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: mock\nprompt: hello\nstories: 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Stories)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := Default()
		c.Provider = "mock"
		return c
	}

	cases := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"unknown provider", func(c *Config) { c.Provider = "llamafarm" }, false},
		{"zero stories", func(c *Config) { c.Stories = 0 }, false},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, false},
		{"threshold zero", func(c *Config) { c.SimilarityThreshold = 0 }, false},
		{"threshold above one", func(c *Config) { c.SimilarityThreshold = 1.5 }, false},
		{"threshold one", func(c *Config) { c.SimilarityThreshold = 1 }, true},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, false},
		{"negative backoff", func(c *Config) { c.Retry.BackoffBase = -time.Second }, false},
		{"bad failure policy", func(c *Config) { c.OnStoryFailure = "retry" }, false},
		{"abort policy", func(c *Config) { c.OnStoryFailure = "abort" }, true},
		{"azure without endpoint", func(c *Config) { c.Provider = "azure" }, false},
		{"azure with endpoint", func(c *Config) {
			c.Provider = "azure"
			c.Azure.Endpoint = "https://example.openai.azure.com"
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestInitialPrompt(t *testing.T) {
	cfg := Default()
	_, err := cfg.InitialPrompt()
	assert.ErrorIs(t, err, ErrInvalid)

	cfg.Prompt = "inline premise"
	got, err := cfg.InitialPrompt()
	require.NoError(t, err)
	assert.Equal(t, "inline premise", got)

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("file premise"), 0o644))
	cfg.PromptFile = path
	got, err = cfg.InitialPrompt()
	require.NoError(t, err)
	assert.Equal(t, "file premise", got)

	cfg.PromptFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = cfg.InitialPrompt()
	assert.ErrorIs(t, err, ErrInvalid)
}
