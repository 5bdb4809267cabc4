package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []string{".md", ".markdown"}, cfg.Extensions)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, "openai", cfg.Summarizer.Provider)
	assert.False(t, cfg.Flush.PruneSources)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_DerivedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/memsearch"

	assert.Equal(t, filepath.Join("/var/lib/memsearch", "cache.db"), cfg.CachePath())
	assert.Equal(t, filepath.Join("/var/lib/memsearch", "store.db"), cfg.StorePath())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad embedding provider",
			mutate:  func(c *Config) { c.Embedding.Provider = "cohere" },
			wantErr: "invalid embedding provider",
		},
		{
			name:    "bad summarizer provider",
			mutate:  func(c *Config) { c.Summarizer.Provider = "llama" },
			wantErr: "invalid summarizer provider",
		},
		{
			name:    "negative dimension",
			mutate:  func(c *Config) { c.Embedding.Dimension = -1 },
			wantErr: "dimension",
		},
		{
			name:    "extension without dot",
			mutate:  func(c *Config) { c.Extensions = []string{"md"} },
			wantErr: "must start with a dot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_String(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()
	assert.Contains(t, s, `"embedding"`)
	assert.Contains(t, s, `"prune_sources"`)
}
