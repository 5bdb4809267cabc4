package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Config represents the main memsearch configuration
type Config struct {
	// Directories and files to index
	Paths []string `json:"paths" mapstructure:"paths"`

	// File extensions treated as markdown documents
	Extensions []string `json:"extensions" mapstructure:"extensions"`

	// Glob patterns excluded from scanning
	Exclude []string `json:"exclude" mapstructure:"exclude"`

	// Data directory (cache and store databases live here)
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Embedding backend
	Embedding EmbeddingConfig `json:"embedding" mapstructure:"embedding"`

	// Summarization backend used by flush
	Summarizer SummarizerConfig `json:"summarizer" mapstructure:"summarizer"`

	// Flush behavior
	Flush FlushConfig `json:"flush" mapstructure:"flush"`

	// Watch behavior
	Watch WatchConfig `json:"watch" mapstructure:"watch"`

	// Metrics endpoint
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// EmbeddingConfig selects and parameterizes the embedding provider
type EmbeddingConfig struct {
	Provider  string `json:"provider" mapstructure:"provider"` // openai, ollama, mock
	Model     string `json:"model" mapstructure:"model"`
	APIKey    string `json:"api_key" mapstructure:"api_key"`
	BaseURL   string `json:"base_url" mapstructure:"base_url"`
	Dimension int    `json:"dimension" mapstructure:"dimension"`
}

// SummarizerConfig selects the summarization provider
type SummarizerConfig struct {
	Provider string `json:"provider" mapstructure:"provider"` // openai, anthropic
	Model    string `json:"model" mapstructure:"model"`
	APIKey   string `json:"api_key" mapstructure:"api_key"`
}

// FlushConfig controls flush compaction
type FlushConfig struct {
	// Remove summarized source chunks after a successful flush
	PruneSources bool `json:"prune_sources" mapstructure:"prune_sources"`
}

// WatchConfig controls the live watcher
type WatchConfig struct {
	// Cron expression for periodic full resync while watching ("" disables)
	ResyncCron string `json:"resync_cron" mapstructure:"resync_cron"`
}

// MetricsConfig controls the prometheus scrape endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Paths:      []string{},
		Extensions: []string{".md", ".markdown"},
		Exclude:    []string{"node_modules/**", ".git/**"},
		Embedding: EmbeddingConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Summarizer: SummarizerConfig{
			Provider: "openai",
		},
		Flush: FlushConfig{
			PruneSources: false,
		},
		Watch: WatchConfig{
			ResyncCron: "",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9313",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
	}
}

// CachePath returns the embedding cache database path.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// StorePath returns the vector store database path.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "store.db")
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "", "openai", "ollama", "mock":
	default:
		return fmt.Errorf("invalid embedding provider: %s (must be: openai, ollama, mock)", c.Embedding.Provider)
	}

	switch c.Summarizer.Provider {
	case "", "openai", "anthropic":
	default:
		return fmt.Errorf("invalid summarizer provider: %s (must be: openai, anthropic)", c.Summarizer.Provider)
	}

	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("embedding dimension must be >= 0, got %d", c.Embedding.Dimension)
	}

	for _, ext := range c.Extensions {
		if ext == "" || ext[0] != '.' {
			return fmt.Errorf("invalid extension %q: must start with a dot", ext)
		}
	}

	return nil
}
