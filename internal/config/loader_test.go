package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memsearch.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.Logging.File)
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"paths": ["/notes"],
		"data_dir": "/tmp/memsearch-test",
		"embedding": {"provider": "ollama", "model": "nomic-embed-text"},
		"flush": {"prune_sources": true}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/notes"}, cfg.Paths)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.True(t, cfg.Flush.PruneSources)

	// Untouched sections keep their defaults.
	assert.Equal(t, []string{".md", ".markdown"}, cfg.Extensions)
	assert.Equal(t, "/tmp/memsearch-test", cfg.DataDir)
	assert.Equal(t, filepath.Join("/tmp/memsearch-test", "memsearch.log"), cfg.Logging.File)
}

func TestLoad_RejectsInvalidJSON(t *testing.T) {
	path := writeConfig(t, `{"paths": [`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsSchemaViolation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrong paths type", `{"paths": "not-a-list"}`},
		{"unknown provider", `{"embedding": {"provider": "cohere"}}`},
		{"bad log level", `{"logging": {"level": "verbose"}}`},
		{"negative dimension", `{"embedding": {"dimension": -5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memsearch.json")
	loader := NewLoader(path)

	cfg := DefaultConfig()
	cfg.Paths = []string{"/docs", "/journal"}
	cfg.DataDir = "/tmp/memsearch-roundtrip"
	cfg.Embedding.Provider = "mock"
	cfg.Watch.ResyncCron = "@hourly"
	require.NoError(t, loader.Save(cfg))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Paths, loaded.Paths)
	assert.Equal(t, "mock", loaded.Embedding.Provider)
	assert.Equal(t, "@hourly", loaded.Watch.ResyncCron)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/memsearch.json", NewLoader("/etc/memsearch.json").GetConfigPath())
	assert.NotEmpty(t, NewLoader("").GetConfigPath())
}
