package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjgates/memsearch/internal/config"
)

func withConfigPath(t *testing.T, path string) {
	t.Helper()
	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev })
}

func TestConfigure_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memsearch.json")
	withConfigPath(t, path)
	configurePaths = []string{"/notes"}
	t.Cleanup(func() { configurePaths = nil })

	require.NoError(t, runConfigure(configureCmd, nil))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/notes"}, cfg.Paths)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
}

func TestConfigure_RefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memsearch.json")
	withConfigPath(t, path)
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	err := runConfigure(configureCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestConfigure_ForceOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memsearch.json")
	withConfigPath(t, path)
	require.NoError(t, os.WriteFile(path, []byte(`{"paths": ["/old"]}`), 0o644))

	configureForce = true
	t.Cleanup(func() { configureForce = false })

	require.NoError(t, runConfigure(configureCmd, nil))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Paths)
}

func TestConfigureFlags(t *testing.T) {
	assert.NotNil(t, configureCmd.Flags().Lookup("path"))
	assert.NotNil(t, configureCmd.Flags().Lookup("force"))
}
