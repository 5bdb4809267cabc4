package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pjgates/memsearch/internal/config"
	"github.com/pjgates/memsearch/internal/logger"
	"github.com/pjgates/memsearch/pkg/embedding"
	"github.com/pjgates/memsearch/pkg/memory"
	"github.com/pjgates/memsearch/pkg/summarizer"
)

const version = "0.1.0"

var (
	cfgFile    string
	logLevel   string
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "memsearch",
	Short: "Memsearch - semantic search over markdown and conversation logs",
	Long: `Memsearch maintains a semantically searchable index over markdown
documents and conversation logs. Content-addressed chunking and an
embedding cache make re-indexing cheap and idempotent.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.memsearch/memsearch.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "machine-readable JSON output")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// loadConfig loads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// newLogger builds the process logger from config. CLI runs log to the
// console; the file sink is reserved for long-lived watch sessions.
func newLogger(cfg *config.Config, withFile bool) (*logger.Logger, error) {
	lc := logger.Config{
		Level:     cfg.Logging.Level,
		Console:   true,
		Pretty:    true,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	}
	if withFile {
		lc.File = cfg.Logging.File
	}
	return logger.New(lc)
}

// newManager wires the embedding provider, optional summarizer, and memory
// manager from config.
func newManager(cfg *config.Config, log zerolog.Logger, withSummarizer bool) (*memory.Manager, error) {
	embedder, err := embedding.New(embedding.Config{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Embedding.Dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	var summ summarizer.Summarizer
	if withSummarizer {
		summ, err = summarizer.New(summarizer.Config{
			Provider: cfg.Summarizer.Provider,
			Model:    cfg.Summarizer.Model,
			APIKey:   cfg.Summarizer.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create summarizer: %w", err)
		}
	}

	return memory.NewManager(memory.Config{
		Paths:        cfg.Paths,
		Extensions:   cfg.Extensions,
		Exclude:      cfg.Exclude,
		CachePath:    cfg.CachePath(),
		StorePath:    cfg.StorePath(),
		Embedder:     embedder,
		Summarizer:   summ,
		PruneOnFlush: cfg.Flush.PruneSources,
		Logger:       log,
	})
}
