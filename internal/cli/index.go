package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pjgates/memsearch/pkg/memory"
	"github.com/pjgates/memsearch/pkg/scanner"
)

var (
	indexForce    bool
	indexSessions []string
)

var indexCmd = &cobra.Command{
	Use:   "index [paths...]",
	Short: "Index markdown documents into the search store",
	Long: `Index scans the given paths (or the configured ones) for markdown
documents, chunks them by heading, and stores content-addressed embeddings.
Unchanged chunks are skipped; cached embeddings are reused.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "re-embed and rewrite chunks already in the store")
	indexCmd.Flags().StringArrayVar(&indexSessions, "session", nil, "JSONL conversation log to index (repeatable)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Paths = args
	}
	if len(cfg.Paths) == 0 && len(indexSessions) == 0 {
		return fmt.Errorf("no paths to index: pass arguments or set \"paths\" in the config file")
	}

	log, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer log.Close()

	mgr, err := newManager(cfg, log.GetZerolog(), false)
	if err != nil {
		return err
	}
	defer mgr.Close()

	ctx := cmd.Context()

	opts := memory.IndexOptions{Force: indexForce}
	if !jsonOutput {
		files := scanner.Scan(cfg.Paths, scanner.Options{Extensions: cfg.Extensions, Exclude: cfg.Exclude})
		if len(files) > 0 {
			bar := progressbar.NewOptions(len(files),
				progressbar.OptionSetDescription("Indexing"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			opts.Progress = func(string) { _ = bar.Add(1) }
		}
	}

	chunks, indexErr := mgr.Index(ctx, opts)

	sessionChunks := 0
	for _, path := range indexSessions {
		n, err := mgr.IndexSession(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to index session log %s: %w", path, err)
		}
		sessionChunks += n
	}

	if jsonOutput {
		out := map[string]int{"chunks": chunks, "session_chunks": sessionChunks}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			return err
		}
	} else {
		fmt.Printf("Indexed %d chunks", chunks)
		if sessionChunks > 0 {
			fmt.Printf(" (+%d from session logs)", sessionChunks)
		}
		fmt.Println()
	}

	return indexErr
}
