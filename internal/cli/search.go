package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pjgates/memsearch/pkg/chunker"
)

var (
	searchTopK    int
	searchDocType string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index semantically",
	Long: `Search embeds the query and returns the closest stored chunks by
cosine similarity, best first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchDocType, "doc-type", "", "restrict to a doc type (markdown, session, flush)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
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

	query := strings.Join(args, " ")
	results, err := mgr.Search(cmd.Context(), query, searchTopK, chunker.DocType(searchDocType))
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range results {
		heading := r.Chunk.Heading
		if heading == "" {
			heading = "(no heading)"
		}
		fmt.Printf("%d. [%.3f] %s - %s (lines %d-%d)\n", i+1, r.Score, r.Chunk.Source, heading, r.Chunk.StartLine, r.Chunk.EndLine)

		snippet := r.Chunk.Content
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		for _, line := range strings.Split(snippet, "\n") {
			fmt.Printf("   %s\n", line)
		}
		fmt.Println()
	}

	return nil
}
