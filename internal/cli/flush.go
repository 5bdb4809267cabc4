package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flushSource string
	flushPrune  bool
)

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Summarize stored chunks into a condensed artifact",
	Long: `Flush retrieves stored chunks, asks the summarization backend for a
condensed markdown summary, and indexes the summary back into the store
under doc type "flush". With --prune the summarized source chunks are
removed afterwards.`,
	RunE: runFlush,
}

func init() {
	flushCmd.Flags().StringVar(&flushSource, "source", "", "restrict the flush to chunks from one source path")
	flushCmd.Flags().BoolVar(&flushPrune, "prune", false, "delete summarized source chunks after flushing")
	rootCmd.AddCommand(flushCmd)
}

func runFlush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flushPrune {
		cfg.Flush.PruneSources = true
	}

	log, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer log.Close()

	mgr, err := newManager(cfg, log.GetZerolog(), true)
	if err != nil {
		return err
	}
	defer mgr.Close()

	summary, err := mgr.Flush(cmd.Context(), flushSource)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{"summary": summary})
	}

	if summary == "" {
		fmt.Println("Nothing to flush.")
		return nil
	}
	fmt.Println(summary)
	return nil
}
