package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all indexed data",
	Long: `Reset drops the vector store and clears the embedding cache.
Indexed documents on disk are untouched.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		fmt.Print("This deletes all indexed chunks and cached embeddings. Continue? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

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

	ctx := cmd.Context()
	if err := mgr.Store().Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop vector store: %w", err)
	}
	cleared, err := mgr.Cache().Clear(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to clear embedding cache: %w", err)
	}

	fmt.Printf("Reset complete (%d cached embeddings removed).\n", cleared)
	return nil
}
