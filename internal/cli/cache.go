package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheClearModel string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached embeddings",
	Long: `Clear removes cached embeddings. By default the whole cache is
cleared; --model restricts the clear to one embedding model.`,
	RunE: runCacheClear,
}

func init() {
	cacheClearCmd.Flags().StringVar(&cacheClearModel, "model", "", "only clear entries for this embedding model")
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
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

	n, err := mgr.Cache().Clear(cmd.Context(), cacheClearModel)
	if err != nil {
		return err
	}

	if cacheClearModel != "" {
		fmt.Printf("Cleared %d cached embeddings for model %s.\n", n, cacheClearModel)
	} else {
		fmt.Printf("Cleared %d cached embeddings.\n", n)
	}
	return nil
}
