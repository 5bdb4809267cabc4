package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Long:  `Stats reports the stored chunk count, cache hit rate, and last sync time.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	status, err := mgr.Status(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(status)
	}

	fmt.Printf("Chunks stored: %d\n", status.TotalChunks)
	if status.CacheHitRate != nil {
		fmt.Printf("Cache hit rate: %.1f%%\n", *status.CacheHitRate*100)
	}
	if status.LastSyncTime != nil {
		fmt.Printf("Last sync: %s\n", status.LastSyncTime.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Last sync: never (this process)")
	}
	return nil
}
