package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pjgates/memsearch/internal/config"
)

var (
	configurePaths []string
	configureForce bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write a starter config file",
	Long: `Configure writes a config file with default values to the config
path (honoring --config). An existing file is kept unless --force is given.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringArrayVar(&configurePaths, "path", nil, "directory to index (repeatable)")
	configureCmd.Flags().BoolVar(&configureForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	path := loader.GetConfigPath()
	if path == "" {
		return fmt.Errorf("failed to determine config path")
	}

	if _, err := os.Stat(path); err == nil && !configureForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	if len(configurePaths) > 0 {
		cfg.Paths = configurePaths
	}

	if err := loader.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("Wrote config to %s\n", path)
	fmt.Println("Set embedding.api_key (or MEMSEARCH environment variables) before indexing.")
	return nil
}
