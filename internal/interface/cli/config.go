package cli

import (
	"fmt"
	"os"

	"github.com/neilberkman/leadrider/internal/core/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after applying config.toml, LEADRIDER_API_URL and flags.

The output is valid config.toml content.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}

	fmt.Printf("# directory: %s\n", cfg.Dir)
	return cfg.Write(os.Stdout)
}
