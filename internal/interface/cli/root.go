package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configDir   string
	apiURL      string
	debugLog    bool
	versionInfo string
	appVersion  = "dev"
)

// SetVersion records the values injected by the release build.
func SetVersion(version, commit, date string) {
	appVersion = version
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "leadrider: %v\n", err)
	os.Exit(1)
}

var rootCmd = &cobra.Command{
	Use:   "leadrider",
	Short: "Real-estate lead CRM in your terminal",
	Long: `leadrider - track real-estate leads and their activities from the terminal

Log in to your CRM backend, search and filter leads, log calls and meetings,
and watch the pipeline dashboard, all without leaving the shell.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// bare invocation opens the interactive client
		return tuiCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default ~/.config/leadrider)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "CRM backend base URL (overrides config and LEADRIDER_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Log every request to the log file")
}
