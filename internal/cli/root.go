package cli

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	configPath string
)

// rootCmd is the root command for planctl.
var rootCmd = &cobra.Command{
	Use:     "planctl",
	Version: "dev",
	Short:   "Operator tooling for gym nutrition plans",
	Long: `planctl manages nutrition plans directly against the application database.

It covers the operator side of the plan lifecycle (pausing, finishing, and
archiving live plans), sweeps up expired live plans, and seeds plan fixtures
from YAML files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory containing config.yaml")

	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
