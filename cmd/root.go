// Package cmd implements the CLI commands for plint.
package cmd

import (
	"github.com/plint-dev/plint/internal/hooklog"
	"github.com/plint-dev/plint/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose   bool
	configDir string
	noHookLog bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "plint",
	Short: "Policy lint for agent-edited source trees",
	Long: `plint runs a declarative rule set over a source tree, either as a batch
lint or as a per-event policy hook for coding agents.

Rules live in slice documents; profiles decide which slices apply to a
project based on what the tree contains.

Usage as a Claude Code hook in ~/.claude/settings.json:
  "hooks": {
    "PreToolUse": [{
      "hooks": [{"type": "command", "command": "plint hook --source claude"}]
    }]
  }`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initApp)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (or set PLINT_CONFIG env var)")
	rootCmd.PersistentFlags().BoolVar(&noHookLog, "no-hook-log", false, "Disable hook decision logging")
}

// initApp initializes logging before any command runs.
func initApp() {
	logger.Init(logger.Options{Verbose: verbose})
	if err := hooklog.Init("", noHookLog); err != nil {
		logger.Warn("hook logging unavailable", "error", err)
	}
}
