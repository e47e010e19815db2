package cmd

import (
	"fmt"

	"github.com/plint-dev/plint/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration tree",
	Long: `Init seeds the config directory with the default override document,
rule slices, and profiles.

The tree is written to ~/.config/plint (or the directory named by the
PLINT_CONFIG environment variable). Existing files are kept unless
--force is given.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config files")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := configDir
	if dir == "" {
		var err error
		dir, err = config.Dir()
		if err != nil {
			return fmt.Errorf("failed to get config directory: %w", err)
		}
	}

	if err := config.EnsureFiles(dir, initForce); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to: %s\n", dir)
	fmt.Fprintln(cmd.OutOrStdout(), "Run 'plint validate' to see the composed policy.")
	return nil
}
