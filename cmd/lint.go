package cmd

import (
	"fmt"
	"os"

	"github.com/plint-dev/plint/internal/config"
	"github.com/plint-dev/plint/internal/lint"
	"github.com/plint-dev/plint/internal/policy"
	"github.com/plint-dev/plint/internal/profile"
	"github.com/plint-dev/plint/internal/ruleset"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	lintFix    bool
	lintDryRun bool
)

var lintCmd = &cobra.Command{
	Use:   "lint [path]",
	Short: "Run the composed policy over a source tree",
	Long: `Lint walks the tree rooted at path (default: the current directory),
activates profiles against it, and scans every eligible file with the
composed rule set.

Exit code 1 means at least one error-or-stronger issue was found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
	lintCmd.Flags().BoolVar(&lintFix, "fix", false, "Apply available fixes in place")
	lintCmd.Flags().BoolVar(&lintDryRun, "dry-run", false, "Compute fixes without writing files")
}

func runLint(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	store, err := config.Load(configDir)
	if err != nil {
		return err
	}

	activated := profile.Activate(root, store.Profiles)
	composed := policy.ComposeStore(store, activated)

	runner := lint.NewRunner(composed, lint.Options{
		Root:        root,
		Fix:         lintFix,
		DryRun:      lintDryRun,
		Ignore:      store.Override.Lint.Ignore,
		MaxFileSize: store.Override.Lint.MaxFileSizeMB * 1024 * 1024,
		Workers:     store.Override.Lint.Workers,
	})

	report, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	pretty := term.IsTerminal(int(os.Stdout.Fd()))
	lint.Render(cmd.OutOrStdout(), report, pretty)

	if max, ok := report.MaxSeverity(); ok && max.Rank() >= ruleset.SeverityError.Rank() {
		return fmt.Errorf("%d issue(s) at error severity or above", len(report.Issues))
	}
	return nil
}
