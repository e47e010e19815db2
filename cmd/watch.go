package cmd

import (
	"fmt"
	"time"

	"github.com/plint-dev/plint/internal/config"
	"github.com/plint-dev/plint/internal/lint"
	"github.com/plint-dev/plint/internal/logger"
	"github.com/plint-dev/plint/internal/policy"
	"github.com/plint-dev/plint/internal/profile"
	"github.com/plint-dev/plint/internal/watch"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-run lint whenever the tree changes",
	Long: `Watch lints the tree once, then re-lints after each debounced burst of
file changes. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "How long to wait for more changes before re-running")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	runOnce := func() {
		store, err := config.Load(configDir)
		if err != nil {
			logger.Error("failed to load configuration", "error", err)
			return
		}
		activated := profile.Activate(root, store.Profiles)
		composed := policy.ComposeStore(store, activated)
		runner := lint.NewRunner(composed, lint.Options{
			Root:        root,
			Ignore:      store.Override.Lint.Ignore,
			MaxFileSize: store.Override.Lint.MaxFileSizeMB * 1024 * 1024,
			Workers:     store.Override.Lint.Workers,
		})
		report, err := runner.Run(cmd.Context())
		if err != nil {
			logger.Error("lint run failed", "error", err)
			return
		}
		lint.Render(cmd.OutOrStdout(), report, true)
	}

	runOnce()

	w, err := watch.New(watch.Config{
		Root:     root,
		Debounce: watchDebounce,
		OnChange: func(paths []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d file(s) changed, re-running\n", len(paths))
			runOnce()
		},
	})
	if err != nil {
		return err
	}
	return w.Start(cmd.Context())
}
