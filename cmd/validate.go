package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/plint-dev/plint/internal/config"
	"github.com/plint-dev/plint/internal/policy"
	"github.com/plint-dev/plint/internal/profile"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Load the configuration and show the composed policy",
	Long: `Validate loads every configuration document, activates profiles against
path (default: the current directory), and prints the policy that would run
there. Broken documents surface as warnings during loading.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	store, err := config.Load(configDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Slices loaded:    %d\n", len(store.Slices))
	fmt.Fprintf(out, "Profiles loaded:  %d\n", len(store.Profiles))
	fmt.Fprintf(out, "Active documents: %d\n", len(store.Active))

	activated := profile.Activate(root, store.Profiles)
	composed := policy.ComposeStore(store, activated)

	fmt.Fprintf(out, "\nPolicy mode: %s\n", composed.Mode)
	if len(composed.Profiles) > 0 {
		fmt.Fprintf(out, "Activated profiles for %s: %s\n", root, strings.Join(composed.Profiles, ", "))
	} else {
		fmt.Fprintf(out, "No profiles activated for %s\n", root)
	}

	fmt.Fprintf(out, "\nRules that would run (%d):\n", len(composed.Rules))
	for _, r := range composed.Rules {
		scope := ""
		if r.Def.FileGlob != "" {
			scope = "  [" + r.Def.FileGlob + "]"
		}
		fmt.Fprintf(out, "  %-28s %s%s\n", r.Def.Name, r.Def.Severity, scope)
	}

	disabled := make([]string, 0, len(composed.Disabled))
	for name := range composed.Disabled {
		disabled = append(disabled, name)
	}
	if len(disabled) > 0 {
		sort.Strings(disabled)
		fmt.Fprintf(out, "\nDisabled: %s\n", strings.Join(disabled, ", "))
	}
	return nil
}
