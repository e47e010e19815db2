package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/plint-dev/plint/internal/config"
	"github.com/plint-dev/plint/internal/constants"
	"github.com/plint-dev/plint/internal/event"
	"github.com/plint-dev/plint/internal/hook"
	"github.com/plint-dev/plint/internal/hooklog"
	"github.com/plint-dev/plint/internal/logger"
	"github.com/plint-dev/plint/internal/policy"
	"github.com/plint-dev/plint/internal/profile"
	"github.com/spf13/cobra"
)

var (
	hookSource string
	hookPath   string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Evaluate one agent lifecycle event from stdin",
	Long: `Hook reads a single event payload from stdin, evaluates it against the
composed policy for the event's project root, and writes the IDE's response
to stdout.

Exit code 2 signals a denied event; IDEs treat it as "block this action".`,
	RunE: runHookCmd,
}

func init() {
	rootCmd.AddCommand(hookCmd)
	hookCmd.Flags().StringVar(&hookSource, "source", "generic", "Event source dialect (claude, windsurf, kiro, generic)")
	hookCmd.Flags().StringVar(&hookPath, "path", "", "Project root override (default: the event's cwd)")
}

func runHookCmd(cmd *cobra.Command, args []string) error {
	start := time.Now()

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read event payload: %w", err)
	}

	mapper := hook.ForSource(hookSource)
	ev, err := mapper.MapEvent(raw)
	if err != nil {
		return err
	}

	root := hookPath
	if root == "" {
		root = ev.Cwd
	}
	if root == "" {
		root, _ = os.Getwd()
	}

	decision := evaluateEvent(ev, root)

	if err := hooklog.Log(hooklog.Entry{
		EventKind:        string(ev.Kind),
		Source:           ev.Source,
		SessionID:        ev.SessionID,
		FilePath:         ev.FilePath,
		ToolName:         ev.ToolName,
		Command:          ev.Command,
		Decision:         string(decision.Verdict),
		Rule:             decision.Rule,
		Message:          decision.Message,
		RewrittenCommand: decision.RewrittenCommand,
		DurationMs:       float64(time.Since(start).Microseconds()) / 1000.0,
	}); err != nil {
		logger.Warn("failed to record hook decision", "error", err)
	}

	out, err := mapper.FormatResponse(decision)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)

	if decision.Verdict == hook.VerdictDeny {
		os.Exit(constants.ExitDeny)
	}
	return nil
}

// evaluateEvent builds the composed policy for root and runs the engine.
// A config load failure degrades to an allow-everything policy: the hook
// must answer the IDE even when the user's config tree is broken.
func evaluateEvent(ev *event.Event, root string) *hook.Decision {
	store, err := config.Load(configDir)
	if err != nil {
		logger.Warn("failed to load configuration, allowing event", "error", err)
		return &hook.Decision{Verdict: hook.VerdictAllow}
	}

	activated := profile.Activate(root, store.Profiles)
	composed := policy.ComposeStore(store, activated)
	return hook.NewEngine(composed).Evaluate(ev)
}
