package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/plint-dev/plint/internal/hooklog"
	"github.com/spf13/cobra"
)

var (
	logsLimit   int
	logsStats   bool
	logsCompact bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect recorded hook decisions",
	Long: `Logs prints recent hook decisions from the day-stamped JSONL files,
newest first. --stats summarizes instead; --compact gzips past days.`,
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().IntVar(&logsLimit, "limit", 20, "Maximum entries to print (0 for all)")
	logsCmd.Flags().BoolVar(&logsStats, "stats", false, "Print decision statistics instead of entries")
	logsCmd.Flags().BoolVar(&logsCompact, "compact", false, "Gzip log files from previous days")
}

func runLogs(cmd *cobra.Command, args []string) error {
	if logsCompact {
		if err := hooklog.Compact(); err != nil {
			return err
		}
	}

	if logsStats {
		stats, err := hooklog.Summarize("")
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), stats.Format())
		return nil
	}

	entries, err := hooklog.Recent("", logsLimit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(line))
	}
	return nil
}
