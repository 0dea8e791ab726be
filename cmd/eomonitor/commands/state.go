package commands

import (
	"os"

	"eomonitor/services/monitor/state"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var stateConfig *string
var stateFile *string

func init() {
	stateConfig = stateCmd.Flags().String("config", "config.json5", "The monitor configuration file.")
	stateFile = stateCmd.Flags().String("state", "", "Override the history state file from the config.")
	rootCmd.AddCommand(stateCmd)
}

var stateCmd = &cobra.Command{
	Use:   "state [--config <path>] [--state <path>]",
	Short: "Prints statistics about the persisted history.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig(*stateConfig)
		store := openStore(cfg, *stateFile)

		history := state.Load(cmd.Context(), store)
		stats := history.Stats()

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.AppendRows([]table.Row{
			{"Total processed", stats.TotalProcessed},
			{"Posted to Bluesky", stats.TotalPosted},
			{"Last check", orDash(stats.LastCheck)},
			{"Last order date", orDash(stats.LastOrderDate)},
		})
		t.Render()
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
