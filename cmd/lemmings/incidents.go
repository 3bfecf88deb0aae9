package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-lemmings/internal/platform/tui"
	"github.com/vovakirdan/tui-lemmings/internal/registry"
	"github.com/vovakirdan/tui-lemmings/internal/storage"
)

var (
	flagIncidentLimit int
	flagIncidentTUI   bool
	flagIncidentClear bool
)

var incidentsCmd = &cobra.Command{
	Use:   "incidents [stage]",
	Short: "Show recorded faults",
	Long: `Display the most recent faults stored in the journal, optionally for
one stage only. Every fault records the agent, the contact mask (TRBL), the
direction and climbing flag the rule table could not resolve.

Examples:
  lemmings incidents
  lemmings incidents pit --limit 50
  lemmings incidents --tui
  lemmings incidents wall --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIncidents,
}

func init() {
	incidentsCmd.Flags().IntVar(&flagIncidentLimit, "limit", 20, "Maximum number of incidents to show")
	incidentsCmd.Flags().BoolVar(&flagIncidentTUI, "tui", false, "Browse incidents in an interactive table")
	incidentsCmd.Flags().BoolVar(&flagIncidentClear, "clear", false, "Delete the listed incidents")
}

func runIncidents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stageID := ""
	if len(args) == 1 {
		stageID = args[0]
		if !registry.Exists(stageID) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Note: %q is not a built-in stage\n", stageID)
		}
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("cannot open journal: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if flagIncidentClear {
		n, err := store.ClearIncidents(stageID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d incidents.\n", n)
		return nil
	}

	if flagIncidentTUI {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		return tui.RunIncidents(store, width, height)
	}

	incidents, err := store.RecentIncidents(stageID, flagIncidentLimit)
	if err != nil {
		return err
	}
	printIncidents(cmd, incidents)

	if stageID != "" {
		stats, err := store.GetStageStats(stageID)
		if err == nil {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Runs: %d, incidents: %d\n", stats.Runs, stats.Incidents)
		}
	}
	return nil
}

func printIncidents(cmd *cobra.Command, incidents []storage.IncidentEntry) {
	out := cmd.OutOrStdout()

	if len(incidents) == 0 {
		fmt.Fprintln(out, "No incidents recorded.")
		return
	}

	fmt.Fprintf(out, "  %-16s  %-10s  %-12s  %-4s  %-5s  %-5s  %-10s  %s\n",
		"When", "Stage", "Agent", "TRBL", "Dir", "Climb", "Action", "Error")
	fmt.Fprintf(out, "  %-16s  %-10s  %-12s  %-4s  %-5s  %-5s  %-10s  %s\n",
		"----", "-----", "-----", "----", "---", "-----", "------", "-----")

	for _, e := range incidents {
		fmt.Fprintf(out, "  %-16s  %-10s  %-12s  %-4s  %-5s  %-5t  %-10s  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.StageID, e.Agent, e.Adjacency,
			e.Direction, e.Climbing, e.Action, e.Error)
	}
}
