package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-lemmings/internal/registry"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List all built-in stages",
	Long:  `Shows a list of all stages compiled into the binary.`,
	Run:   runStages,
}

func runStages(cmd *cobra.Command, args []string) {
	stages := registry.List()
	out := cmd.OutOrStdout()

	if len(stages) == 0 {
		fmt.Fprintln(out, "No stages available.")
		return
	}

	fmt.Fprintln(out, "Available stages:")
	fmt.Fprintln(out)

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, s := range stages {
		if len(s.ID) > maxIDLen {
			maxIDLen = len(s.ID)
		}
	}

	fmt.Fprintf(out, "  %-*s  %-9s  %-9s  %s\n", maxIDLen, "ID", "Size", "Obstacles", "Title")
	fmt.Fprintf(out, "  %-*s  %-9s  %-9s  %s\n", maxIDLen, "--", "----", "---------", "-----")

	for _, s := range stages {
		size := fmt.Sprintf("%dx%d", s.Width, s.Height)
		fmt.Fprintf(out, "  %-*s  %-9s  %-9d  %s\n", maxIDLen, s.ID, size, s.Obstacles, s.Title)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Run 'lemmings run --stage <id>' to watch a stage.")
}
