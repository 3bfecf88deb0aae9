package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-lemmings/internal/colony"
	"github.com/vovakirdan/tui-lemmings/internal/config"
	"github.com/vovakirdan/tui-lemmings/internal/lemming"
	"github.com/vovakirdan/tui-lemmings/internal/sched"
	"github.com/vovakirdan/tui-lemmings/internal/stage"
	"github.com/vovakirdan/tui-lemmings/internal/storage"
)

var (
	flagAgents   int
	flagDuration time.Duration
	flagRecord   bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a colony headless and print a summary",
	Long: `Run a colony against a virtual clock, without a terminal, and print the
final state of every lemming.

The whole duration is simulated instantly: timers fire in loop time, so the
result only depends on the stage and the flags.

Examples:
  lemmings simulate
  lemmings simulate --agents 10 --duration 2m --stage pit
  lemmings simulate --record --log-level debug`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&flagAgents, "agents", 0, "Number of lemmings to spawn (0 = spawn_count from config)")
	simulateCmd.Flags().DurationVar(&flagDuration, "duration", 20*time.Second, "Simulated time to run")
	simulateCmd.Flags().BoolVar(&flagRecord, "record", false, "Store faults and the run in the journal")
}

// simResult is the outcome of a headless run.
type simResult struct {
	Stage     string
	Spawned   int
	Faults    int
	Elapsed   time.Duration
	Snapshots []lemming.Snapshot
}

// simulate runs agents on st for d of loop time.
func simulate(st *stage.Stage, cfg config.Config, agents int, d time.Duration, journal colony.IncidentRecorder, logger *log.Logger) simResult {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	loop := sched.New(sched.NewManualClock(start))

	c := colony.New(colony.Config{
		Loop:     loop,
		Geometry: st,
		Options: &lemming.Options{
			Speed:    cfg.Speed(),
			Selector: cfg.Simulation.Selector,
		},
		Logger:    logger,
		Incidents: journal,
		Stage:     st.ID(),
	})

	c.SpawnWave(agents, cfg.SpawnInterval())
	loop.Advance(d)

	return simResult{
		Stage:     st.ID(),
		Spawned:   c.Spawned(),
		Faults:    c.Faults(),
		Elapsed:   loop.Now().Sub(start),
		Snapshots: c.Snapshots(),
	}
}

func printSimResult(out io.Writer, r simResult) {
	fmt.Fprintf(out, "Stage %s after %v: %d spawned, %d faults\n", r.Stage, r.Elapsed, r.Spawned, r.Faults)
	fmt.Fprintln(out)

	if len(r.Snapshots) == 0 {
		fmt.Fprintln(out, "No lemmings.")
		return
	}

	fmt.Fprintf(out, "  %-12s  %-10s  %-5s  %-5s  %-10s  %-4s  %-8s  %s\n",
		"Agent", "Action", "Dir", "Climb", "Position", "TRBL", "Steps", "Rule")
	fmt.Fprintf(out, "  %-12s  %-10s  %-5s  %-5s  %-10s  %-4s  %-8s  %s\n",
		"-----", "------", "---", "-----", "--------", "----", "-----", "----")

	for _, s := range r.Snapshots {
		fmt.Fprintf(out, "  %-12s  %-10s  %-5s  %-5t  %-10s  %-4s  %-8d  %s\n",
			s.ID, s.Action, s.Direction, s.Climbing, s.Position, s.Adjacency, s.Steps, s.Rule)
		if s.Fault != nil {
			fmt.Fprintf(out, "    fault: %v\n", s.Fault)
		}
	}
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := loadStage(cfg)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, "lemmings")
	if err != nil {
		return err
	}

	agents := flagAgents
	if agents <= 0 {
		agents = cfg.Simulation.SpawnCount
	}

	var store *storage.Store
	var journal colony.IncidentRecorder
	if flagRecord {
		store, err = storage.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		journal = store
	}

	result := simulate(st, cfg, agents, flagDuration, journal, logger)
	printSimResult(cmd.OutOrStdout(), result)

	if store != nil {
		if _, err := store.SaveRun(storage.RunEntry{
			StageID:  result.Stage,
			Mode:     "simulate",
			Spawned:  result.Spawned,
			Faults:   result.Faults,
			Duration: result.Elapsed,
		}); err != nil {
			return err
		}
	}
	return nil
}
