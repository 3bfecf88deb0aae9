package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/platform/tui"
	"github.com/vovakirdan/tui-lemmings/internal/storage"
)

var flagLogFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch a colony in the terminal",
	Long: `Start a colony on a stage and watch it in the terminal.

Controls:
  N/Enter      - Spawn a lemming
  X/Backspace  - Destroy the newest lemming
  R            - Reverse every lemming
  P/Space      - Pause/resume
  +/-          - Faster/slower animation
  S            - Cycle the obstacle selector
  ?            - Toggle full help
  Ctrl+S       - Save a text screenshot
  Q/Ctrl+C     - Quit

Examples:
  lemmings run
  lemmings run --stage wall --pace fast
  lemmings run --stage-file ./my_stage.yaml --log-file lemmings.log`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (logs are discarded otherwise)")
}

func runRun(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := loadStage(cfg)
	if err != nil {
		return err
	}

	// The alt screen owns stderr, so logs go to a file or nowhere
	var logOut io.Writer = io.Discard
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := newLogger(logOut, "lemmings")
	if err != nil {
		return err
	}

	// Open journal
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open journal: %v\n", err)
		store = nil // Continue without storage
	}
	if store != nil {
		defer store.Close()
	}

	// Get terminal size
	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	opts := tui.Options{
		Stage:  st,
		Config: cfg,
		Runtime: core.RuntimeConfig{
			ScreenW:  width,
			ScreenH:  height,
			TickRate: cfg.Display.TickRate,
		},
		Logger: logger,
	}
	if store != nil {
		opts.Journal = store
	}

	summary, runErr := tui.Run(opts)

	if store != nil {
		if _, err := store.SaveRun(storage.RunEntry{
			StageID:  summary.Stage,
			Mode:     "tui",
			Spawned:  summary.Spawned,
			Faults:   summary.Faults,
			Duration: summary.Duration.Round(time.Millisecond),
		}); err != nil {
			logger.Warn("could not record run", "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("viewer: %w", runErr)
	}
	fmt.Printf("%s: %d spawned, %d faults in %v\n",
		summary.Stage, summary.Spawned, summary.Faults, summary.Duration.Round(time.Second))
	return nil
}
