// lemmings simulates autonomous sprite agents that walk, fall and climb over
// the obstacles of a 2D stage.
//
// Usage:
//
//	lemmings run                 - Watch a colony in the terminal
//	lemmings simulate            - Run a colony headless and print a summary
//	lemmings serve               - Start SSH server, one colony per session
//	lemmings web                 - Stream a colony to browsers over websockets
//	lemmings stages              - List built-in stages
//	lemmings incidents           - Show recorded faults
//
// Global flags:
//
//	--config <path>      - Config file (default search: ~/.lemmings, ./configs, embedded)
//	--stage <id>         - Built-in stage to use
//	--stage-file <path>  - Stage YAML file, overrides --stage
//	--pace <preset>      - slow, normal or fast
//	--speed <ms>         - Animation interval, overrides --pace
//	--selector <sel>     - Obstacle selector, e.g. ".collidable"
//	--db <path>          - Journal database path
//	--log-level <level>  - debug, info, warn or error
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-lemmings/internal/config"
	"github.com/vovakirdan/tui-lemmings/internal/registry"
	"github.com/vovakirdan/tui-lemmings/internal/stage"

	// Import built-in stages to register them
	_ "github.com/vovakirdan/tui-lemmings/internal/stage/builtin"
)

var (
	// Global flags
	flagConfig    string
	flagStage     string
	flagStageFile string
	flagPace      string
	flagSpeed     int
	flagSelector  string
	flagDBPath    string
	flagLogLevel  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lemmings",
	Short: "Lemmings - autonomous sprites walking over a 2D stage",
	Long: `Lemmings simulates small sprites that walk, fall and climb around the
obstacles of a stage, deciding every step from what they touch.

Available commands:
  run        - Watch a colony in the terminal
  simulate   - Run a colony without a terminal and print a summary
  serve      - Start SSH server, every session watches its own colony
  web        - Stream a colony to browsers
  stages     - Show all built-in stages
  incidents  - Show recorded faults

Examples:
  lemmings stages
  lemmings run --stage wall
  lemmings simulate --agents 5 --duration 30s
  lemmings serve --ssh :2222
  lemmings web --addr :8080`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagStage, "stage", "", "Built-in stage ID (see 'lemmings stages')")
	rootCmd.PersistentFlags().StringVar(&flagStageFile, "stage-file", "", "Path to a stage YAML file")
	rootCmd.PersistentFlags().StringVar(&flagPace, "pace", "", "Pace preset (slow, normal, fast)")
	rootCmd.PersistentFlags().IntVar(&flagSpeed, "speed", 0, "Animation interval in milliseconds (0 = from config)")
	rootCmd.PersistentFlags().StringVar(&flagSelector, "selector", "", "Obstacle selector (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to journal database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(stagesCmd)
	rootCmd.AddCommand(incidentsCmd)
}

// loadConfig loads the config file and applies the global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	if err := config.ApplyPace(&cfg, config.Pace(flagPace)); err != nil {
		return cfg, err
	}
	if flagSpeed > 0 {
		cfg.Simulation.SpeedMS = flagSpeed
	}
	if flagSelector != "" {
		cfg.Simulation.Selector = flagSelector
	}
	if flagStage != "" {
		cfg.Stage.ID = flagStage
		cfg.Stage.File = ""
	}
	if flagStageFile != "" {
		cfg.Stage.File = flagStageFile
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}

	return cfg, cfg.Validate()
}

// loadStage returns a fresh stage from the configured file or registry ID.
func loadStage(cfg config.Config) (*stage.Stage, error) {
	if cfg.Stage.File != "" {
		return stage.LoadFile(cfg.Stage.File)
	}
	if !registry.Exists(cfg.Stage.ID) {
		return nil, fmt.Errorf("unknown stage %q, run 'lemmings stages' to see available stages", cfg.Stage.ID)
	}
	return registry.Create(cfg.Stage.ID)
}

// newLogger creates a logger writing to w at the --log-level level.
func newLogger(w io.Writer, prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	}), nil
}
