package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-lemmings/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lemmings SSH server",
	Long: `Start an SSH server that lets users connect and watch colonies.

Each SSH connection gets its own session with a stage picker, and every
viewer runs its own colony. Faults from all sessions go to the same journal.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, uses server.host_key from the config (generated if missing)

Examples:
  lemmings serve                           # Listen on server.host:server.ssh_port
  lemmings serve --ssh :2222               # Listen on port 2222
  lemmings serve --host-key ./my_host_key  # Use specific host key
  lemmings serve --db ./journal.db         # Use specific database

Users can connect with:
  ssh localhost -p 2222`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (default from config)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) error {
	app, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, "lemmings-ssh")
	if err != nil {
		return err
	}

	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		DBPath:      app.Storage.Path,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		App:         app,
		Logger:      logger,
	}
	if cfg.Address == "" {
		cfg.Address = fmt.Sprintf("%s:%d", app.Server.Host, app.Server.SSHPort)
	}
	if cfg.HostKeyPath == "" {
		cfg.HostKeyPath = app.Server.HostKey
	}

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		return fmt.Errorf("cannot create server: %w", err)
	}

	fmt.Printf("Starting lemmings SSH server on %s\n", cfg.Address)
	fmt.Printf("Connect with: ssh localhost -p %d\n", app.Server.SSHPort)
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe()
}
