package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/tui-lemmings/internal/colony"
	"github.com/vovakirdan/tui-lemmings/internal/config"
	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/registry"
	"github.com/vovakirdan/tui-lemmings/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.lemmings/host_key.
	HostKeyPath string

	// DBPath is the path to the incident journal.
	DBPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// App is the simulator configuration every session starts from.
	App config.Config

	// Logger receives server and session logs. Defaults to stderr.
	Logger *log.Logger
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	app := config.DefaultConfig()
	return SSHServerConfig{
		Address:     fmt.Sprintf("%s:%d", app.Server.Host, app.Server.SSHPort),
		DBPath:      app.Storage.Path,
		IdleTimeout: 30 * time.Minute,
		App:         app,
	}
}

// SSHServer wraps a Wish SSH server; every session watches its own colony.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "lemmings-ssh",
		})
	}

	// Open storage
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("could not open incident journal", "error", err)
		store = nil // Continue without storage
	}

	if cfg.App.Simulation.SpeedMS <= 0 {
		cfg.App = config.DefaultConfig()
	}

	srv := &SSHServer{
		config: cfg,
		store:  store,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".lemmings", "host_key")
	}

	// Ensure host key directory exists
	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	// Create Wish server options
	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	// Create the server
	server, err := wish.NewServer(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	// Create runtime config from PTY size
	cfg := core.RuntimeConfig{
		ScreenW:  pty.Window.Width,
		ScreenH:  pty.Window.Height,
		TickRate: s.config.App.Display.TickRate,
	}

	// Create session model that handles picker + viewer flow
	model := NewSessionModel(SessionOptions{
		Store:   s.store,
		App:     s.config.App,
		Runtime: cfg,
		User:    sshSession.User(),
		Logger:  s.logger.With("user", sshSession.User()),
	})

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.store != nil {
		s.store.Close()
	}

	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// SessionOptions configures one SSH session.
type SessionOptions struct {
	Store   *storage.Store
	App     config.Config
	Runtime core.RuntimeConfig
	User    string
	Logger  *log.Logger
}

// SessionModel manages the full session flow: picker -> viewer/incidents -> picker.
// This is the top-level model used for SSH sessions.
type SessionModel struct {
	opts      SessionOptions
	config    core.RuntimeConfig
	picker    PickerModel
	viewer    *Model
	incidents *IncidentsModel
	quitting  bool
	lastRun   Summary
}

// NewSessionModel creates a new session model.
func NewSessionModel(opts SessionOptions) SessionModel {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return SessionModel{
		opts:   opts,
		config: opts.Runtime,
		picker: NewPickerModel(opts.Runtime),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.picker.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resize globally
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.config.ScreenW = wsm.Width
		m.config.ScreenH = wsm.Height
	}

	switch {
	case m.viewer != nil:
		return m.updateViewer(msg)
	case m.incidents != nil:
		return m.updateIncidents(msg)
	}
	return m.updatePicker(msg)
}

// updatePicker handles updates when in picker mode.
func (m SessionModel) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	newPicker, cmd := m.picker.Update(msg)
	if picker, ok := newPicker.(PickerModel); ok {
		m.picker = picker
	}

	if m.picker.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.picker.WantsIncidents() {
		var source IncidentSource
		if m.opts.Store != nil {
			source = m.opts.Store
		}
		incidents := NewIncidentsModel(source, m.config.ScreenW, m.config.ScreenH)
		incidents.embedded = true
		m.incidents = &incidents
		return m, nil
	}

	if selected := m.picker.Selected(); selected != nil {
		st, err := registry.Create(selected.ID)
		if err != nil {
			// Shouldn't happen since the picker only shows registered stages
			m.picker = NewPickerModel(m.config)
			return m, nil
		}

		viewer := NewModel(Options{
			Stage:    st,
			Config:   m.opts.App,
			Runtime:  m.config,
			Logger:   m.opts.Logger.With("stage", st.ID()),
			Journal:  m.journal(),
			Embedded: true,
		})
		m.viewer = &viewer
		m.opts.Logger.Info("watching", "stage", st.ID())
		return m, m.viewer.Init()
	}

	return m, cmd
}

// journal returns the store as an incident recorder, or nil without one.
func (m SessionModel) journal() colony.IncidentRecorder {
	if m.opts.Store == nil {
		return nil
	}
	return m.opts.Store
}

// updateViewer handles updates when watching a stage.
func (m SessionModel) updateViewer(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.viewer.Update(msg)
	if viewer, ok := newModel.(Model); ok {
		m.viewer = &viewer
	}

	if m.viewer.IsQuitting() {
		m.finishRun()
		m.quitting = true
		return m, tea.Quit
	}

	if m.viewer.BackToMenu() {
		m.finishRun()
		m.viewer = nil
		m.picker = NewPickerModel(m.config)
		return m, m.picker.Init()
	}

	return m, cmd
}

// finishRun records the viewer's summary in the journal.
func (m *SessionModel) finishRun() {
	m.lastRun = m.viewer.Summary()
	if m.opts.Store == nil {
		return
	}
	_, err := m.opts.Store.SaveRun(storage.RunEntry{
		StageID:  m.lastRun.Stage,
		Mode:     "ssh",
		Spawned:  m.lastRun.Spawned,
		Faults:   m.lastRun.Faults,
		Duration: m.lastRun.Duration,
	})
	if err != nil {
		m.opts.Logger.Warn("could not record run", "error", err)
	}
}

// updateIncidents handles updates when browsing the journal.
func (m SessionModel) updateIncidents(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.incidents.Update(msg)
	if incidents, ok := newModel.(IncidentsModel); ok {
		m.incidents = &incidents
	}

	if m.incidents.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.incidents.IsGoingBack() {
		m.incidents = nil
		m.picker = NewPickerModel(m.config)
		return m, m.picker.Init()
	}

	return m, cmd
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch {
	case m.viewer != nil:
		return m.viewer.View()
	case m.incidents != nil:
		return m.incidents.View()
	}
	return m.picker.View()
}

// LastRun returns the summary of the most recently closed viewer.
func (m SessionModel) LastRun() Summary {
	return m.lastRun
}
