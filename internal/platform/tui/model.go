package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-lemmings/internal/colony"
	"github.com/vovakirdan/tui-lemmings/internal/config"
	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/lemming"
	"github.com/vovakirdan/tui-lemmings/internal/sched"
	"github.com/vovakirdan/tui-lemmings/internal/stage"
)

// chromeRows is the number of rows below the stage: status and help.
const chromeRows = 2

// commandOrder is the order in which queued commands are applied on a tick.
var commandOrder = []core.Command{
	core.CommandSelector,
	core.CommandFaster,
	core.CommandSlower,
	core.CommandDestroy,
	core.CommandSpawn,
	core.CommandReverse,
	core.CommandPause,
	core.CommandHelp,
	core.CommandBack,
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Options configures a viewer.
type Options struct {
	Stage    *stage.Stage
	Config   config.Config
	Runtime  core.RuntimeConfig
	Logger   *log.Logger
	Journal  colony.IncidentRecorder
	Clock    sched.Clock // defaults to the wall clock
	Embedded bool        // Back returns to a stage picker instead of quitting
}

// Summary describes a finished viewer session.
type Summary struct {
	Stage    string
	Spawned  int
	Faults   int
	Duration time.Duration
}

// Model is the Bubble Tea model for watching a colony on one stage.
type Model struct {
	stage      *stage.Stage
	colony     *colony.Colony
	loop       *sched.Loop
	sink       *Sink
	screen     *core.Screen
	config     core.RuntimeConfig
	scaleX     int
	scaleY     int
	spawnCount int
	spawnEvery time.Duration
	keys       KeyMap
	help       help.Model
	input      core.InputFrame
	started    time.Time
	embedded   bool
	status     string
	quitting   bool
	backToMenu bool
}

// NewModel creates a viewer with its own loop and colony on opts.Stage.
func NewModel(opts Options) Model {
	rt := opts.Runtime
	if rt.TickRate <= 0 {
		rt.TickRate = opts.Config.Display.TickRate
	}
	if rt.TickRate <= 0 {
		rt.TickRate = core.DefaultConfig().TickRate
	}
	if rt.ScreenW <= 0 || rt.ScreenH <= 0 {
		def := core.DefaultConfig()
		rt.ScreenW, rt.ScreenH = def.ScreenW, def.ScreenH
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	loop := sched.New(opts.Clock)
	sink := NewSink()
	selector := opts.Config.Simulation.Selector
	c := colony.New(colony.Config{
		Loop:     loop,
		Geometry: opts.Stage,
		Sink:     sink,
		Options: &lemming.Options{
			Speed:    opts.Config.Speed(),
			Selector: selector,
		},
		Logger:    logger,
		Incidents: opts.Journal,
		Stage:     opts.Stage.ID(),
	})

	h := help.New()
	h.Width = rt.ScreenW

	return Model{
		stage:      opts.Stage,
		colony:     c,
		loop:       loop,
		sink:       sink,
		screen:     core.NewScreen(rt.ScreenW, max(1, rt.ScreenH-chromeRows)),
		config:     rt,
		scaleX:     max(1, opts.Config.Display.ScaleX),
		scaleY:     max(1, opts.Config.Display.ScaleY),
		spawnCount: opts.Config.Simulation.SpawnCount,
		spawnEvery: opts.Config.SpawnInterval(),
		keys:       DefaultKeyMap(),
		help:       h,
		input:      core.NewInputFrame(),
		started:    loop.Now(),
		embedded:   opts.Embedded,
	}
}

// Init starts the initial spawn wave and the tick loop.
func (m Model) Init() tea.Cmd {
	m.colony.SpawnWave(m.spawnCount, m.spawnEvery)
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, max(1, msg.Height-chromeRows))
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey queues the key's command for the next tick.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.saveScreenshot()
		return m, nil
	}
	if m.keys.MapKeyToFrame(msg, &m.input) {
		m.quitting = true
		m.Close()
		return m, tea.Quit
	}
	return m, nil
}

// handleTick applies queued commands and runs every due loop callback.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	for _, c := range commandOrder {
		if m.input.Has(c) {
			m.apply(c)
		}
	}
	m.input.Clear()

	if m.backToMenu {
		m.Close()
		if !m.embedded {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	m.loop.Sync()
	return m, tickCmd(m.config.TickRate)
}

// apply executes one viewer command against the colony.
func (m *Model) apply(c core.Command) {
	m.status = ""
	if handled, err := m.colony.Apply(c); handled {
		if err != nil {
			m.status = err.Error()
		}
		return
	}

	switch c {
	case core.CommandSelector:
		m.colony.SetSelector(m.stage.NextSelector(m.colony.Options().Selector))
	case core.CommandHelp:
		m.help.ShowAll = !m.help.ShowAll
	case core.CommandBack:
		m.backToMenu = true
	}
}

// Close stops the spawn wave and destroys every lemming.
func (m Model) Close() {
	m.colony.StopWave()
	m.colony.DestroyAll()
}

// saveScreenshot saves the current frame as plain text under ~/.lemmings/screenshots.
func (m *Model) saveScreenshot() {
	m.draw()

	base, err := config.UserDir()
	if err != nil {
		return
	}
	dir := filepath.Join(base, "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", m.stage.ID(), timestamp))

	//nolint:errcheck // Best-effort save, the viewer continues regardless
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

// draw renders the scene into the screen buffer.
func (m Model) draw() {
	vp, _ := m.stage.Viewport()
	sel, _ := stage.ParseSelector(m.colony.Options().Selector)
	DrawScene(m.screen, Scene{
		Viewport: vp,
		Elements: m.stage.Elements(),
		Selector: sel,
		Visuals:  m.sink.Visuals(),
		ScaleX:   m.scaleX,
		ScaleY:   m.scaleY,
	})
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.draw()

	var b strings.Builder
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// statusLine summarises the colony in one row.
func (m Model) statusLine() string {
	st := m.colony.State()
	opts := m.colony.Options()

	line := statusStyle.Render(fmt.Sprintf(" %s | lemmings %d | moving %d | faulted %d | speed %v | %s ",
		m.stage.Title(), st.Agents, st.Moving, st.Faulted, opts.Speed, opts.Selector))
	if st.Paused {
		line += " " + pausedStyle.Render("PAUSED")
	}
	if m.status != "" {
		line += " " + errorStyle.Render(m.status)
	}
	return line
}

// Summary describes the session so far.
func (m Model) Summary() Summary {
	return Summary{
		Stage:    m.stage.ID(),
		Spawned:  m.colony.Spawned(),
		Faults:   m.colony.Faults(),
		Duration: m.loop.Now().Sub(m.started),
	}
}

// Colony returns the viewer's colony.
func (m Model) Colony() *colony.Colony {
	return m.colony
}

// IsQuitting returns true if user requested to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested the stage picker.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// Run starts the Bubble Tea program for a standalone viewer and returns
// the session summary once the user quits.
func Run(opts Options) (Summary, error) {
	opts.Embedded = false
	model := NewModel(opts)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	final, err := p.Run()
	if m, ok := final.(Model); ok {
		return m.Summary(), err
	}
	return model.Summary(), err
}
