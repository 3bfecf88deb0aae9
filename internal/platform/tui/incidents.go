package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-lemmings/internal/registry"
	"github.com/vovakirdan/tui-lemmings/internal/storage"
)

// Incident view layout constants
const (
	minWidthForSidebar = 100 // Minimum width to show stage list sidebar
	sidebarWidth       = 20  // Width of stage list sidebar
	maxIncidents       = 200 // Max incidents to load
	allStages          = ""  // Filter value selecting every stage
)

// IncidentSource lists journaled incidents.
type IncidentSource interface {
	RecentIncidents(stageID string, limit int) ([]storage.IncidentEntry, error)
}

// IncidentsKeyMap defines the key bindings for the incident view.
type IncidentsKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	NextStage key.Binding
	PrevStage key.Binding
	Back      key.Binding
	Quit      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k IncidentsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextStage, k.PrevStage, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k IncidentsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextStage, k.PrevStage},
		{k.Back, k.Quit},
	}
}

// DefaultIncidentsKeyMap returns default key bindings.
func DefaultIncidentsKeyMap() IncidentsKeyMap {
	return IncidentsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextStage: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next stage"),
		),
		PrevStage: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev stage"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// IncidentsModel is the Bubble Tea model for browsing the incident journal.
type IncidentsModel struct {
	stages      []string // Stage filters, allStages first
	stageCursor int
	source      IncidentSource
	incidents   []storage.IncidentEntry
	loadErr     error
	table       table.Model
	help        help.Model
	keys        IncidentsKeyMap
	width       int
	height      int
	embedded    bool // Back returns to the caller instead of quitting
	quitting    bool
	goingBack   bool
	showSidebar bool
}

// NewIncidentsModel creates a new incident view.
func NewIncidentsModel(source IncidentSource, width, height int) IncidentsModel {
	stages := []string{allStages}
	for _, s := range registry.List() {
		stages = append(stages, s.ID)
	}

	h := help.New()
	h.ShowAll = false

	m := IncidentsModel{
		stages:      stages,
		source:      source,
		keys:        DefaultIncidentsKeyMap(),
		help:        h,
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}

	m.table = m.createTable()
	m.loadIncidents()

	return m
}

// createTable creates a new table with columns sized to the window.
func (m *IncidentsModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "When", Width: 12},
		{Title: "Stage", Width: 10},
		{Title: "Agent", Width: 11},
		{Title: "TRBL", Width: 4},
		{Title: "Dir", Width: 5},
		{Title: "Climb", Width: 5},
		{Title: "Action", Width: 10},
		{Title: "Error", Width: 20},
	}

	// Give the error column whatever width is left
	tableWidth := m.width - 4 // Margins
	if m.showSidebar {
		tableWidth -= sidebarWidth + 3 // Sidebar + border + gap
	}
	used := 0
	for _, c := range columns[:len(columns)-1] {
		used += c.Width + 2
	}
	columns[len(columns)-1].Width = max(20, tableWidth-used)

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(3, m.height-8)), // Leave room for header, help, and margins
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadIncidents loads incidents for the selected stage filter.
func (m *IncidentsModel) loadIncidents() {
	m.incidents, m.loadErr = nil, nil
	if m.source != nil {
		m.incidents, m.loadErr = m.source.RecentIncidents(m.stages[m.stageCursor], maxIncidents)
	}
	m.updateTableRows()
}

// updateTableRows updates the table with current incidents.
func (m *IncidentsModel) updateTableRows() {
	rows := make([]table.Row, len(m.incidents))
	for i, e := range m.incidents {
		climb := "no"
		if e.Climbing {
			climb = "yes"
		}
		rows[i] = table.Row{
			e.CreatedAt.Format("Jan 02 15:04"),
			e.StageID,
			e.Agent,
			e.Adjacency,
			e.Direction,
			climb,
			e.Action,
			e.Error,
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the incident view.
func (m IncidentsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the incident view.
func (m IncidentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			if m.embedded {
				return m, nil
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextStage):
			m.stageCursor = (m.stageCursor + 1) % len(m.stages)
			m.loadIncidents()
			return m, nil

		case key.Matches(msg, m.keys.PrevStage):
			m.stageCursor--
			if m.stageCursor < 0 {
				m.stageCursor = len(m.stages) - 1
			}
			m.loadIncidents()
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// stageLabel returns the display name of a stage filter.
func stageLabel(id string) string {
	if id == allStages {
		return "all stages"
	}
	return id
}

// View renders the incident view.
func (m IncidentsModel) View() string {
	if m.quitting || (m.goingBack && !m.embedded) {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)

	title := fmt.Sprintf("INCIDENTS - %s (%d)", stageLabel(m.stages[m.stageCursor]), len(m.incidents))
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	if m.showSidebar {
		b.WriteString(m.renderWideLayout())
	} else {
		b.WriteString(m.renderNarrowLayout())
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderWideLayout renders the journal with a sidebar for stage selection.
func (m IncidentsModel) renderWideLayout() string {
	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(sidebarWidth).
		Padding(0, 1)

	var sidebar strings.Builder
	sidebar.WriteString("Stages\n")
	sidebar.WriteString(strings.Repeat("-", sidebarWidth-4))
	sidebar.WriteString("\n")

	for i, id := range m.stages {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.stageCursor {
			cursor = "> "
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		}

		name := stageLabel(id)
		maxLen := sidebarWidth - 6
		if len(name) > maxLen {
			name = name[:maxLen-1] + "."
		}
		sidebar.WriteString(style.Render(cursor + name))
		sidebar.WriteString("\n")
	}

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Render(sidebar.String()),
		"  ",
		tableStyle.Render(m.renderTableContent()),
	)
}

// renderNarrowLayout renders the journal with the stage filter above the table.
func (m IncidentsModel) renderNarrowLayout() string {
	var b strings.Builder

	b.WriteString(centerText(fmt.Sprintf("< %s >", stageLabel(m.stages[m.stageCursor])), m.width))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	b.WriteString(tableStyle.Render(m.renderTableContent()))

	return b.String()
}

// renderTableContent renders the table or an empty/error message.
func (m IncidentsModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	switch {
	case m.loadErr != nil:
		return errorStyle.Render(m.loadErr.Error())
	case m.source == nil:
		return emptyStyle.Render("No journal available.")
	case len(m.incidents) == 0:
		return emptyStyle.Render("No incidents recorded.\nEvery lemming found a rule for every state.")
	}

	return m.table.View()
}

// Rows returns the number of loaded incidents.
func (m IncidentsModel) Rows() int {
	return len(m.incidents)
}

// StageFilter returns the selected stage ID, empty for all stages.
func (m IncidentsModel) StageFilter() string {
	return m.stages[m.stageCursor]
}

// IsGoingBack returns true if user wants to go back.
func (m IncidentsModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m IncidentsModel) IsQuitting() bool {
	return m.quitting
}

// RunIncidents runs the incident view as a standalone program.
func RunIncidents(source IncidentSource, width, height int) error {
	p := tea.NewProgram(
		NewIncidentsModel(source, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
