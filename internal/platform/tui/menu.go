package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/registry"
)

// PickerModel is the Bubble Tea model for the stage picker.
type PickerModel struct {
	items         []registry.StageInfo
	cursor        int
	width         int
	height        int
	config        core.RuntimeConfig
	quitting      bool
	selected      *registry.StageInfo // Set when user selects a stage
	openIncidents bool                // True if user pressed Tab for the journal
}

// NewPickerModel creates a picker listing every registered stage.
func NewPickerModel(cfg core.RuntimeConfig) PickerModel {
	return PickerModel{
		items:  registry.List(),
		width:  cfg.ScreenW,
		height: cfg.ScreenH,
		config: cfg,
	}
}

// Init initializes the picker model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the picker.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for picker navigation.
func (m PickerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch MapKeyToPickerAction(msg) {
	case PickerActionQuit:
		m.quitting = true
		return m, tea.Quit

	case PickerActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case PickerActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case PickerActionSelect:
		if len(m.items) > 0 {
			selected := m.items[m.cursor]
			m.selected = &selected
		}

	case PickerActionIncidents:
		m.openIncidents = true
	}

	return m, nil
}

// View renders the picker.
func (m PickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("  L E M M I N G S  ", m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Select a stage", m.width))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-16s %3dx%-3d %2d obstacles", cursor, item.Title, item.Width, item.Height, item.Obstacles)
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	controls := "Up/Down: Navigate  |  Enter: Watch  |  Tab: Incidents  |  Q: Quit"
	b.WriteString(centerText(controls, m.width))
	b.WriteString("\n")

	return b.String()
}

// Selected returns the selected stage, or nil if none selected.
func (m PickerModel) Selected() *registry.StageInfo {
	return m.selected
}

// IsQuitting returns true if user requested to quit.
func (m PickerModel) IsQuitting() bool {
	return m.quitting
}

// WantsIncidents returns true if user requested the incident journal.
func (m PickerModel) WantsIncidents() bool {
	return m.openIncidents
}

// Config returns the current runtime config (may have been updated by resize).
func (m PickerModel) Config() core.RuntimeConfig {
	return m.config
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
