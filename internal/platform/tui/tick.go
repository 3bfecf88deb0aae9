// Package tui provides the Bubble Tea integration for the lemmings simulator.
// It handles the terminal viewer loop, key mapping and the SSH server.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-lemmings/internal/core"
)

// TickMsg asks the viewer to apply queued commands, catch the colony's loop
// up to its clock and redraw.
type TickMsg struct {
	At time.Time
}

// tickCmd schedules the next redraw at tickRate frames per second.
func tickCmd(tickRate int) tea.Cmd {
	return tea.Tick(core.FrameInterval(tickRate), func(t time.Time) tea.Msg {
		return TickMsg{At: t}
	})
}
