package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-lemmings/internal/core"
)

// KeyMap defines the viewer key bindings.
type KeyMap struct {
	Spawn    key.Binding
	Destroy  key.Binding
	Reverse  key.Binding
	Pause    key.Binding
	Faster   key.Binding
	Slower   key.Binding
	Selector key.Binding
	Help     key.Binding
	Back     key.Binding
	Quit     key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Spawn, k.Reverse, k.Pause, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Spawn, k.Destroy, k.Reverse, k.Pause},
		{k.Faster, k.Slower, k.Selector},
		{k.Help, k.Back, k.Quit},
	}
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Spawn: key.NewBinding(
			key.WithKeys("n", "enter"),
			key.WithHelp("n", "new lemming"),
		),
		Destroy: key.NewBinding(
			key.WithKeys("x", "backspace"),
			key.WithHelp("x", "remove newest"),
		),
		Reverse: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reverse"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p/space", "pause"),
		),
		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "slower"),
		),
		Selector: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle selector"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "stages"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// MapKey translates a key message to a viewer command.
// Returns CommandNone for unbound keys.
func (k KeyMap) MapKey(msg tea.KeyMsg) core.Command {
	switch {
	case key.Matches(msg, k.Quit):
		return core.CommandQuit
	case key.Matches(msg, k.Spawn):
		return core.CommandSpawn
	case key.Matches(msg, k.Destroy):
		return core.CommandDestroy
	case key.Matches(msg, k.Reverse):
		return core.CommandReverse
	case key.Matches(msg, k.Pause):
		return core.CommandPause
	case key.Matches(msg, k.Faster):
		return core.CommandFaster
	case key.Matches(msg, k.Slower):
		return core.CommandSlower
	case key.Matches(msg, k.Selector):
		return core.CommandSelector
	case key.Matches(msg, k.Help):
		return core.CommandHelp
	case key.Matches(msg, k.Back):
		return core.CommandBack
	}
	return core.CommandNone
}

// MapKeyToFrame updates an input frame based on a key message.
// Returns true if the key was a quit request.
func (k KeyMap) MapKeyToFrame(msg tea.KeyMsg, frame *core.InputFrame) bool {
	cmd := k.MapKey(msg)
	if cmd == core.CommandQuit {
		return true
	}
	if cmd != core.CommandNone {
		frame.Set(cmd)
	}
	return false
}

// PickerAction represents a stage picker action derived from input.
type PickerAction int

const (
	PickerActionNone PickerAction = iota
	PickerActionUp
	PickerActionDown
	PickerActionSelect
	PickerActionIncidents
	PickerActionQuit
)

// MapKeyToPickerAction translates a key to a stage picker action.
func MapKeyToPickerAction(msg tea.KeyMsg) PickerAction {
	switch msg.String() {
	case "ctrl+c", "q":
		return PickerActionQuit
	case "w", "up", "k": // vim-style k for up
		return PickerActionUp
	case "s", "down", "j": // vim-style j for down
		return PickerActionDown
	case "enter", " ":
		return PickerActionSelect
	case "tab", "i":
		return PickerActionIncidents
	}
	return PickerActionNone
}
