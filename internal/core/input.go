package core

// Command represents a semantic viewer command, abstracted from physical key presses.
// This lets the terminal viewer, SSH sessions and the web feed share one vocabulary.
type Command int

const (
	CommandNone     Command = iota
	CommandSpawn            // N - launch a new lemming
	CommandDestroy          // X - remove the most recently spawned lemming
	CommandReverse          // R - reverse every lemming
	CommandPause            // P, Space - stop/start every lemming
	CommandFaster           // + - lower the animation interval
	CommandSlower           // - - raise the animation interval
	CommandSelector         // S - cycle the obstacle selector
	CommandHelp             // ? - toggle the full help view
	CommandBack             // Esc, B - leave the viewer for the stage picker
	CommandQuit             // Q, Ctrl+C - exit viewer/session
)

// String returns a human-readable name for the command.
func (c Command) String() string {
	switch c {
	case CommandNone:
		return "None"
	case CommandSpawn:
		return "Spawn"
	case CommandDestroy:
		return "Destroy"
	case CommandReverse:
		return "Reverse"
	case CommandPause:
		return "Pause"
	case CommandFaster:
		return "Faster"
	case CommandSlower:
		return "Slower"
	case CommandSelector:
		return "Selector"
	case CommandHelp:
		return "Help"
	case CommandBack:
		return "Back"
	case CommandQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// ParseCommand maps a lower-case command name (as sent by the web feed) to a Command.
// Unknown names map to CommandNone.
func ParseCommand(name string) Command {
	switch name {
	case "spawn":
		return CommandSpawn
	case "destroy":
		return CommandDestroy
	case "reverse":
		return CommandReverse
	case "pause":
		return CommandPause
	case "faster":
		return CommandFaster
	case "slower":
		return CommandSlower
	case "selector":
		return CommandSelector
	default:
		return CommandNone
	}
}

// InputFrame collects the commands triggered between two viewer ticks.
type InputFrame struct {
	// Commands maps command types to whether they were triggered this frame.
	// Using a map allows checking multiple commands without order dependency.
	Commands map[Command]bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Commands: make(map[Command]bool),
	}
}

// Set marks a command as triggered for this frame.
func (f *InputFrame) Set(c Command) {
	if f.Commands == nil {
		f.Commands = make(map[Command]bool)
	}
	f.Commands[c] = true
}

// Has returns true if the given command was triggered this frame.
func (f InputFrame) Has(c Command) bool {
	if f.Commands == nil {
		return false
	}
	return f.Commands[c]
}

// Clear resets all commands for the next frame.
func (f *InputFrame) Clear() {
	for k := range f.Commands {
		delete(f.Commands, k)
	}
}
