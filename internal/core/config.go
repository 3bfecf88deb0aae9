package core

import "time"

// RuntimeConfig contains configuration passed to the viewer at start-up.
// The viewer uses it to size its screen buffer and pace its redraw ticks.
type RuntimeConfig struct {
	ScreenW  int // Screen width in characters
	ScreenH  int // Screen height in characters
	TickRate int // Viewer redraws per second (default 30)
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 30,
	}
}

// FrameInterval returns the time between redraws at tickRate frames per
// second. Non-positive rates use the default rate.
func FrameInterval(tickRate int) time.Duration {
	if tickRate <= 0 {
		tickRate = DefaultConfig().TickRate
	}
	return time.Second / time.Duration(tickRate)
}

// ColonyState summarises a running colony for status bars and summaries.
type ColonyState struct {
	Agents  int  // Live agents in the registry
	Moving  int  // Agents currently moving
	Faulted int  // Agents halted by a fault
	Paused  bool // Whether the viewer paused the colony
}
