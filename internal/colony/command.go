package colony

import (
	"errors"
	"time"

	"github.com/vovakirdan/tui-lemmings/internal/config"
	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/lemming"
)

// Apply executes a viewer command shared by every front end. It reports
// false for commands that only concern the front end itself (help, back,
// quit, selector cycling), which are left to the caller.
func (c *Colony) Apply(cmd core.Command) (bool, error) {
	switch cmd {
	case core.CommandSpawn:
		_, err := c.Spawn()
		return true, err
	case core.CommandDestroy:
		if err := c.DestroyNewest(); err != nil && !errors.Is(err, ErrAgentNotFound) {
			return true, err
		}
		return true, nil
	case core.CommandReverse:
		c.ReverseAll()
		return true, nil
	case core.CommandPause:
		c.TogglePause()
		return true, nil
	case core.CommandFaster, core.CommandSlower:
		delta := -1
		if cmd == core.CommandSlower {
			delta = 1
		}
		speed := c.opts.Speed
		if speed <= 0 {
			speed = lemming.DefaultSpeed
		}
		ms := int(speed / time.Millisecond)
		return true, c.SetSpeed(time.Duration(config.StepSpeed(ms, delta)) * time.Millisecond)
	}
	return false, nil
}

// TogglePause stops every lemming and any spawn wave, or restarts them.
func (c *Colony) TogglePause() {
	c.paused = !c.paused
	if c.paused {
		c.StopWave()
		c.StopAll()
		c.logger.Debug("paused")
		return
	}
	c.StartAll()
	c.logger.Debug("resumed")
}

// Paused reports whether the colony was paused by TogglePause.
func (c *Colony) Paused() bool {
	return c.paused
}
