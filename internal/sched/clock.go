package sched

import (
	"sync"
	"time"
)

// Clock is the time source a Loop reads when it syncs to "now".
type Clock interface {
	Now() time.Time
}

// WallClock provides the real system time with monotonic clock readings.
type WallClock struct{}

// Now returns the current wall time.
func (WallClock) Now() time.Time {
	return time.Now()
}

// ManualClock provides a controllable time source for tests and for
// headless simulations that run faster than real time.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock creates a manual clock starting at the given time.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
