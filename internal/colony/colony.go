// Package colony owns the set of live lemmings: it spawns, destroys and
// commands them, and holds the options every agent reads on each tick.
//
// A Colony is not safe for concurrent use. Like the agents it manages, it
// must only be touched from the goroutine driving its sched.Loop; other
// goroutines go through Loop.Post.
package colony

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/lemming"
	"github.com/vovakirdan/tui-lemmings/internal/sched"
)

// ErrAgentNotFound is returned when an ID does not name a live agent.
var ErrAgentNotFound = errors.New("agent not found")

// ErrInvalidSpeed is returned by SetSpeed for non-positive durations.
var ErrInvalidSpeed = errors.New("speed must be positive")

// Incident describes a fault that permanently stopped an agent.
type Incident struct {
	Agent    lemming.ID
	Stage    string
	Snapshot lemming.Snapshot
	Err      error
	At       time.Time
}

// IncidentRecorder persists incidents. Errors are logged, not returned.
type IncidentRecorder interface {
	RecordIncident(in Incident) error
}

// Config wires a colony to its collaborators. Loop and Geometry are required.
type Config struct {
	Loop      *sched.Loop
	Geometry  lemming.GeometrySource
	Sink      lemming.RenderSink
	Options   *lemming.Options
	Logger    *log.Logger
	Incidents IncidentRecorder
	Stage     string // recorded with incidents
}

// Colony is the agent lifecycle manager.
type Colony struct {
	loop      *sched.Loop
	geo       lemming.GeometrySource
	sink      lemming.RenderSink
	opts      *lemming.Options
	logger    *log.Logger
	incidents IncidentRecorder
	stage     string

	agents  map[lemming.ID]*lemming.Agent
	nextID  lemming.ID
	wave    *sched.Timer
	paused  bool
	spawned int
	faults  int
}

// New creates an empty colony.
func New(cfg Config) *Colony {
	c := &Colony{
		loop:      cfg.Loop,
		geo:       cfg.Geometry,
		sink:      cfg.Sink,
		opts:      cfg.Options,
		logger:    cfg.Logger,
		incidents: cfg.Incidents,
		stage:     cfg.Stage,
		agents:    make(map[lemming.ID]*lemming.Agent),
	}
	if c.opts == nil {
		c.opts = lemming.DefaultOptions()
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Loop returns the loop the colony's agents are scheduled on.
func (c *Colony) Loop() *sched.Loop {
	return c.loop
}

// Spawn creates a lemming horizontally centred at the top of the viewport,
// registers it and starts it.
func (c *Colony) Spawn() (*lemming.Agent, error) {
	vp, err := c.geo.Viewport()
	if err != nil {
		return nil, fmt.Errorf("colony: spawn: %w", err)
	}
	pos := core.Point{X: vp.X + (vp.W-lemming.HitboxW)/2, Y: vp.Y}
	return c.SpawnAt(pos), nil
}

// SpawnWave spawns n lemmings, the first immediately and the rest every
// interval. A running wave is replaced. Spawn failures are logged and end
// the wave.
func (c *Colony) SpawnWave(n int, every time.Duration) {
	c.StopWave()
	var next func(left int)
	next = func(left int) {
		c.wave = nil
		if left <= 0 {
			return
		}
		if _, err := c.Spawn(); err != nil {
			c.logger.Error("spawn wave aborted", "remaining", left, "error", err)
			return
		}
		if left > 1 {
			c.wave = c.loop.After(every, func() { next(left - 1) })
		}
	}
	next(n)
}

// StopWave cancels the pending spawns of a wave.
func (c *Colony) StopWave() {
	c.wave.Stop()
	c.wave = nil
}

// SpawnAt creates, registers and starts a lemming at pos. While the colony
// is paused the lemming is registered stopped and starts on resume.
func (c *Colony) SpawnAt(pos core.Point) *lemming.Agent {
	c.nextID++
	id := c.nextID

	a := lemming.New(id, lemming.Env{
		Loop:     c.loop,
		Geometry: c.geo,
		Sink:     c.sink,
		Options:  c.opts,
		Observer: c,
	}, pos)
	c.agents[id] = a
	c.spawned++

	c.logger.Info("spawned", "agent", id, "x", pos.X, "y", pos.Y)
	if !c.paused {
		a.Start()
	}
	return a
}

// Destroy stops the agent, removes it from the registry and releases its
// render handle.
func (c *Colony) Destroy(id lemming.ID) error {
	a, ok := c.agents[id]
	if !ok {
		return fmt.Errorf("colony: destroy %s: %w", id, ErrAgentNotFound)
	}
	a.Release()
	delete(c.agents, id)

	c.logger.Info("destroyed", "agent", id)
	return nil
}

// DestroyAll destroys every live agent and returns how many there were.
func (c *Colony) DestroyAll() int {
	n := 0
	for _, a := range c.List() {
		if c.Destroy(a.ID()) == nil {
			n++
		}
	}
	return n
}

// DestroyNewest destroys the most recently spawned live agent.
func (c *Colony) DestroyNewest() error {
	agents := c.List()
	if len(agents) == 0 {
		return fmt.Errorf("colony: destroy newest: %w", ErrAgentNotFound)
	}
	return c.Destroy(agents[len(agents)-1].ID())
}

// Get returns the live agent with the given ID.
func (c *Colony) Get(id lemming.ID) (*lemming.Agent, bool) {
	a, ok := c.agents[id]
	return a, ok
}

// Len returns the number of live agents.
func (c *Colony) Len() int {
	return len(c.agents)
}

// List returns the live agents ordered by ID.
func (c *Colony) List() []*lemming.Agent {
	out := make([]*lemming.Agent, 0, len(c.agents))
	for _, a := range c.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID() < out[j].ID()
	})
	return out
}

// Snapshots returns a copy of every live agent's state, ordered by ID.
func (c *Colony) Snapshots() []lemming.Snapshot {
	agents := c.List()
	out := make([]lemming.Snapshot, len(agents))
	for i, a := range agents {
		out[i] = a.Snapshot()
	}
	return out
}

// ReverseAll reverses every live agent. While paused, agents only turn
// around and stay stopped.
func (c *Colony) ReverseAll() {
	for _, a := range c.List() {
		if c.paused {
			a.Turn()
			continue
		}
		a.Reverse()
	}
}

// StopAll stops every live agent.
func (c *Colony) StopAll() {
	for _, a := range c.List() {
		a.Stop()
	}
}

// StartAll starts every stopped, non-faulted agent.
func (c *Colony) StartAll() {
	for _, a := range c.List() {
		a.Start()
	}
}

// Options returns a copy of the shared options.
func (c *Colony) Options() lemming.Options {
	return *c.opts
}

// SetSpeed changes the animation cadence. Agents pick it up on their next tick.
func (c *Colony) SetSpeed(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("colony: %w: %v", ErrInvalidSpeed, d)
	}
	c.opts.Speed = d
	c.logger.Debug("speed changed", "speed", d)
	return nil
}

// SetSelector changes the obstacle query. Agents use it from their next collision check.
func (c *Colony) SetSelector(selector string) {
	c.opts.Selector = selector
	c.logger.Debug("selector changed", "selector", selector)
}

// State summarises the colony for status lines.
func (c *Colony) State() core.ColonyState {
	st := core.ColonyState{Agents: len(c.agents), Faulted: c.faults, Paused: c.paused}
	for _, a := range c.agents {
		if a.Moving() {
			st.Moving++
		}
	}
	return st
}

// Spawned returns how many agents were ever spawned.
func (c *Colony) Spawned() int {
	return c.spawned
}

// Faults returns how many agents stopped on an unhandled state.
func (c *Colony) Faults() int {
	return c.faults
}

// Decided implements lemming.Observer.
func (c *Colony) Decided(a *lemming.Agent, prev lemming.Action, d lemming.Decision) {
	if d.Action == prev {
		return
	}
	c.logger.Debug("transition",
		"agent", a.ID(),
		"rule", d.Rule,
		"from", prev,
		"to", d.Action,
	)
}

// Fault implements lemming.Observer.
func (c *Colony) Fault(a *lemming.Agent, err error) {
	var fe *lemming.FaultError
	if !errors.As(err, &fe) {
		c.logger.Error("agent halted", "agent", a.ID(), "err", err)
		return
	}

	c.faults++
	c.logger.Error("unhandled adjacency state",
		"agent", a.ID(),
		"adjacency", fe.Input.Adjacency,
		"direction", fe.Input.Direction,
		"climbing", fe.Input.Climbing,
		"action", fe.Input.Action,
	)

	if c.incidents == nil {
		return
	}
	in := Incident{
		Agent:    a.ID(),
		Stage:    c.stage,
		Snapshot: a.Snapshot(),
		Err:      err,
		At:       c.loop.Now(),
	}
	if err := c.incidents.RecordIncident(in); err != nil {
		c.logger.Error("cannot record incident", "agent", a.ID(), "err", err)
	}
}

var _ lemming.Observer = (*Colony)(nil)
