package lemming

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/sched"
)

const (
	// DefaultSpeed is the animation cadence when none is configured.
	DefaultSpeed = 100 * time.Millisecond

	// DefaultSelector matches every obstacle tagged "collidable".
	DefaultSelector = ".collidable"

	// SettleDelay is the pause between Reverse and the automatic restart.
	SettleDelay = 100 * time.Millisecond

	// initialOffset keeps a fresh walk frame flush with the left of its cell.
	initialOffset = -10
)

// ID identifies an agent within a colony.
type ID int

// String returns the agent's element-style name, e.g. "lemming_3".
func (id ID) String() string {
	return fmt.Sprintf("lemming_%d", int(id))
}

// Options is the simulation-wide configuration shared by every agent.
// Agents read it on every tick, so a change applies from the next
// scheduled callback on.
type Options struct {
	Speed    time.Duration // animation cadence; the ledge nudge waits Speed/2
	Selector string        // obstacle query passed to the geometry source
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() *Options {
	return &Options{Speed: DefaultSpeed, Selector: DefaultSelector}
}

func (o *Options) speed() time.Duration {
	if o == nil || o.Speed <= 0 {
		return DefaultSpeed
	}
	return o.Speed
}

func (o *Options) selector() string {
	if o == nil {
		return DefaultSelector
	}
	return o.Selector
}

// GeometrySource supplies live viewport and obstacle rectangles.
// It is queried on every collision check and never cached.
type GeometrySource interface {
	Viewport() (core.Rect, error)
	Obstacles(selector string) ([]Obstacle, error)
}

// Visual is the rendering hint emitted after every movement or animation tick.
type Visual struct {
	Agent       ID
	Action      Action
	Frame       int
	FrameOffset int
	Position    core.Point
	Width       int
	Height      int
}

// RenderSink consumes agent visuals.
type RenderSink interface {
	Update(v Visual)
	Release(id ID)
}

// Observer is told about decisions and faults. Both calls run on the loop.
type Observer interface {
	Decided(a *Agent, prev Action, d Decision)
	Fault(a *Agent, err error)
}

type nopSink struct{}

func (nopSink) Update(Visual) {}
func (nopSink) Release(ID)    {}

type nopObserver struct{}

func (nopObserver) Decided(*Agent, Action, Decision) {}
func (nopObserver) Fault(*Agent, error)              {}

// Env wires an agent to its collaborators.
type Env struct {
	Loop     *sched.Loop
	Geometry GeometrySource
	Sink     RenderSink
	Options  *Options
	Observer Observer
}

// Agent is one lemming. All methods must be called on the loop goroutine.
type Agent struct {
	id   ID
	loop *sched.Loop
	geo  GeometrySource
	sink RenderSink
	opts *Options
	obs  Observer

	pos       core.Point
	direction Direction
	action    Action
	climbing  bool
	moving    bool
	offset    int
	bgPos     int
	frame     int
	adjacents Adjacency
	lastRule  RuleID
	steps     uint64
	fault     error

	movement  *sched.Timer // pending step or ledge nudge
	animation *sched.Timer
	settle    *sched.Timer
}

// New creates a stopped agent at pos, walking right.
func New(id ID, env Env, pos core.Point) *Agent {
	a := &Agent{
		id:        id,
		loop:      env.Loop,
		geo:       env.Geometry,
		sink:      env.Sink,
		opts:      env.Options,
		obs:       env.Observer,
		pos:       pos,
		direction: Right,
		action:    WalkRight,
		offset:    initialOffset,
	}
	if a.sink == nil {
		a.sink = nopSink{}
	}
	if a.obs == nil {
		a.obs = nopObserver{}
	}
	return a
}

// ID returns the agent's identifier.
func (a *Agent) ID() ID { return a.id }

// Position returns the top-left pixel of the agent.
func (a *Agent) Position() core.Point { return a.pos }

// Direction returns the current heading.
func (a *Agent) Direction() Direction { return a.direction }

// Action returns the current action.
func (a *Agent) Action() Action { return a.action }

// Moving reports whether the agent's tasks are running.
func (a *Agent) Moving() bool { return a.moving }

// Fault returns the error that permanently stopped the agent, if any.
func (a *Agent) Fault() error { return a.fault }

// Bounds returns the agent's collision rectangle.
func (a *Agent) Bounds() core.Rect {
	return core.RectAt(a.pos, HitboxW, HitboxH)
}

// Start launches the animation task and evaluates the first move.
// It does nothing when the agent is already moving or has faulted.
func (a *Agent) Start() {
	if a.moving || a.fault != nil {
		return
	}
	a.settle.Stop()
	a.settle = nil
	a.Go()
}

// Stop cancels every pending task, resets the animation to its first frame
// and marks the agent as stopped.
func (a *Agent) Stop() {
	a.moving = false
	a.cancel()
	a.bgPos = 0
	a.frame = 0
	a.emit()
}

// Reverse stops the agent, flips its direction and restarts it after
// SettleDelay. A second call before the restart flips again and replaces
// the pending restart.
func (a *Agent) Reverse() {
	a.Stop()
	a.direction = a.direction.Opposite()
	a.settle = a.loop.After(SettleDelay, func() {
		a.settle = nil
		a.Start()
	})
}

// Turn flips the direction of a stopped agent without scheduling a restart.
// A pending restart from Reverse is dropped. Moving agents are reversed.
func (a *Agent) Turn() {
	if a.moving {
		a.Reverse()
		return
	}
	a.settle.Stop()
	a.settle = nil
	a.direction = a.direction.Opposite()
	a.emit()
}

// Go measures the surroundings, runs the movement table and acts on the
// decision. A stopped agent is marked moving and its animation task launched.
func (a *Agent) Go() {
	if a.fault != nil {
		return
	}
	if !a.moving {
		a.moving = true
		a.animate()
	}

	adj, err := a.detect()
	if err != nil {
		a.Stop()
		a.obs.Fault(a, fmt.Errorf("%s: %w: %w", a.id, ErrGeometry, err))
		return
	}
	a.adjacents = adj

	in := Input{
		Adjacency: adj,
		Direction: a.direction,
		Climbing:  a.climbing,
		Action:    a.action,
		Offset:    a.offset,
	}
	d, err := Decide(in)
	if err != nil {
		a.fail(&FaultError{Agent: a.id, Input: in, Err: err})
		return
	}
	a.apply(d)
}

// Move switches to action and schedules one movement step at the action's
// interval. On a stopped agent only the action changes.
func (a *Agent) Move(action Action) {
	a.climbing = false
	a.action = action
	if action.Family() == FamilyClimb {
		a.climbing = true
	}

	a.movement.Stop()
	a.movement = nil
	if !a.moving {
		a.emit()
		return
	}

	p := action.Profile()
	a.movement = a.loop.After(p.Interval, func() {
		a.movement = nil
		if !a.moving {
			return
		}
		switch p.Axis {
		case AxisX:
			a.pos.X += p.Step
		case AxisY:
			a.pos.Y += p.Step
		}
		a.steps++
		a.emit()
		if a.moving {
			a.Go()
		}
	})
}

func (a *Agent) detect() (Adjacency, error) {
	vp, err := a.geo.Viewport()
	if err != nil {
		return Adjacency{}, err
	}
	obstacles, err := a.geo.Obstacles(a.opts.selector())
	if err != nil {
		return Adjacency{}, err
	}
	return Detect(a.Bounds(), vp, obstacles), nil
}

func (a *Agent) apply(d Decision) {
	prev := a.action
	a.lastRule = d.Rule
	a.direction = d.Direction

	if d.Nudge {
		a.movement.Stop()
		a.movement = a.loop.After(a.opts.speed()/2, func() {
			a.movement = nil
			if !a.moving {
				return
			}
			a.offset++
			a.bgPos++
			a.Go()
		})
		a.obs.Decided(a, prev, d)
		return
	}

	switch {
	case d.Anchor != AnchorNone:
		a.offset, a.bgPos = Reanchor(d.Anchor, a.bgPos)
	case d.Action.Family() != prev.Family():
		var delta int
		a.offset, delta = ClampOffset(d.Action.Family(), a.offset)
		a.bgPos += delta
	}

	a.obs.Decided(a, prev, d)
	a.Move(d.Action)
}

func (a *Agent) animate() {
	a.animation = a.loop.After(a.opts.speed(), func() {
		a.animation = nil
		if !a.moving {
			return
		}
		a.frame++
		if a.frame >= a.action.Profile().Frames {
			a.frame = 0
			a.bgPos = a.offset
		} else {
			a.bgPos -= CellWidth
		}
		a.emit()
		a.animate()
	})
}

func (a *Agent) fail(err error) {
	a.Stop()
	a.fault = err
	a.obs.Fault(a, err)
}

func (a *Agent) cancel() {
	a.movement.Stop()
	a.animation.Stop()
	a.settle.Stop()
	a.movement, a.animation, a.settle = nil, nil, nil
}

// Release cancels every task and hands the render resource back to the sink.
func (a *Agent) Release() {
	a.moving = false
	a.cancel()
	a.sink.Release(a.id)
}

func (a *Agent) emit() {
	a.sink.Update(a.Visual())
}

// Visual returns the current rendering hint.
func (a *Agent) Visual() Visual {
	w, h := a.action.Family().Dimensions()
	return Visual{
		Agent:       a.id,
		Action:      a.action,
		Frame:       a.frame,
		FrameOffset: a.bgPos - (CellWidth-w)/2,
		Position:    a.pos,
		Width:       w,
		Height:      h,
	}
}

// Snapshot is a read-only copy of an agent's state.
type Snapshot struct {
	ID                 ID
	Position           core.Point
	Direction          Direction
	Action             Action
	Climbing           bool
	Moving             bool
	Offset             int
	BackgroundPosition int
	Frame              int
	Adjacency          Adjacency
	Rule               RuleID
	Steps              uint64
	Fault              error
}

// Snapshot copies the agent's current state.
func (a *Agent) Snapshot() Snapshot {
	return Snapshot{
		ID:                 a.id,
		Position:           a.pos,
		Direction:          a.direction,
		Action:             a.action,
		Climbing:           a.climbing,
		Moving:             a.moving,
		Offset:             a.offset,
		BackgroundPosition: a.bgPos,
		Frame:              a.frame,
		Adjacency:          a.adjacents,
		Rule:               a.lastRule,
		Steps:              a.steps,
		Fault:              a.fault,
	}
}

// Pending reports whether any task is scheduled for the agent.
func (a *Agent) Pending() bool {
	return a.movement.Pending() || a.animation.Pending() || a.settle.Pending()
}
