// Package web streams a colony to browsers over websockets and accepts
// viewer commands and live geometry edits from them.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-lemmings/internal/colony"
	"github.com/vovakirdan/tui-lemmings/internal/config"
	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/lemming"
	"github.com/vovakirdan/tui-lemmings/internal/sched"
	"github.com/vovakirdan/tui-lemmings/internal/stage"
)

const writeWait = 2 * time.Second

// ErrHubStopped is returned by queries made after the hub's loop exited.
var ErrHubStopped = errors.New("web: hub stopped")

// Config configures a hub.
type Config struct {
	Stage   *stage.Stage
	App     config.Config
	Logger  *log.Logger
	Journal colony.IncidentRecorder
	Clock   sched.Clock // defaults to the wall clock
}

// Hub owns one colony on one stage and fans its state out to every
// connected browser. All colony access happens on the hub's loop.
type Hub struct {
	stage    *stage.Stage
	loop     *sched.Loop
	colony   *colony.Colony
	logger   *log.Logger
	frame    time.Duration
	spawnN   int
	spawnGap time.Duration
	started  time.Time
	seq      uint64

	// visuals is only touched on the loop goroutine.
	visuals map[lemming.ID]lemming.Visual

	mu   sync.Mutex
	subs map[*subscriber]struct{}
	done chan struct{}
}

// subscriber is one websocket connection.
type subscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	//nolint:errcheck // Deadline errors surface on the write
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// NewHub creates a hub. Nothing runs until Run is called.
func NewHub(cfg Config) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	h := &Hub{
		stage:    cfg.Stage,
		loop:     sched.New(cfg.Clock),
		logger:   logger,
		frame:    core.FrameInterval(cfg.App.Display.TickRate),
		spawnN:   cfg.App.Simulation.SpawnCount,
		spawnGap: cfg.App.SpawnInterval(),
		visuals:  make(map[lemming.ID]lemming.Visual),
		subs:     make(map[*subscriber]struct{}),
		done:     make(chan struct{}),
	}
	h.started = h.loop.Now()
	h.colony = colony.New(colony.Config{
		Loop:     h.loop,
		Geometry: cfg.Stage,
		Sink:     h,
		Options: &lemming.Options{
			Speed:    cfg.App.Speed(),
			Selector: cfg.App.Simulation.Selector,
		},
		Logger:    logger,
		Incidents: cfg.Journal,
		Stage:     cfg.Stage.ID(),
	})
	return h
}

// Update implements lemming.RenderSink.
func (h *Hub) Update(v lemming.Visual) {
	h.visuals[v.Agent] = v
}

// Release implements lemming.RenderSink.
func (h *Hub) Release(id lemming.ID) {
	delete(h.visuals, id)
}

var _ lemming.RenderSink = (*Hub)(nil)

// Run starts the spawn wave and the broadcast timer, then drives the loop
// until ctx is done. Subscribers are disconnected on return.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	defer h.closeAll()

	h.loop.Post(func() {
		h.colony.SpawnWave(h.spawnN, h.spawnGap)
		h.scheduleBroadcast()
	})
	h.logger.Info("hub running", "stage", h.stage.ID(), "frame", h.frame)

	err := h.loop.Run(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Summary returns spawn and fault totals and the loop time elapsed.
// Only valid after Run returned.
func (h *Hub) Summary() (spawned, faults int, elapsed time.Duration) {
	return h.colony.Spawned(), h.colony.Faults(), h.loop.Now().Sub(h.started)
}

// StageID returns the ID of the hub's stage.
func (h *Hub) StageID() string {
	return h.stage.ID()
}

func (h *Hub) scheduleBroadcast() {
	h.loop.After(h.frame, func() {
		h.broadcast()
		h.scheduleBroadcast()
	})
}

// broadcast sends the current state to every subscriber. Runs on the loop.
func (h *Hub) broadcast() {
	h.mu.Lock()
	n := len(h.subs)
	h.mu.Unlock()
	if n == 0 {
		return
	}

	data, err := json.Marshal(h.state())
	if err != nil {
		h.logger.Error("cannot encode state", "error", err)
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		if err := s.write(data); err != nil {
			h.logger.Debug("dropping subscriber", "error", err)
			h.remove(s)
		}
	}
}

// state builds the state message. Runs on the loop.
func (h *Hub) state() stateMessage {
	h.seq++
	opts := h.colony.Options()
	st := h.colony.State()
	vp, _ := h.stage.Viewport()
	sel, _ := stage.ParseSelector(opts.Selector)

	msg := stateMessage{
		Type:   "state",
		Seq:    h.seq,
		TimeMS: h.loop.Now().Sub(h.started).Milliseconds(),
		Stage: stageInfo{
			ID:     h.stage.ID(),
			Title:  h.stage.Title(),
			Width:  vp.W,
			Height: vp.H,
		},
		Colony: colonyInfo{
			Agents:   st.Agents,
			Moving:   st.Moving,
			Faulted:  st.Faulted,
			Spawned:  h.colony.Spawned(),
			Paused:   st.Paused,
			SpeedMS:  opts.Speed.Milliseconds(),
			Selector: opts.Selector,
		},
		Lemmings: []lemmingState{},
	}

	for _, e := range h.stage.Elements() {
		msg.Stage.Obstacles = append(msg.Stage.Obstacles, obstacleInfo{
			ID:      e.ID,
			Classes: e.Classes,
			X:       e.Rect.X,
			Y:       e.Rect.Y,
			W:       e.Rect.W,
			H:       e.Rect.H,
			Solid:   sel.Match(e),
		})
	}

	for _, snap := range h.colony.Snapshots() {
		v, ok := h.visuals[snap.ID]
		if !ok {
			v = lemming.Visual{Width: lemming.HitboxW, Height: lemming.HitboxH}
		}
		ls := lemmingState{
			ID:          int(snap.ID),
			Action:      snap.Action.String(),
			Sprite:      snap.Action.Resource(),
			Direction:   snap.Direction.String(),
			Climbing:    snap.Climbing,
			Moving:      snap.Moving,
			Rule:        snap.Rule.String(),
			Adjacency:   snap.Adjacency.String(),
			Frame:       v.Frame,
			FrameOffset: v.FrameOffset,
			X:           snap.Position.X,
			Y:           snap.Position.Y,
			W:           v.Width,
			H:           v.Height,
		}
		if snap.Fault != nil {
			ls.Fault = snap.Fault.Error()
		}
		msg.Lemmings = append(msg.Lemmings, ls)
	}
	return msg
}

// snapshot returns the current state, evaluated on the loop.
func (h *Hub) snapshot(ctx context.Context) (stateMessage, error) {
	ch := make(chan stateMessage, 1)
	h.loop.Post(func() { ch <- h.state() })

	select {
	case s := <-ch:
		return s, nil
	case <-h.done:
		return stateMessage{}, ErrHubStopped
	case <-ctx.Done():
		return stateMessage{}, ctx.Err()
	}
}

// handle applies one client message. Runs on the loop.
func (h *Hub) handle(msg clientMessage) error {
	switch msg.Type {
	case "command":
		cmd := core.ParseCommand(msg.Cmd)
		if cmd == core.CommandNone {
			return fmt.Errorf("web: unknown command %q", msg.Cmd)
		}
		return h.apply(cmd)

	case "selector":
		if _, err := stage.ParseSelector(msg.Selector); err != nil {
			return err
		}
		h.colony.SetSelector(msg.Selector)
		return nil

	case "move":
		return h.stage.MoveObstacle(msg.ID, core.Point{X: msg.X, Y: msg.Y})

	case "resize":
		if msg.Width <= 0 || msg.Height <= 0 {
			return fmt.Errorf("web: viewport %dx%d has no area", msg.Width, msg.Height)
		}
		h.stage.Resize(msg.Width, msg.Height)
		return nil
	}
	return fmt.Errorf("web: unknown message type %q", msg.Type)
}

// apply executes a viewer command. Runs on the loop.
func (h *Hub) apply(cmd core.Command) error {
	if handled, err := h.colony.Apply(cmd); handled {
		return err
	}
	if cmd == core.CommandSelector {
		h.colony.SetSelector(h.stage.NextSelector(h.colony.Options().Selector))
	}
	return nil
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.logger.Info("subscriber joined", "remote", s.conn.RemoteAddr().String(), "subscribers", n)
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()
	if ok {
		s.conn.Close()
		h.logger.Info("subscriber left", "remote", s.conn.RemoteAddr().String(), "subscribers", n)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for s := range subs {
		s.mu.Lock()
		//nolint:errcheck // Best-effort close frame
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
			time.Now().Add(writeWait))
		s.mu.Unlock()
		s.conn.Close()
	}
}
