// Package stage is the geometry provider for a colony: a viewport and a set
// of tagged obstacle rectangles that can change between ticks.
package stage

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/lemming"
)

var (
	// ErrUnknownObstacle is returned when an obstacle ID is not on the stage.
	ErrUnknownObstacle = errors.New("stage: unknown obstacle")

	// ErrDuplicateObstacle is returned when adding an obstacle whose ID is taken.
	ErrDuplicateObstacle = errors.New("stage: duplicate obstacle")

	// ErrNoViewport is returned while the viewport has no area.
	ErrNoViewport = errors.New("stage: viewport has no area")
)

// Element is an obstacle on the stage.
type Element struct {
	ID      string
	Classes []string
	Rect    core.Rect
}

// HasClass reports whether the element carries class c.
func (e Element) HasClass(c string) bool {
	return slices.Contains(e.Classes, c)
}

// Stage holds the live viewport and obstacles. It is safe for concurrent use.
type Stage struct {
	id    string
	title string

	mu       sync.RWMutex
	viewport core.Rect
	elements []Element

	// last parsed selector; agents query the same one every tick
	lastRaw string
	lastSel Selector
	hasLast bool
}

// New creates a stage with a viewport of the given size at the origin.
func New(id, title string, width, height int) *Stage {
	return &Stage{
		id:       id,
		title:    title,
		viewport: core.NewRect(0, 0, width, height),
	}
}

// ID returns the stage identifier.
func (s *Stage) ID() string { return s.id }

// Title returns the human-readable stage name.
func (s *Stage) Title() string { return s.title }

// Viewport implements lemming.GeometrySource.
func (s *Stage) Viewport() (core.Rect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.viewport.W <= 0 || s.viewport.H <= 0 {
		return core.Rect{}, ErrNoViewport
	}
	return s.viewport, nil
}

// Obstacles implements lemming.GeometrySource. Matches are returned in
// declaration order.
func (s *Stage) Obstacles(selector string) ([]lemming.Obstacle, error) {
	sel, err := s.selector(selector)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []lemming.Obstacle
	for _, e := range s.elements {
		if sel.Match(e) {
			out = append(out, lemming.Obstacle{ID: e.ID, Rect: e.Rect})
		}
	}
	return out, nil
}

func (s *Stage) selector(raw string) (Selector, error) {
	s.mu.RLock()
	sel, ok := s.lastSel, s.hasLast && s.lastRaw == raw
	s.mu.RUnlock()
	if ok {
		return sel, nil
	}

	sel, err := ParseSelector(raw)
	if err != nil {
		return Selector{}, err
	}

	s.mu.Lock()
	s.lastRaw, s.lastSel, s.hasLast = raw, sel, true
	s.mu.Unlock()
	return sel, nil
}

// Elements returns a copy of every obstacle in declaration order.
func (s *Stage) Elements() []Element {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Element, len(s.elements))
	for i, e := range s.elements {
		e.Classes = slices.Clone(e.Classes)
		out[i] = e
	}
	return out
}

// Selectors lists the selectors a viewer can step through: one per obstacle
// class in name order, then "*". The list follows the current obstacles.
func (s *Stage) Selectors() []string {
	var classes []string
	for _, e := range s.Elements() {
		classes = append(classes, e.Classes...)
	}
	slices.Sort(classes)

	out := make([]string, 0, len(classes)+1)
	for _, c := range slices.Compact(classes) {
		out = append(out, "."+c)
	}
	return append(out, "*")
}

// NextSelector returns the selector after current in Selectors. A selector
// outside the list, such as an id or a union, moves to the first entry.
func (s *Stage) NextSelector(current string) string {
	list := s.Selectors()
	i := slices.Index(list, current)
	return list[(i+1)%len(list)]
}

// Element returns the obstacle with the given ID.
func (s *Stage) Element(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.index(id); i >= 0 {
		e := s.elements[i]
		e.Classes = slices.Clone(e.Classes)
		return e, true
	}
	return Element{}, false
}

// Resize changes the viewport size, keeping its origin.
func (s *Stage) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewport.W = width
	s.viewport.H = height
}

// AddObstacle appends an obstacle.
func (s *Stage) AddObstacle(e Element) error {
	if e.ID == "" {
		return fmt.Errorf("stage: add obstacle: empty id")
	}
	if e.Rect.W <= 0 || e.Rect.H <= 0 {
		return fmt.Errorf("stage: add obstacle %q: rect %v has no area", e.ID, e.Rect)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(e.ID) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateObstacle, e.ID)
	}
	e.Classes = slices.Clone(e.Classes)
	s.elements = append(s.elements, e)
	return nil
}

// MoveObstacle moves an obstacle's top-left corner to p.
func (s *Stage) MoveObstacle(id string, p core.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownObstacle, id)
	}
	s.elements[i].Rect.X = p.X
	s.elements[i].Rect.Y = p.Y
	return nil
}

// RemoveObstacle deletes an obstacle.
func (s *Stage) RemoveObstacle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownObstacle, id)
	}
	s.elements = slices.Delete(s.elements, i, i+1)
	return nil
}

// Clone returns an independent copy of the stage.
func (s *Stage) Clone() *Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := New(s.id, s.title, s.viewport.W, s.viewport.H)
	c.viewport = s.viewport
	c.elements = make([]Element, len(s.elements))
	for i, e := range s.elements {
		e.Classes = slices.Clone(e.Classes)
		c.elements[i] = e
	}
	return c
}

func (s *Stage) index(id string) int {
	return slices.IndexFunc(s.elements, func(e Element) bool { return e.ID == id })
}

var _ lemming.GeometrySource = (*Stage)(nil)
