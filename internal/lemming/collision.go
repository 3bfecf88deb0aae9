package lemming

import (
	"strings"

	"github.com/vovakirdan/tui-lemmings/internal/core"
)

// Obstacle is a collidable rectangle supplied by the geometry source.
type Obstacle struct {
	ID   string
	Rect core.Rect
}

// ContactKind says what an agent side is flush against.
type ContactKind int

const (
	ContactNone ContactKind = iota
	ContactViewport
	ContactObstacle
)

// Contact is the adjacency of one agent side.
type Contact struct {
	Kind     ContactKind
	Obstacle string // ID of the touched obstacle, set for ContactObstacle
}

// Solid reports whether the side touches anything.
func (c Contact) Solid() bool {
	return c.Kind != ContactNone
}

// Adjacency records which of the four agent sides are flush against
// a viewport edge or an obstacle.
type Adjacency struct {
	Top    Contact
	Right  Contact
	Bottom Contact
	Left   Contact
}

// Any reports whether any side is solid.
func (a Adjacency) Any() bool {
	return a.Top.Solid() || a.Right.Solid() || a.Bottom.Solid() || a.Left.Solid()
}

// String renders the adjacency as four flags in TRBL order, e.g. "-R B-".
func (a Adjacency) String() string {
	var sb strings.Builder
	for _, side := range []struct {
		c    Contact
		flag byte
	}{{a.Top, 'T'}, {a.Right, 'R'}, {a.Bottom, 'B'}, {a.Left, 'L'}} {
		if side.c.Solid() {
			sb.WriteByte(side.flag)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// Detect computes which sides of agent are flush against the viewport edges
// or an obstacle. Contact is exact pixel equality with span overlap on the
// other axis; there is no tolerance. When several obstacles qualify for a
// side, the last one in iteration order is recorded.
func Detect(agent, viewport core.Rect, obstacles []Obstacle) Adjacency {
	var adj Adjacency

	// Measure against the viewport first
	if agent.Top() == viewport.Top() {
		adj.Top = Contact{Kind: ContactViewport}
	}
	if agent.Right() == viewport.Right() {
		adj.Right = Contact{Kind: ContactViewport}
	}
	if agent.Bottom() == viewport.Bottom() {
		adj.Bottom = Contact{Kind: ContactViewport}
	}
	if agent.Left() == viewport.Left() {
		adj.Left = Contact{Kind: ContactViewport}
	}

	// Then against the obstacles
	for _, o := range obstacles {
		hit := Contact{Kind: ContactObstacle, Obstacle: o.ID}
		r := o.Rect

		if agent.Top() == r.Bottom() && agent.OverlapsX(r) {
			adj.Top = hit
		}
		if agent.Right() == r.Left() && agent.OverlapsY(r) {
			adj.Right = hit
		}
		if agent.Bottom() == r.Top() && agent.OverlapsX(r) {
			adj.Bottom = hit
		}
		if agent.Left() == r.Right() && agent.OverlapsY(r) {
			adj.Left = hit
		}
	}

	return adj
}
