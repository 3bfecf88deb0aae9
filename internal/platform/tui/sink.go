package tui

import (
	"sort"

	"github.com/vovakirdan/tui-lemmings/internal/lemming"
)

// Sink keeps the latest visual of every live lemming for the next redraw.
// It is written by loop callbacks and read by View, both of which run on the
// Bubble Tea goroutine.
type Sink struct {
	visuals map[lemming.ID]lemming.Visual
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{visuals: make(map[lemming.ID]lemming.Visual)}
}

// Update records v as the lemming's current visual.
func (s *Sink) Update(v lemming.Visual) {
	s.visuals[v.Agent] = v
}

// Release forgets a destroyed lemming.
func (s *Sink) Release(id lemming.ID) {
	delete(s.visuals, id)
}

// Visuals returns the current visuals ordered by agent ID.
func (s *Sink) Visuals() []lemming.Visual {
	out := make([]lemming.Visual, 0, len(s.visuals))
	for _, v := range s.visuals {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}

var _ lemming.RenderSink = (*Sink)(nil)
