package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/lemming"
	"github.com/vovakirdan/tui-lemmings/internal/stage"
)

// colorStyles maps screen color roles to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	core.ColorSolid:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorDecor:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	core.ColorWalk:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorFall:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorClimb:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorFault:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		// Group consecutive cells with the same color for efficiency
		x := 0
		for x < s.Width() {
			cell := s.GetCell(x, y)
			startColor := cell.Color

			// Collect consecutive cells with same color
			var run strings.Builder
			for x < s.Width() {
				cell = s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			// Apply style to the run
			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// Scene is everything one viewer frame shows.
type Scene struct {
	Viewport core.Rect
	Elements []stage.Element
	Selector stage.Selector // matching elements are drawn solid
	Visuals  []lemming.Visual
	ScaleX   int // stage pixels per column
	ScaleY   int // stage pixels per row
}

// DrawScene rasterises the stage and its lemmings onto the screen.
// A cell is covered by a shape if any pixel of the shape falls inside it.
func DrawScene(s *core.Screen, sc Scene) {
	s.Clear()

	vp := toCells(sc.Viewport, sc.ScaleX, sc.ScaleY)
	s.DrawVLine(vp.Right(), vp.Y, vp.H, '│')
	s.DrawHLine(vp.X, vp.Bottom(), vp.W, '─')
	s.Set(vp.Right(), vp.Bottom(), '┘')

	for _, e := range sc.Elements {
		r := toCells(e.Rect, sc.ScaleX, sc.ScaleY)
		if sc.Selector.Match(e) {
			s.DrawRectColor(r, '█', core.ColorSolid)
		} else {
			s.DrawRectColor(r, '░', core.ColorDecor)
		}
	}

	for _, v := range sc.Visuals {
		r := toCells(core.RectAt(v.Position, lemming.HitboxW, lemming.HitboxH), sc.ScaleX, sc.ScaleY)
		glyph, color := lemmingGlyph(v)
		s.DrawRectColor(r, glyph, color)
	}
}

// lemmingGlyph picks the glyph for an action, alternating on animation frames.
func lemmingGlyph(v lemming.Visual) (rune, core.Color) {
	alt := v.Frame%2 == 1
	pick := func(a, b rune) rune {
		if alt {
			return b
		}
		return a
	}

	switch v.Action {
	case lemming.WalkLeft:
		return pick('<', '«'), core.ColorWalk
	case lemming.WalkRight:
		return pick('>', '»'), core.ColorWalk
	case lemming.FallLeft, lemming.FallRight:
		return pick('v', 'V'), core.ColorFall
	case lemming.ClimbLeft, lemming.ClimbRight:
		return pick('^', 'A'), core.ColorClimb
	}
	return '?', core.ColorFault
}

// toCells converts a pixel rectangle to the cells it touches.
func toCells(r core.Rect, sx, sy int) core.Rect {
	x0, y0 := floorDiv(r.X, sx), floorDiv(r.Y, sy)
	x1, y1 := ceilDiv(r.Right(), sx), ceilDiv(r.Bottom(), sy)
	return core.NewRect(x0, y0, max(1, x1-x0), max(1, y1-y0))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
