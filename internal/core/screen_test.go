package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(8, 3)

	if s.Width() != 8 || s.Height() != 3 {
		t.Errorf("size = %dx%d, expected 8x3", s.Width(), s.Height())
	}
	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if c := s.GetCell(x, y); c != blank {
				t.Fatalf("GetCell(%d, %d) = %+v, expected blank", x, y, c)
			}
		}
	}
}

func TestScreenSetColor(t *testing.T) {
	s := NewScreen(4, 2)
	s.SetColor(1, 1, '>', ColorWalk)

	if c := s.GetCell(1, 1); c.Rune != '>' || c.Color != ColorWalk {
		t.Errorf("GetCell(1, 1) = %+v, expected '>' walk", c)
	}
	if s.Get(1, 1) != '>' {
		t.Errorf("Get(1, 1) = %q, expected '>'", s.Get(1, 1))
	}

	// Plain Set resets the color
	s.Set(1, 1, '#')
	if c := s.GetCell(1, 1); c.Color != ColorDefault {
		t.Errorf("Set should clear color, got %v", c.Color)
	}

	// Out of bounds writes are ignored and reads are blank
	s.SetColor(-1, 0, 'x', ColorFault)
	s.SetColor(4, 0, 'x', ColorFault)
	s.SetColor(0, 2, 'x', ColorFault)
	if c := s.GetCell(-1, 9); c != blank {
		t.Errorf("out of bounds GetCell = %+v, expected blank", c)
	}
	if strings.ContainsRune(s.String(), 'x') {
		t.Errorf("out of bounds write leaked into the buffer:\n%s", s.String())
	}
}

func TestScreenDrawRectColor(t *testing.T) {
	tests := []struct {
		name     string
		rect     Rect
		expected string
	}{
		{"inside", NewRect(1, 0, 2, 2), " ██ \n ██ \n    "},
		{"clipped left and top", NewRect(-2, -1, 3, 2), "█   \n    \n    "},
		{"clipped right and bottom", NewRect(3, 2, 5, 5), "    \n    \n   █"},
		{"empty", NewRect(1, 1, 0, 3), "    \n    \n    "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(4, 3)
			s.DrawRectColor(tt.rect, '█', ColorSolid)

			if got := s.String(); got != tt.expected {
				t.Errorf("String() = %q, expected %q", got, tt.expected)
			}
			for y := 0; y < s.Height(); y++ {
				for x := 0; x < s.Width(); x++ {
					c := s.GetCell(x, y)
					if c.Rune == '█' && c.Color != ColorSolid {
						t.Errorf("cell (%d, %d) color = %v, expected solid", x, y, c.Color)
					}
				}
			}
		})
	}
}

func TestScreenLaterDrawsWin(t *testing.T) {
	s := NewScreen(4, 1)
	s.DrawRectColor(NewRect(0, 0, 4, 1), '░', ColorDecor)
	s.DrawRectColor(NewRect(1, 0, 1, 1), 'v', ColorFall)

	if c := s.GetCell(1, 0); c.Rune != 'v' || c.Color != ColorFall {
		t.Errorf("GetCell(1, 0) = %+v, expected 'v' fall", c)
	}
	if c := s.GetCell(2, 0); c.Rune != '░' || c.Color != ColorDecor {
		t.Errorf("GetCell(2, 0) = %+v, expected '░' decor", c)
	}
}

func TestScreenClear(t *testing.T) {
	s := NewScreen(3, 2)
	s.DrawRectColor(NewRect(0, 0, 3, 2), '^', ColorClimb)
	s.Clear()

	if got := s.String(); got != "   \n   " {
		t.Errorf("String() after Clear = %q, expected blanks", got)
	}
	if c := s.GetCell(2, 1); c.Color != ColorDefault {
		t.Errorf("Clear should reset color, got %v", c.Color)
	}
}

func TestScreenLines(t *testing.T) {
	s := NewScreen(5, 4)
	s.DrawRectColor(NewRect(0, 0, 5, 4), '█', ColorSolid)
	s.DrawVLine(4, 0, 3, '│')
	s.DrawHLine(0, 3, 4, '─')
	s.Set(4, 3, '┘')

	expected := "████│\n████│\n████│\n────┘"
	if got := s.String(); got != expected {
		t.Errorf("String() = %q, expected %q", got, expected)
	}
	// Guides are drawn uncolored over obstacles
	if c := s.GetCell(4, 1); c.Color != ColorDefault {
		t.Errorf("guide color = %v, expected default", c.Color)
	}

	// Lines running off the screen are clipped
	s.DrawHLine(3, 0, 10, '=')
	s.DrawVLine(0, 2, 10, '|')
	if s.Get(4, 0) != '=' || s.Get(0, 3) != '|' {
		t.Errorf("clipped lines missing:\n%s", s.String())
	}
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(4, 4)
	s.SetColor(0, 0, '>', ColorWalk)
	s.SetColor(3, 3, 'v', ColorFall)

	// Shrinking keeps the top-left cells with their colors
	s.Resize(2, 2)
	if s.Width() != 2 || s.Height() != 2 {
		t.Fatalf("size = %dx%d, expected 2x2", s.Width(), s.Height())
	}
	if c := s.GetCell(0, 0); c.Rune != '>' || c.Color != ColorWalk {
		t.Errorf("GetCell(0, 0) = %+v, expected '>' walk", c)
	}

	// Growing pads with blanks; dropped cells do not come back
	s.Resize(5, 5)
	if c := s.GetCell(3, 3); c != blank {
		t.Errorf("GetCell(3, 3) = %+v, expected blank", c)
	}
	if c := s.GetCell(0, 0); c.Color != ColorWalk {
		t.Errorf("color lost on grow: %+v", c)
	}

	// Same size is a no-op
	s.Resize(5, 5)
	if s.Get(0, 0) != '>' {
		t.Error("Resize to the same size changed the content")
	}
}
