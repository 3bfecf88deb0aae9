package core

// Color is the role of a screen cell. Front ends map roles to their own
// palette, so the screen buffer never carries terminal codes.
type Color uint8

const (
	ColorDefault Color = iota // stage guides and text
	ColorSolid                // obstacle matched by the selector
	ColorDecor                // obstacle ignored by the selector
	ColorWalk
	ColorFall
	ColorClimb
	ColorFault // lemming halted by a fault, or an unknown action
)
