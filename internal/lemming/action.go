package lemming

import "time"

// Sprite geometry shared by every action family.
const (
	// CellWidth is the width of one frame cell in a sprite strip. Each family's
	// visible frame is narrower and is kept flush inside the cell by the anchor offset.
	CellWidth = 32

	// HitboxW and HitboxH size the collision rectangle at the agent position.
	HitboxW = 12
	HitboxH = 20
)

// Direction is the horizontal heading of an agent.
type Direction int

const (
	Left Direction = iota
	Right
)

// Opposite returns the reversed direction.
func (d Direction) Opposite() Direction {
	if d == Left {
		return Right
	}
	return Left
}

// Sign returns -1 for Left and +1 for Right.
func (d Direction) Sign() int {
	if d == Left {
		return -1
	}
	return 1
}

// String returns a human-readable name for the direction.
func (d Direction) String() string {
	switch d {
	case Left:
		return "Left"
	case Right:
		return "Right"
	default:
		return "Unknown"
	}
}

// Family groups actions that share sprite dimensions and timing,
// independent of direction.
type Family int

const (
	FamilyWalk Family = iota
	FamilyFall
	FamilyClimb
)

// String returns the family's resource prefix.
func (f Family) String() string {
	switch f {
	case FamilyWalk:
		return "walk"
	case FamilyFall:
		return "fall"
	case FamilyClimb:
		return "climb"
	default:
		return "unknown"
	}
}

// Dimensions returns the corrected sprite size (width, height) for the family.
func (f Family) Dimensions() (w, h int) {
	switch f {
	case FamilyClimb:
		return 18, 22
	default:
		return 12, 20
	}
}

// CenterOffset is the anchor offset that centres the family's frame in a cell: (32-w)/2.
// Valid offsets for the family lie in [-CenterOffset, +CenterOffset].
func (f Family) CenterOffset() int {
	w, _ := f.Dimensions()
	return (CellWidth - w) / 2
}

// Axis is the coordinate a movement step changes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Profile is the fixed timing and stepping of an action.
type Profile struct {
	Frames   int           // Frames in the animation strip
	Interval time.Duration // Delay between movement steps
	Step     int           // Pixels moved per step along Axis (signed)
	Axis     Axis
}

// Action is what an agent is currently doing.
type Action int

const (
	WalkLeft Action = iota
	WalkRight
	FallLeft
	FallRight
	ClimbLeft
	ClimbRight
)

// Actions lists every action in declaration order.
var Actions = []Action{WalkLeft, WalkRight, FallLeft, FallRight, ClimbLeft, ClimbRight}

// ActionFor returns the action of family f heading in direction d.
func ActionFor(f Family, d Direction) Action {
	base := WalkLeft
	switch f {
	case FamilyFall:
		base = FallLeft
	case FamilyClimb:
		base = ClimbLeft
	}
	if d == Right {
		return base + 1
	}
	return base
}

// Family returns the action's family.
func (a Action) Family() Family {
	switch a {
	case FallLeft, FallRight:
		return FamilyFall
	case ClimbLeft, ClimbRight:
		return FamilyClimb
	default:
		return FamilyWalk
	}
}

// Direction returns the heading encoded in the action.
func (a Action) Direction() Direction {
	switch a {
	case WalkRight, FallRight, ClimbRight:
		return Right
	default:
		return Left
	}
}

// Profile returns the action's frame count, step interval and step.
func (a Action) Profile() Profile {
	switch a.Family() {
	case FamilyFall:
		return Profile{Frames: 4, Interval: 15 * time.Millisecond, Step: 1, Axis: AxisY}
	case FamilyClimb:
		return Profile{Frames: 8, Interval: 75 * time.Millisecond, Step: -1, Axis: AxisY}
	default:
		return Profile{Frames: 8, Interval: 50 * time.Millisecond, Step: a.Direction().Sign(), Axis: AxisX}
	}
}

// Resource returns the sprite resource key for the action, e.g. "walk_r".
// Renderers map this key to an image strip.
func (a Action) Resource() string {
	suffix := "_l"
	if a.Direction() == Right {
		suffix = "_r"
	}
	return a.Family().String() + suffix
}

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case WalkLeft:
		return "WalkLeft"
	case WalkRight:
		return "WalkRight"
	case FallLeft:
		return "FallLeft"
	case FallRight:
		return "FallRight"
	case ClimbLeft:
		return "ClimbLeft"
	case ClimbRight:
		return "ClimbRight"
	default:
		return "Unknown"
	}
}
