package lemming

import (
	"fmt"

	"github.com/vovakirdan/tui-lemmings/internal/core"
)

// RuleID identifies a row of the movement table. Rows are numbered in
// evaluation order; the first row whose condition holds decides the move.
type RuleID int

const (
	RuleNone RuleID = iota
	RuleLedge
	RuleOverhang
	RuleClimb
	RuleFinishClimbLeft
	RuleFinishClimbRight
	RuleFall
	RuleWalkLeft
	RuleWalkRight
	RuleFreeFall
)

// String returns the rule's short name.
func (r RuleID) String() string {
	switch r {
	case RuleLedge:
		return "ledge"
	case RuleOverhang:
		return "overhang"
	case RuleClimb:
		return "climb"
	case RuleFinishClimbLeft:
		return "finish-climb-left"
	case RuleFinishClimbRight:
		return "finish-climb-right"
	case RuleFall:
		return "fall"
	case RuleWalkLeft:
		return "walk-left"
	case RuleWalkRight:
		return "walk-right"
	case RuleFreeFall:
		return "free-fall"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

// Anchor is the edge a re-anchored walk frame is kept flush against.
type Anchor int

const (
	AnchorNone Anchor = iota
	AnchorLeft
	AnchorRight
)

// Input is everything the movement table looks at.
type Input struct {
	Adjacency Adjacency
	Direction Direction
	Climbing  bool
	Action    Action // current action, selects the family for the ledge check
	Offset    int
}

// Decision is the outcome of one evaluation of the movement table.
type Decision struct {
	Rule      RuleID
	Action    Action
	Direction Direction
	// Nudge asks for a one pixel anchor adjustment and a re-evaluation instead of a move.
	Nudge  bool
	Anchor Anchor
}

type rule struct {
	id     RuleID
	match  func(in Input) bool
	decide func(in Input) Decision
}

func moveTo(id RuleID, f Family) func(Input) Decision {
	return func(in Input) Decision {
		return Decision{Rule: id, Action: ActionFor(f, in.Direction), Direction: in.Direction}
	}
}

// rules is the ordered movement table. Order matters: several rows overlap
// and the earlier row wins.
var rules = []rule{
	{
		id: RuleLedge,
		match: func(in Input) bool {
			a := in.Adjacency
			return a.Bottom.Solid() && !a.Left.Solid() && a.Right.Solid() && in.Direction == Right
		},
		decide: func(in Input) Decision {
			if in.Offset == in.Action.Family().CenterOffset() {
				return Decision{Rule: RuleLedge, Action: ActionFor(FamilyClimb, in.Direction), Direction: in.Direction}
			}
			return Decision{Rule: RuleLedge, Action: in.Action, Direction: in.Direction, Nudge: true}
		},
	},
	{
		id: RuleOverhang,
		match: func(in Input) bool {
			a := in.Adjacency
			return !a.Bottom.Solid() && (a.Right.Solid() || a.Left.Solid()) && a.Top.Solid()
		},
		decide: func(in Input) Decision {
			dir := in.Direction.Opposite()
			return Decision{Rule: RuleOverhang, Action: ActionFor(FamilyFall, dir), Direction: dir}
		},
	},
	{
		id: RuleClimb,
		match: func(in Input) bool {
			return in.Adjacency.Right.Solid() && in.Direction == Right
		},
		decide: moveTo(RuleClimb, FamilyClimb),
	},
	{
		id: RuleClimb,
		match: func(in Input) bool {
			return in.Adjacency.Left.Solid() && in.Direction == Left
		},
		decide: moveTo(RuleClimb, FamilyClimb),
	},
	{
		id: RuleFinishClimbLeft,
		match: func(in Input) bool {
			return !in.Adjacency.Bottom.Solid() && in.Climbing && in.Direction == Left
		},
		decide: func(in Input) Decision {
			return Decision{Rule: RuleFinishClimbLeft, Action: WalkLeft, Direction: Left, Anchor: AnchorLeft}
		},
	},
	{
		id: RuleFinishClimbRight,
		match: func(in Input) bool {
			return !in.Adjacency.Bottom.Solid() && in.Climbing && in.Direction == Right
		},
		decide: func(in Input) Decision {
			return Decision{Rule: RuleFinishClimbRight, Action: WalkRight, Direction: Right, Anchor: AnchorRight}
		},
	},
	{
		id: RuleFall,
		match: func(in Input) bool {
			return !in.Adjacency.Bottom.Solid()
		},
		decide: moveTo(RuleFall, FamilyFall),
	},
	{
		id: RuleWalkLeft,
		match: func(in Input) bool {
			return in.Adjacency.Bottom.Solid() && !in.Adjacency.Left.Solid() && in.Direction == Left
		},
		decide: moveTo(RuleWalkLeft, FamilyWalk),
	},
	{
		id: RuleWalkRight,
		match: func(in Input) bool {
			return in.Adjacency.Bottom.Solid() && !in.Adjacency.Right.Solid() && in.Direction == Right
		},
		decide: moveTo(RuleWalkRight, FamilyWalk),
	},
	{
		id: RuleFreeFall,
		match: func(in Input) bool {
			return !in.Adjacency.Any()
		},
		decide: moveTo(RuleFreeFall, FamilyFall),
	},
}

// Decide evaluates the movement table against in and returns the first
// matching row's decision. A state no row covers yields an error wrapping
// ErrUnhandledAdjacencyState.
func Decide(in Input) (Decision, error) {
	for _, r := range rules {
		if r.match(in) {
			return r.decide(in), nil
		}
	}
	return Decision{}, fmt.Errorf("%w: adjacency=%s direction=%s climbing=%t",
		ErrUnhandledAdjacencyState, in.Adjacency, in.Direction, in.Climbing)
}

// Reanchor returns the offset and background position a walk frame needs to
// sit flush against the given edge after a climb. bgPos is the current
// background position.
func Reanchor(edge Anchor, bgPos int) (offset, newBgPos int) {
	w, _ := FamilyWalk.Dimensions()
	adjustment := CellWidth - w
	switch edge {
	case AnchorLeft:
		return adjustment / 2, bgPos + adjustment
	case AnchorRight:
		return -adjustment / 2, bgPos - adjustment
	default:
		return 0, bgPos
	}
}

// ClampOffset moves offset into the valid range of family f and returns the
// new offset together with the shift that was applied.
func ClampOffset(f Family, offset int) (clamped, delta int) {
	c := f.CenterOffset()
	clamped = core.Clamp(offset, -c, c)
	return clamped, clamped - offset
}
