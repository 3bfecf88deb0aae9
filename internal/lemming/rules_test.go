package lemming

import (
	"errors"
	"testing"
)

var solid = Contact{Kind: ContactObstacle, Obstacle: "x"}

// sides builds an adjacency from a "TRBL" style mask such as "-RB-".
func sides(mask string) Adjacency {
	var adj Adjacency
	if mask[0] != '-' {
		adj.Top = solid
	}
	if mask[1] != '-' {
		adj.Right = solid
	}
	if mask[2] != '-' {
		adj.Bottom = solid
	}
	if mask[3] != '-' {
		adj.Left = solid
	}
	return adj
}

func allAdjacencies() []Adjacency {
	out := make([]Adjacency, 0, 16)
	for bits := 0; bits < 16; bits++ {
		var adj Adjacency
		if bits&1 != 0 {
			adj.Top = solid
		}
		if bits&2 != 0 {
			adj.Right = solid
		}
		if bits&4 != 0 {
			adj.Bottom = solid
		}
		if bits&8 != 0 {
			adj.Left = solid
		}
		out = append(out, adj)
	}
	return out
}

func TestDecideTable(t *testing.T) {
	tests := []struct {
		name   string
		in     Input
		rule   RuleID
		action Action
		dir    Direction
		nudge  bool
		anchor Anchor
	}{
		{
			name:   "ledge before convergence nudges",
			in:     Input{Adjacency: sides("-RB-"), Direction: Right, Action: WalkRight, Offset: -10},
			rule:   RuleLedge,
			action: WalkRight,
			dir:    Right,
			nudge:  true,
		},
		{
			name:   "ledge after convergence climbs",
			in:     Input{Adjacency: sides("-RB-"), Direction: Right, Action: WalkRight, Offset: 10},
			rule:   RuleLedge,
			action: ClimbRight,
			dir:    Right,
		},
		{
			name:   "wedged under overhang reverses and falls",
			in:     Input{Adjacency: sides("T--L"), Direction: Left, Action: ClimbLeft},
			rule:   RuleOverhang,
			action: FallRight,
			dir:    Right,
		},
		{
			name:   "wall on the right climbs",
			in:     Input{Adjacency: sides("-R--"), Direction: Right, Climbing: true, Action: ClimbRight},
			rule:   RuleClimb,
			action: ClimbRight,
			dir:    Right,
		},
		{
			name:   "wall on the left climbs",
			in:     Input{Adjacency: sides("--BL"), Direction: Left, Action: WalkLeft},
			rule:   RuleClimb,
			action: ClimbLeft,
			dir:    Left,
		},
		{
			name:   "top of a left wall finishes the climb",
			in:     Input{Adjacency: sides("----"), Direction: Left, Climbing: true, Action: ClimbLeft},
			rule:   RuleFinishClimbLeft,
			action: WalkLeft,
			dir:    Left,
			anchor: AnchorLeft,
		},
		{
			name:   "top of a right wall finishes the climb",
			in:     Input{Adjacency: sides("----"), Direction: Right, Climbing: true, Action: ClimbRight},
			rule:   RuleFinishClimbRight,
			action: WalkRight,
			dir:    Right,
			anchor: AnchorRight,
		},
		{
			name:   "nothing below falls",
			in:     Input{Adjacency: sides("----"), Direction: Left, Action: WalkLeft},
			rule:   RuleFall,
			action: FallLeft,
			dir:    Left,
		},
		{
			name:   "side touching wall going the other way falls",
			in:     Input{Adjacency: sides("---L"), Direction: Right, Action: WalkRight},
			rule:   RuleFall,
			action: FallRight,
			dir:    Right,
		},
		{
			name:   "floor walking left",
			in:     Input{Adjacency: sides("--B-"), Direction: Left, Action: FallLeft},
			rule:   RuleWalkLeft,
			action: WalkLeft,
			dir:    Left,
		},
		{
			name:   "floor walking right",
			in:     Input{Adjacency: sides("T-B-"), Direction: Right, Action: WalkRight},
			rule:   RuleWalkRight,
			action: WalkRight,
			dir:    Right,
		},
		{
			name:   "floor with wall behind keeps walking",
			in:     Input{Adjacency: sides("--BL"), Direction: Right, Action: WalkRight},
			rule:   RuleWalkRight,
			action: WalkRight,
			dir:    Right,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decide(tt.in)
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if d.Rule != tt.rule {
				t.Errorf("Rule = %v, expected %v", d.Rule, tt.rule)
			}
			if d.Action != tt.action {
				t.Errorf("Action = %v, expected %v", d.Action, tt.action)
			}
			if d.Direction != tt.dir {
				t.Errorf("Direction = %v, expected %v", d.Direction, tt.dir)
			}
			if d.Nudge != tt.nudge {
				t.Errorf("Nudge = %v, expected %v", d.Nudge, tt.nudge)
			}
			if d.Anchor != tt.anchor {
				t.Errorf("Anchor = %v, expected %v", d.Anchor, tt.anchor)
			}
		})
	}
}

func TestDecideLedgeUsesCurrentFamily(t *testing.T) {
	in := Input{Adjacency: sides("-RB-"), Direction: Right, Action: ClimbRight, Offset: 7}
	d, err := Decide(in)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Nudge || d.Action != ClimbRight {
		t.Errorf("Decide() = %+v, expected climb at the climb family's centre", d)
	}

	in.Offset = 10
	d, _ = Decide(in)
	if !d.Nudge {
		t.Errorf("Decide() = %+v, expected nudge when offset is off centre", d)
	}
}

func TestDecideOverhangBeatsClimb(t *testing.T) {
	d, _ := Decide(Input{Adjacency: sides("TR--"), Direction: Right, Climbing: true, Action: ClimbRight})
	if d.Rule != RuleOverhang || d.Action != FallLeft || d.Direction != Left {
		t.Errorf("Decide() = %+v, expected overhang to fall left", d)
	}
}

// Every combination of four sides, heading, climbing flag, current action and
// in-range offset must be decided by some row, and Decide must return the
// first row that matches.
func TestDecideExhaustive(t *testing.T) {
	checked := 0
	for _, adj := range allAdjacencies() {
		for _, dir := range []Direction{Left, Right} {
			for _, climbing := range []bool{false, true} {
				for _, action := range Actions {
					c := action.Family().CenterOffset()
					for offset := -c; offset <= c; offset++ {
						in := Input{Adjacency: adj, Direction: dir, Climbing: climbing, Action: action, Offset: offset}

						first := RuleNone
						for _, r := range rules {
							if r.match(in) {
								first = r.id
								break
							}
						}
						if first == RuleNone {
							t.Fatalf("no rule matches %+v", in)
						}

						d, err := Decide(in)
						if err != nil {
							t.Fatalf("Decide(%+v) error = %v", in, err)
						}
						if d.Rule != first {
							t.Fatalf("Decide(%+v).Rule = %v, expected first match %v", in, d.Rule, first)
						}
						checked++
					}
				}
			}
		}
	}
	if checked == 0 {
		t.Fatal("no combinations checked")
	}
}

func TestDecideAnchorConsistency(t *testing.T) {
	for _, adj := range allAdjacencies() {
		for _, dir := range []Direction{Left, Right} {
			for _, climbing := range []bool{false, true} {
				for _, action := range Actions {
					c := action.Family().CenterOffset()
					for offset := -c; offset <= c; offset++ {
						in := Input{Adjacency: adj, Direction: dir, Climbing: climbing, Action: action, Offset: offset}
						d, err := Decide(in)
						if err != nil {
							t.Fatalf("Decide(%+v) error = %v", in, err)
						}

						next := offset
						switch {
						case d.Nudge:
							next = offset + 1
						case d.Anchor != AnchorNone:
							next, _ = Reanchor(d.Anchor, 0)
						case d.Action.Family() != action.Family():
							next, _ = ClampOffset(d.Action.Family(), offset)
						}

						limit := d.Action.Family().CenterOffset()
						if next < -limit || next > limit {
							t.Fatalf("offset after %+v = %d, outside ±%d", in, next, limit)
						}
					}
				}
			}
		}
	}
}

func TestDecideUnhandled(t *testing.T) {
	saved := rules
	rules = nil
	defer func() { rules = saved }()

	_, err := Decide(Input{Adjacency: sides("--B-"), Direction: Right})
	if !errors.Is(err, ErrUnhandledAdjacencyState) {
		t.Errorf("Decide() error = %v, expected ErrUnhandledAdjacencyState", err)
	}
}

func TestReanchor(t *testing.T) {
	offset, bg := Reanchor(AnchorLeft, -64)
	if offset != 10 || bg != -44 {
		t.Errorf("Reanchor(left, -64) = %d, %d, expected 10, -44", offset, bg)
	}
	offset, bg = Reanchor(AnchorRight, -64)
	if offset != -10 || bg != -84 {
		t.Errorf("Reanchor(right, -64) = %d, %d, expected -10, -84", offset, bg)
	}
}

func TestClampOffset(t *testing.T) {
	tests := []struct {
		family Family
		offset int
		clamp  int
		delta  int
	}{
		{FamilyClimb, 10, 7, -3},
		{FamilyClimb, -10, -7, 3},
		{FamilyClimb, 4, 4, 0},
		{FamilyWalk, 7, 7, 0},
	}
	for _, tt := range tests {
		clamped, delta := ClampOffset(tt.family, tt.offset)
		if clamped != tt.clamp || delta != tt.delta {
			t.Errorf("ClampOffset(%v, %d) = %d, %d, expected %d, %d",
				tt.family, tt.offset, clamped, delta, tt.clamp, tt.delta)
		}
	}
}
