package stage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadSelector is returned for selectors outside the supported grammar.
var ErrBadSelector = errors.New("stage: bad selector")

// Selector picks obstacles by ID or class. The grammar is a comma separated
// list of terms; a term is "*", "#id", or one or more ".class" parts that
// must all be present. An empty selector matches nothing.
type Selector struct {
	raw   string
	terms []term
}

type term struct {
	any     bool
	id      string
	classes []string
}

// ParseSelector compiles a selector string.
func ParseSelector(s string) (Selector, error) {
	sel := Selector{raw: s}
	if strings.TrimSpace(s) == "" {
		return sel, nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		t, err := parseTerm(part)
		if err != nil {
			return Selector{}, fmt.Errorf("%w %q: %v", ErrBadSelector, s, err)
		}
		sel.terms = append(sel.terms, t)
	}
	return sel, nil
}

// MustParseSelector is like ParseSelector but panics on error.
func MustParseSelector(s string) Selector {
	sel, err := ParseSelector(s)
	if err != nil {
		panic(err)
	}
	return sel
}

func parseTerm(s string) (term, error) {
	switch {
	case s == "":
		return term{}, errors.New("empty term")
	case s == "*":
		return term{any: true}, nil
	case s[0] == '#':
		id := s[1:]
		if !validName(id) {
			return term{}, fmt.Errorf("invalid id %q", id)
		}
		return term{id: id}, nil
	case s[0] == '.':
		var t term
		for _, c := range strings.Split(s[1:], ".") {
			if !validName(c) {
				return term{}, fmt.Errorf("invalid class %q", c)
			}
			t.classes = append(t.classes, c)
		}
		return t, nil
	default:
		return term{}, fmt.Errorf("unsupported term %q", s)
	}
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// Match reports whether the element satisfies any term.
func (s Selector) Match(e Element) bool {
	for _, t := range s.terms {
		if t.match(e) {
			return true
		}
	}
	return false
}

func (t term) match(e Element) bool {
	if t.any {
		return true
	}
	if t.id != "" {
		return e.ID == t.id
	}
	for _, c := range t.classes {
		if !e.HasClass(c) {
			return false
		}
	}
	return len(t.classes) > 0
}

// String returns the selector as written.
func (s Selector) String() string {
	return s.raw
}
