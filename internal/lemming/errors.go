package lemming

import (
	"errors"
	"fmt"
)

// ErrUnhandledAdjacencyState means no rule in the movement table matched.
// It is fatal to the agent that hit it.
var ErrUnhandledAdjacencyState = errors.New("lemming: unhandled adjacency state")

// ErrGeometry wraps failures of the geometry source during a collision check.
var ErrGeometry = errors.New("lemming: geometry unavailable")

// FaultError carries the decision input that left the rule table without a match.
type FaultError struct {
	Agent ID
	Input Input
	Err   error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s: %v (action=%s offset=%d)", e.Agent, e.Err, e.Input.Action, e.Input.Offset)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}
