package nfa

import (
	"fmt"
	"strings"
)

// StateID uniquely identifies an NFA state.
// This is a 32-bit unsigned integer for compact representation.
type StateID uint32

// InvalidState represents an invalid/uninitialized state ID
const InvalidState StateID = 0xFFFFFFFF

// Transition is an edge labeled with a Matcher.
type Transition struct {
	Matcher Matcher
	Next    StateID
}

// Fragment is a partially built automaton: a start state and an accept state.
// Combinators consume their fragment arguments; a fragment must not be used
// again after it has been combined.
type Fragment struct {
	Start  StateID
	Accept StateID
}

// Assertion describes a lookaround or atomic group attached to a state.
//
// The inner fragment is run as a sub-search. Ahead assertions start at the
// current position; behind assertions try start positions from the current
// one backwards, at most Limit characters (0 = no limit), and require the
// inner match to end at the current position. When the outcome agrees with
// Positive the search continues at Continuation, at the position the inner
// match ended if ConsumesInput is set and at the current position otherwise.
type Assertion struct {
	ConsumesInput bool
	Positive      bool
	Ahead         bool
	Inner         Fragment
	Continuation  StateID
	Limit         int
}

// State is a node of the automaton. Transitions are tried in order.
type State struct {
	id          StateID
	transitions []Transition

	startCapture    []int
	endCapture      []int
	forceEndCapture []int

	// A state with an assertion has no transitions.
	assertion *Assertion
}

// ID returns the state's unique identifier
func (s *State) ID() StateID {
	return s.id
}

// Transitions returns the outgoing transitions in priority order.
func (s *State) Transitions() []Transition {
	return s.transitions
}

// StartCaptures returns the groups whose start is recorded on entry.
func (s *State) StartCaptures() []int {
	return s.startCapture
}

// EndCaptures returns the groups whose end is recorded on entry unless the
// group has been force-ended on the current path.
func (s *State) EndCaptures() []int {
	return s.endCapture
}

// ForceEndCaptures returns the groups whose end is always recorded on entry.
func (s *State) ForceEndCaptures() []int {
	return s.forceEndCapture
}

// Assertion returns the state's assertion, or nil.
func (s *State) Assertion() *Assertion {
	return s.assertion
}

// String returns a human-readable representation of the state
func (s *State) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "State(%d", s.id)
	if len(s.startCapture) > 0 {
		fmt.Fprintf(&sb, " start%v", s.startCapture)
	}
	if len(s.endCapture) > 0 {
		fmt.Fprintf(&sb, " end%v", s.endCapture)
	}
	if len(s.forceEndCapture) > 0 {
		fmt.Fprintf(&sb, " forceEnd%v", s.forceEndCapture)
	}
	if a := s.assertion; a != nil {
		fmt.Fprintf(&sb, " assert(consumes=%t positive=%t ahead=%t limit=%d inner=%d..%d) -> %d",
			a.ConsumesInput, a.Positive, a.Ahead, a.Limit, a.Inner.Start, a.Inner.Accept, a.Continuation)
	}
	for _, t := range s.transitions {
		fmt.Fprintf(&sb, " %s->%d", t.Matcher.String(), t.Next)
	}
	sb.WriteByte(')')
	return sb.String()
}

// NFA is a compiled pattern. It is immutable and safe for concurrent use.
type NFA struct {
	// states contains all NFA states indexed by StateID
	states []State

	start  StateID
	accept StateID

	// captureCount includes group 0
	captureCount int

	hasBackrefs bool
	pattern     string
}

// Start returns the start state of the whole pattern.
func (n *NFA) Start() StateID {
	return n.start
}

// Accept returns the accepting state of the whole pattern.
func (n *NFA) Accept() StateID {
	return n.accept
}

// State returns the state with the given ID, or nil if the ID is invalid.
func (n *NFA) State(id StateID) *State {
	if int(id) >= len(n.states) {
		return nil
	}
	return &n.states[id]
}

// States returns the total number of states.
func (n *NFA) States() int {
	return len(n.states)
}

// CaptureCount returns the number of capture groups including group 0.
func (n *NFA) CaptureCount() int {
	return n.captureCount
}

// HasBackrefs reports whether the pattern uses \1 to \9.
func (n *NFA) HasBackrefs() bool {
	return n.hasBackrefs
}

// Pattern returns the source the NFA was compiled from, if known.
func (n *NFA) Pattern() string {
	return n.pattern
}

// String returns a human-readable dump of the NFA
func (n *NFA) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "NFA{states=%d, start=%d, accept=%d, captures=%d}\n",
		len(n.states), n.start, n.accept, n.captureCount)
	for i := range n.states {
		sb.WriteString("  ")
		sb.WriteString(n.states[i].String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
