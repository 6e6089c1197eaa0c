package nfa

import (
	"fmt"

	"github.com/coregx/vimre/internal/conv"
	"github.com/coregx/vimre/internal/sparse"
)

// Builder constructs NFAs incrementally. It owns the state arena; the
// combinators operate on Fragments by index and never copy states.
type Builder struct {
	states []State
	start  StateID
	accept StateID
}

// NewBuilder creates a new NFA builder with default capacity
func NewBuilder() *Builder {
	return NewBuilderWithCapacity(16)
}

// NewBuilderWithCapacity creates a new NFA builder with specified initial capacity
func NewBuilderWithCapacity(capacity int) *Builder {
	return &Builder{
		states: make([]State, 0, capacity),
		start:  InvalidState,
		accept: InvalidState,
	}
}

// AddState adds a state with no transitions and returns its ID
func (b *Builder) AddState() StateID {
	id := StateID(conv.IntToUint32(len(b.states)))
	b.states = append(b.states, State{id: id})
	return id
}

// AddTransition appends a transition to from. Later transitions have lower
// priority.
func (b *Builder) AddTransition(from StateID, m Matcher, to StateID) {
	s := &b.states[from]
	s.transitions = append(s.transitions, Transition{Matcher: m, Next: to})
}

func (b *Builder) addEpsilon(from, to StateID) {
	b.AddTransition(from, Epsilon(), to)
}

// MarkStart records group's start position on entry to id.
func (b *Builder) MarkStart(id StateID, group int) {
	s := &b.states[id]
	s.startCapture = append(s.startCapture, group)
}

// MarkEnd records group's end position on entry to id. A forced end always
// wins over a soft end of the same group later on the path.
func (b *Builder) MarkEnd(id StateID, group int, force bool) {
	s := &b.states[id]
	if force {
		s.forceEndCapture = append(s.forceEndCapture, group)
		return
	}
	s.endCapture = append(s.endCapture, group)
}

// Epsilon returns a single-state fragment matching the empty string.
func (b *Builder) Epsilon() Fragment {
	s := b.AddState()
	return Fragment{Start: s, Accept: s}
}

// Single returns a two-state fragment joined by one transition.
func (b *Builder) Single(m Matcher) Fragment {
	start := b.AddState()
	accept := b.AddState()
	b.AddTransition(start, m, accept)
	return Fragment{Start: start, Accept: accept}
}

// Concatenate splices a.Accept into b2.Start.
func (b *Builder) Concatenate(a, b2 Fragment) Fragment {
	b.addEpsilon(a.Accept, b2.Start)
	return Fragment{Start: a.Start, Accept: b2.Accept}
}

// Unify returns a fragment that tries a, then b2.
func (b *Builder) Unify(a, b2 Fragment) Fragment {
	start := b.AddState()
	accept := b.AddState()
	b.addEpsilon(start, a.Start)
	b.addEpsilon(start, b2.Start)
	b.addEpsilon(a.Accept, accept)
	b.addEpsilon(b2.Accept, accept)
	return Fragment{Start: start, Accept: accept}
}

// Closure returns a fragment matching a zero or more times. When greedy the
// loop body is preferred over the exit, otherwise the exit is preferred.
func (b *Builder) Closure(a Fragment, greedy bool) Fragment {
	start := b.AddState()
	accept := b.AddState()
	b.branch(start, a.Start, accept, greedy)
	b.branch(a.Accept, a.Start, accept, greedy)
	return Fragment{Start: start, Accept: accept}
}

// Optional returns a fragment matching a zero or one time.
func (b *Builder) Optional(a Fragment, greedy bool) Fragment {
	start := b.AddState()
	accept := b.AddState()
	b.branch(start, a.Start, accept, greedy)
	b.addEpsilon(a.Accept, accept)
	return Fragment{Start: start, Accept: accept}
}

// branch adds epsilon transitions from "from" to body and exit, body first
// when greedy.
func (b *Builder) branch(from, body, exit StateID, greedy bool) {
	if greedy {
		b.addEpsilon(from, body)
		b.addEpsilon(from, exit)
		return
	}
	b.addEpsilon(from, exit)
	b.addEpsilon(from, body)
}

// Capture marks frag as capture group. The end is a forced end when force
// is set.
func (b *Builder) Capture(group int, frag Fragment, force bool) Fragment {
	b.MarkStart(frag.Start, group)
	b.MarkEnd(frag.Accept, group, force)
	return frag
}

// Assert wraps frag in a lookaround or atomic group. The returned fragment's
// start carries the assertion and its accept is the continuation.
func (b *Builder) Assert(frag Fragment, consumes, positive, ahead bool, limit int) Fragment {
	start := b.AddState()
	accept := b.AddState()
	b.states[start].assertion = &Assertion{
		ConsumesInput: consumes,
		Positive:      positive,
		Ahead:         ahead,
		Inner:         frag,
		Continuation:  accept,
		Limit:         limit,
	}
	return Fragment{Start: start, Accept: accept}
}

// SetFragment sets the start and accept states of the whole pattern.
func (b *Builder) SetFragment(frag Fragment) {
	b.start = frag.Start
	b.accept = frag.Accept
}

// States returns the current number of states
func (b *Builder) States() int {
	return len(b.states)
}

// Validate checks that the NFA is well-formed:
// - start and accept states are set and in range
// - every transition, continuation and inner fragment refers to a valid state
// - every state is reachable from the start, directly or through an
//   assertion's inner fragment
func (b *Builder) Validate() error {
	n := len(b.states)
	if b.start == InvalidState || b.accept == InvalidState {
		return &BuildError{Message: "start or accept state not set", StateID: InvalidState}
	}
	if int(b.start) >= n || int(b.accept) >= n {
		return &BuildError{Message: "start or accept state out of bounds", StateID: InvalidState}
	}

	for i := range b.states {
		s := &b.states[i]
		for j, t := range s.transitions {
			if int(t.Next) >= n {
				return &BuildError{
					Message: fmt.Sprintf("invalid transition %d target %d", j, t.Next),
					StateID: s.id,
				}
			}
		}
		if a := s.assertion; a != nil {
			if len(s.transitions) > 0 {
				return &BuildError{Message: "assertion state has transitions", StateID: s.id}
			}
			if int(a.Continuation) >= n || int(a.Inner.Start) >= n || int(a.Inner.Accept) >= n {
				return &BuildError{Message: "invalid assertion target", StateID: s.id}
			}
		}
	}

	seen := sparse.NewSparseSet(conv.IntToUint32(n))
	seen.Insert(uint32(b.start))
	for i := 0; i < seen.Len(); i++ {
		s := &b.states[seen.At(i)]
		for _, t := range s.transitions {
			seen.Insert(uint32(t.Next))
		}
		if a := s.assertion; a != nil {
			seen.Insert(uint32(a.Inner.Start))
			seen.Insert(uint32(a.Continuation))
		}
	}
	if seen.Len() != n {
		for i := range b.states {
			if !seen.Contains(uint32(i)) {
				return &BuildError{Message: "unreachable state", StateID: b.states[i].id}
			}
		}
	}
	return nil
}

// Build validates and returns the constructed NFA.
func (b *Builder) Build(opts ...BuildOption) (*NFA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	nfa := &NFA{
		states:       b.states,
		start:        b.start,
		accept:       b.accept,
		captureCount: 1,
	}
	for _, opt := range opts {
		opt(nfa)
	}
	return nfa, nil
}

// BuildOption is a functional option for configuring the built NFA
type BuildOption func(*NFA)

// WithCaptureCount sets the number of capture groups, including group 0
func WithCaptureCount(count int) BuildOption {
	return func(n *NFA) {
		n.captureCount = count
	}
}

// WithBackrefs records that the pattern uses back-references
func WithBackrefs(has bool) BuildOption {
	return func(n *NFA) {
		n.hasBackrefs = has
	}
}

// WithPattern records the source pattern
func WithPattern(pattern string) BuildOption {
	return func(n *NFA) {
		n.pattern = pattern
	}
}
