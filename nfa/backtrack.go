package nfa

// Backtracker runs an NFA with a depth-first, priority-ordered search. At
// every state the transitions are tried in order and the first derivation
// that reaches the accepting state wins, which gives ordered alternation and
// greedy/lazy multis without any special casing.
//
// The search keeps its choice points on an explicit stack, so the Go stack
// does not grow with the input. Capture updates are written to a trail and
// undone on backtrack.
//
// Looping through empty matches is prevented in one of two ways:
//   - when the pattern has no back-references, a (state, position) bit set
//     prunes every pair that has been explored before: its first visit
//     already failed. Up to MaxVisitedSize bits it is one flat slice; larger
//     searches allocate it in pages on first touch, so memory follows the
//     pairs actually explored
//   - otherwise each state remembers the position it was last entered at on
//     the current path, and re-entering it at the same position is pruned
//
// A Backtracker is immutable and may be shared; all mutable data lives in
// the BacktrackerState passed to each call.
type Backtracker struct {
	nfa *NFA

	// maxVisitedSize limits the flat memo bit set (in bits); 0 disables
	// memoization
	// Default: 256 * 1024 * 8 = 2M bits = 256KB
	maxVisitedSize int

	// maxSteps bounds the number of state entries per call; 0 means no limit
	maxSteps int
}

// BacktrackerConfig configures a Backtracker.
type BacktrackerConfig struct {
	MaxVisitedSize int
	MaxSteps       int
}

// DefaultBacktrackerConfig returns the default limits.
func DefaultBacktrackerConfig() BacktrackerConfig {
	return BacktrackerConfig{
		MaxVisitedSize: 256 * 1024 * 8,
		MaxSteps:       0,
	}
}

// NewBacktracker creates a backtracker with the default configuration.
func NewBacktracker(nfa *NFA) *Backtracker {
	return NewBacktrackerWithConfig(nfa, DefaultBacktrackerConfig())
}

// NewBacktrackerWithConfig creates a backtracker with the given limits.
func NewBacktrackerWithConfig(nfa *NFA, config BacktrackerConfig) *Backtracker {
	return &Backtracker{
		nfa:            nfa,
		maxVisitedSize: config.MaxVisitedSize,
		maxSteps:       config.MaxSteps,
	}
}

// NFA returns the automaton the backtracker runs.
func (b *Backtracker) NFA() *NFA {
	return b.nfa
}

// CanMemoize reports whether searches use the (state, position) bit set.
func (b *Backtracker) CanMemoize() bool {
	return !b.nfa.hasBackrefs && b.maxVisitedSize > 0
}

// usesPages reports whether the memo of an input of the given length is
// too large for the flat bit set.
func (b *Backtracker) usesPages(inputLen int) bool {
	return b.nfa.States()*(inputLen+1) > b.maxVisitedSize
}

const (
	pageShift = 15 // 32K bits per page
	pageWords = 1 << pageShift / 64
	pageMask  = 1<<pageShift - 1
)

type trailKind uint8

const (
	trailCapture trailKind = iota
	trailForced
	trailGuard
)

// trailEntry records the previous value of one slot.
type trailEntry struct {
	kind   trailKind
	idx    int
	old    int
	oldRun uint32
}

// frame is a choice point: the transitions of state from index next on are
// still to be tried at pos.
type frame struct {
	state StateID
	pos   int
	next  int
	mark  int // trail length when the state was entered
}

// BacktrackerState holds the scratch space of one search. It may be reused
// across calls but not shared between goroutines.
type BacktrackerState struct {
	// Abort is consulted at every state entry; returning true stops the
	// search with ErrAborted.
	Abort func() bool

	caps   []int
	forced []bool
	trail  []trailEntry
	stack  []frame

	visited  []uint64
	pages    [][]uint64 // paged bit set; nil pages were never touched
	spare    [][]uint64 // cleared pages for reuse
	useMemo  bool
	paged    bool
	inputLen int

	lastPos []int
	lastRun []uint32
	run     uint32

	steps int
}

// NewBacktrackerState returns an empty search state.
func NewBacktrackerState() *BacktrackerState {
	return &BacktrackerState{}
}

// Steps returns the number of state entries of the last call.
func (s *BacktrackerState) Steps() int {
	return s.steps
}

// reset prepares the state for a search of in.
func (b *Backtracker) reset(st *BacktrackerState, in Input) {
	n := in.Len()
	numStates := b.nfa.States()
	st.inputLen = n
	st.steps = 0
	st.useMemo = b.CanMemoize()
	st.paged = st.useMemo && b.usesPages(n)
	st.releasePages()

	switch {
	case st.paged:
		count := (numStates*(n+1) + pageMask) >> pageShift
		if cap(st.pages) >= count {
			st.pages = st.pages[:count]
		} else {
			st.pages = make([][]uint64, count)
		}
	case st.useMemo:
		words := (numStates*(n+1) + 63) / 64
		if cap(st.visited) >= words {
			st.visited = st.visited[:words]
			clear(st.visited)
		} else {
			st.visited = make([]uint64, words)
		}
	}

	if cap(st.lastPos) >= numStates {
		st.lastPos = st.lastPos[:numStates]
		st.lastRun = st.lastRun[:numStates]
	} else {
		st.lastPos = make([]int, numStates)
		st.lastRun = make([]uint32, numStates)
	}
	// run ids start at 1 so zeroed entries never match
	clear(st.lastRun)
	st.run = 0

	slots := 2 * b.nfa.captureCount
	if cap(st.caps) >= slots {
		st.caps = st.caps[:slots]
		st.forced = st.forced[:b.nfa.captureCount]
	} else {
		st.caps = make([]int, slots)
		st.forced = make([]bool, b.nfa.captureCount)
	}
}

// releasePages clears the touched pages of the previous search and keeps
// them for reuse.
func (st *BacktrackerState) releasePages() {
	for i, page := range st.pages {
		if page != nil {
			clear(page)
			st.spare = append(st.spare, page)
			st.pages[i] = nil
		}
	}
}

// shouldVisit checks if (state, pos) has been visited and marks it if not.
func (st *BacktrackerState) shouldVisit(state StateID, pos int) bool {
	idx := int(state)*(st.inputLen+1) + pos
	words := st.visited
	if st.paged {
		words = st.page(idx >> pageShift)
		idx &= pageMask
	}
	word := idx / 64
	bit := uint64(1) << (idx % 64)
	if words[word]&bit != 0 {
		return false
	}
	words[word] |= bit
	return true
}

// page returns page i of the paged bit set, allocating it on first use.
func (st *BacktrackerState) page(i int) []uint64 {
	if page := st.pages[i]; page != nil {
		return page
	}
	var page []uint64
	if k := len(st.spare); k > 0 {
		page = st.spare[k-1]
		st.spare = st.spare[:k-1]
	} else {
		page = make([]uint64, pageWords)
	}
	st.pages[i] = page
	return page
}

func (st *BacktrackerState) setCapture(slot, pos int) {
	st.trail = append(st.trail, trailEntry{kind: trailCapture, idx: slot, old: st.caps[slot]})
	st.caps[slot] = pos
}

func (st *BacktrackerState) setForced(group int) {
	old := 0
	if st.forced[group] {
		old = 1
	}
	st.trail = append(st.trail, trailEntry{kind: trailForced, idx: group, old: old})
	st.forced[group] = true
}

// undo restores every slot changed since the trail had length mark.
func (st *BacktrackerState) undo(mark int) {
	for i := len(st.trail) - 1; i >= mark; i-- {
		e := &st.trail[i]
		switch e.kind {
		case trailCapture:
			st.caps[e.idx] = e.old
		case trailForced:
			st.forced[e.idx] = e.old != 0
		case trailGuard:
			st.lastPos[e.idx] = e.old
			st.lastRun[e.idx] = e.oldRun
		}
	}
	st.trail = st.trail[:mark]
}

// Match runs an anchored attempt at position at and returns the captures of
// the first derivation in priority order, or nil when there is none. A
// position outside [0, in.Len()] never matches and is not an error.
// ErrStepLimit and ErrAborted report a search stopped early.
func (b *Backtracker) Match(st *BacktrackerState, in Input, at int) (*Captures, error) {
	if at < 0 || at > in.Len() {
		return nil, nil
	}
	b.reset(st, in)
	return b.attempt(st, in, at)
}

// Search returns the match starting at the smallest position >= at. next,
// when not nil, returns the first candidate start >= pos, or -1 when no
// later position can start a match; it lets a prefilter skip positions.
// The memo bit set is shared by all attempts: a (state, position) pair that
// failed from one start fails from every other.
func (b *Backtracker) Search(st *BacktrackerState, in Input, at int, next func(pos int) int) (*Captures, error) {
	n := in.Len()
	if at < 0 || at > n {
		return nil, nil
	}
	b.reset(st, in)
	for pos := at; pos <= n; pos++ {
		if next != nil {
			pos = next(pos)
			if pos < 0 || pos > n {
				return nil, nil
			}
		}
		caps, err := b.attempt(st, in, pos)
		if err != nil || caps != nil {
			return caps, err
		}
	}
	return nil, nil
}

func (b *Backtracker) attempt(st *BacktrackerState, in Input, pos int) (*Captures, error) {
	for i := range st.caps {
		st.caps[i] = -1
	}
	clear(st.forced)
	st.trail = st.trail[:0]
	st.stack = st.stack[:0]

	_, ok, err := b.run(st, in, b.nfa.start, pos, b.nfa.accept, -1, st.useMemo)
	if err != nil || !ok {
		return nil, err
	}
	return newCaptures(st.caps), nil
}

// enter performs the bookkeeping of entering state id at pos and reports
// whether the search may continue from there.
func (b *Backtracker) enter(st *BacktrackerState, id StateID, pos int, run uint32, memo bool) (bool, error) {
	st.steps++
	if b.maxSteps > 0 && st.steps > b.maxSteps {
		return false, ErrStepLimit
	}
	if st.Abort != nil && st.Abort() {
		return false, ErrAborted
	}
	if memo {
		if !st.shouldVisit(id, pos) {
			return false, nil
		}
	} else {
		if st.lastRun[id] == run && st.lastPos[id] == pos {
			return false, nil
		}
		st.trail = append(st.trail, trailEntry{kind: trailGuard, idx: int(id), old: st.lastPos[id], oldRun: st.lastRun[id]})
		st.lastPos[id] = pos
		st.lastRun[id] = run
	}

	s := &b.nfa.states[id]
	for _, g := range s.startCapture {
		st.setCapture(2*g, pos)
	}
	for _, g := range s.forceEndCapture {
		st.setCapture(2*g+1, pos)
		st.setForced(g)
	}
	for _, g := range s.endCapture {
		if !st.forced[g] {
			st.setCapture(2*g+1, pos)
		}
	}
	return true, nil
}

// firstMatch returns the index of the first transition of s, from index
// from on, whose matcher accepts pos, and the width it consumes.
func firstMatch(s *State, in Input, pos, from int, caps []int) (int, int) {
	for i := from; i < len(s.transitions); i++ {
		if w, ok := s.transitions[i].Matcher.Match(in, pos, caps); ok {
			return i, w
		}
	}
	return -1, 0
}

// run searches from start at pos until accept is entered (at endAt, when
// endAt >= 0). It returns the position accept was entered at. On failure
// every capture change made by the run is undone; on success they are kept.
func (b *Backtracker) run(st *BacktrackerState, in Input, start StateID, pos int, accept StateID, endAt int, memo bool) (int, bool, error) {
	st.run++
	run := st.run
	base := len(st.stack)
	mark := len(st.trail)

	cur, p := start, pos
	for {
		ok, err := b.enter(st, cur, p, run, memo)
		if err != nil {
			st.stack = st.stack[:base]
			return 0, false, err
		}
		if ok {
			if cur == accept && (endAt < 0 || p == endAt) {
				st.stack = st.stack[:base]
				return p, true, nil
			}
			s := &b.nfa.states[cur]
			if a := s.assertion; a != nil {
				np, ok, err := b.assert(st, in, a, p)
				if err != nil {
					st.stack = st.stack[:base]
					return 0, false, err
				}
				if ok {
					cur, p = a.Continuation, np
					continue
				}
			} else if i, w := firstMatch(s, in, p, 0, st.caps); i >= 0 {
				if i+1 < len(s.transitions) {
					st.stack = append(st.stack, frame{state: cur, pos: p, next: i + 1, mark: len(st.trail)})
				}
				cur, p = s.transitions[i].Next, p+w
				continue
			}
		}

		// Backtrack to the most recent choice point with an alternative left.
		resumed := false
		for len(st.stack) > base {
			top := len(st.stack) - 1
			f := st.stack[top]
			st.undo(f.mark)
			s := &b.nfa.states[f.state]
			i, w := firstMatch(s, in, f.pos, f.next, st.caps)
			if i < 0 {
				st.stack = st.stack[:top]
				continue
			}
			if i+1 < len(s.transitions) {
				st.stack[top].next = i + 1
			} else {
				st.stack = st.stack[:top]
			}
			cur, p = s.transitions[i].Next, f.pos+w
			resumed = true
			break
		}
		if !resumed {
			st.undo(mark)
			return 0, false, nil
		}
	}
}

// assert evaluates an assertion at pos and returns the position the
// continuation starts at. Captures of a successful positive assertion are
// kept; a negative assertion never changes them.
func (b *Backtracker) assert(st *BacktrackerState, in Input, a *Assertion, pos int) (int, bool, error) {
	mark := len(st.trail)
	end := pos
	found := false

	if a.Ahead {
		e, ok, err := b.run(st, in, a.Inner.Start, pos, a.Inner.Accept, -1, false)
		if err != nil {
			return 0, false, err
		}
		end, found = e, ok
	} else {
		lo := 0
		if a.Limit > 0 {
			lo = max(0, pos-a.Limit)
		}
		// nearest start first
		for start := pos; start >= lo; start-- {
			_, ok, err := b.run(st, in, a.Inner.Start, start, a.Inner.Accept, pos, false)
			if err != nil {
				return 0, false, err
			}
			if ok {
				found = true
				break
			}
		}
	}

	if found != a.Positive {
		st.undo(mark)
		return 0, false, nil
	}
	if !a.Positive {
		return pos, true, nil
	}
	if a.ConsumesInput {
		return end, true, nil
	}
	return pos, true, nil
}

// Captures holds the spans of a match: group 0 is the whole match, groups 1
// to 9 the \( groups. Positions are character indices of the input.
type Captures struct {
	spans []int
}

// newCaptures copies the raw capture slots. A group is reported only when
// both ends were recorded in order; a \ze placed before \zs yields an empty
// whole match at the start.
func newCaptures(raw []int) *Captures {
	spans := make([]int, len(raw))
	copy(spans, raw)
	if spans[1] < spans[0] {
		spans[1] = spans[0]
	}
	for g := 1; 2*g+1 < len(spans); g++ {
		if spans[2*g] < 0 || spans[2*g+1] < spans[2*g] {
			spans[2*g], spans[2*g+1] = -1, -1
		}
	}
	return &Captures{spans: spans}
}

// Len returns the number of groups, including group 0.
func (c *Captures) Len() int {
	return len(c.spans) / 2
}

// Group returns the span of group i. ok is false when the group did not
// take part in the match.
func (c *Captures) Group(i int) (start, end int, ok bool) {
	if i < 0 || 2*i+1 >= len(c.spans) || c.spans[2*i] < 0 {
		return -1, -1, false
	}
	return c.spans[2*i], c.spans[2*i+1], true
}

// Start returns the start of the whole match.
func (c *Captures) Start() int {
	return c.spans[0]
}

// End returns the end of the whole match.
func (c *Captures) End() int {
	return c.spans[1]
}

// Spans returns the raw spans, two per group, -1 for absent groups. The
// slice must not be modified.
func (c *Captures) Spans() []int {
	return c.spans
}
