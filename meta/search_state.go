package meta

import (
	"context"
	"sync"

	"github.com/coregx/vimre/nfa"
)

// abortCheckInterval is how many state entries pass between two polls of
// the search context.
const abortCheckInterval = 1024

// SearchState holds per-search mutable state for thread-safe concurrent searches.
// This struct should be obtained from a sync.Pool to enable safe concurrent usage
// of the same compiled Engine from multiple goroutines.
//
// Usage pattern:
//
//	state := engine.getSearchState(ctx)
//	defer engine.putSearchState(state)
//	// use state for search operations
//
// Thread safety: Each goroutine must use its own SearchState instance.
// The SearchState itself is NOT thread-safe - it must not be shared between goroutines.
type SearchState struct {
	// backtracker holds the scratch space of the backtracking engine.
	backtracker *nfa.BacktrackerState

	// ctx is the context of the running search; nil between searches.
	ctx   context.Context
	polls int

	// abortFn is the bound abort method, allocated once per state.
	abortFn func() bool
}

// newSearchState creates a new SearchState.
func newSearchState() *SearchState {
	s := &SearchState{
		backtracker: nfa.NewBacktrackerState(),
	}
	s.abortFn = s.abort
	return s
}

// bind attaches the context of the next search. Contexts that can never be
// cancelled install no hook.
func (s *SearchState) bind(ctx context.Context) {
	s.polls = 0
	if ctx == nil || ctx.Done() == nil {
		s.ctx = nil
		s.backtracker.Abort = nil
		return
	}
	s.ctx = ctx
	s.backtracker.Abort = s.abortFn
}

// abort polls the context every abortCheckInterval state entries.
func (s *SearchState) abort() bool {
	s.polls++
	if s.polls%abortCheckInterval != 0 {
		return false
	}
	return s.ctx.Err() != nil
}

// reset prepares the SearchState for reuse.
// Called when returning state to the pool.
func (s *SearchState) reset() {
	s.ctx = nil
	s.polls = 0
	s.backtracker.Abort = nil
}

// searchStatePool manages a pool of SearchState instances for thread-safe reuse.
// This follows the stdlib regexp pattern of using sync.Pool for concurrent safety.
type searchStatePool struct {
	pool sync.Pool
}

// newSearchStatePool creates an empty pool.
func newSearchStatePool() *searchStatePool {
	p := &searchStatePool{}
	p.pool = sync.Pool{
		New: func() any {
			return newSearchState()
		},
	}
	return p
}

// get retrieves a SearchState from the pool, creating one if necessary.
func (p *searchStatePool) get() *SearchState {
	return p.pool.Get().(*SearchState)
}

// put returns a SearchState to the pool for reuse.
func (p *searchStatePool) put(state *SearchState) {
	if state == nil {
		return
	}
	state.reset()
	p.pool.Put(state)
}
