package meta

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/coregx/vimre/internal/conv"
	"github.com/coregx/vimre/nfa"
	"github.com/coregx/vimre/prefilter"
)

// Engine is a compiled pattern ready for matching.
//
// The engine owns:
//   - the NFA and its Backtracker (immutable, shared)
//   - optional byte and rune prefilters for unanchored search
//   - a pool of search states, so an Engine is safe for concurrent use
//
// Example:
//
//	engine, _ := meta.Compile(`foo\d\+`)
//	m, err := engine.FindAt(ctx, nfa.Bytes("test foo123 end"), 0)
//	if err == nil && m != nil {
//	    println(m.Start(), m.End()) // 5, 11
//	}
type Engine struct {
	// Statistics (useful for debugging and tuning)
	// IMPORTANT: stats MUST be first field for proper 8-byte alignment on 32-bit platforms.
	// This ensures atomic operations on uint64 fields work correctly.
	stats Stats

	nfa           *nfa.NFA
	backtracker   *nfa.Backtracker
	prefilter     prefilter.Prefilter
	runePrefilter prefilter.RunePrefilter
	strategy      Strategy
	config        Config

	// foldCase is the resolved case sensitivity of the pattern.
	foldCase bool

	// isStartAnchored is true if every alternative begins with \%^.
	isStartAnchored bool

	// statePool provides thread-safe pooling of per-search mutable state.
	statePool *searchStatePool
}

// Stats tracks execution statistics for performance analysis.
type Stats struct {
	// Searches counts MatchAt and FindAt calls
	Searches uint64

	// Steps counts state entries of the backtracker over all searches
	Steps uint64

	// PrefilterCandidates counts candidate positions reported by prefilters
	PrefilterCandidates uint64

	// PrefilterAbandoned counts searches where the prefilter was retired
	// because candidates were too dense
	PrefilterAbandoned uint64

	// Aborted counts searches stopped by their context
	Aborted uint64

	// StepLimited counts searches stopped by MaxSteps
	StepLimited uint64
}

// Strategy returns the execution strategy selected for this engine.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// IsStartAnchored returns true if the pattern can only match at the start
// of the text (every alternative begins with \%^).
func (e *Engine) IsStartAnchored() bool {
	return e.isStartAnchored
}

// FoldCase reports whether letters match either case, after applying \c,
// \C and the case options of the config.
func (e *Engine) FoldCase() bool {
	return e.foldCase
}

// Stats returns execution statistics.
func (e *Engine) Stats() Stats {
	return Stats{
		Searches:            atomic.LoadUint64(&e.stats.Searches),
		Steps:               atomic.LoadUint64(&e.stats.Steps),
		PrefilterCandidates: atomic.LoadUint64(&e.stats.PrefilterCandidates),
		PrefilterAbandoned:  atomic.LoadUint64(&e.stats.PrefilterAbandoned),
		Aborted:             atomic.LoadUint64(&e.stats.Aborted),
		StepLimited:         atomic.LoadUint64(&e.stats.StepLimited),
	}
}

// ResetStats resets execution statistics to zero.
func (e *Engine) ResetStats() {
	atomic.StoreUint64(&e.stats.Searches, 0)
	atomic.StoreUint64(&e.stats.Steps, 0)
	atomic.StoreUint64(&e.stats.PrefilterCandidates, 0)
	atomic.StoreUint64(&e.stats.PrefilterAbandoned, 0)
	atomic.StoreUint64(&e.stats.Aborted, 0)
	atomic.StoreUint64(&e.stats.StepLimited, 0)
}

// NumCaptures returns the number of capture groups in the pattern.
// Group 0 is the entire match, groups 1+ are \( captures.
func (e *Engine) NumCaptures() int {
	return e.nfa.CaptureCount()
}

// NFA returns the compiled automaton.
func (e *Engine) NFA() *nfa.NFA {
	return e.nfa
}

// Pattern returns the source pattern.
func (e *Engine) Pattern() string {
	return e.nfa.Pattern()
}

// getSearchState retrieves a SearchState from the pool bound to ctx.
func (e *Engine) getSearchState(ctx context.Context) *SearchState {
	state := e.statePool.get()
	state.bind(ctx)
	return state
}

// putSearchState returns a SearchState to the pool.
func (e *Engine) putSearchState(state *SearchState) {
	e.statePool.put(state)
}

// MatchAt runs an anchored attempt at position at: the match, if any, is
// the first derivation in priority order whose attempt starts at at. A
// position outside [0, in.Len()] never matches.
//
// The search stops with an error wrapping nfa.ErrAborted when ctx is done,
// or nfa.ErrStepLimit when MaxSteps is exceeded. No match is (nil, nil).
func (e *Engine) MatchAt(ctx context.Context, in nfa.Input, at int) (*Match, error) {
	if err := e.checkContext(ctx); err != nil {
		return nil, err
	}
	state := e.getSearchState(ctx)
	defer e.putSearchState(state)

	atomic.AddUint64(&e.stats.Searches, 1)
	caps, err := e.backtracker.Match(state.backtracker, in, at)
	return e.finish(ctx, state, caps, err)
}

// FindAt returns the leftmost match whose attempt starts at or after at.
// Errors are reported as for MatchAt.
func (e *Engine) FindAt(ctx context.Context, in nfa.Input, at int) (*Match, error) {
	if err := e.checkContext(ctx); err != nil {
		return nil, err
	}
	if e.strategy == UseAnchored && at > 0 {
		return nil, nil
	}
	state := e.getSearchState(ctx)
	defer e.putSearchState(state)

	atomic.AddUint64(&e.stats.Searches, 1)
	switch e.strategy {
	case UseAnchored:
		caps, err := e.backtracker.Match(state.backtracker, in, at)
		return e.finish(ctx, state, caps, err)

	case UsePrefilter:
		tracker := e.newTracker(in)
		if tracker == nil {
			break
		}
		caps, err := e.backtracker.Search(state.backtracker, in, at, tracker.Next)
		candidates, _, active := tracker.Stats()
		atomic.AddUint64(&e.stats.PrefilterCandidates, candidates)
		if !active {
			atomic.AddUint64(&e.stats.PrefilterAbandoned, 1)
		}
		return e.finish(ctx, state, caps, err)
	}

	caps, err := e.backtracker.Search(state.backtracker, in, at, nil)
	return e.finish(ctx, state, caps, err)
}

// IsMatch reports whether the pattern matches anywhere in in.
func (e *Engine) IsMatch(ctx context.Context, in nfa.Input) (bool, error) {
	m, err := e.FindAt(ctx, in, 0)
	return m != nil, err
}

// FindAll returns successive non-overlapping matches, at most n of them
// (all when n < 0). After an empty match the next search starts one
// character later, and an empty match where the previous match ended is
// skipped. The matches found before an error are returned with it.
func (e *Engine) FindAll(ctx context.Context, in nfa.Input, n int) ([]*Match, error) {
	if n == 0 {
		return nil, nil
	}
	var matches []*Match
	pos, prevEnd := 0, -1
	for pos <= in.Len() {
		m, err := e.FindAt(ctx, in, pos)
		if err != nil {
			return matches, err
		}
		if m == nil {
			break
		}
		if m.IsEmpty() && m.Start() == prevEnd {
			pos = m.Start() + 1
			continue
		}
		matches = append(matches, m)
		if n > 0 && len(matches) == n {
			break
		}
		prevEnd = m.End()
		if m.IsEmpty() {
			pos = m.End() + 1
		} else {
			pos = m.End()
		}
	}
	return matches, nil
}

// newTracker wraps the prefilter matching the input representation, or
// returns nil when the input has none.
func (e *Engine) newTracker(in nfa.Input) *prefilter.Tracker {
	switch text := in.(type) {
	case nfa.Bytes:
		if e.prefilter == nil {
			return nil
		}
		pf := e.prefilter
		return prefilter.NewTracker(func(pos int) int {
			return pf.Find(text, pos)
		})
	case nfa.Runes:
		if e.runePrefilter == nil {
			return nil
		}
		pf := e.runePrefilter
		return prefilter.NewTracker(func(pos int) int {
			return pf.Find(text, pos)
		})
	}
	return nil
}

// checkContext fails fast when ctx is already done.
func (e *Engine) checkContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		atomic.AddUint64(&e.stats.Aborted, 1)
		return fmt.Errorf("%w: %w", nfa.ErrAborted, err)
	}
	return nil
}

// finish records the statistics of a search and converts its result.
func (e *Engine) finish(ctx context.Context, state *SearchState, caps *nfa.Captures, err error) (*Match, error) {
	atomic.AddUint64(&e.stats.Steps, conv.IntToUint64(state.backtracker.Steps()))
	if err != nil {
		switch {
		case errors.Is(err, nfa.ErrAborted):
			atomic.AddUint64(&e.stats.Aborted, 1)
			if ctx != nil && ctx.Err() != nil {
				err = fmt.Errorf("%w: %w", nfa.ErrAborted, ctx.Err())
			}
		case errors.Is(err, nfa.ErrStepLimit):
			atomic.AddUint64(&e.stats.StepLimited, 1)
		}
		return nil, err
	}
	if caps == nil {
		return nil, nil
	}
	return newMatch(caps), nil
}
