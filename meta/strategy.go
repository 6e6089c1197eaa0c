package meta

import (
	"github.com/coregx/vimre/syntax"
)

// Strategy represents the execution strategy for unanchored search.
//
// The engine chooses between:
//   - UseBacktracker: attempt the automaton at every start position
//   - UsePrefilter: attempt only where a prefix literal occurs
//   - UseAnchored: attempt only at the start of the text
//
// Strategy selection is automatic based on pattern analysis.
type Strategy int

const (
	// UseBacktracker tries every position from left to right.
	// Selected for:
	//   - Patterns without required prefix literals (\d\+, .*, \(a\|\))
	//   - Case-insensitive patterns, whose literals have several spellings
	//   - When EnablePrefilter is false in config
	UseBacktracker Strategy = iota

	// UsePrefilter jumps between candidate positions reported by a literal
	// scan (memchr, memmem, Aho-Corasick) and attempts the automaton there.
	// Selected for:
	//   - Patterns where every match starts with one of a few literals
	//   - Not start-anchored
	UsePrefilter

	// UseAnchored makes a single attempt at the start of the text.
	// Selected for:
	//   - Patterns where every alternative begins with \%^
	UseAnchored
)

// String returns a human-readable representation of the Strategy.
func (s Strategy) String() string {
	switch s {
	case UseBacktracker:
		return "UseBacktracker"
	case UsePrefilter:
		return "UsePrefilter"
	case UseAnchored:
		return "UseAnchored"
	default:
		return "Unknown"
	}
}

// selectStrategy picks the strategy for a compiled pattern.
func selectStrategy(pat *syntax.Pattern, hasPrefilter bool) Strategy {
	if isStartAnchored(pat) {
		return UseAnchored
	}
	if hasPrefilter {
		return UsePrefilter
	}
	return UseBacktracker
}

// isStartAnchored reports whether every alternative can only match at the
// start of the text. A branch qualifies when one of its \& concats begins
// with a bare \%^, since all of them match at the same position.
func isStartAnchored(pat *syntax.Pattern) bool {
	if pat == nil || pat.Sub == nil || len(pat.Sub.Branches) == 0 {
		return false
	}
	for _, br := range pat.Sub.Branches {
		if !branchStartAnchored(br) {
			return false
		}
	}
	return true
}

func branchStartAnchored(br *syntax.Branch) bool {
	if br == nil {
		return false
	}
	for _, c := range br.Concats {
		if c == nil || len(c.Pieces) == 0 {
			continue
		}
		p := c.Pieces[0]
		if p.Multi != nil {
			continue
		}
		if b, ok := p.Atom.(*syntax.Boundary); ok && b.Boundary == syntax.BoundaryTextStart {
			return true
		}
	}
	return false
}
