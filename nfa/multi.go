package nfa

import (
	"fmt"
	"strconv"

	"github.com/coregx/vimre/syntax"
)

// Infinite is the Max of an unbounded MultiDelimiter.
const Infinite = -1

// MultiDelimiter is a normalized quantifier: between Min and Max repetitions
// (Max == Infinite for no upper bound), preferring more when Greedy is set.
type MultiDelimiter struct {
	Min    int
	Max    int
	Greedy bool
}

// CompileMulti normalizes *, \+, \=, \? and \{n,m} / \{-n,m}. An absent
// lower bound is 0, an absent upper bound after a comma is infinite and no
// comma means exactly n. As in Vim, \{n,m} with n > m matches between m and n
// with the preference as written.
func CompileMulti(m *syntax.Multi) (MultiDelimiter, error) {
	switch m.Op {
	case syntax.MultiStar:
		return MultiDelimiter{Min: 0, Max: Infinite, Greedy: true}, nil
	case syntax.MultiPlus:
		return MultiDelimiter{Min: 1, Max: Infinite, Greedy: true}, nil
	case syntax.MultiOptional:
		return MultiDelimiter{Min: 0, Max: 1, Greedy: true}, nil
	case syntax.MultiBrace:
		return compileBrace(m)
	}
	return MultiDelimiter{}, fmt.Errorf("%w: %s is not a quantifier", ErrUnsupportedNode, m.Op)
}

func compileBrace(m *syntax.Multi) (MultiDelimiter, error) {
	d := MultiDelimiter{Greedy: !m.Lazy}
	lo, err := parseBound(m.Lower, 0)
	if err != nil {
		return d, err
	}
	d.Min = lo
	switch {
	case m.HasComma:
		d.Max, err = parseBound(m.Upper, Infinite)
	case m.Lower == "":
		// \{} and \{-}
		d.Max = Infinite
	default:
		d.Max = d.Min
	}
	if err != nil {
		return d, err
	}
	if d.Max != Infinite && d.Min > d.Max {
		d.Min, d.Max = d.Max, d.Min
	}
	return d, nil
}

func parseBound(s string, absent int) (int, error) {
	if s == "" {
		return absent, nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidBounds, s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBounds, s)
	}
	return n, nil
}
