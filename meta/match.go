package meta

import (
	"strings"

	"github.com/coregx/vimre/nfa"
)

// Match represents a successful match with its capture groups.
//
// Positions are character indices of the searched nfa.Input. Group 0 is the
// whole match as delimited by \zs and \ze; groups 1 to 9 are the \( groups
// in the order of their opening \(.
//
// Example:
//
//	m, _ := engine.FindAt(ctx, nfa.Runes([]rune("test foo123 end")), 0)
//	println(m.Start(), m.End()) // 5, 11
type Match struct {
	spans []int
}

// newMatch wraps the captures reported by the backtracker.
func newMatch(caps *nfa.Captures) *Match {
	return &Match{spans: caps.Spans()}
}

// NewMatch creates a Match of a single group from start and end positions.
func NewMatch(start, end int) *Match {
	return &Match{spans: []int{start, end}}
}

// Start returns the inclusive start position of the match.
func (m *Match) Start() int {
	return m.spans[0]
}

// End returns the exclusive end position of the match.
func (m *Match) End() int {
	return m.spans[1]
}

// Len returns the length of the match in characters.
func (m *Match) Len() int {
	return m.spans[1] - m.spans[0]
}

// IsEmpty returns true if the match has zero length.
func (m *Match) IsEmpty() bool {
	return m.Len() == 0
}

// Contains returns true if the position is within the match range [Start, End).
func (m *Match) Contains(pos int) bool {
	return pos >= m.spans[0] && pos < m.spans[1]
}

// NumGroups returns the number of groups including group 0.
func (m *Match) NumGroups() int {
	return len(m.spans) / 2
}

// Group returns the span of group i. ok is false when the group did not
// take part in the match or does not exist.
func (m *Match) Group(i int) (start, end int, ok bool) {
	if i < 0 || 2*i+1 >= len(m.spans) || m.spans[2*i] < 0 {
		return -1, -1, false
	}
	return m.spans[2*i], m.spans[2*i+1], true
}

// Spans returns the raw spans, two per group, -1 for absent groups.
// The slice must not be modified.
func (m *Match) Spans() []int {
	return m.spans
}

// Text returns the characters of group i read from in, or "" when the
// group is absent.
func (m *Match) Text(in nfa.Input, i int) string {
	start, end, ok := m.Group(i)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for p := start; p < end; p++ {
		sb.WriteRune(in.At(p))
	}
	return sb.String()
}
