// Package literal provides types and operations for representing and manipulating
// literal character sequences extracted from Vim patterns.
//
// The primary use case is prefiltering: by extracting the literals every match
// must begin with (e.g., "foo" from foo.*bar), an unanchored search can skip
// straight to the positions where a match could start instead of attempting
// the automaton at every character.
//
// Key concepts:
//   - A Literal is a concrete character sequence that every match (or a set of
//     matches) starts with
//   - A Seq is a set of alternative literals (e.g., from alternations like foo\|bar)
//   - Minimize drops literals made redundant by a shorter prefix
package literal

import (
	"sort"
	"strings"
)

// Literal represents a literal character sequence extracted from a pattern.
// The Complete flag indicates whether the literal is a whole match (true) or
// only a prefix of potential matches (false).
//
// Example:
//   - Pattern hello → Literal{"hello", true}
//   - Pattern hello.*world → Literal{"hello", false}
type Literal struct {
	// Runes contains the literal characters.
	Runes []rune

	// Complete indicates whether this literal represents the entire match.
	Complete bool
}

// NewLiteral creates a new Literal from the given characters and completeness flag.
func NewLiteral(r []rune, complete bool) Literal {
	return Literal{
		Runes:    r,
		Complete: complete,
	}
}

// Len returns the length of the literal in characters.
func (l Literal) Len() int {
	return len(l.Runes)
}

// Bytes returns the UTF-8 encoding of the literal.
func (l Literal) Bytes() []byte {
	return []byte(string(l.Runes))
}

// String returns a string representation of the literal for debugging purposes.
// Format: "literal{text, complete=true/false}"
//
// Example:
//
//	lit := literal.NewLiteral([]rune("test"), true)
//	fmt.Println(lit.String()) // Output: literal{test, complete=true}
func (l Literal) String() string {
	complete := "false"
	if l.Complete {
		complete = "true"
	}
	return "literal{" + string(l.Runes) + ", complete=" + complete + "}"
}

// Seq represents a set of alternative literals. Any match of the pattern it was
// extracted from starts with one of them.
//
// Example:
//
//	seq := literal.NewSeq(
//	    literal.NewLiteral([]rune("foo"), true),
//	    literal.NewLiteral([]rune("bar"), true),
//	)
//	fmt.Printf("Sequence has %d literals\n", seq.Len()) // Output: Sequence has 2 literals
type Seq struct {
	literals []Literal
}

// NewSeq creates a new sequence from the given literals.
func NewSeq(lits ...Literal) *Seq {
	return &Seq{
		literals: lits,
	}
}

// Len returns the number of literals in the sequence.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.literals)
}

// Get returns the literal at the specified index.
// Panics if index is out of bounds.
func (s *Seq) Get(i int) Literal {
	return s.literals[i]
}

// IsEmpty returns true if the sequence has no literals.
func (s *Seq) IsEmpty() bool {
	return s == nil || len(s.literals) == 0
}

// AllComplete reports whether every literal is a whole match.
func (s *Seq) AllComplete() bool {
	if s.IsEmpty() {
		return false
	}
	for _, lit := range s.literals {
		if !lit.Complete {
			return false
		}
	}
	return true
}

// HasEmpty reports whether the sequence contains a zero-length literal. Such
// a sequence constrains nothing: every position is a candidate.
func (s *Seq) HasEmpty() bool {
	if s == nil {
		return false
	}
	for _, lit := range s.literals {
		if len(lit.Runes) == 0 {
			return true
		}
	}
	return false
}

// Strings returns the literals as strings, in order.
func (s *Seq) Strings() []string {
	out := make([]string, s.Len())
	for i := range out {
		out[i] = string(s.literals[i].Runes)
	}
	return out
}

// Minimize removes redundant literals from the sequence.
//
// For prefix matching, a literal L is redundant if a shorter literal S is a
// prefix of L: any position where L occurs is already a candidate for S.
// Duplicates are removed too. The surviving literals are ordered shortest first.
//
// Example:
//
//	seq := literal.NewSeq(
//	    literal.NewLiteral([]rune("foo"), true),
//	    literal.NewLiteral([]rune("foobar"), true),
//	)
//	seq.Minimize()
//	fmt.Println(seq.Len()) // Output: 1 (only "foo" remains)
func (s *Seq) Minimize() {
	if s.IsEmpty() {
		return
	}

	sort.SliceStable(s.literals, func(i, j int) bool {
		return len(s.literals[i].Runes) < len(s.literals[j].Runes)
	})

	kept := make([]Literal, 0, len(s.literals))
	for _, current := range s.literals {
		isRedundant := false
		for j := range kept {
			if isPrefix(kept[j].Runes, current.Runes) {
				isRedundant = true
				if len(kept[j].Runes) == len(current.Runes) {
					kept[j].Complete = kept[j].Complete && current.Complete
				}
				break
			}
		}
		if !isRedundant {
			kept = append(kept, current)
		}
	}

	s.literals = kept
}

// String returns the literals separated by "|" for debugging output.
func (s *Seq) String() string {
	return "seq[" + strings.Join(s.Strings(), "|") + "]"
}

// isPrefix returns true if prefix is a prefix of s.
func isPrefix(prefix, s []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i, r := range prefix {
		if s[i] != r {
			return false
		}
	}
	return true
}
