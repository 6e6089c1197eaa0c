package nfa

import (
	"fmt"
	"unicode"
)

// MatcherKind identifies the variant held by a Matcher.
type MatcherKind uint8

const (
	// MatchEpsilon always succeeds without consuming input
	MatchEpsilon MatcherKind = iota

	// MatchChar consumes one character equal to Char (case-folded when Fold is set)
	MatchChar

	// MatchClass consumes one character that is a member of Class
	MatchClass

	// MatchLook is a zero-width position test
	MatchLook

	// MatchBackref consumes the text last captured by Group
	MatchBackref
)

// String returns a human-readable representation of the MatcherKind
func (k MatcherKind) String() string {
	switch k {
	case MatchEpsilon:
		return "Epsilon"
	case MatchChar:
		return "Char"
	case MatchClass:
		return "Class"
	case MatchLook:
		return "Look"
	case MatchBackref:
		return "Backref"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Look identifies a zero-width position test.
type Look uint8

const (
	LookLineStart Look = iota // ^
	LookLineEnd               // $
	LookTextStart             // \%^
	LookTextEnd               // \%$
	LookWordStart             // \<
	LookWordEnd               // \>
)

// Matcher labels a transition. Only the fields relevant to Kind are used.
type Matcher struct {
	Kind  MatcherKind
	Char  rune
	Fold  bool
	Class *Class
	Look  Look
	Group int
}

// Epsilon returns a matcher that consumes nothing.
func Epsilon() Matcher { return Matcher{Kind: MatchEpsilon} }

// Char returns a matcher for a single character.
func Char(r rune, fold bool) Matcher { return Matcher{Kind: MatchChar, Char: r, Fold: fold} }

// Match tests the matcher at pos and returns the number of characters it
// consumes. caps holds the current capture spans and is only read by
// back-references.
func (m *Matcher) Match(in Input, pos int, caps []int) (int, bool) {
	switch m.Kind {
	case MatchEpsilon:
		return 0, true
	case MatchChar:
		if pos >= in.Len() {
			return 0, false
		}
		r := in.At(pos)
		if r == m.Char || (m.Fold && equalFold(r, m.Char)) {
			return 1, true
		}
		return 0, false
	case MatchClass:
		if pos >= in.Len() || !m.Class.Contains(in.At(pos)) {
			return 0, false
		}
		return 1, true
	case MatchLook:
		return 0, lookAt(m.Look, in, pos)
	case MatchBackref:
		return matchBackref(in, pos, caps, m.Group, m.Fold)
	}
	return 0, false
}

// String returns a short description for debugging output.
func (m *Matcher) String() string {
	switch m.Kind {
	case MatchChar:
		if m.Fold {
			return fmt.Sprintf("%q/i", m.Char)
		}
		return fmt.Sprintf("%q", m.Char)
	case MatchClass:
		return m.Class.String()
	case MatchLook:
		return fmt.Sprintf("look(%d)", m.Look)
	case MatchBackref:
		return fmt.Sprintf(`\%d`, m.Group)
	}
	return m.Kind.String()
}

// matchBackref matches the text of a group at pos. A group that has not
// captured anything matches the empty string.
func matchBackref(in Input, pos int, caps []int, group int, fold bool) (int, bool) {
	if 2*group+1 >= len(caps) {
		return 0, true
	}
	start, end := caps[2*group], caps[2*group+1]
	if start < 0 || end < start {
		return 0, true
	}
	n := end - start
	if pos+n > in.Len() {
		return 0, false
	}
	for i := 0; i < n; i++ {
		a, b := in.At(start+i), in.At(pos+i)
		if a != b && !(fold && equalFold(a, b)) {
			return 0, false
		}
	}
	return n, true
}

func lookAt(look Look, in Input, pos int) bool {
	switch look {
	case LookLineStart:
		return pos == 0 || in.At(pos-1) == '\n'
	case LookLineEnd:
		return pos == in.Len() || in.At(pos) == '\n'
	case LookTextStart:
		return pos == 0
	case LookTextEnd:
		return pos == in.Len()
	case LookWordStart:
		if pos >= in.Len() || !IsWordChar(in.At(pos)) {
			return false
		}
		return pos == 0 || !IsWordChar(in.At(pos-1))
	case LookWordEnd:
		if pos == 0 || !IsWordChar(in.At(pos-1)) {
			return false
		}
		return pos == in.Len() || !IsWordChar(in.At(pos))
	}
	return false
}

// IsWordChar reports whether r is a keyword character for \< and \>, using
// Vim's default 'iskeyword': letters, digits and underscore.
func IsWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// equalFold reports whether a and b are equal under simple case folding.
func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}
