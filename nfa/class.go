package nfa

import (
	"fmt"
	"strings"
	"unicode"
)

// NamedClass identifies a predefined character class: a backslash class such
// as \s or \k, or a [:name:] item of a collection.
type NamedClass uint8

const (
	ClassIdent           NamedClass = iota // \i [:ident:]
	ClassIdentNoDigit                      // \I
	ClassKeyword                           // \k [:keyword:]
	ClassKeywordNoDigit                    // \K
	ClassFname                             // \f [:fname:]
	ClassFnameNoDigit                      // \F
	ClassPrintable                         // \p [:print:]
	ClassPrintableNoDigit                  // \P
	ClassWhite                             // \s
	ClassDigit                             // \d [:digit:]
	ClassHex                               // \x [:xdigit:]
	ClassOctal                             // \o
	ClassWord                              // \w
	ClassHead                              // \h
	ClassASCIIAlpha                        // \a
	ClassASCIILower                        // \l
	ClassASCIIUpper                        // \u
	ClassAlnum                             // [:alnum:]
	ClassAlpha                             // [:alpha:]
	ClassBlank                             // [:blank:]
	ClassCntrl                             // [:cntrl:]
	ClassGraph                             // [:graph:]
	ClassLower                             // [:lower:]
	ClassPunct                             // [:punct:]
	ClassSpace                             // [:space:]
	ClassUpper                             // [:upper:]
	ClassReturn                            // [:return:]
	ClassTab                               // [:tab:]
	ClassEscape                            // [:escape:]
	ClassBackspace                         // [:backspace:]
)

var collectionClasses = map[string]NamedClass{
	"alnum":     ClassAlnum,
	"alpha":     ClassAlpha,
	"blank":     ClassBlank,
	"cntrl":     ClassCntrl,
	"digit":     ClassDigit,
	"graph":     ClassGraph,
	"lower":     ClassLower,
	"print":     ClassPrintable,
	"punct":     ClassPunct,
	"space":     ClassSpace,
	"upper":     ClassUpper,
	"xdigit":    ClassHex,
	"return":    ClassReturn,
	"tab":       ClassTab,
	"escape":    ClassEscape,
	"backspace": ClassBackspace,
	"ident":     ClassIdent,
	"keyword":   ClassKeyword,
	"fname":     ClassFname,
}

// LookupNamedClass returns the class for a [:name:] collection item.
func LookupNamedClass(name string) (NamedClass, bool) {
	c, ok := collectionClasses[name]
	return c, ok
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
func isASCIIAlpha(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }

// isIdent follows Vim's default 'isident' and 'iskeyword' (@,48-57,_,192-255)
// extended to all letters above Latin-1.
func isIdent(r rune) bool {
	return r == '_' || isASCIIDigit(r) || isASCIIAlpha(r) || (r >= 192 && r != 215 && r != 247) && unicode.IsLetter(r)
}

// isFname follows Vim's default 'isfname' on Unix.
func isFname(r rune) bool {
	return isIdent(r) || strings.ContainsRune("/.-+,#$%~=", r)
}

// Contains reports whether r belongs to the class.
func (n NamedClass) Contains(r rune) bool {
	switch n {
	case ClassIdent, ClassKeyword:
		return isIdent(r)
	case ClassIdentNoDigit, ClassKeywordNoDigit:
		return isIdent(r) && !isASCIIDigit(r)
	case ClassFname:
		return isFname(r)
	case ClassFnameNoDigit:
		return isFname(r) && !isASCIIDigit(r)
	case ClassPrintable:
		return unicode.IsPrint(r)
	case ClassPrintableNoDigit:
		return unicode.IsPrint(r) && !isASCIIDigit(r)
	case ClassWhite, ClassBlank:
		return r == ' ' || r == '\t'
	case ClassDigit:
		return isASCIIDigit(r)
	case ClassHex:
		return isASCIIDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
	case ClassOctal:
		return r >= '0' && r <= '7'
	case ClassWord:
		return r == '_' || isASCIIDigit(r) || isASCIIAlpha(r)
	case ClassHead:
		return r == '_' || isASCIIAlpha(r)
	case ClassASCIIAlpha:
		return isASCIIAlpha(r)
	case ClassASCIILower:
		return r >= 'a' && r <= 'z'
	case ClassASCIIUpper:
		return r >= 'A' && r <= 'Z'
	case ClassAlnum:
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	case ClassAlpha:
		return unicode.IsLetter(r)
	case ClassCntrl:
		return unicode.IsControl(r)
	case ClassGraph:
		return r != ' ' && unicode.IsPrint(r)
	case ClassLower:
		return unicode.IsLower(r)
	case ClassPunct:
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	case ClassSpace:
		return r == ' ' || (r >= '\t' && r <= '\r')
	case ClassUpper:
		return unicode.IsUpper(r)
	case ClassReturn:
		return r == '\r'
	case ClassTab:
		return r == '\t'
	case ClassEscape:
		return r == 0x1b
	case ClassBackspace:
		return r == 0x08
	}
	return false
}

// RuneRange is an inclusive range of characters.
type RuneRange struct {
	Lo, Hi rune
}

// Class is a set of characters built from a collection, a backslash class or
// ".". A newline is a member exactly when Newline is set, whatever the other
// members and Negated say: in Vim, [^a] does not match an end-of-line while
// \_[^a] does.
type Class struct {
	Singles []rune
	Ranges  []RuneRange
	Named   []NamedClass
	Negated bool
	Newline bool

	// Fold applies simple case folding to Singles and Ranges.
	Fold bool
}

// AnyClass returns the class for "." (newline false) or "\_." (newline true).
func AnyClass(newline bool) *Class {
	return &Class{Negated: true, Newline: newline}
}

// Contains reports whether r is a member of the class.
func (c *Class) Contains(r rune) bool {
	if r == '\n' {
		return c.Newline
	}
	return c.member(r) != c.Negated
}

func (c *Class) member(r rune) bool {
	if c.memberExact(r) {
		return true
	}
	for _, n := range c.Named {
		if n.Contains(r) {
			return true
		}
	}
	if c.Fold {
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			if c.memberExact(f) {
				return true
			}
		}
	}
	return false
}

func (c *Class) memberExact(r rune) bool {
	for _, s := range c.Singles {
		if s == r {
			return true
		}
	}
	for _, rg := range c.Ranges {
		if r >= rg.Lo && r <= rg.Hi {
			return true
		}
	}
	return false
}

// String returns a compact description for debugging output.
func (c *Class) String() string {
	var sb strings.Builder
	if c.Newline {
		sb.WriteString(`\_`)
	}
	sb.WriteByte('[')
	if c.Negated {
		sb.WriteByte('^')
	}
	for _, s := range c.Singles {
		fmt.Fprintf(&sb, "%q", s)
	}
	for _, rg := range c.Ranges {
		fmt.Fprintf(&sb, "%q-%q", rg.Lo, rg.Hi)
	}
	for _, n := range c.Named {
		fmt.Fprintf(&sb, "[:%d:]", n)
	}
	sb.WriteByte(']')
	return sb.String()
}

// classEscapes maps the letter of a backslash class to its named class. The
// uppercase forms of s, d, x, o, w, h, a, l and u are complements; \I, \K,
// \F and \P exclude digits instead.
var classEscapes = map[byte]struct {
	class   NamedClass
	negated bool
}{
	'i': {ClassIdent, false}, 'I': {ClassIdentNoDigit, false},
	'k': {ClassKeyword, false}, 'K': {ClassKeywordNoDigit, false},
	'f': {ClassFname, false}, 'F': {ClassFnameNoDigit, false},
	'p': {ClassPrintable, false}, 'P': {ClassPrintableNoDigit, false},
	's': {ClassWhite, false}, 'S': {ClassWhite, true},
	'd': {ClassDigit, false}, 'D': {ClassDigit, true},
	'x': {ClassHex, false}, 'X': {ClassHex, true},
	'o': {ClassOctal, false}, 'O': {ClassOctal, true},
	'w': {ClassWord, false}, 'W': {ClassWord, true},
	'h': {ClassHead, false}, 'H': {ClassHead, true},
	'a': {ClassASCIIAlpha, false}, 'A': {ClassASCIIAlpha, true},
	'l': {ClassASCIILower, false}, 'L': {ClassASCIILower, true},
	'u': {ClassASCIIUpper, false}, 'U': {ClassASCIIUpper, true},
}

// EscapeClass returns the class for a backslash class letter such as 's' or
// 'W'. newline is set for the \_ forms.
func EscapeClass(letter byte, newline bool) (*Class, error) {
	e, ok := classEscapes[letter]
	if !ok {
		return nil, fmt.Errorf("%w: unknown class \\%c", ErrUnsupportedNode, letter)
	}
	return &Class{Named: []NamedClass{e.class}, Negated: e.negated, Newline: newline}, nil
}
