// Package syntax parses Vim regular expressions written in the default
// "magic" dialect into a tree that the nfa package compiles.
//
// The tree mirrors the grammar used by Vim's documentation (:help pattern):
//
//	pattern  ::= branch ( \| branch )*
//	branch   ::= concat ( \& concat )*
//	concat   ::= piece*
//	piece    ::= atom multi?
//
// Numeric bounds and escape sequences are kept as raw source text; decoding
// them is the compiler's job so that malformed input is reported at compile
// time with the position of the offending node.
package syntax

import "fmt"

// NodeKind identifies the concrete type of a tree node.
type NodeKind uint8

const (
	KindPattern NodeKind = iota
	KindSubPattern
	KindBranch
	KindConcat
	KindPiece
	KindMulti
	KindLiteral
	KindAny
	KindClassEscape
	KindCollection
	KindGroup
	KindBoundary
	KindMatchBound
	KindBackref
)

// String returns a human-readable name for the kind.
func (k NodeKind) String() string {
	switch k {
	case KindPattern:
		return "Pattern"
	case KindSubPattern:
		return "SubPattern"
	case KindBranch:
		return "Branch"
	case KindConcat:
		return "Concat"
	case KindPiece:
		return "Piece"
	case KindMulti:
		return "Multi"
	case KindLiteral:
		return "Literal"
	case KindAny:
		return "Any"
	case KindClassEscape:
		return "ClassEscape"
	case KindCollection:
		return "Collection"
	case KindGroup:
		return "Group"
	case KindBoundary:
		return "Boundary"
	case KindMatchBound:
		return "MatchBound"
	case KindBackref:
		return "Backref"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Node is implemented by every tree node.
type Node interface {
	Kind() NodeKind
}

// Atom is a node that can appear as the operand of a piece.
type Atom interface {
	Node
	// Offset returns the byte offset of the atom in the pattern source.
	Offset() int
}

// Pattern is the root of a parsed expression.
type Pattern struct {
	Expr string
	Sub  *SubPattern

	// IgnoreCase is set when \c appears anywhere in the pattern.
	IgnoreCase bool
	// MatchCase is set when \C appears anywhere in the pattern.
	MatchCase bool

	// NumGroups is the number of \( groups, not counting group 0.
	NumGroups int
}

// SubPattern is a list of alternatives separated by \|.
type SubPattern struct {
	Branches []*Branch
}

// Branch is a list of concats separated by \&. Every concat must match at
// the same position; the last one provides the match.
type Branch struct {
	Concats []*Concat
}

// Concat is a sequence of pieces.
type Concat struct {
	Pieces []*Piece
}

// Piece is an atom with an optional multi.
type Piece struct {
	Atom  Atom
	Multi *Multi
}

// MultiOp identifies the multi that follows an atom.
type MultiOp uint8

const (
	MultiStar        MultiOp = iota // *
	MultiPlus                       // \+
	MultiOptional                   // \= or \?
	MultiBrace                      // \{n,m} or \{-n,m}
	MultiAtomic                     // \@>
	MultiAhead                      // \@=
	MultiNegAhead                   // \@!
	MultiBehind                     // \@<=
	MultiNegBehind                  // \@<!
)

// String returns the Vim spelling of the multi.
func (op MultiOp) String() string {
	switch op {
	case MultiStar:
		return "*"
	case MultiPlus:
		return `\+`
	case MultiOptional:
		return `\=`
	case MultiBrace:
		return `\{}`
	case MultiAtomic:
		return `\@>`
	case MultiAhead:
		return `\@=`
	case MultiNegAhead:
		return `\@!`
	case MultiBehind:
		return `\@<=`
	case MultiNegBehind:
		return `\@<!`
	default:
		return fmt.Sprintf("MultiOp(%d)", op)
	}
}

// IsLookaround reports whether op is one of the \@ assertions.
func (op MultiOp) IsLookaround() bool {
	return op >= MultiAtomic
}

// Multi is a quantifier or lookaround applied to an atom.
type Multi struct {
	Op  MultiOp
	Pos int

	// Brace fields hold the raw text between \{ and }.
	Lazy     bool
	Lower    string
	Upper    string
	HasComma bool

	// Limit holds the raw digits of \@N<= and \@N<!.
	Limit string
}

// Kind implements Node.
func (m *Multi) Kind() NodeKind { return KindMulti }

// Literal is a single character, possibly written as an escape sequence.
// Text is the raw source, e.g. "a", `\t`, `\%x41` or `\.`.
type Literal struct {
	Text string
	Pos  int
}

// Any is "." or "\_.".
type Any struct {
	Newline bool
	Pos     int
}

// ClassEscape is a character class such as \s or \_w. Class is the letter
// after the backslash.
type ClassEscape struct {
	Class   byte
	Newline bool
	Pos     int
}

// ItemKind identifies a collection item.
type ItemKind uint8

const (
	ItemSingle ItemKind = iota
	ItemRange
	ItemNamedClass
)

// CollectionItem is one element of a [] collection. Single items keep their
// raw text in From; ranges use From and To; named classes such as [:alpha:]
// store the class name in Name.
type CollectionItem struct {
	Kind ItemKind
	From string
	To   string
	Name string
}

// Collection is "[...]" or "\_[...]".
type Collection struct {
	Negated bool
	Newline bool
	Items   []CollectionItem
	Pos     int
}

// Group is \(...\) when Capture is set, or \%(...\) otherwise. Sub is nil
// for an empty group.
type Group struct {
	Capture bool
	Sub     *SubPattern
	Pos     int
}

// BoundaryKind identifies a zero-width position test.
type BoundaryKind uint8

const (
	BoundaryLineStart BoundaryKind = iota // ^ and \_^
	BoundaryLineEnd                       // $ and \_$
	BoundaryTextStart                     // \%^
	BoundaryTextEnd                       // \%$
	BoundaryWordStart                     // \<
	BoundaryWordEnd                       // \>
)

// Boundary is a zero-width position test.
type Boundary struct {
	Boundary BoundaryKind
	Pos      int
}

// MatchBound is \zs (End false) or \ze (End true).
type MatchBound struct {
	End bool
	Pos int
}

// Backref is \1 through \9.
type Backref struct {
	Group int
	Pos   int
}

func (*Pattern) Kind() NodeKind     { return KindPattern }
func (*SubPattern) Kind() NodeKind  { return KindSubPattern }
func (*Branch) Kind() NodeKind      { return KindBranch }
func (*Concat) Kind() NodeKind      { return KindConcat }
func (*Piece) Kind() NodeKind       { return KindPiece }
func (*Literal) Kind() NodeKind     { return KindLiteral }
func (*Any) Kind() NodeKind         { return KindAny }
func (*ClassEscape) Kind() NodeKind { return KindClassEscape }
func (*Collection) Kind() NodeKind  { return KindCollection }
func (*Group) Kind() NodeKind       { return KindGroup }
func (*Boundary) Kind() NodeKind    { return KindBoundary }
func (*MatchBound) Kind() NodeKind  { return KindMatchBound }
func (*Backref) Kind() NodeKind     { return KindBackref }

func (n *Literal) Offset() int     { return n.Pos }
func (n *Any) Offset() int         { return n.Pos }
func (n *ClassEscape) Offset() int { return n.Pos }
func (n *Collection) Offset() int  { return n.Pos }
func (n *Group) Offset() int       { return n.Pos }
func (n *Boundary) Offset() int    { return n.Pos }
func (n *MatchBound) Offset() int  { return n.Pos }
func (n *Backref) Offset() int     { return n.Pos }

// IsZeroWidth reports whether the atom never consumes input.
func IsZeroWidth(a Atom) bool {
	switch a.(type) {
	case *Boundary, *MatchBound:
		return true
	}
	return false
}
