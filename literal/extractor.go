package literal

import (
	"github.com/coregx/vimre/nfa"
	"github.com/coregx/vimre/syntax"
)

// maxDepth bounds recursion into nested groups.
const maxDepth = 100

// ExtractorConfig configures literal extraction limits.
//
// These limits prevent excessive extraction from complex patterns:
//   - MaxLiterals: prevents memory bloat from alternations like \(a\|b\|c\|...\)
//   - MaxLiteralLen: prevents extracting very long literals
//   - MaxClassSize: prevents expanding large collections like [a-z]
type ExtractorConfig struct {
	// MaxLiterals limits the number of alternative literals. Default: 64.
	MaxLiterals int

	// MaxLiteralLen limits the length of each literal in characters. Longer
	// prefixes are truncated. Default: 64.
	MaxLiteralLen int

	// MaxClassSize limits the size of collections to expand.
	// [abc] is expanded to "a", "b", "c"; [a-z] (26 characters) is not.
	// Default: 10.
	MaxClassSize int
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
		MaxClassSize:  10,
	}
}

// Extractor extracts the literal prefixes of a parsed pattern: a set of
// strings such that every match attempt that succeeds at position p has one
// of them at p.
//
// Zero-width items (^, $, \<, \>, \zs, \ze and lookaround) are skipped since
// they consume nothing. Anything that matches a class of characters wider than
// MaxClassSize (., \s, [^x], back-references) ends the prefix.
//
// Extraction works on exact characters. Callers must not use the result for a
// pattern compiled with case folding.
//
// Example:
//
//	pat := syntax.MustParse(`\(foo\|bar\)\d`)
//	prefixes := literal.New(literal.DefaultConfig()).ExtractPrefixes(pat)
//	// prefixes = ["foo", "bar"], both incomplete
type Extractor struct {
	config ExtractorConfig
}

// New creates a new Extractor with the given configuration.
func New(config ExtractorConfig) *Extractor {
	return &Extractor{config: config}
}

// ExtractPrefixes returns the prefix literals of pat, minimized. It returns
// an empty Seq when no prefix is required (for example, when an alternative
// can match the empty string or starts with ".").
func (e *Extractor) ExtractPrefixes(pat *syntax.Pattern) *Seq {
	if pat == nil || pat.Sub == nil {
		return NewSeq()
	}
	seq := NewSeq(e.sub(pat.Sub, 0)...)
	if seq.IsEmpty() || seq.HasEmpty() {
		return NewSeq()
	}
	seq.Minimize()
	return seq
}

// unknown is the result for an item that constrains nothing.
func unknown() []Literal {
	return []Literal{NewLiteral(nil, false)}
}

// sub returns the union of the alternatives.
func (e *Extractor) sub(sp *syntax.SubPattern, depth int) []Literal {
	if depth > maxDepth {
		return unknown()
	}
	if sp == nil {
		// empty group
		return []Literal{NewLiteral(nil, true)}
	}
	if len(sp.Branches) == 0 {
		return unknown()
	}
	var all []Literal
	for _, br := range sp.Branches {
		all = append(all, e.branch(br, depth)...)
		if len(all) > e.config.MaxLiterals {
			return unknown()
		}
	}
	return all
}

// branch extracts from a \& chain. Every concat matches at the same start,
// so any of them yields valid prefixes; the last one is preferred because it
// provides the match.
func (e *Extractor) branch(br *syntax.Branch, depth int) []Literal {
	if br == nil || len(br.Concats) == 0 {
		return unknown()
	}
	for i := len(br.Concats) - 1; i >= 0; i-- {
		lits := e.concat(br.Concats[i], depth)
		if hasEmptyIncomplete(lits) {
			continue
		}
		if len(br.Concats) > 1 {
			markIncomplete(lits)
		}
		return lits
	}
	return unknown()
}

func (e *Extractor) concat(c *syntax.Concat, depth int) []Literal {
	acc := []Literal{NewLiteral(nil, true)}
	if c == nil {
		return acc
	}
	for _, p := range c.Pieces {
		if zeroWidthPiece(p) {
			continue
		}
		next, ok := e.cross(acc, e.piece(p, depth))
		if !ok {
			markIncomplete(acc)
			return acc
		}
		acc = next
		if !allComplete(acc) {
			markIncomplete(acc)
			return acc
		}
	}
	return acc
}

// cross appends every literal of suffixes to every literal of prefixes. It
// returns false when the product would exceed MaxLiterals. Literals longer
// than MaxLiteralLen are truncated and marked incomplete.
func (e *Extractor) cross(prefixes, suffixes []Literal) ([]Literal, bool) {
	if len(prefixes)*len(suffixes) > e.config.MaxLiterals {
		return nil, false
	}
	out := make([]Literal, 0, len(prefixes)*len(suffixes))
	for _, p := range prefixes {
		for _, s := range suffixes {
			runes := make([]rune, 0, len(p.Runes)+len(s.Runes))
			runes = append(runes, p.Runes...)
			runes = append(runes, s.Runes...)
			complete := p.Complete && s.Complete
			if len(runes) > e.config.MaxLiteralLen {
				runes = runes[:e.config.MaxLiteralLen]
				complete = false
			}
			out = append(out, NewLiteral(runes, complete))
		}
	}
	return out, true
}

func (e *Extractor) piece(p *syntax.Piece, depth int) []Literal {
	lits := e.atom(p.Atom, depth)
	if p.Multi == nil {
		return lits
	}
	if p.Multi.Op == syntax.MultiAtomic {
		markIncomplete(lits)
		return lits
	}
	d, err := nfa.CompileMulti(p.Multi)
	if err != nil || d.Min == 0 {
		return unknown()
	}

	// The first Min repetitions are mandatory.
	out := []Literal{NewLiteral(nil, true)}
	for i := 0; i < d.Min; i++ {
		var ok bool
		out, ok = e.cross(out, lits)
		if !ok || !allComplete(out) {
			if ok {
				markIncomplete(out)
				return out
			}
			markIncomplete(lits)
			return lits
		}
	}
	if d.Max != d.Min {
		markIncomplete(out)
	}
	return out
}

func (e *Extractor) atom(a syntax.Atom, depth int) []Literal {
	switch n := a.(type) {
	case *syntax.Literal:
		r, _, err := nfa.DecodeChar(n.Text)
		if err != nil {
			return unknown()
		}
		return []Literal{NewLiteral([]rune{r}, true)}
	case *syntax.Collection:
		return e.expandCollection(n)
	case *syntax.Group:
		return e.sub(n.Sub, depth+1)
	}
	// ., class escapes and back-references
	return unknown()
}

// expandCollection expands a small non-negated collection to one literal per
// member.
//
// Examples:
//
//	[abc]   → ["a", "b", "c"]
//	[a-c]   → ["a", "b", "c"]
//	[a-z]   → unknown (26 characters, over the default limit of 10)
//	[^a]    → unknown
func (e *Extractor) expandCollection(coll *syntax.Collection) []Literal {
	class, err := nfa.CompileCollection(coll, false)
	if err != nil || class.Negated || len(class.Named) > 0 {
		return unknown()
	}

	count := len(class.Singles)
	for _, rg := range class.Ranges {
		count += int(rg.Hi - rg.Lo + 1)
		if count > e.config.MaxClassSize {
			return unknown()
		}
	}
	if class.Newline {
		count++
	}
	if count > e.config.MaxClassSize {
		return unknown()
	}

	seen := make(map[rune]bool, count)
	var lits []Literal
	add := func(r rune) {
		if !seen[r] {
			seen[r] = true
			lits = append(lits, NewLiteral([]rune{r}, true))
		}
	}
	for _, r := range class.Singles {
		add(r)
	}
	for _, rg := range class.Ranges {
		for r := rg.Lo; r <= rg.Hi; r++ {
			add(r)
		}
	}
	if class.Newline {
		add('\n')
	}
	return lits
}

// zeroWidthPiece reports pieces that never consume input: boundaries, \zs and
// \ze, and lookahead or lookbehind assertions.
func zeroWidthPiece(p *syntax.Piece) bool {
	if p.Atom != nil && syntax.IsZeroWidth(p.Atom) {
		return true
	}
	if p.Multi == nil {
		return false
	}
	switch p.Multi.Op {
	case syntax.MultiAhead, syntax.MultiNegAhead, syntax.MultiBehind, syntax.MultiNegBehind:
		return true
	}
	return false
}

func markIncomplete(lits []Literal) {
	for i := range lits {
		lits[i].Complete = false
	}
}

func allComplete(lits []Literal) bool {
	for _, lit := range lits {
		if !lit.Complete {
			return false
		}
	}
	return true
}

func hasEmptyIncomplete(lits []Literal) bool {
	for _, lit := range lits {
		if len(lit.Runes) == 0 && !lit.Complete {
			return true
		}
	}
	return false
}
