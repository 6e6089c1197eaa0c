// Package prefilter provides fast candidate filtering for unanchored search
// using the literal prefixes extracted from a pattern.
//
// A prefilter quickly skips positions that cannot start a match. The search
// engine only attempts the automaton at the candidates it reports, which turns
// a scan over every character into a memchr/memmem-speed scan for patterns
// that start with literals.
//
// The builder selects a strategy based on the extracted prefixes:
//   - Single one-character literal → memchr
//   - Single longer literal → memmem
//   - Literals sharing at most three first bytes → memchr2/memchr3 + verify
//   - Many literals → Aho-Corasick automaton
//
// Byte prefilters work on text where every byte is one character (see
// nfa.Bytes). RunePrefilter covers decoded text (nfa.Runes).
//
// Example usage:
//
//	pat := syntax.MustParse(`\(hello\|world\)\d`)
//	prefixes := literal.New(literal.DefaultConfig()).ExtractPrefixes(pat)
//	pf := prefilter.NewBuilder(prefixes).Build()
//	pos := pf.Find([]byte("foo hello1 bar"), 0)
//	// pos == 4 (position of "hello")
package prefilter

import (
	"github.com/coregx/vimre/literal"
	"github.com/coregx/vimre/simd"
)

// Prefilter is used to quickly find candidate match positions before running
// the full automaton.
type Prefilter interface {
	// Find returns the index of the first candidate at or after start, or -1
	// if no candidate exists. A candidate is a position where one of the
	// prefix literals occurs; the caller must still verify it.
	Find(haystack []byte, start int) int
}

// Builder constructs the best prefilter for a set of prefix literals.
//
// Example:
//
//	builder := prefilter.NewBuilder(prefixes)
//	if pf := builder.Build(); pf != nil {
//	    pos := pf.Find(haystack, 0)
//	}
type Builder struct {
	prefixes *literal.Seq
}

// NewBuilder creates a new prefilter builder from extracted prefixes. A nil
// or empty sequence builds no prefilter.
func NewBuilder(prefixes *literal.Seq) *Builder {
	return &Builder{prefixes: prefixes}
}

// Build constructs the byte prefilter, or returns nil when the literals give
// no useful filter. Literals are encoded one byte per character; a literal
// with a character above U+00FF never occurs in such text, so its presence
// disables the byte prefilter.
func (b *Builder) Build() Prefilter {
	seq := b.prefixes
	if seq.IsEmpty() || seq.HasEmpty() {
		return nil
	}
	needles := make([][]byte, seq.Len())
	for i := range needles {
		bs, ok := latin1(seq.Get(i).Runes)
		if !ok {
			return nil
		}
		needles[i] = bs
	}
	return selectPrefilter(needles)
}

// BuildRunes constructs the prefilter for decoded text, or returns nil when
// the literals give no useful filter.
func (b *Builder) BuildRunes() RunePrefilter {
	seq := b.prefixes
	if seq.IsEmpty() || seq.HasEmpty() {
		return nil
	}
	return newRuneSetPrefilter(seq)
}

// selectPrefilter chooses the strategy for non-empty needles.
func selectPrefilter(needles [][]byte) Prefilter {
	if len(needles) == 1 {
		if len(needles[0]) == 1 {
			return &memchrPrefilter{needle: needles[0][0]}
		}
		return &memmemPrefilter{needle: append([]byte(nil), needles[0]...)}
	}
	if pf := newFirstBytePrefilter(needles); pf != nil {
		return pf
	}
	if pf, err := newAhoCorasickPrefilter(needles); err == nil {
		return pf
	}
	return nil
}

// latin1 encodes runes as one byte each.
func latin1(runes []rune) ([]byte, bool) {
	out := make([]byte, len(runes))
	for i, r := range runes {
		if r < 0 || r > 0xFF {
			return nil, false
		}
		out[i] = byte(r)
	}
	return out, true
}

// memchrPrefilter wraps simd.Memchr as a Prefilter.
//
// Example patterns:
//
//	a.*       → search for 'a'
//	x\(y\|z\) → search for 'x'
type memchrPrefilter struct {
	needle byte
}

// Find implements Prefilter.Find using simd.Memchr.
func (p *memchrPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := simd.Memchr(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// memmemPrefilter wraps simd.Memmem as a Prefilter.
//
// Example patterns:
//
//	hello        → search for "hello"
//	foo\|foobar  → after minimization → search for "foo"
//	prefix.*     → search for "prefix"
type memmemPrefilter struct {
	needle []byte
}

// Find implements Prefilter.Find using simd.Memmem.
func (p *memmemPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := simd.Memmem(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}
