package prefilter

import (
	"bytes"

	"github.com/coregx/ahocorasick"
	"github.com/coregx/vimre/simd"
)

// firstBytePrefilter handles a few literals whose first bytes form a set of
// at most three: memchr2/memchr3 finds the next first byte and the literals
// starting with it are compared in place.
//
// Example patterns:
//
//	foo\|far\|bar → scan for 'f' or 'b'
type firstBytePrefilter struct {
	firsts  []byte
	byFirst [256][][]byte
}

// newFirstBytePrefilter returns nil when the needles start with more than
// three distinct bytes.
func newFirstBytePrefilter(needles [][]byte) Prefilter {
	p := &firstBytePrefilter{}
	for _, n := range needles {
		b := n[0]
		if p.byFirst[b] == nil {
			if len(p.firsts) == 3 {
				return nil
			}
			p.firsts = append(p.firsts, b)
		}
		p.byFirst[b] = append(p.byFirst[b], n)
	}
	return p
}

func (p *firstBytePrefilter) scan(haystack []byte) int {
	switch len(p.firsts) {
	case 1:
		return simd.Memchr(haystack, p.firsts[0])
	case 2:
		return simd.Memchr2(haystack, p.firsts[0], p.firsts[1])
	default:
		return simd.Memchr3(haystack, p.firsts[0], p.firsts[1], p.firsts[2])
	}
}

// Find implements Prefilter.Find.
func (p *firstBytePrefilter) Find(haystack []byte, start int) int {
	if start < 0 {
		return -1
	}
	for start < len(haystack) {
		idx := p.scan(haystack[start:])
		if idx == -1 {
			return -1
		}
		pos := start + idx
		for _, n := range p.byFirst[haystack[pos]] {
			if bytes.HasPrefix(haystack[pos:], n) {
				return pos
			}
		}
		start = pos + 1
	}
	return -1
}

// ahoCorasickPrefilter finds the leftmost occurrence of any of many literals
// with an Aho-Corasick automaton.
type ahoCorasickPrefilter struct {
	auto *ahocorasick.Automaton
}

func newAhoCorasickPrefilter(needles [][]byte) (Prefilter, error) {
	builder := ahocorasick.NewBuilder()
	for _, n := range needles {
		builder.AddPattern(n)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &ahoCorasickPrefilter{auto: auto}, nil
}

// Find implements Prefilter.Find.
func (p *ahoCorasickPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	m := p.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	return m.Start
}
