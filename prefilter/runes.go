package prefilter

import "github.com/coregx/vimre/literal"

// RunePrefilter is the Prefilter counterpart for decoded text: positions
// are character indices into a rune slice.
type RunePrefilter interface {
	// Find returns the first candidate at or after start, or -1.
	Find(haystack []rune, start int) int
}

// runeSetPrefilter indexes the literals by their first character. A
// candidate is a position whose character starts a literal that occurs there
// in full.
type runeSetPrefilter struct {
	byFirst map[rune][][]rune
	single  rune
}

func newRuneSetPrefilter(seq *literal.Seq) *runeSetPrefilter {
	p := &runeSetPrefilter{
		byFirst: make(map[rune][][]rune, seq.Len()),
		single:  -1,
	}
	for i := 0; i < seq.Len(); i++ {
		lit := seq.Get(i).Runes
		p.byFirst[lit[0]] = append(p.byFirst[lit[0]], lit)
	}
	if len(p.byFirst) == 1 {
		for r := range p.byFirst {
			p.single = r
		}
	}
	return p
}

// Find implements RunePrefilter.Find.
func (p *runeSetPrefilter) Find(haystack []rune, start int) int {
	if start < 0 {
		return -1
	}
	for i := start; i < len(haystack); i++ {
		r := haystack[i]
		if p.single >= 0 && r != p.single {
			continue
		}
		for _, lit := range p.byFirst[r] {
			if hasRunePrefix(haystack[i:], lit) {
				return i
			}
		}
	}
	return -1
}

func hasRunePrefix(s, prefix []rune) bool {
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
