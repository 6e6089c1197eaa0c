package nfa

// Input is the text a pattern is matched against. Positions are character
// indices in [0, Len()]; the engine never needs more than O(1) random access.
// A newline is an ordinary character.
type Input interface {
	Len() int
	At(i int) rune
}

// Runes adapts a rune slice to Input.
type Runes []rune

// Len implements Input.
func (r Runes) Len() int { return len(r) }

// At implements Input.
func (r Runes) At(i int) rune { return r[i] }

// Bytes adapts a byte slice to Input with one character per byte. It suits
// ASCII or Latin-1 text; use Runes for decoded UTF-8.
type Bytes []byte

// Len implements Input.
func (b Bytes) Len() int { return len(b) }

// At implements Input.
func (b Bytes) At(i int) rune { return rune(b[i]) }
