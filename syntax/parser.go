package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxGroups is the number of \( groups Vim allows in one pattern.
const MaxGroups = 9

type parser struct {
	expr       string
	pos        int
	groups     int
	closed     [MaxGroups + 1]bool
	ignoreCase bool
	matchCase  bool

	maxBackref    int
	maxBackrefPos int
}

// Parse parses a magic-mode Vim pattern.
func Parse(expr string) (*Pattern, error) {
	p := &parser{expr: expr}
	sub, err := p.parseSubPattern()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.expr) {
		// parseSubPattern only stops early at \)
		return nil, p.errorAt(ErrUnmatchedClose, p.pos)
	}
	if p.maxBackref > p.groups {
		return nil, p.errorAt(ErrInvalidBackref, p.maxBackrefPos)
	}
	return &Pattern{
		Expr:       expr,
		Sub:        sub,
		IgnoreCase: p.ignoreCase,
		MatchCase:  p.matchCase,
		NumGroups:  p.groups,
	}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level pattern tables.
func MustParse(expr string) *Pattern {
	pat, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return pat
}

func (p *parser) errorAt(code ErrorCode, pos int) *Error {
	return &Error{Code: code, Expr: p.expr, Pos: pos}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.expr)
}

func (p *parser) lookingAt(s string) bool {
	return strings.HasPrefix(p.expr[p.pos:], s)
}

// atConcatEnd reports whether the input at pos ends a concat.
func (p *parser) atConcatEnd() bool {
	return p.eof() || p.lookingAt(`\|`) || p.lookingAt(`\&`) || p.lookingAt(`\)`)
}

func (p *parser) parseSubPattern() (*SubPattern, error) {
	sub := &SubPattern{}
	for {
		br, err := p.parseBranch()
		if err != nil {
			return nil, err
		}
		sub.Branches = append(sub.Branches, br)
		if !p.lookingAt(`\|`) {
			return sub, nil
		}
		p.pos += 2
	}
}

func (p *parser) parseBranch() (*Branch, error) {
	br := &Branch{}
	for {
		c, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		br.Concats = append(br.Concats, c)
		if !p.lookingAt(`\&`) {
			return br, nil
		}
		p.pos += 2
	}
}

func (p *parser) parseConcat() (*Concat, error) {
	c := &Concat{}
	afterBOL := false
	for !p.atConcatEnd() {
		if p.skipFlag() {
			continue
		}
		atStart := len(c.Pieces) == 0
		atom, err := p.parseAtom(atStart || afterBOL, atStart)
		if err != nil {
			return nil, err
		}
		piece := &Piece{Atom: atom}
		b, bol := atom.(*Boundary)
		bol = bol && b.Boundary == BoundaryLineStart
		var multi *Multi
		if !bol {
			// a multi after ^ is handled as the next atom
			multi, err = p.parseMulti()
			if err != nil {
				return nil, err
			}
		}
		if multi != nil {
			piece.Multi = multi
			if p.atMulti() {
				return nil, p.errorAt(ErrNestedMulti, p.pos)
			}
		}
		c.Pieces = append(c.Pieces, piece)
		afterBOL = bol
	}
	return c, nil
}

// skipFlag consumes \c and \C.
func (p *parser) skipFlag() bool {
	switch {
	case p.lookingAt(`\c`):
		p.ignoreCase = true
	case p.lookingAt(`\C`):
		p.matchCase = true
	default:
		return false
	}
	p.pos += 2
	return true
}

// atMulti reports whether a multi starts at pos.
func (p *parser) atMulti() bool {
	if p.eof() {
		return false
	}
	if p.expr[p.pos] == '*' {
		return true
	}
	for _, m := range []string{`\+`, `\=`, `\?`, `\{`, `\@`} {
		if p.lookingAt(m) {
			return true
		}
	}
	return false
}

// parseAtom parses one atom. starLiteral is set where a "*" cannot be a multi
// (start of a concat or right after ^); lineStart is set where ^ is magic.
func (p *parser) parseAtom(starLiteral, lineStart bool) (Atom, error) {
	start := p.pos
	ch := p.expr[p.pos]
	switch ch {
	case '\\':
		return p.parseEscape()
	case '.':
		p.pos++
		return &Any{Pos: start}, nil
	case '[':
		p.pos++
		return p.parseCollection(start, false)
	case '~':
		return nil, p.errorAt(ErrNoPrevSubstitute, start)
	case '^':
		p.pos++
		if lineStart {
			return &Boundary{Boundary: BoundaryLineStart, Pos: start}, nil
		}
		return &Literal{Text: "^", Pos: start}, nil
	case '$':
		p.pos++
		if p.atConcatEnd() || p.lookingAt(`\n`) {
			return &Boundary{Boundary: BoundaryLineEnd, Pos: start}, nil
		}
		return &Literal{Text: "$", Pos: start}, nil
	case '*':
		if !starLiteral {
			return nil, p.errorAt(ErrMultiFollowsNone, start)
		}
		p.pos++
		return &Literal{Text: "*", Pos: start}, nil
	}
	_, size := utf8.DecodeRuneInString(p.expr[p.pos:])
	p.pos += size
	return &Literal{Text: p.expr[start:p.pos], Pos: start}, nil
}

func isClassLetter(c byte) bool {
	return strings.IndexByte("iIkKfFpPsSdDxXoOwWhHaAlLuU", c) >= 0
}

func (p *parser) parseEscape() (Atom, error) {
	start := p.pos
	if p.pos+1 >= len(p.expr) {
		return nil, p.errorAt(ErrTrailingBackslash, start)
	}
	c := p.expr[p.pos+1]
	p.pos += 2
	switch {
	case c == '(':
		return p.parseGroup(start, true)
	case c == '%':
		return p.parsePercent(start)
	case c == '_':
		return p.parseUnderscore(start)
	case c == '<':
		return &Boundary{Boundary: BoundaryWordStart, Pos: start}, nil
	case c == '>':
		return &Boundary{Boundary: BoundaryWordEnd, Pos: start}, nil
	case c == 'z':
		if p.eof() {
			return nil, p.errorAt(ErrInvalidAfterZ, start)
		}
		z := p.expr[p.pos]
		p.pos++
		switch z {
		case 's':
			return &MatchBound{Pos: start}, nil
		case 'e':
			return &MatchBound{End: true, Pos: start}, nil
		}
		return nil, p.errorAt(ErrInvalidAfterZ, start)
	case c >= '1' && c <= '9':
		n := int(c - '0')
		if !p.closed[n] && !p.lookbehindFollows() {
			return nil, p.errorAt(ErrInvalidBackref, start)
		}
		if n > p.maxBackref {
			p.maxBackref, p.maxBackrefPos = n, start
		}
		return &Backref{Group: n, Pos: start}, nil
	case isClassLetter(c):
		return &ClassEscape{Class: c, Pos: start}, nil
	case strings.IndexByte("etrbn", c) >= 0:
		return &Literal{Text: p.expr[start:p.pos], Pos: start}, nil
	case strings.IndexByte(`+=?{@`, c) >= 0:
		return nil, p.errorAt(ErrMultiFollowsNone, start)
	case strings.IndexByte("vmMV", c) >= 0:
		return nil, p.errorAt(ErrMagicLevel, start)
	case c < utf8.RuneSelf && (unicode.IsLetter(rune(c)) || c == '0'):
		return nil, p.errorAt(ErrUnsupportedEscape, start)
	}
	// Escaped punctuation or a multi-byte character stands for itself.
	_, size := utf8.DecodeRuneInString(p.expr[start+1:])
	p.pos = start + 1 + size
	return &Literal{Text: p.expr[start:p.pos], Pos: start}, nil
}

func (p *parser) parseGroup(start int, capture bool) (Atom, error) {
	group := 0
	if capture {
		p.groups++
		if p.groups > MaxGroups {
			return nil, p.errorAt(ErrTooManyGroups, start)
		}
		group = p.groups
	}
	sub, err := p.parseSubPattern()
	if err != nil {
		return nil, err
	}
	if !p.lookingAt(`\)`) {
		if capture {
			return nil, p.errorAt(ErrUnmatchedOpen, start)
		}
		return nil, p.errorAt(ErrUnterminatedPctPar, start)
	}
	p.pos += 2
	if capture {
		p.closed[group] = true
	}
	if isEmptySub(sub) {
		sub = nil
	}
	return &Group{Capture: capture, Sub: sub, Pos: start}, nil
}

// lookbehindFollows reports whether "@<=" or "@<!" occurs in the rest of the
// pattern. A back-reference may then name a group that closes later, since
// the lookbehind can match text before the reference.
func (p *parser) lookbehindFollows() bool {
	rest := p.expr[p.pos:]
	return strings.Contains(rest, "@<=") || strings.Contains(rest, "@<!")
}

func isEmptySub(sub *SubPattern) bool {
	if len(sub.Branches) != 1 || len(sub.Branches[0].Concats) != 1 {
		return false
	}
	return len(sub.Branches[0].Concats[0].Pieces) == 0
}

// numericDigits returns how many digits a numeric escape introduced by c
// accepts and the digit predicate.
func numericDigits(c byte) (int, func(byte) bool) {
	switch c {
	case 'd':
		return 10, isDecimal
	case 'o':
		return 3, isOctal
	case 'x':
		return 2, isHex
	case 'u':
		return 4, isHex
	case 'U':
		return 8, isHex
	}
	return 0, nil
}

func isDecimal(c byte) bool { return c >= '0' && c <= '9' }
func isOctal(c byte) bool   { return c >= '0' && c <= '7' }
func isHex(c byte) bool {
	return isDecimal(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// scanDigits advances over at most limit digits accepted by ok and returns
// the number consumed.
func (p *parser) scanDigits(limit int, ok func(byte) bool) int {
	n := 0
	for n < limit && !p.eof() && ok(p.expr[p.pos]) {
		p.pos++
		n++
	}
	return n
}

func (p *parser) parsePercent(start int) (Atom, error) {
	if p.eof() {
		return nil, p.errorAt(ErrInvalidAfterPct, start)
	}
	c := p.expr[p.pos]
	p.pos++
	switch c {
	case '(':
		return p.parseGroup(start, false)
	case '^':
		return &Boundary{Boundary: BoundaryTextStart, Pos: start}, nil
	case '$':
		return &Boundary{Boundary: BoundaryTextEnd, Pos: start}, nil
	case 'd', 'o', 'x', 'u', 'U':
		limit, ok := numericDigits(c)
		if p.scanDigits(limit, ok) == 0 {
			return nil, p.errorAt(ErrInvalidAfterPct, start)
		}
		return &Literal{Text: p.expr[start:p.pos], Pos: start}, nil
	}
	return nil, p.errorAt(ErrInvalidAfterPct, start)
}

func (p *parser) parseUnderscore(start int) (Atom, error) {
	if p.eof() {
		return nil, p.errorAt(ErrUnsupportedEscape, start)
	}
	c := p.expr[p.pos]
	p.pos++
	switch {
	case c == '.':
		return &Any{Newline: true, Pos: start}, nil
	case c == '[':
		return p.parseCollection(start, true)
	case c == '^':
		return &Boundary{Boundary: BoundaryLineStart, Pos: start}, nil
	case c == '$':
		return &Boundary{Boundary: BoundaryLineEnd, Pos: start}, nil
	case isClassLetter(c):
		return &ClassEscape{Class: c, Newline: true, Pos: start}, nil
	}
	return nil, p.errorAt(ErrUnsupportedEscape, start)
}

var namedClasses = map[string]bool{
	"alnum": true, "alpha": true, "blank": true, "cntrl": true,
	"digit": true, "graph": true, "lower": true, "print": true,
	"punct": true, "space": true, "upper": true, "xdigit": true,
	"return": true, "tab": true, "escape": true, "backspace": true,
	"ident": true, "keyword": true, "fname": true,
}

// parseCollection parses the body of a collection; pos is just after "[".
func (p *parser) parseCollection(start int, newline bool) (Atom, error) {
	body := p.pos
	i := body
	coll := &Collection{Newline: newline, Pos: start}
	if i < len(p.expr) && p.expr[i] == '^' {
		coll.Negated = true
		i++
	}
	if i < len(p.expr) && p.expr[i] == ']' {
		coll.Items = append(coll.Items, CollectionItem{Kind: ItemSingle, From: "]"})
		i++
	}
	for i < len(p.expr) && p.expr[i] != ']' {
		if name, next, ok := p.namedClassAt(i); ok {
			coll.Items = append(coll.Items, CollectionItem{Kind: ItemNamedClass, Name: name})
			i = next
			continue
		}
		from, next := p.collectionElementAt(i)
		i = next
		if i+1 < len(p.expr) && p.expr[i] == '-' && p.expr[i+1] != ']' {
			to, after := p.collectionElementAt(i + 1)
			coll.Items = append(coll.Items, CollectionItem{Kind: ItemRange, From: from, To: to})
			i = after
			continue
		}
		coll.Items = append(coll.Items, CollectionItem{Kind: ItemSingle, From: from})
	}
	if i >= len(p.expr) {
		if newline {
			return nil, p.errorAt(ErrMissingBracket, start)
		}
		p.pos = body
		return &Literal{Text: "[", Pos: start}, nil
	}
	p.pos = i + 1
	return coll, nil
}

func (p *parser) namedClassAt(i int) (string, int, bool) {
	if !strings.HasPrefix(p.expr[i:], "[:") {
		return "", i, false
	}
	end := strings.Index(p.expr[i+2:], ":]")
	if end < 0 {
		return "", i, false
	}
	name := p.expr[i+2 : i+2+end]
	if !namedClasses[name] {
		return "", i, false
	}
	return name, i + 2 + end + 2, true
}

// collectionElementAt returns the raw text of the element starting at i and
// the index after it. Inside a collection only a few backslash sequences are
// special; any other backslash is a literal backslash.
func (p *parser) collectionElementAt(i int) (string, int) {
	if p.expr[i] == '\\' && i+1 < len(p.expr) {
		c := p.expr[i+1]
		switch c {
		case 'e', 't', 'r', 'b', 'n', '\\', ']', '^', '-':
			return p.expr[i : i+2], i + 2
		case 'd', 'o', 'x', 'u', 'U':
			limit, ok := numericDigits(c)
			j := i + 2
			for j < len(p.expr) && j-(i+2) < limit && ok(p.expr[j]) {
				j++
			}
			if j > i+2 {
				return p.expr[i:j], j
			}
		}
		return `\\`, i + 1
	}
	_, size := utf8.DecodeRuneInString(p.expr[i:])
	return p.expr[i : i+size], i + size
}

// parseMulti parses an optional multi after an atom.
func (p *parser) parseMulti() (*Multi, error) {
	if p.eof() {
		return nil, nil
	}
	start := p.pos
	switch {
	case p.expr[p.pos] == '*':
		p.pos++
		return &Multi{Op: MultiStar, Pos: start}, nil
	case p.lookingAt(`\+`):
		p.pos += 2
		return &Multi{Op: MultiPlus, Pos: start}, nil
	case p.lookingAt(`\=`), p.lookingAt(`\?`):
		p.pos += 2
		return &Multi{Op: MultiOptional, Pos: start}, nil
	case p.lookingAt(`\{`):
		p.pos += 2
		return p.parseBrace(start)
	case p.lookingAt(`\@`):
		p.pos += 2
		return p.parseLookaround(start)
	}
	return nil, nil
}

func (p *parser) parseBrace(start int) (*Multi, error) {
	m := &Multi{Op: MultiBrace, Pos: start}
	if !p.eof() && p.expr[p.pos] == '-' {
		m.Lazy = true
		p.pos++
	}
	rest := p.expr[p.pos:]
	end := strings.IndexByte(rest, '}')
	if end < 0 {
		return nil, p.errorAt(ErrMissingBrace, start)
	}
	body := rest[:end]
	p.pos += end + 1
	// \{n,m\} is accepted as well as \{n,m}.
	body = strings.TrimSuffix(body, `\`)
	if lo, hi, ok := strings.Cut(body, ","); ok {
		m.Lower, m.Upper, m.HasComma = lo, hi, true
	} else {
		m.Lower, m.Upper = body, body
	}
	return m, nil
}

func (p *parser) parseLookaround(start int) (*Multi, error) {
	digits := p.pos
	p.scanDigits(len(p.expr), isDecimal)
	limit := p.expr[digits:p.pos]
	m := &Multi{Pos: start, Limit: limit}
	switch {
	case p.lookingAt(">") && limit == "":
		p.pos++
		m.Op = MultiAtomic
	case p.lookingAt("=") && limit == "":
		p.pos++
		m.Op = MultiAhead
	case p.lookingAt("!") && limit == "":
		p.pos++
		m.Op = MultiNegAhead
	case p.lookingAt("<="):
		p.pos += 2
		m.Op = MultiBehind
	case p.lookingAt("<!"):
		p.pos += 2
		m.Op = MultiNegBehind
	default:
		return nil, p.errorAt(ErrInvalidAfterAt, start)
	}
	return m, nil
}

// HasUppercase reports whether expr contains an uppercase letter that is not
// part of a backslash item. It is the test Vim applies for 'smartcase'.
func HasUppercase(expr string) bool {
	for i := 0; i < len(expr); {
		r, size := utf8.DecodeRuneInString(expr[i:])
		switch {
		case size > 1:
			if unicode.IsUpper(r) {
				return true
			}
			i += size
		case expr[i] == '\\':
			switch {
			case i+2 < len(expr) && (expr[i+1] == '_' || expr[i+1] == '%'):
				i += 3
			case i+1 < len(expr):
				i += 2
			default:
				i++
			}
		case unicode.IsUpper(r):
			return true
		default:
			i++
		}
	}
	return false
}
