package nfa

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/vimre/syntax"
)

// DecodeChar decodes the source text of a literal character or collection
// element. Escapes are tried in this order: decimal (\%d123), octal (\%o40),
// short hex (\%x2a), long hex (\%u20AC, \%U1F600), named (\e \t \r \b \n),
// escaped literal (\. stands for "."), bare character. Inside collections the
// numeric forms are written without the "%". eol reports a \n escape, which
// makes a collection match end-of-line.
func DecodeChar(text string) (r rune, eol bool, err error) {
	if text == "" {
		return 0, false, fmt.Errorf("%w: empty character", ErrInvalidPattern)
	}
	if text[0] != '\\' || len(text) == 1 {
		r, size := utf8.DecodeRuneInString(text)
		if size != len(text) {
			return 0, false, fmt.Errorf("%w: %q is not a single character", ErrInvalidPattern, text)
		}
		return r, false, nil
	}

	body := text[1:]
	percent := body[0] == '%'
	if percent {
		body = body[1:]
		if body == "" {
			return 0, false, fmt.Errorf("%w: incomplete \\%% escape", ErrInvalidPattern)
		}
	}
	if r, ok, err := decodeNumeric(body); ok || err != nil {
		return r, false, err
	}
	if percent {
		return 0, false, fmt.Errorf("%w: invalid \\%% escape %q", ErrInvalidPattern, text)
	}

	switch body {
	case "e":
		return 0x1b, false, nil
	case "t":
		return '\t', false, nil
	case "r":
		return '\r', false, nil
	case "b":
		return 0x08, false, nil
	case "n":
		return '\n', true, nil
	}
	r, size := utf8.DecodeRuneInString(body)
	if size != len(body) {
		return 0, false, fmt.Errorf("%w: %q is not a single character", ErrInvalidPattern, text)
	}
	return r, false, nil
}

// decodeNumeric decodes d123, o40, x2a, u20AC and U1F600. ok is false when
// body is not a numeric form.
func decodeNumeric(body string) (rune, bool, error) {
	if len(body) < 2 {
		return 0, false, nil
	}
	var base, limit int
	switch body[0] {
	case 'd':
		base, limit = 10, 10
	case 'o':
		base, limit = 8, 3
	case 'x':
		base, limit = 16, 2
	case 'u':
		base, limit = 16, 4
	case 'U':
		base, limit = 16, 8
	default:
		return 0, false, nil
	}
	digits := body[1:]
	if len(digits) > limit {
		return 0, true, fmt.Errorf("%w: too many digits in \\%s", ErrInvalidPattern, body)
	}
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, false, nil
	}
	if n > unicode.MaxRune {
		return 0, true, fmt.Errorf("%w: character value %d out of range", ErrInvalidPattern, n)
	}
	return rune(n), true, nil
}

// ElementKind identifies a collection element.
type ElementKind uint8

const (
	ElementSingle ElementKind = iota
	ElementRange
	ElementNamed
)

// CollectionElement is one decoded [] item. EOL is set when the source was a
// \n escape, which lets a non-negated collection match end-of-line.
type CollectionElement struct {
	Kind  ElementKind
	Lo    rune
	Hi    rune
	Named NamedClass
	EOL   bool
}

// CompileCollectionElement decodes one collection item.
func CompileCollectionElement(item syntax.CollectionItem) (CollectionElement, error) {
	switch item.Kind {
	case syntax.ItemSingle:
		r, eol, err := DecodeChar(item.From)
		if err != nil {
			return CollectionElement{}, err
		}
		return CollectionElement{Kind: ElementSingle, Lo: r, Hi: r, EOL: eol}, nil
	case syntax.ItemRange:
		lo, eolLo, err := DecodeChar(item.From)
		if err != nil {
			return CollectionElement{}, err
		}
		hi, eolHi, err := DecodeChar(item.To)
		if err != nil {
			return CollectionElement{}, err
		}
		if lo > hi {
			return CollectionElement{}, fmt.Errorf("%w: E944: Reverse range in character class", ErrInvalidPattern)
		}
		return CollectionElement{Kind: ElementRange, Lo: lo, Hi: hi, EOL: eolLo || eolHi}, nil
	case syntax.ItemNamedClass:
		n, ok := LookupNamedClass(item.Name)
		if !ok {
			return CollectionElement{}, fmt.Errorf("%w: unknown class [:%s:]", ErrInvalidPattern, item.Name)
		}
		return CollectionElement{Kind: ElementNamed, Named: n}, nil
	}
	return CollectionElement{}, fmt.Errorf("%w: collection item kind %d", ErrUnsupportedNode, item.Kind)
}

// CompileCollection builds the class for a [] or \_[] collection. The class
// matches end-of-line when it was written with \_ or when it is not negated
// and contains an end-of-line element.
func CompileCollection(coll *syntax.Collection, fold bool) (*Class, error) {
	class := &Class{Negated: coll.Negated, Fold: fold}
	eol := false
	for _, item := range coll.Items {
		el, err := CompileCollectionElement(item)
		if err != nil {
			return nil, err
		}
		eol = eol || el.EOL
		switch el.Kind {
		case ElementSingle:
			class.Singles = append(class.Singles, el.Lo)
		case ElementRange:
			class.Ranges = append(class.Ranges, RuneRange{Lo: el.Lo, Hi: el.Hi})
		case ElementNamed:
			class.Named = append(class.Named, el.Named)
		}
	}
	class.Newline = coll.Newline || (eol && !coll.Negated)
	return class, nil
}
