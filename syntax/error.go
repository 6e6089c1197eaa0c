package syntax

import "fmt"

// ErrorCode identifies a parse failure. The messages follow Vim's wording
// and carry Vim's error numbers so callers can show familiar diagnostics.
type ErrorCode string

const (
	ErrUnmatchedOpen      ErrorCode = `E54: Unmatched \(`
	ErrUnmatchedClose     ErrorCode = `E55: Unmatched \)`
	ErrTooManyGroups      ErrorCode = `E51: Too many \(`
	ErrNestedMulti        ErrorCode = `E61: Nested multi`
	ErrMultiFollowsNone   ErrorCode = `E64: multi follows nothing`
	ErrInvalidAfterAt     ErrorCode = `E59: Invalid character after \@`
	ErrInvalidAfterZ      ErrorCode = `E68: Invalid character after \z`
	ErrInvalidAfterPct    ErrorCode = `E71: Invalid character after \%`
	ErrMissingBrace       ErrorCode = `E554: Syntax error in \{...}`
	ErrTrailingBackslash  ErrorCode = `E10: \ should be followed by /, ? or &`
	ErrNoPrevSubstitute   ErrorCode = `E33: No previous substitute regular expression`
	ErrInvalidBackref     ErrorCode = `E65: Illegal back reference`
	ErrMagicLevel         ErrorCode = `unsupported magic level switch`
	ErrUnsupportedEscape  ErrorCode = `unsupported escape sequence`
	ErrUnterminatedPctPar ErrorCode = `E53: Unmatched \%(`

	// ErrMissingBracket is reported for an unterminated \_[ collection. A
	// plain unterminated [ is a literal bracket.
	ErrMissingBracket ErrorCode = `E769: Missing ] after \_[`
)

// Error is returned by Parse.
type Error struct {
	Code ErrorCode
	Expr string
	Pos  int
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("vim regex: %s at offset %d in %q", e.Code, e.Pos, e.Expr)
}

// Is reports whether target is an *Error with the same code, so callers can
// write errors.Is(err, &syntax.Error{Code: syntax.ErrNestedMulti}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
