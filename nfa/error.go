// Package nfa compiles parsed Vim patterns into a Thompson-style automaton and
// runs it with a priority-ordered backtracking engine.
//
// The automaton is an arena of states addressed by StateID. Transition order
// encodes preference: greedy and lazy multis, as well as ordered alternation,
// are expressed purely by the order in which a state lists its transitions.
// Captures, \zs/\ze and lookaround assertions are attached to states and
// evaluated by the Backtracker.
package nfa

import (
	"errors"
	"fmt"
)

// Common NFA errors
var (
	// ErrInvalidState is wrapped by every BuildError
	ErrInvalidState = errors.New("invalid NFA state")

	// ErrInvalidPattern indicates the pattern is malformed or unsupported
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrTooComplex indicates the pattern exceeds the compiler limits
	ErrTooComplex = errors.New("pattern too complex")

	// ErrInvalidBounds is reported for malformed \{} bounds or lookbehind limits
	ErrInvalidBounds = fmt.Errorf("%w: invalid repetition bounds", ErrInvalidPattern)

	// ErrZeroWidthMulti is reported when a quantifier follows a zero-width atom
	ErrZeroWidthMulti = fmt.Errorf("%w: multi follows a zero-width item", ErrInvalidPattern)

	// ErrUnsupportedNode is reported for tree shapes the compiler does not know
	ErrUnsupportedNode = fmt.Errorf("%w: unsupported syntax node", ErrInvalidPattern)

	// ErrInvalidBackref is reported for \N when group N does not exist (E65)
	ErrInvalidBackref = fmt.Errorf("%w: E65: Illegal back reference", ErrInvalidPattern)

	// ErrInvalidConfig is wrapped by configuration validation errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStepLimit is returned when a search exceeds its step budget
	ErrStepLimit = errors.New("search step limit exceeded")

	// ErrAborted is returned when the abort hook stops a search
	ErrAborted = errors.New("search aborted")
)

// CompileError wraps compilation errors with additional context
type CompileError struct {
	Pattern string
	Err     error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("compiling %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("compile failed: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *CompileError) Unwrap() error {
	return e.Err
}

// BuildError represents an error during NFA construction via the Builder API
type BuildError struct {
	Message string
	StateID StateID
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.StateID != InvalidState {
		return fmt.Sprintf("NFA build error at state %d: %s", e.StateID, e.Message)
	}
	return fmt.Sprintf("NFA build error: %s", e.Message)
}

// Unwrap returns ErrInvalidState, so callers can test with errors.Is.
func (e *BuildError) Unwrap() error {
	return ErrInvalidState
}
