// Package meta compiles Vim patterns into search engines and runs them.
//
// An Engine combines the pieces of the pipeline:
//   - syntax: parse the magic-mode pattern
//   - nfa: compile the tree and run the priority-ordered backtracker
//   - literal + prefilter: skip start positions that cannot begin a match
//
// It resolves case sensitivity the way Vim does ('ignorecase', 'smartcase',
// \c and \C), pools search states so one Engine serves many goroutines, and
// implements the find-next loop used by incremental search and :s.
package meta

import "github.com/coregx/vimre/nfa"

// Config controls compilation and search limits.
//
// Example:
//
//	config := meta.DefaultConfig()
//	config.IgnoreCase = true
//	config.SmartCase = true
//	engine, err := meta.CompileWithConfig(`Foo\d`, config)
type Config struct {
	// IgnoreCase mirrors Vim's 'ignorecase': letters match either case
	// unless the pattern contains \C.
	// Default: false
	IgnoreCase bool

	// SmartCase mirrors Vim's 'smartcase': with IgnoreCase set, a pattern
	// containing an uppercase letter is matched case-sensitively.
	// Default: false
	SmartCase bool

	// EnablePrefilter enables literal-based prefiltering of start positions.
	// Default: true
	EnablePrefilter bool

	// MaxLiterals limits the number of prefix literals extracted for
	// prefiltering.
	// Default: 64
	MaxLiterals int

	// MaxRecursionDepth limits group nesting during compilation.
	// Default: 100
	MaxRecursionDepth int

	// MaxStates limits the size of the compiled automaton.
	// Default: 100000
	MaxStates int

	// MaxSteps bounds the state entries of one search call. 0 means no limit.
	// Exceeding it returns nfa.ErrStepLimit.
	// Default: 0
	MaxSteps int

	// MaxVisitedSize is the largest flat (state, position) memo bit set, in
	// bits. Larger searches allocate the bit set in pages as they touch it.
	// 0 disables memoization and leaves only the per-path loop guard.
	// Default: 2M bits (256KB)
	MaxVisitedSize int
}

// DefaultConfig returns a configuration matching Vim's defaults.
//
// Example:
//
//	engine, err := meta.CompileWithConfig(`\<word\>`, meta.DefaultConfig())
func DefaultConfig() Config {
	return Config{
		IgnoreCase:        false,
		SmartCase:         false,
		EnablePrefilter:   true,
		MaxLiterals:       64,
		MaxRecursionDepth: 100,
		MaxStates:         100_000,
		MaxSteps:          0,
		MaxVisitedSize:    256 * 1024 * 8,
	}
}

// Validate checks if the configuration is valid.
// Returns an error if any parameter is out of range.
//
// Example:
//
//	config := meta.DefaultConfig()
//	config.MaxStates = -1
//	if err := config.Validate(); err != nil {
//	    log.Fatal(err) // "regexp: invalid config: MaxStates: must be between 16 and 10,000,000"
//	}
func (c Config) Validate() error {
	if c.EnablePrefilter {
		if c.MaxLiterals < 1 || c.MaxLiterals > 1_000 {
			return &ConfigError{
				Field:   "MaxLiterals",
				Message: "must be between 1 and 1,000",
			}
		}
	}

	if c.MaxRecursionDepth < 10 || c.MaxRecursionDepth > 1_000 {
		return &ConfigError{
			Field:   "MaxRecursionDepth",
			Message: "must be between 10 and 1,000",
		}
	}

	if c.MaxStates < 16 || c.MaxStates > 10_000_000 {
		return &ConfigError{
			Field:   "MaxStates",
			Message: "must be between 16 and 10,000,000",
		}
	}

	if c.MaxSteps < 0 {
		return &ConfigError{
			Field:   "MaxSteps",
			Message: "must not be negative",
		}
	}

	if c.MaxVisitedSize < 0 {
		return &ConfigError{
			Field:   "MaxVisitedSize",
			Message: "must not be negative",
		}
	}

	return nil
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "regexp: invalid config: " + e.Field + ": " + e.Message
}

// Unwrap returns nfa.ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return nfa.ErrInvalidConfig
}
