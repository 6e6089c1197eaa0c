package meta

import (
	"fmt"

	"github.com/coregx/vimre/literal"
	"github.com/coregx/vimre/nfa"
	"github.com/coregx/vimre/prefilter"
	"github.com/coregx/vimre/syntax"
)

// Compile compiles a pattern string into an executable Engine.
//
// Steps:
//  1. Parse the pattern (magic mode)
//  2. Resolve case sensitivity (\c, \C, smartcase, ignorecase)
//  3. Compile to NFA
//  4. Extract prefix literals and build prefilters (case-sensitive only)
//  5. Select strategy
//
// Returns an error if:
//   - Pattern syntax is invalid (the error wraps a *syntax.Error)
//   - Pattern is too complex (recursion or state limit exceeded)
//   - Configuration is invalid
//
// Example:
//
//	engine, err := meta.Compile(`hello.*world`)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(pattern string) (*Engine, error) {
	return CompileWithConfig(pattern, DefaultConfig())
}

// CompileWithConfig compiles a pattern with custom configuration.
//
// Example:
//
//	config := meta.DefaultConfig()
//	config.IgnoreCase = true
//	engine, err := meta.CompileWithConfig(`\<the\>`, config)
func CompileWithConfig(pattern string, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	pat, err := syntax.Parse(pattern)
	if err != nil {
		return nil, &nfa.CompileError{
			Pattern: pattern,
			Err:     fmt.Errorf("%w: %w", nfa.ErrInvalidPattern, err),
		}
	}
	return CompilePattern(pat, config)
}

// CompilePattern compiles an already parsed pattern.
func CompilePattern(pat *syntax.Pattern, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	fold := resolveFoldCase(pat, config)
	compiler := nfa.NewCompiler(nfa.CompilerConfig{
		IgnoreCase:        fold,
		MaxRecursionDepth: config.MaxRecursionDepth,
		MaxStates:         config.MaxStates,
	})
	nfaEngine, err := compiler.CompileTree(pat)
	if err != nil {
		return nil, err
	}

	bt := nfa.NewBacktrackerWithConfig(nfaEngine, nfa.BacktrackerConfig{
		MaxVisitedSize: config.MaxVisitedSize,
		MaxSteps:       config.MaxSteps,
	})

	var (
		pf  prefilter.Prefilter
		rpf prefilter.RunePrefilter
	)
	// Folded literals have several spellings; the extracted prefixes only
	// describe one of them.
	if config.EnablePrefilter && !fold {
		pf, rpf = buildPrefilters(pat, config)
	}

	strategy := selectStrategy(pat, pf != nil || rpf != nil)
	if strategy != UsePrefilter {
		pf, rpf = nil, nil
	}

	return &Engine{
		nfa:             nfaEngine,
		backtracker:     bt,
		prefilter:       pf,
		runePrefilter:   rpf,
		strategy:        strategy,
		config:          config,
		foldCase:        fold,
		isStartAnchored: strategy == UseAnchored,
		statePool:       newSearchStatePool(),
	}, nil
}

// resolveFoldCase applies Vim's precedence: \c, then \C, then 'smartcase'
// (an uppercase letter outside a backslash item), then 'ignorecase'.
func resolveFoldCase(pat *syntax.Pattern, config Config) bool {
	switch {
	case pat.IgnoreCase:
		return true
	case pat.MatchCase:
		return false
	case !config.IgnoreCase:
		return false
	case config.SmartCase && syntax.HasUppercase(pat.Expr):
		return false
	default:
		return true
	}
}

// buildPrefilters extracts the prefix literals of pat and builds the byte
// and rune prefilters. Either may be nil.
func buildPrefilters(pat *syntax.Pattern, config Config) (prefilter.Prefilter, prefilter.RunePrefilter) {
	extractor := literal.New(literal.ExtractorConfig{
		MaxLiterals:   config.MaxLiterals,
		MaxLiteralLen: literal.DefaultConfig().MaxLiteralLen,
		MaxClassSize:  literal.DefaultConfig().MaxClassSize,
	})
	prefixes := extractor.ExtractPrefixes(pat)
	if prefixes.IsEmpty() {
		return nil, nil
	}
	builder := prefilter.NewBuilder(prefixes)
	return builder.Build(), builder.BuildRunes()
}
