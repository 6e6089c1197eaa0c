package meta

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/coregx/vimre/nfa"
	"github.com/coregx/vimre/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, pattern string) *Engine {
	t.Helper()
	engine, err := Compile(pattern)
	require.NoError(t, err, "pattern %q", pattern)
	return engine
}

// spans flattens matches into [start, end] pairs.
func spans(matches []*Match) [][]int {
	out := make([][]int, len(matches))
	for i, m := range matches {
		out[i] = []int{m.Start(), m.End()}
	}
	return out
}

func TestEngineFindAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		input   string
		at      int
		want    []int
	}{
		{"literal", "abc", "xxabcx", 0, []int{2, 5}},
		{"literal from offset", "ab", "abab", 1, []int{2, 4}},
		{"no match", "abd", "xxabcx", 0, nil},
		{"alternation", `foo\|bar`, "say bar", 0, []int{4, 7}},
		{"class", `\d\+`, "ab123", 0, []int{2, 5}},
		{"zs", `foo\zsbar`, "foobar", 0, []int{3, 6}},
		{"ze", `foo\zebar`, "xfoobar", 0, []int{1, 4}},
		{"lookbehind", `\(foo\)\@<=bar`, "bar foobar", 0, []int{7, 10}},
		{"word", `\<is\>`, "this is", 0, []int{5, 7}},
		{"anchored", `\%^foo`, "foobar", 0, []int{0, 3}},
		{"anchored elsewhere", `\%^foo`, "xfoo", 0, nil},
		{"anchored offset", `\%^foo`, "foofoo", 1, nil},
		{"empty", "", "abc", 2, []int{2, 2}},
		{"out of range", "a", "abc", 4, nil},
		{"negative", "a", "abc", -1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := mustCompile(t, tt.pattern)
			for _, in := range []nfa.Input{nfa.Bytes(tt.input), nfa.Runes([]rune(tt.input))} {
				m, err := engine.FindAt(context.Background(), in, tt.at)
				require.NoError(t, err)
				if tt.want == nil {
					assert.Nil(t, m)
					continue
				}
				require.NotNil(t, m)
				assert.Equal(t, tt.want, []int{m.Start(), m.End()})
			}
		})
	}
}

func TestEngineMatchAt(t *testing.T) {
	t.Parallel()

	engine := mustCompile(t, "foo")
	in := nfa.Runes([]rune("xfoo"))

	m, err := engine.MatchAt(context.Background(), in, 0)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = engine.MatchAt(context.Background(), in, 1)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 1, m.Start())
	assert.Equal(t, 4, m.End())

	m, err = engine.MatchAt(context.Background(), in, 5)
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestEngineCaptures(t *testing.T) {
	t.Parallel()

	engine := mustCompile(t, `\(\w\+\)@\(\w\+\)`)
	assert.Equal(t, 3, engine.NumCaptures())

	in := nfa.Bytes("mail bob@example now")
	m, err := engine.FindAt(context.Background(), in, 0)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 3, m.NumGroups())
	assert.Equal(t, "bob@example", m.Text(in, 0))
	assert.Equal(t, "bob", m.Text(in, 1))
	assert.Equal(t, "example", m.Text(in, 2))
	assert.Equal(t, "", m.Text(in, 3))

	start, end, ok := m.Group(2)
	assert.True(t, ok)
	assert.Equal(t, []int{9, 16}, []int{start, end})
}

func TestEngineFindAll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		input   string
		n       int
		want    [][]int
	}{
		{"literals", "o", "foo boo", -1, [][]int{{1, 2}, {2, 3}, {5, 6}, {6, 7}}},
		{"limit", "o", "foo boo", 2, [][]int{{1, 2}, {2, 3}}},
		{"none", "z", "foo", -1, nil},
		{"empty matches", "a*", "baaac", -1, [][]int{{0, 0}, {1, 4}, {5, 5}}},
		{"empty after match", "x*", "xxa", -1, [][]int{{0, 2}, {3, 3}}},
		{"empty pattern", "", "ab", -1, [][]int{{0, 0}, {1, 1}, {2, 2}}},
		{"zs", `a\zsb`, "abab", -1, [][]int{{1, 2}, {3, 4}}},
		{"anchored", `\%^a`, "aaa", -1, [][]int{{0, 1}}},
		{"words", `\<\w\+\>`, "one two three", -1, [][]int{{0, 3}, {4, 7}, {8, 13}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := mustCompile(t, tt.pattern)
			matches, err := engine.FindAll(context.Background(), nfa.Runes([]rune(tt.input)), tt.n)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, matches)
				return
			}
			assert.Equal(t, tt.want, spans(matches))
		})
	}

	engine := mustCompile(t, "o")
	matches, err := engine.FindAll(context.Background(), nfa.Bytes("foo"), 0)
	assert.NoError(t, err)
	assert.Nil(t, matches)
}

func TestEngineIsMatch(t *testing.T) {
	t.Parallel()

	engine := mustCompile(t, `b\+`)
	ok, err := engine.IsMatch(context.Background(), nfa.Bytes("abbc"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = engine.IsMatch(context.Background(), nfa.Bytes("ac"))
	require.NoError(t, err)
	assert.False(t, ok)
}

// The prefilter must never change the result of a search.
func TestPrefilterEquivalence(t *testing.T) {
	t.Parallel()

	patterns := []string{
		"needle",
		"e",
		`foo\|bar\|baz`,
		`\(ab\|cd\|ef\|gh\)\d`,
		`\<the\>`,
		`x\{2,3}`,
		`foo\zsbar`,
		`\(foo\)\@<=bar`,
		`é\+`,
		`naïve\|café`,
		`[ab]c`,
	}
	inputs := []string{
		"",
		"needle in a haystack with another needle",
		"foobar barbaz bazfoo",
		"ab1 cd ef2 gh gh3",
		"the other theme, the end",
		"xxxx x xx",
		"naïve café, ééé",
		"bc ac abc",
	}

	off := DefaultConfig()
	off.EnablePrefilter = false
	for _, pattern := range patterns {
		with := mustCompile(t, pattern)
		without, err := CompileWithConfig(pattern, off)
		require.NoError(t, err)
		for _, input := range inputs {
			for _, in := range []nfa.Input{nfa.Bytes(input), nfa.Runes([]rune(input))} {
				got, err := with.FindAll(context.Background(), in, -1)
				require.NoError(t, err)
				want, err := without.FindAll(context.Background(), in, -1)
				require.NoError(t, err)
				assert.Equal(t, spans(want), spans(got), "%q on %q (%T)", pattern, input, in)
			}
		}
	}
}

func TestEngineCaseResolution(t *testing.T) {
	t.Parallel()

	ignore := DefaultConfig()
	ignore.IgnoreCase = true
	smart := ignore
	smart.SmartCase = true

	tests := []struct {
		name    string
		pattern string
		config  Config
		input   string
		fold    bool
		match   bool
	}{
		{"default is case sensitive", "foo", DefaultConfig(), "FOO", false, false},
		{"ignorecase", "foo", ignore, "FOO", true, true},
		{"match case flag wins", `\Cfoo`, ignore, "FOO", false, false},
		{"ignore case flag", `\cfoo`, DefaultConfig(), "FOO", true, true},
		{"smartcase lower", "foo", smart, "FOO", true, true},
		{"smartcase upper", "Foo", smart, "FOO", false, false},
		{"smartcase upper matches itself", "Foo", smart, "xFoo", false, true},
		{"smartcase skips escapes", `\Sfoo`, smart, "xFOO", true, true},
		{"ignore case flag beats smartcase", `\cFoo`, smart, "FOO", true, true},
		{"smartcase without ignorecase", "foo", Config{
			SmartCase: true, EnablePrefilter: true, MaxLiterals: 64,
			MaxRecursionDepth: 100, MaxStates: 1000,
		}, "FOO", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := CompileWithConfig(tt.pattern, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.fold, engine.FoldCase())
			ok, err := engine.IsMatch(context.Background(), nfa.Bytes(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.match, ok)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	_, err := Compile(`\(abc`)
	require.Error(t, err)
	assert.ErrorIs(t, err, nfa.ErrInvalidPattern)
	assert.ErrorIs(t, err, &syntax.Error{Code: syntax.ErrUnmatchedOpen})
	var cerr *nfa.CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, `\(abc`, cerr.Pattern)

	_, err = Compile(`\(a\)\2`)
	assert.ErrorIs(t, err, &syntax.Error{Code: syntax.ErrInvalidBackref})

	config := DefaultConfig()
	config.MaxStates = 16
	_, err = CompileWithConfig(`a\{100}`, config)
	assert.ErrorIs(t, err, nfa.ErrTooComplex)
}

func TestCompilePattern(t *testing.T) {
	t.Parallel()

	engine, err := CompilePattern(syntax.MustParse(`\d\{3}`), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, `\d\{3}`, engine.Pattern())
	assert.NotNil(t, engine.NFA())
	m, err := engine.FindAt(context.Background(), nfa.Bytes("ab1234"), 0)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Start())
}

func TestEngineStepLimit(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.EnablePrefilter = false
	config.MaxSteps = 5
	engine, err := CompileWithConfig("abc", config)
	require.NoError(t, err)

	_, err = engine.FindAt(context.Background(), nfa.Bytes("xxxxabc"), 0)
	assert.ErrorIs(t, err, nfa.ErrStepLimit)
	assert.Equal(t, uint64(1), engine.Stats().StepLimited)

	// FindAll returns the matches found before the error.
	config.MaxSteps = 6
	engine, err = CompileWithConfig("abc", config)
	require.NoError(t, err)
	matches, err := engine.FindAll(context.Background(), nfa.Bytes("abc abc"), -1)
	assert.ErrorIs(t, err, nfa.ErrStepLimit)
	assert.Equal(t, [][]int{{0, 3}}, spans(matches))
}

// lateCancel is a context that reports cancellation from its second Err call on.
type lateCancel struct {
	context.Context
	mu    sync.Mutex
	calls int
	done  chan struct{}
}

func newLateCancel() *lateCancel {
	return &lateCancel{Context: context.Background(), done: make(chan struct{})}
}

func (c *lateCancel) Done() <-chan struct{} { return c.done }

func (c *lateCancel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls > 1 {
		return context.Canceled
	}
	return nil
}

func TestEngineAbort(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := mustCompile(t, "a")
	_, err := engine.FindAt(ctx, nfa.Bytes("a"), 0)
	assert.ErrorIs(t, err, nfa.ErrAborted)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = engine.MatchAt(ctx, nfa.Bytes("a"), 0)
	assert.ErrorIs(t, err, nfa.ErrAborted)
	assert.Equal(t, uint64(2), engine.Stats().Aborted)

	// Catastrophic backtracking is interrupted by the context poll.
	config := DefaultConfig()
	config.MaxVisitedSize = 0
	engine, err = CompileWithConfig(`\(a*\)*b`, config)
	require.NoError(t, err)
	_, err = engine.FindAt(newLateCancel(), nfa.Bytes(strings.Repeat("a", 40)+"c"), 0)
	assert.ErrorIs(t, err, nfa.ErrAborted)
	assert.ErrorIs(t, err, context.Canceled)
	stats := engine.Stats()
	assert.Equal(t, uint64(1), stats.Aborted)
	assert.GreaterOrEqual(t, stats.Steps, uint64(abortCheckInterval))
}

func TestEngineLargeInputStaysLinear(t *testing.T) {
	t.Parallel()

	// The input is far past the flat memo limit; the paged memo keeps the
	// search well inside the step budget.
	config := DefaultConfig()
	config.MaxVisitedSize = 1024
	config.MaxSteps = 2_000_000
	engine, err := CompileWithConfig(`\%(a\|a\)*c`, config)
	require.NoError(t, err)

	input := nfa.Bytes(strings.Repeat("a", 25) + strings.Repeat("b", 20_000))
	m, err := engine.FindAt(context.Background(), input, 0)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Zero(t, engine.Stats().StepLimited)
}

func TestEngineStats(t *testing.T) {
	t.Parallel()

	engine := mustCompile(t, `e\d`)
	require.Equal(t, UsePrefilter, engine.Strategy())

	// Every position is a candidate: the prefilter is retired.
	input := nfa.Bytes(strings.Repeat("e", 300) + "1")
	m, err := engine.FindAt(context.Background(), input, 0)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 299, m.Start())

	stats := engine.Stats()
	assert.Equal(t, uint64(1), stats.Searches)
	assert.Equal(t, uint64(1), stats.PrefilterAbandoned)
	assert.GreaterOrEqual(t, stats.PrefilterCandidates, uint64(128))
	assert.NotZero(t, stats.Steps)

	// Sparse candidates keep it.
	engine.ResetStats()
	assert.Equal(t, Stats{}, engine.Stats())
	_, err = engine.FindAt(context.Background(), nfa.Bytes(strings.Repeat("x", 300)+"e1"), 0)
	require.NoError(t, err)
	stats = engine.Stats()
	assert.Equal(t, uint64(1), stats.PrefilterCandidates)
	assert.Zero(t, stats.PrefilterAbandoned)
}

func TestEngineConcurrent(t *testing.T) {
	t.Parallel()

	engine := mustCompile(t, `\(\w\+\)@\(\w\+\)`)
	input := nfa.Bytes(strings.Repeat("to alice@example, cc bob@test; ", 20))
	want, err := engine.FindAll(context.Background(), input, -1)
	require.NoError(t, err)
	require.Len(t, want, 40)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				got, err := engine.FindAll(context.Background(), input, -1)
				if err != nil {
					errs <- err
					return
				}
				if len(got) != len(want) || got[len(got)-1].End() != want[len(want)-1].End() {
					errs <- errors.New("concurrent search returned different matches")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
