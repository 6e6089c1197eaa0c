package nfa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, pattern string) *NFA {
	t.Helper()
	n, err := NewDefaultCompiler().Compile(pattern)
	require.NoError(t, err, "pattern %q", pattern)
	return n
}

// search returns the spans of the leftmost match, or nil.
func search(t *testing.T, pattern, input string) []int {
	t.Helper()
	bt := NewBacktracker(mustCompile(t, pattern))
	caps, err := bt.Search(NewBacktrackerState(), Runes(input), 0, nil)
	require.NoError(t, err)
	if caps == nil {
		return nil
	}
	return caps.Spans()
}

// searchNoMemo is search with the (state, position) bit set disabled, so the
// per-path loop guard is exercised.
func searchNoMemo(t *testing.T, pattern, input string) []int {
	t.Helper()
	bt := NewBacktrackerWithConfig(mustCompile(t, pattern), BacktrackerConfig{MaxVisitedSize: 0})
	caps, err := bt.Search(NewBacktrackerState(), Runes(input), 0, nil)
	require.NoError(t, err)
	if caps == nil {
		return nil
	}
	return caps.Spans()
}

func TestBacktrackerSearch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		input   string
		want    []int
	}{
		{"literal", "abc", "xxabcx", []int{2, 5}},
		{"no match", "abd", "xxabcx", nil},
		{"empty pattern", "", "abc", []int{0, 0}},
		{"star greedy", "a*", "aaa", []int{0, 3}},
		{"star lazy", `a\{-}`, "aaa", []int{0, 0}},
		{"plus", `a\+`, "baab", []int{1, 3}},
		{"lazy plus", `a\{-1,}`, "aaa", []int{0, 1}},
		{"optional", `ab\=c`, "ac abc", []int{0, 2}},
		{"question optional", `ab\?c`, "abc", []int{0, 3}},
		{"exact count", `a\{2}`, "aaa", []int{0, 2}},
		{"range greedy", `a\{2,3}`, "aaaa", []int{0, 3}},
		{"range lazy", `a\{-2,3}`, "aaaa", []int{0, 2}},
		{"reversed range", `a\{3,2}`, "aaaa", []int{0, 3}},
		{"lazy reversed range", `a\{-3,2}`, "aaaa", []int{0, 2}},
		{"reversed range collection", `[ab]\{2,1}`, "ab", []int{0, 2}},
		{"upper only", `a\{,2}`, "aaa", []int{0, 2}},
		{"lower only", `a\{2,}`, "aaaaa", []int{0, 5}},
		{"empty braces", `a\{}`, "aaa", []int{0, 3}},
		{"zero count", `ba\{0}c`, "bc", []int{0, 2}},
		{"alternation order", `a\|ab`, "ab", []int{0, 1}},
		{"alternation second", `x\|ab`, "ab", []int{0, 2}},
		{"any", "a.c", "abc", []int{0, 3}},
		{"any no newline", "a.c", "a\nc", nil},
		{"any newline", `a\_.c`, "a\nc", []int{0, 3}},
		{"collection", "[abc]\\+", "xxcabz", []int{2, 5}},
		{"negated collection", "[^abc]", "abcd", []int{3, 4}},
		{"negated collection skips newline", "[^a]", "a\n", nil},
		{"newline collection", `\_[^a]`, "a\n", []int{1, 2}},
		{"collection with newline item", `x[\n]`, "x\n", []int{0, 2}},
		{"negated newline item", `x[^\n]`, "x\n", nil},
		{"named class", "[[:digit:]]\\+", "ab123", []int{2, 5}},
		{"class escape", `\d\+`, "ab123", []int{2, 5}},
		{"negated class escape", `\D\+`, "12ab3", []int{2, 4}},
		{"class escape no newline", `a\Sb`, "a\nb", nil},
		{"class escape newline", `a\_sb`, "a\nb", []int{0, 3}},
		{"line start", "^b", "a\nb", []int{2, 3}},
		{"line end", "a$", "ba\nb", []int{1, 2}},
		{"text start", `\%^a`, "aa", []int{0, 1}},
		{"text end", `a\%$`, "aa", []int{1, 2}},
		{"word bounds", `\<foo\>`, "afoo foo", []int{5, 8}},
		{"zs", `foo\zsbar`, "foobar", []int{3, 6}},
		{"ze", `foo\zebar`, "foobar", []int{0, 3}},
		{"ze requires rest", `foo\zebaz`, "foobar", nil},
		{"branch", `foobar\&foo`, "foobar", []int{0, 3}},
		{"branch all must match", `.*Peter\&.*Bob`, "Bob and Peter", []int{0, 3}},
		{"branch failure", `.*Peter\&.*Bob`, "Bob and Paul", nil},
		{"escaped literals", `a\.b\*c\[`, "a.b*c[", []int{0, 6}},
		{"numeric escapes", `\%x41\%u20AC\%d66`, "A€B", []int{0, 3}},
		{"tab escape", `a\tb`, "a\tb", []int{0, 3}},
		{"ignore case flag", `\cFOO`, "xfoo", []int{1, 4}},
		{"ignore case collection", `\c[A-C]\+`, "xabcd", []int{1, 4}},
		{"literal star at start", `*a`, "x*a", []int{1, 3}},
		{"unicode", "é\\+", "aééb", []int{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := search(t, tt.pattern, tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got[:2])
			assert.Equal(t, got, searchNoMemo(t, tt.pattern, tt.input))
		})
	}
}

func TestBacktrackerCaptures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		input   string
		want    []int
	}{
		{"last iteration", `\(a\)*`, "aaa", []int{0, 3, 2, 3}},
		{"last iteration of count", `\(ab\)\{2}`, "ababab", []int{0, 4, 2, 4}},
		{"nested groups", `\(a\(b\)\)c`, "abc", []int{0, 3, 0, 2, 1, 2}},
		{"unused group absent", `\(a\)\|\(b\)`, "a", []int{0, 1, 0, 1, -1, -1}},
		{"second alternative", `\(a\)\|\(b\)`, "b", []int{0, 1, -1, -1, 0, 1}},
		{"empty group", `x\(\)`, "x", []int{0, 1, 1, 1}},
		{"non-capturing", `\%(a\)\(b\)`, "ab", []int{0, 2, 1, 2}},
		{"lookahead keeps captures", `x\(y\)\@=`, "xy", []int{0, 1, 1, 2}},
		{"negative lookahead drops captures", `x\(z\)\@!`, "xy", []int{0, 1, -1, -1}},
		{"lookbehind captures", `\(foo\)\@<=bar`, "foobar", []int{3, 6, 0, 3}},
		{"group after zs", `a\zs\(b\)`, "ab", []int{1, 2, 1, 2}},
		{"optional group skipped", `a\(b\)\=c`, "ac", []int{0, 2, -1, -1}},
		{"zero count group numbered", `\(a\)\{0}\(b\)`, "b", []int{0, 1, -1, -1, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, search(t, tt.pattern, tt.input))
		})
	}
}

func TestBacktrackerBackrefs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		input   string
		want    []int
	}{
		{`\(a\|b\)\1`, "abba", []int{1, 3, 1, 2}},
		{`\(\w\+\) \1`, "hello hello", []int{0, 11, 0, 5}},
		{`\(\w\+\) \1`, "hello world", nil},
		{`\c\(a\)\1`, "aA", []int{0, 2, 0, 1}},
		{`\(x\)\=y\1`, "y", []int{0, 1, -1, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			n := mustCompile(t, tt.pattern)
			assert.True(t, n.HasBackrefs())
			assert.False(t, NewBacktracker(n).CanMemoize())
			assert.Equal(t, tt.want, search(t, tt.pattern, tt.input))
		})
	}
}

func TestBacktrackerLookaround(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		input   string
		want    []int
	}{
		{"positive ahead", `foo\(bar\)\@=`, "foobaz foobar", []int{7, 10}},
		{"negative ahead", `foo\(bar\)\@!`, "foobar foobaz", []int{7, 10}},
		{"positive behind", `\(foo\)\@<=bar`, "xbar foobar", []int{8, 11}},
		{"negative behind", `\(foo\)\@<!bar`, "foobar xbar", []int{8, 11}},
		{"behind limit too short", `\(aaa\)\@2<=b`, "aaab", nil},
		{"behind limit long enough", `\(aaa\)\@3<=b`, "aaab", []int{3, 4}},
		{"behind unbounded", `\(a.*\)\@<=b`, "a-----b", []int{6, 7}},
		{"behind nearest first", `\(a\+\)\@<=b`, "aab", []int{2, 3}},
		{"atomic no backtrack", `\(a*\)\@>a`, "aaa", nil},
		{"atomic consumes", `\(a*\)\@>b`, "aab", []int{0, 3}},
		{"negative behind at start", `\(x\)\@<!a`, "a", []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := search(t, tt.pattern, tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got[:2])
		})
	}

	// Nearest-first means the group covers the shortest run that ends here.
	got := search(t, `\(a\+\)\@<=b`, "aab")
	assert.Equal(t, []int{2, 3, 1, 2}, got)
}

func TestBacktrackerEmptyLoops(t *testing.T) {
	t.Parallel()

	for _, pattern := range []string{`\(\)*b`, `\%(a*\)*b`, `\%(a\{-}\)\{-}b`} {
		assert.Nil(t, search(t, pattern, "aaac"), pattern)
		assert.Nil(t, searchNoMemo(t, pattern, "aaac"), pattern)
	}
	assert.Equal(t, []int{0, 1, 0, 0}, search(t, `\(\)*a`, "a"))
	assert.Equal(t, []int{0, 4}, search(t, `\%(a*\)*b`, "aaab")[:2])
	assert.Equal(t, []int{0, 4}, searchNoMemo(t, `\%(a*\)*b`, "aaab")[:2])
}

func TestBacktrackerMatchAnchored(t *testing.T) {
	t.Parallel()

	bt := NewBacktracker(mustCompile(t, "b"))
	st := NewBacktrackerState()
	in := Runes("abc")

	caps, err := bt.Match(st, in, 0)
	require.NoError(t, err)
	assert.Nil(t, caps)

	caps, err = bt.Match(st, in, 1)
	require.NoError(t, err)
	require.NotNil(t, caps)
	assert.Equal(t, 1, caps.Start())
	assert.Equal(t, 2, caps.End())
}

func TestBacktrackerOutOfRange(t *testing.T) {
	t.Parallel()

	bt := NewBacktracker(mustCompile(t, `a*`))
	st := NewBacktrackerState()
	in := Runes("aaa")
	for _, at := range []int{-1, 4, 100} {
		caps, err := bt.Match(st, in, at)
		assert.NoError(t, err)
		assert.Nil(t, caps)
		caps, err = bt.Search(st, in, at, nil)
		assert.NoError(t, err)
		assert.Nil(t, caps)
	}

	// The end of the input is a valid position.
	caps, err := bt.Match(st, in, 3)
	require.NoError(t, err)
	require.NotNil(t, caps)
	assert.Equal(t, []int{3, 3}, caps.Spans())
}

func TestBacktrackerSearchCandidates(t *testing.T) {
	t.Parallel()

	bt := NewBacktracker(mustCompile(t, "ab"))
	in := Runes("abxab")
	var asked []int
	next := func(pos int) int {
		asked = append(asked, pos)
		if pos <= 3 {
			return 3
		}
		return -1
	}
	caps, err := bt.Search(NewBacktrackerState(), in, 0, next)
	require.NoError(t, err)
	require.NotNil(t, caps)
	assert.Equal(t, 3, caps.Start())
	assert.Equal(t, []int{0}, asked)
}

func TestBacktrackerStepLimit(t *testing.T) {
	t.Parallel()

	bt := NewBacktrackerWithConfig(mustCompile(t, "abc"), BacktrackerConfig{MaxVisitedSize: 1 << 20, MaxSteps: 5})
	st := NewBacktrackerState()
	_, err := bt.Search(st, Runes("xxxxabc"), 0, nil)
	assert.ErrorIs(t, err, ErrStepLimit)
	assert.Equal(t, 6, st.Steps())

	// "abc" enters exactly six states.
	bt = NewBacktrackerWithConfig(mustCompile(t, "abc"), BacktrackerConfig{MaxSteps: 6})
	caps, err := bt.Search(st, Runes("abc"), 0, nil)
	require.NoError(t, err)
	assert.NotNil(t, caps)
}

func TestBacktrackerAbort(t *testing.T) {
	t.Parallel()

	bt := NewBacktracker(mustCompile(t, `\(a*\)*b`))
	st := NewBacktrackerState()
	calls := 0
	st.Abort = func() bool {
		calls++
		return calls > 10
	}
	_, err := bt.Search(st, Runes("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaac"), 0, nil)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, 11, calls)
}

func TestBacktrackerStateReuse(t *testing.T) {
	t.Parallel()

	st := NewBacktrackerState()
	small := NewBacktracker(mustCompile(t, `\(a\)`))
	large := NewBacktracker(mustCompile(t, `\(a\)\(b\)\(c\)`))

	caps, err := large.Search(st, Runes("xabc"), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, caps.Len())

	caps, err = small.Search(st, Runes("ba"), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, caps.Len())
	assert.Equal(t, []int{1, 2, 1, 2}, caps.Spans())
}

func TestBacktrackerBytesInput(t *testing.T) {
	t.Parallel()

	bt := NewBacktracker(mustCompile(t, `b\+`))
	caps, err := bt.Search(NewBacktrackerState(), Bytes("aabbb"), 0, nil)
	require.NoError(t, err)
	require.NotNil(t, caps)
	assert.Equal(t, []int{2, 5}, caps.Spans())
}

func TestCapturesGroup(t *testing.T) {
	t.Parallel()

	c := newCaptures([]int{0, 3, 1, 2, -1, -1, 2, 1})
	assert.Equal(t, 4, c.Len())
	s, e, ok := c.Group(1)
	assert.True(t, ok)
	assert.Equal(t, 1, s)
	assert.Equal(t, 2, e)
	_, _, ok = c.Group(2)
	assert.False(t, ok)
	// end before start is reported as absent
	_, _, ok = c.Group(3)
	assert.False(t, ok)
	_, _, ok = c.Group(9)
	assert.False(t, ok)

	// \ze before \zs gives an empty whole match
	c = newCaptures([]int{4, 2})
	assert.Equal(t, 4, c.End())
}

// Properties that hold for every pattern in the table.

func TestGreedyNotShorterThanLazy(t *testing.T) {
	t.Parallel()

	pairs := []struct{ greedy, lazy, input string }{
		{"a*", `a\{-}`, "aaaa"},
		{`a\+`, `a\{-1,}`, "aaaa"},
		{`a\{1,3}`, `a\{-1,3}`, "aaaa"},
		{`.*b`, `.\{-}b`, "abab"},
		{`\(ab\)*`, `\(ab\)\{-}`, "ababab"},
		{`x\=`, `x\{-,1}`, "xx"},
	}
	for _, p := range pairs {
		g := search(t, p.greedy, p.input)
		l := search(t, p.lazy, p.input)
		require.NotNil(t, g, p.greedy)
		require.NotNil(t, l, p.lazy)
		require.Equal(t, g[0], l[0])
		assert.GreaterOrEqual(t, g[1]-g[0], l[1]-l[0], "%s vs %s", p.greedy, p.lazy)
	}
}

func TestCaptureCountMatchesGroups(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		groups  int
	}{
		{"abc", 0},
		{`\(a\)`, 1},
		{`\(a\)\|\(b\(c\)\)`, 3},
		{`\%(a\)\(b\)`, 1},
		{`\(a\)\{0}`, 1},
		{`\(a\(b\)\)\{3}`, 2},
	}
	for _, tt := range tests {
		n := mustCompile(t, tt.pattern)
		assert.Equal(t, tt.groups+1, n.CaptureCount(), tt.pattern)
	}
	caps, err := NewBacktracker(mustCompile(t, `\(a\)\|\(b\(c\)\)`)).Search(NewBacktrackerState(), Runes("a"), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, caps.Len())
}

func TestLiteralRoundTrip(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"hello", "a.b", "x*y", "[z]", "^a$", `back\slash`, "~tilde", "a\\|b"} {
		pattern := quote(text)
		got := search(t, pattern, text)
		require.NotNil(t, got, "pattern %q", pattern)
		assert.Equal(t, []int{0, len([]rune(text))}, got[:2], "pattern %q", pattern)
	}
}

// quote escapes every character that is special in a magic pattern.
func quote(s string) string {
	var out []rune
	for _, r := range s {
		switch r {
		case '\\', '.', '*', '[', '~', '^', '$':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

func TestBacktrackerPagedMemo(t *testing.T) {
	t.Parallel()

	// Without the memo this pattern explores 2^25 paths before failing.
	n := mustCompile(t, `\%(a\|a\)*c`)
	bt := NewBacktrackerWithConfig(n, BacktrackerConfig{MaxVisitedSize: 64, MaxSteps: 1_000_000})
	require.True(t, bt.CanMemoize())

	input := strings.Repeat("a", 25) + strings.Repeat("b", 2000)
	require.True(t, bt.usesPages(len(input)))
	st := NewBacktrackerState()
	caps, err := bt.Search(st, Runes(input), 0, nil)
	require.NoError(t, err)
	assert.Nil(t, caps)
	assert.Less(t, st.Steps(), 1_000_000)

	// The pages of the previous search are cleared before reuse.
	caps, err = bt.Search(st, Runes(strings.Repeat("a", 25)+"c"), 0, nil)
	require.NoError(t, err)
	require.NotNil(t, caps)
	assert.Equal(t, []int{0, 26}, caps.Spans())
}

func TestBacktrackerPagedMemoAgreesWithFlat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		input   string
	}{
		{`a.\{-}b`, "xxaxxbxxb"},
		{`\(a*\)*b`, "aaaaac aab"},
		{`\<\w\+\>`, "  two words"},
		{`foo\(bar\)\@=`, "foobaz foobar"},
		{`\(foo\)\@<=bar`, "xbar foobar"},
		{`x\zsy\zez`, "xyz"},
		{`.*Peter\&.*Bob`, "Bob and Peter"},
		{`[0-9]\{2,3}`, "a1 b22 c4444"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			n := mustCompile(t, tt.pattern)
			paged := NewBacktrackerWithConfig(n, BacktrackerConfig{MaxVisitedSize: 1})
			require.True(t, paged.usesPages(len(tt.input)))

			want, err := NewBacktracker(n).Search(NewBacktrackerState(), Runes(tt.input), 0, nil)
			require.NoError(t, err)
			got, err := paged.Search(NewBacktrackerState(), Runes(tt.input), 0, nil)
			require.NoError(t, err)
			if want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, want.Spans(), got.Spans())
		})
	}
}
