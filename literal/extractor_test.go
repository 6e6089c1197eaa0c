package literal

import (
	"testing"

	"github.com/coregx/vimre/syntax"
	"github.com/stretchr/testify/assert"
)

func TestExtractPrefixes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern  string
		want     []string
		complete bool
	}{
		{`foo`, []string{"foo"}, true},
		{`foo.*bar`, []string{"foo"}, false},
		{`\(foo\|bar\)\d`, []string{"foo", "bar"}, false},
		{`[abc]x`, []string{"ax", "bx", "cx"}, true},
		{`\_[ab]`, []string{"a", "b", "\n"}, true},
		{`a\+b`, []string{"a"}, false},
		{`a\{3}b`, []string{"aaab"}, true},
		{`^foo$`, []string{"foo"}, true},
		{`\<foo\>`, []string{"foo"}, true},
		{`\(bar\)\@<=foo`, []string{"foo"}, true},
		{`\(x\)\@!foo`, []string{"foo"}, true},
		{`foo\zsbar`, []string{"foobar"}, true},
		{`\(ab\)\@>c`, []string{"ab"}, false},
		{`.*foo\&bar`, []string{"bar"}, false},
		{`\(a\|ab\)c`, []string{"ac", "abc"}, true},
		{`x\(\)y`, []string{"xy"}, true},
		{`\(foo\|foobar\)`, []string{"foo"}, true},
		{`\(a\)\1`, []string{"a"}, false},
		{`\%x41b`, []string{"Ab"}, true},
	}
	e := New(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			seq := e.ExtractPrefixes(syntax.MustParse(tt.pattern))
			assert.Equal(t, tt.want, seq.Strings())
			assert.Equal(t, tt.complete, seq.AllComplete())
		})
	}
}

func TestExtractPrefixesNone(t *testing.T) {
	t.Parallel()

	e := New(DefaultConfig())
	for _, pattern := range []string{
		`[a-z]x`,
		`.foo`,
		`a*b`,
		`a\=b`,
		`a\{0,2}b`,
		`foo\|`,
		`foo\|.x`,
		`[^a]b`,
		`\sfoo`,
		`\(\)`,
		`^`,
	} {
		seq := e.ExtractPrefixes(syntax.MustParse(pattern))
		assert.True(t, seq.IsEmpty(), "%s gave %s", pattern, seq)
	}

	assert.True(t, e.ExtractPrefixes(nil).IsEmpty())
	assert.True(t, e.ExtractPrefixes(&syntax.Pattern{}).IsEmpty())
}

func TestExtractPrefixesLimits(t *testing.T) {
	t.Parallel()

	short := New(ExtractorConfig{MaxLiterals: 64, MaxLiteralLen: 3, MaxClassSize: 10})
	seq := short.ExtractPrefixes(syntax.MustParse(`abcdef`))
	assert.Equal(t, []string{"abc"}, seq.Strings())
	assert.False(t, seq.AllComplete())

	few := New(ExtractorConfig{MaxLiterals: 2, MaxLiteralLen: 64, MaxClassSize: 10})
	seq = few.ExtractPrefixes(syntax.MustParse(`[ab][cd]`))
	assert.Equal(t, []string{"a", "b"}, seq.Strings())
	assert.False(t, seq.AllComplete())

	seq = few.ExtractPrefixes(syntax.MustParse(`a\|b\|c`))
	assert.True(t, seq.IsEmpty())

	narrow := New(ExtractorConfig{MaxLiterals: 64, MaxLiteralLen: 64, MaxClassSize: 2})
	assert.True(t, narrow.ExtractPrefixes(syntax.MustParse(`[abc]`)).IsEmpty())
}
