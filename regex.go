// Package vimre compiles and runs Vim regular expressions.
//
// The dialect is Vim's default 'magic' mode: \( \) groups, \| alternation,
// \& concats, \{n,m} and \{-n,m} counts, \zs and \ze match bounds, \@=
// \@! \@<= \@<! \@> lookaround, \< \> word bounds, back-references and
// Vim's character-class escapes.
//
// Basic usage:
//
//	// Compile a pattern
//	re, err := vimre.Compile(`\<\d\+\>`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Find first match
//	fmt.Println(re.FindString("hello 123 world")) // "123"
//
//	// Check if matches
//	if re.MatchString("hello 123") {
//	    fmt.Println("matched!")
//	}
//
// Advanced usage:
//
//	// Vim's 'ignorecase' and 'smartcase'
//	config := vimre.DefaultConfig()
//	config.IgnoreCase = true
//	config.SmartCase = true
//	re, err := vimre.CompileWithConfig(`foo\|bar`, config)
//
//	// Match against a host text buffer by character index
//	m := re.FindAt(nfa.Runes(line), 0)
//
// String methods report byte offsets into the string; methods that take an
// nfa.Input report character indices of the input.
package vimre

import (
	"context"
	"strings"

	"github.com/coregx/vimre/meta"
	"github.com/coregx/vimre/nfa"
	"github.com/coregx/vimre/simd"
)

// Match is a successful match with its capture groups.
type Match = meta.Match

// Config controls compilation and search limits.
type Config = meta.Config

// Regex represents a compiled Vim regular expression.
//
// A Regex is safe to use concurrently from multiple goroutines, except for
// methods that modify internal state (like ResetStats).
//
// Example:
//
//	re := vimre.MustCompile(`hello`)
//	if re.MatchString("hello world") {
//	    println("matched!")
//	}
type Regex struct {
	engine  *meta.Engine
	pattern string
}

// Compile compiles a Vim pattern with the default configuration.
// Returns an error if the pattern is invalid.
//
// Example:
//
//	re, err := vimre.Compile(`\d\{3}-\d\{4}`)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(pattern string) (*Regex, error) {
	return CompileWithConfig(pattern, DefaultConfig())
}

// MustCompile compiles a pattern and panics if it fails.
//
// This is useful for patterns known to be valid at compile time.
//
// Example:
//
//	var word = vimre.MustCompile(`\<\h\w*\>`)
func MustCompile(pattern string) *Regex {
	re, err := Compile(pattern)
	if err != nil {
		panic("vimre: Compile(`" + pattern + "`): " + err.Error())
	}
	return re
}

// CompileWithConfig compiles a pattern with custom configuration.
//
// Example:
//
//	config := vimre.DefaultConfig()
//	config.MaxSteps = 1_000_000 // bound pathological backtracking
//	re, err := vimre.CompileWithConfig(`\(a*\)*b`, config)
func CompileWithConfig(pattern string, config Config) (*Regex, error) {
	engine, err := meta.CompileWithConfig(pattern, config)
	if err != nil {
		return nil, err
	}

	return &Regex{
		engine:  engine,
		pattern: pattern,
	}, nil
}

// DefaultConfig returns the default configuration for compilation.
//
// Users can customize this and pass to CompileWithConfig.
func DefaultConfig() Config {
	return meta.DefaultConfig()
}

// QuoteMeta returns a pattern that matches the literal text s: every
// character that is special in magic mode is escaped.
//
// Example:
//
//	escaped := vimre.QuoteMeta("a.b*c")
//	// escaped = `a\.b\*c`
//	re := vimre.MustCompile(escaped)
//	re.MatchString("a.b*c") // true
func QuoteMeta(s string) string {
	const special = `\.*[~^$`

	n := 0
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(special, s[i]) >= 0 {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+n)
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(special, s[i]) >= 0 {
			buf = append(buf, '\\')
		}
		buf = append(buf, s[i])
	}
	return string(buf)
}

// Match runs an anchored attempt at character index offset of in. It
// returns nil when there is no match or the search stopped early; use
// MatchContext to tell the two apart.
//
// Example:
//
//	re := vimre.MustCompile(`foo`)
//	m := re.Match(nfa.Runes([]rune("xfoo")), 1) // m.Start() == 1, m.End() == 4
func (r *Regex) Match(in nfa.Input, offset int) *Match {
	m, _ := r.engine.MatchAt(context.Background(), in, offset)
	return m
}

// MatchContext is Match with cancellation. The error wraps nfa.ErrAborted
// when ctx is done and nfa.ErrStepLimit when Config.MaxSteps is exceeded.
func (r *Regex) MatchContext(ctx context.Context, in nfa.Input, offset int) (*Match, error) {
	return r.engine.MatchAt(ctx, in, offset)
}

// FindAt returns the leftmost match whose attempt starts at or after
// character index offset of in, or nil.
func (r *Regex) FindAt(in nfa.Input, offset int) *Match {
	m, _ := r.engine.FindAt(context.Background(), in, offset)
	return m
}

// FindContext is FindAt with cancellation; errors are reported as for
// MatchContext.
func (r *Regex) FindContext(ctx context.Context, in nfa.Input, offset int) (*Match, error) {
	return r.engine.FindAt(ctx, in, offset)
}

// FindAll returns successive non-overlapping matches in in, at most n of
// them (all when n < 0).
func (r *Regex) FindAll(in nfa.Input, n int) []*Match {
	matches, _ := r.engine.FindAll(context.Background(), in, n)
	return matches
}

// MatchString reports whether the string s contains any match of the pattern.
//
// Example:
//
//	re := vimre.MustCompile(`\d\+`)
//	re.MatchString("hello 123") // true
func (r *Regex) MatchString(s string) bool {
	t := newText(s)
	ok, _ := r.engine.IsMatch(context.Background(), t.in)
	return ok
}

// FindString returns the text of the leftmost match in s, or "" when there
// is no match.
//
// Example:
//
//	re := vimre.MustCompile(`foo\zsbar`)
//	re.FindString("foobar") // "bar"
func (r *Regex) FindString(s string) string {
	loc := r.FindStringIndex(s)
	if loc == nil {
		return ""
	}
	return s[loc[0]:loc[1]]
}

// FindStringIndex returns the byte offsets [start, end] of the leftmost
// match in s, or nil.
func (r *Regex) FindStringIndex(s string) []int {
	t := newText(s)
	m := r.FindAt(t.in, 0)
	if m == nil {
		return nil
	}
	return []int{t.offset(m.Start()), t.offset(m.End())}
}

// FindStringSubmatch returns the text of the leftmost match and of every
// capture group. Groups that did not take part are "".
//
// Example:
//
//	re := vimre.MustCompile(`\(\w\+\)@\(\w\+\)`)
//	re.FindStringSubmatch("mail bob@example") // ["bob@example" "bob" "example"]
func (r *Regex) FindStringSubmatch(s string) []string {
	loc := r.FindStringSubmatchIndex(s)
	if loc == nil {
		return nil
	}
	return submatchStrings(s, loc)
}

// FindStringSubmatchIndex returns the byte offsets of the leftmost match and
// of every capture group, two per group, -1 for groups that did not take
// part.
func (r *Regex) FindStringSubmatchIndex(s string) []int {
	t := newText(s)
	m := r.FindAt(t.in, 0)
	if m == nil {
		return nil
	}
	return t.spans(m)
}

// FindAllString returns the text of successive non-overlapping matches in
// s, at most n of them (all when n < 0).
//
// Example:
//
//	re := vimre.MustCompile(`\<\w\+\>`)
//	re.FindAllString("one two three", -1) // ["one" "two" "three"]
func (r *Regex) FindAllString(s string, n int) []string {
	locs := r.FindAllStringIndex(s, n)
	if locs == nil {
		return nil
	}
	out := make([]string, len(locs))
	for i, loc := range locs {
		out[i] = s[loc[0]:loc[1]]
	}
	return out
}

// FindAllStringIndex returns the byte offsets of successive non-overlapping
// matches in s, at most n of them (all when n < 0).
func (r *Regex) FindAllStringIndex(s string, n int) [][]int {
	t := newText(s)
	matches := r.FindAll(t.in, n)
	if len(matches) == 0 {
		return nil
	}
	out := make([][]int, len(matches))
	for i, m := range matches {
		out[i] = []int{t.offset(m.Start()), t.offset(m.End())}
	}
	return out
}

// FindAllStringSubmatch is the all-matches version of FindStringSubmatch.
func (r *Regex) FindAllStringSubmatch(s string, n int) [][]string {
	t := newText(s)
	matches := r.FindAll(t.in, n)
	if len(matches) == 0 {
		return nil
	}
	out := make([][]string, len(matches))
	for i, m := range matches {
		out[i] = submatchStrings(s, t.spans(m))
	}
	return out
}

// CountString returns the number of non-overlapping matches in s, counting
// at most n (all when n < 0).
func (r *Regex) CountString(s string, n int) int {
	t := newText(s)
	return len(r.FindAll(t.in, n))
}

// Split slices s into substrings separated by the matches of the pattern.
//
// The count determines the number of substrings to return:
//
//	n > 0: at most n substrings; the last substring will be the unsplit remainder.
//	n == 0: the result is nil (zero substrings)
//	n < 0: all substrings
//
// Example:
//
//	re := vimre.MustCompile(`,\s*`)
//	re.Split("a, b,c", -1) // ["a" "b" "c"]
func (r *Regex) Split(s string, n int) []string {
	if n == 0 {
		return nil
	}

	indices := r.FindAllStringIndex(s, -1)
	if len(indices) == 0 {
		return []string{s}
	}

	result := make([]string, 0, len(indices)+1)
	lastEnd := 0
	for _, idx := range indices {
		if n > 0 && len(result) == n-1 {
			break
		}
		result = append(result, s[lastEnd:idx[0]])
		lastEnd = idx[1]
	}
	return append(result, s[lastEnd:])
}

// String returns the source text used to compile the pattern.
func (r *Regex) String() string {
	return r.pattern
}

// NumSubexp returns the number of \( groups in the pattern.
func (r *Regex) NumSubexp() int {
	return r.engine.NumCaptures() - 1
}

// FoldCase reports whether the compiled pattern ignores case.
func (r *Regex) FoldCase() bool {
	return r.engine.FoldCase()
}

// Strategy returns the search strategy selected for the pattern.
func (r *Regex) Strategy() meta.Strategy {
	return r.engine.Strategy()
}

// Stats returns execution statistics of the underlying engine.
func (r *Regex) Stats() meta.Stats {
	return r.engine.Stats()
}

// ResetStats resets execution statistics to zero.
func (r *Regex) ResetStats() {
	r.engine.ResetStats()
}

// text is a string prepared for matching. ASCII strings are matched byte by
// byte; others are decoded and offsets maps character indices back to byte
// offsets.
type text struct {
	in      nfa.Input
	offsets []int
}

func newText(s string) text {
	b := []byte(s)
	if simd.IsASCII(b) {
		return text{in: nfa.Bytes(b)}
	}
	runes := make([]rune, 0, len(s))
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		runes = append(runes, r)
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))
	return text{in: nfa.Runes(runes), offsets: offsets}
}

// offset converts a character index to a byte offset; -1 stays -1.
func (t text) offset(i int) int {
	if t.offsets == nil || i < 0 {
		return i
	}
	return t.offsets[i]
}

// spans converts every group span of m to byte offsets.
func (t text) spans(m *Match) []int {
	raw := m.Spans()
	out := make([]int, len(raw))
	for i, p := range raw {
		out[i] = t.offset(p)
	}
	return out
}

func submatchStrings(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}
