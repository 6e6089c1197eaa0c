package nfa

import (
	"fmt"
	"strconv"

	"github.com/coregx/vimre/syntax"
)

// CompilerConfig configures NFA compilation behavior
type CompilerConfig struct {
	// IgnoreCase makes literals and collections case-insensitive unless the
	// pattern contains \C. A \c in the pattern always ignores case.
	IgnoreCase bool

	// MaxRecursionDepth limits group nesting during compilation
	// Default: 100
	MaxRecursionDepth int

	// MaxStates limits the size of the automaton. Large \{n,m} counts
	// multiply the states of their atom.
	// Default: 100000
	MaxStates int
}

// DefaultCompilerConfig returns a compiler configuration with sensible defaults
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		IgnoreCase:        false,
		MaxRecursionDepth: 100,
		MaxStates:         100000,
	}
}

// Compiler compiles parsed Vim patterns into NFAs. A Compiler is not safe
// for concurrent use; the NFAs it returns are.
type Compiler struct {
	config  CompilerConfig
	builder *Builder
	depth   int // current recursion depth
	fold    bool

	hasBackrefs bool
	maxBackref  int
}

// NewCompiler creates a new NFA compiler with the given configuration
func NewCompiler(config CompilerConfig) *Compiler {
	def := DefaultCompilerConfig()
	if config.MaxRecursionDepth == 0 {
		config.MaxRecursionDepth = def.MaxRecursionDepth
	}
	if config.MaxStates == 0 {
		config.MaxStates = def.MaxStates
	}
	return &Compiler{
		config:  config,
		builder: NewBuilder(),
	}
}

// NewDefaultCompiler creates a new NFA compiler with default configuration
func NewDefaultCompiler() *Compiler {
	return NewCompiler(DefaultCompilerConfig())
}

// Compile parses and compiles a pattern. Parse errors wrap both
// ErrInvalidPattern and the *syntax.Error.
func (c *Compiler) Compile(pattern string) (*NFA, error) {
	pat, err := syntax.Parse(pattern)
	if err != nil {
		return nil, &CompileError{
			Pattern: pattern,
			Err:     fmt.Errorf("%w: %w", ErrInvalidPattern, err),
		}
	}
	return c.CompileTree(pat)
}

// CompileTree compiles a parsed pattern. The whole match is capture group 0;
// user groups are numbered by the order of their \( in the source.
func (c *Compiler) CompileTree(pat *syntax.Pattern) (*NFA, error) {
	if pat == nil {
		return nil, &CompileError{Err: fmt.Errorf("%w: nil pattern", ErrUnsupportedNode)}
	}
	c.builder = NewBuilder()
	c.depth = 0
	c.hasBackrefs = false
	c.maxBackref = 0
	c.fold = pat.IgnoreCase || (c.config.IgnoreCase && !pat.MatchCase)

	frag, next, err := c.compileSub(pat.Sub, 1)
	if err != nil {
		return nil, &CompileError{Pattern: pat.Expr, Err: err}
	}
	if c.maxBackref >= next {
		return nil, &CompileError{Pattern: pat.Expr, Err: fmt.Errorf("%w: \\%d", ErrInvalidBackref, c.maxBackref)}
	}
	frag = c.builder.Capture(0, frag, false)
	c.builder.SetFragment(frag)

	nfa, err := c.builder.Build(
		WithCaptureCount(next),
		WithBackrefs(c.hasBackrefs),
		WithPattern(pat.Expr),
	)
	if err != nil {
		return nil, &CompileError{Pattern: pat.Expr, Err: err}
	}
	return nfa, nil
}

func (c *Compiler) checkSize() error {
	if c.builder.States() > c.config.MaxStates {
		return fmt.Errorf("%w: more than %d states", ErrTooComplex, c.config.MaxStates)
	}
	return nil
}

// compileSub folds the branches of a \| list with Unify, first branch first.
// A nil sub-pattern is the empty group.
func (c *Compiler) compileSub(sub *syntax.SubPattern, group int) (Fragment, int, error) {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > c.config.MaxRecursionDepth {
		return Fragment{}, group, fmt.Errorf("%w: nesting deeper than %d", ErrTooComplex, c.config.MaxRecursionDepth)
	}
	if sub == nil {
		return c.builder.Epsilon(), group, nil
	}
	if len(sub.Branches) == 0 {
		return Fragment{}, group, fmt.Errorf("%w: sub-pattern without branches", ErrUnsupportedNode)
	}

	var result Fragment
	for i, br := range sub.Branches {
		frag, next, err := c.compileBranch(br, group)
		if err != nil {
			return Fragment{}, group, err
		}
		group = next
		if i == 0 {
			result = frag
		} else {
			result = c.builder.Unify(result, frag)
		}
	}
	return result, group, nil
}

// compileBranch compiles a\&b\&c: every concat but the last becomes a
// zero-width positive lookahead, and the last one provides the match.
func (c *Compiler) compileBranch(br *syntax.Branch, group int) (Fragment, int, error) {
	if br == nil || len(br.Concats) == 0 {
		return Fragment{}, group, fmt.Errorf("%w: empty branch", ErrUnsupportedNode)
	}
	var result Fragment
	last := len(br.Concats) - 1
	for i, cc := range br.Concats {
		frag, next, err := c.compileConcat(cc, group)
		if err != nil {
			return Fragment{}, group, err
		}
		group = next
		if i < last {
			frag = c.builder.Assert(frag, false, true, true, 0)
		}
		if i == 0 {
			result = frag
		} else {
			result = c.builder.Concatenate(result, frag)
		}
	}
	return result, group, nil
}

func (c *Compiler) compileConcat(cc *syntax.Concat, group int) (Fragment, int, error) {
	if cc == nil {
		return Fragment{}, group, fmt.Errorf("%w: nil concat", ErrUnsupportedNode)
	}
	if len(cc.Pieces) == 0 {
		return c.builder.Epsilon(), group, nil
	}
	var result Fragment
	for i, p := range cc.Pieces {
		frag, next, err := c.compilePiece(p, group)
		if err != nil {
			return Fragment{}, group, err
		}
		group = next
		if i == 0 {
			result = frag
		} else {
			result = c.builder.Concatenate(result, frag)
		}
	}
	return result, group, nil
}

func (c *Compiler) compilePiece(p *syntax.Piece, group int) (Fragment, int, error) {
	if p == nil || p.Atom == nil {
		return Fragment{}, group, fmt.Errorf("%w: empty piece", ErrUnsupportedNode)
	}
	m := p.Multi
	if m == nil {
		return c.compileAtom(p.Atom, group)
	}
	if _, ok := p.Atom.(*syntax.MatchBound); ok {
		return Fragment{}, group, fmt.Errorf("%w: %s at offset %d", ErrZeroWidthMulti, m.Op, m.Pos)
	}
	if m.Op.IsLookaround() {
		return c.compileLookaround(p.Atom, m, group)
	}
	if syntax.IsZeroWidth(p.Atom) {
		return Fragment{}, group, fmt.Errorf("%w: %s at offset %d", ErrZeroWidthMulti, m.Op, m.Pos)
	}
	d, err := CompileMulti(m)
	if err != nil {
		return Fragment{}, group, err
	}
	return c.compileRepeat(p.Atom, d, group)
}

// compileLookaround compiles \@>, \@=, \@!, \@<= and \@<!.
func (c *Compiler) compileLookaround(atom syntax.Atom, m *syntax.Multi, group int) (Fragment, int, error) {
	limit := 0
	if m.Limit != "" {
		n, err := strconv.Atoi(m.Limit)
		if err != nil {
			return Fragment{}, group, fmt.Errorf("%w: lookbehind limit %q", ErrInvalidBounds, m.Limit)
		}
		limit = n
	}
	inner, next, err := c.compileAtom(atom, group)
	if err != nil {
		return Fragment{}, group, err
	}
	var frag Fragment
	switch m.Op {
	case syntax.MultiAtomic:
		frag = c.builder.Assert(inner, true, true, true, 0)
	case syntax.MultiAhead:
		frag = c.builder.Assert(inner, false, true, true, 0)
	case syntax.MultiNegAhead:
		frag = c.builder.Assert(inner, false, false, true, 0)
	case syntax.MultiBehind:
		frag = c.builder.Assert(inner, false, true, false, limit)
	case syntax.MultiNegBehind:
		frag = c.builder.Assert(inner, false, false, false, limit)
	default:
		return Fragment{}, group, fmt.Errorf("%w: multi %s", ErrUnsupportedNode, m.Op)
	}
	return frag, next, nil
}

// compileRepeat expands a bounded repetition into Min mandatory copies
// followed by a closure (unbounded) or a nested optional tail
// opt(x opt(x ...)). Every copy is compiled from the same node with the same
// first group number, so a repeated group keeps its number.
func (c *Compiler) compileRepeat(atom syntax.Atom, d MultiDelimiter, group int) (Fragment, int, error) {
	if d.Max == 0 {
		return c.builder.Epsilon(), group + countGroups(atom), nil
	}

	next := group
	copyAtom := func() (Fragment, error) {
		frag, n, err := c.compileAtom(atom, group)
		if err != nil {
			return Fragment{}, err
		}
		next = n
		return frag, c.checkSize()
	}

	var result Fragment
	have := false
	appendFrag := func(f Fragment) {
		if have {
			result = c.builder.Concatenate(result, f)
		} else {
			result, have = f, true
		}
	}

	for i := 0; i < d.Min; i++ {
		f, err := copyAtom()
		if err != nil {
			return Fragment{}, group, err
		}
		appendFrag(f)
	}

	switch {
	case d.Max == Infinite:
		f, err := copyAtom()
		if err != nil {
			return Fragment{}, group, err
		}
		appendFrag(c.builder.Closure(f, d.Greedy))
	case d.Max > d.Min:
		f, err := copyAtom()
		if err != nil {
			return Fragment{}, group, err
		}
		tail := c.builder.Optional(f, d.Greedy)
		for i := d.Min + 1; i < d.Max; i++ {
			f, err := copyAtom()
			if err != nil {
				return Fragment{}, group, err
			}
			tail = c.builder.Optional(c.builder.Concatenate(f, tail), d.Greedy)
		}
		appendFrag(tail)
	}
	return result, next, nil
}

func (c *Compiler) single(m Matcher) (Fragment, error) {
	frag := c.builder.Single(m)
	return frag, c.checkSize()
}

func (c *Compiler) compileAtom(atom syntax.Atom, group int) (Fragment, int, error) {
	switch a := atom.(type) {
	case *syntax.Literal:
		r, _, err := DecodeChar(a.Text)
		if err != nil {
			return Fragment{}, group, fmt.Errorf("%w at offset %d", err, a.Pos)
		}
		frag, err := c.single(Char(r, c.fold))
		return frag, group, err

	case *syntax.Any:
		frag, err := c.single(Matcher{Kind: MatchClass, Class: AnyClass(a.Newline)})
		return frag, group, err

	case *syntax.ClassEscape:
		class, err := EscapeClass(a.Class, a.Newline)
		if err != nil {
			return Fragment{}, group, err
		}
		frag, err := c.single(Matcher{Kind: MatchClass, Class: class})
		return frag, group, err

	case *syntax.Collection:
		class, err := CompileCollection(a, c.fold)
		if err != nil {
			return Fragment{}, group, fmt.Errorf("%w at offset %d", err, a.Pos)
		}
		frag, err := c.single(Matcher{Kind: MatchClass, Class: class})
		return frag, group, err

	case *syntax.Group:
		if !a.Capture {
			return c.compileSub(a.Sub, group)
		}
		frag, next, err := c.compileSub(a.Sub, group+1)
		if err != nil {
			return Fragment{}, group, err
		}
		return c.builder.Capture(group, frag, false), next, nil

	case *syntax.Boundary:
		look, err := boundaryLook(a.Boundary)
		if err != nil {
			return Fragment{}, group, err
		}
		frag, err := c.single(Matcher{Kind: MatchLook, Look: look})
		return frag, group, err

	case *syntax.MatchBound:
		frag := c.builder.Epsilon()
		if a.End {
			c.builder.MarkEnd(frag.Start, 0, true)
		} else {
			c.builder.MarkStart(frag.Start, 0)
		}
		return frag, group, nil

	case *syntax.Backref:
		if a.Group < 1 || a.Group > syntax.MaxGroups {
			return Fragment{}, group, fmt.Errorf("%w: \\%d", ErrInvalidBackref, a.Group)
		}
		c.hasBackrefs = true
		c.maxBackref = max(c.maxBackref, a.Group)
		frag, err := c.single(Matcher{Kind: MatchBackref, Group: a.Group, Fold: c.fold})
		return frag, group, err

	case nil:
		return Fragment{}, group, fmt.Errorf("%w: nil atom", ErrUnsupportedNode)
	}
	return Fragment{}, group, fmt.Errorf("%w: %T", ErrUnsupportedNode, atom)
}

func boundaryLook(k syntax.BoundaryKind) (Look, error) {
	switch k {
	case syntax.BoundaryLineStart:
		return LookLineStart, nil
	case syntax.BoundaryLineEnd:
		return LookLineEnd, nil
	case syntax.BoundaryTextStart:
		return LookTextStart, nil
	case syntax.BoundaryTextEnd:
		return LookTextEnd, nil
	case syntax.BoundaryWordStart:
		return LookWordStart, nil
	case syntax.BoundaryWordEnd:
		return LookWordEnd, nil
	}
	return 0, fmt.Errorf("%w: boundary %d", ErrUnsupportedNode, k)
}

// countGroups returns the number of capturing groups in atom. It numbers
// the groups of an atom repeated zero times without building any states.
func countGroups(atom syntax.Atom) int {
	g, ok := atom.(*syntax.Group)
	if !ok {
		return 0
	}
	n := 0
	if g.Capture {
		n = 1
	}
	if g.Sub == nil {
		return n
	}
	for _, br := range g.Sub.Branches {
		for _, cc := range br.Concats {
			for _, p := range cc.Pieces {
				n += countGroups(p.Atom)
			}
		}
	}
	return n
}
