package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/coregx/vimre"
)

// session is the state of an interactive run: the current pattern and the
// options it is compiled with.
type session struct {
	re     *vimre.Regex
	config vimre.Config
	diag   *diagnostics
}

func newSession(config vimre.Config, diag *diagnostics) *session {
	return &session{config: config, diag: diag}
}

func (s *session) prompt() string {
	if s.re == nil {
		return "vimre> "
	}
	return "/" + s.re.String() + "> "
}

// runSession reads lines with readline until EOF or interrupt.
func runSession(s *session, pattern string) int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		s.diag.errorf("readline: %v", err)
		return 2
	}
	defer rl.Close()

	if pattern != "" {
		s.handle(":p "+pattern, rl.Stdout())
		rl.SetPrompt(s.prompt())
	}
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return 0
			}
			s.diag.errorf("readline: %v", err)
			return 2
		}
		s.handle(line, rl.Stdout())
		rl.SetPrompt(s.prompt())
	}
}

// handle executes one input line:
//
//	:p PATTERN  compile PATTERN and make it current
//	:p          print the current pattern
//	:stats      print engine statistics
//	TEXT        match TEXT and print the groups
func (s *session) handle(line string, out io.Writer) {
	switch {
	case strings.HasPrefix(line, ":p "):
		re, err := vimre.CompileWithConfig(line[3:], s.config)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		s.re = re
		s.diag.compiled(re)
		fmt.Fprintf(out, "pattern %q, %d groups\n", re.String(), re.NumSubexp())
		return
	case line == ":p":
		if s.re == nil {
			fmt.Fprintln(out, "no pattern")
		} else {
			fmt.Fprintf(out, "pattern %q\n", s.re.String())
		}
		return
	case line == ":stats":
		if s.re == nil {
			fmt.Fprintln(out, "no pattern")
			return
		}
		st := s.re.Stats()
		fmt.Fprintf(out, "searches=%d steps=%d candidates=%d\n", st.Searches, st.Steps, st.PrefilterCandidates)
		return
	case s.re == nil:
		fmt.Fprintln(out, "no pattern; use :p PATTERN")
		return
	}

	loc := s.re.FindStringSubmatchIndex(line)
	if loc == nil {
		fmt.Fprintln(out, "no match")
		return
	}
	for g := 0; 2*g+1 < len(loc); g++ {
		if loc[2*g] < 0 {
			fmt.Fprintf(out, "%d: -\n", g)
			continue
		}
		fmt.Fprintf(out, "%d: [%d,%d) %q\n", g, loc[2*g], loc[2*g+1], line[loc[2*g]:loc[2*g+1]])
	}
}
