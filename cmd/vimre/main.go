// Command vimre searches files with Vim regular expressions.
//
// Usage:
//
//	vimre [flags] PATTERN [FILE...]
//
// Matching lines are printed like grep. With no FILE, standard input is
// searched; when standard input is a terminal an interactive session starts
// instead (":p PATTERN" sets the pattern, other lines are matched).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/coregx/vimre"
	"github.com/lestrrat-go/strftime"
)

type options struct {
	lineNumbers bool
	onlyMatch   bool
	ignoreCase  bool
	smartCase   bool
	count       bool
	verbose     bool
	timeFormat  string
}

func main() {
	interactive := false
	if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
		interactive = true
	}
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, interactive))
}

// run executes the command and returns the exit status: 0 when a line
// matched, 1 when none did, 2 on error.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer, interactive bool) int {
	var opts options
	fs := flag.NewFlagSet("vimre", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.lineNumbers, "n", false, "prefix each line with its line number")
	fs.BoolVar(&opts.onlyMatch, "o", false, "print only the matched parts of a line")
	fs.BoolVar(&opts.ignoreCase, "i", false, "ignore case ('ignorecase')")
	fs.BoolVar(&opts.smartCase, "s", false, "match case when the pattern has uppercase ('smartcase')")
	fs.BoolVar(&opts.count, "c", false, "print only a count of matching lines")
	fs.BoolVar(&opts.verbose, "v", false, "print compile diagnostics to stderr")
	fs.StringVar(&opts.timeFormat, "timefmt", "%H:%M:%S", "strftime format of diagnostic timestamps")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: vimre [flags] PATTERN [FILE...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	diag, err := newDiagnostics(stderr, opts.timeFormat, opts.verbose, time.Now)
	if err != nil {
		fmt.Fprintf(stderr, "vimre: invalid -timefmt: %v\n", err)
		return 2
	}

	config := vimre.DefaultConfig()
	config.IgnoreCase = opts.ignoreCase
	config.SmartCase = opts.smartCase

	rest := fs.Args()
	if len(rest) == 0 {
		if interactive {
			return runSession(newSession(config, diag), "")
		}
		fs.Usage()
		return 2
	}

	pattern, files := rest[0], rest[1:]
	re, err := vimre.CompileWithConfig(pattern, config)
	if err != nil {
		diag.errorf("%v", err)
		return 2
	}
	diag.compiled(re)

	if len(files) == 0 && interactive {
		return runSession(newSession(config, diag), pattern)
	}

	g := &grep{re: re, opts: opts, out: stdout}
	status := 1
	if len(files) == 0 {
		matched, err := g.search("", stdin)
		if err != nil {
			diag.errorf("<stdin>: %v", err)
			return 2
		}
		if matched {
			status = 0
		}
	}
	g.prefix = len(files) > 1
	for _, name := range files {
		matched, err := g.searchFile(name)
		if err != nil {
			diag.errorf("%v", err)
			status = 2
			continue
		}
		if matched && status == 1 {
			status = 0
		}
	}
	diag.stats(re)
	return status
}

// grep prints the lines of a text that match re.
type grep struct {
	re     *vimre.Regex
	opts   options
	out    io.Writer
	prefix bool // prefix output with the file name
}

func (g *grep) searchFile(name string) (bool, error) {
	f, err := os.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return g.search(name, f)
}

// search scans r line by line and reports whether any line matched.
func (g *grep) search(name string, r io.Reader) (bool, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	count := 0
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := sc.Text()
		if g.opts.onlyMatch && !g.opts.count {
			for _, m := range g.re.FindAllString(line, -1) {
				if m == "" {
					continue
				}
				count++
				g.print(name, lineNo, m)
			}
			continue
		}
		if !g.re.MatchString(line) {
			continue
		}
		count++
		if !g.opts.count {
			g.print(name, lineNo, line)
		}
	}
	if err := sc.Err(); err != nil {
		return count > 0, err
	}
	if g.opts.count {
		if g.prefix {
			fmt.Fprintf(g.out, "%s:%d\n", name, count)
		} else {
			fmt.Fprintln(g.out, count)
		}
	}
	return count > 0, nil
}

func (g *grep) print(name string, lineNo int, text string) {
	if g.prefix {
		fmt.Fprintf(g.out, "%s:", name)
	}
	if g.opts.lineNumbers {
		fmt.Fprintf(g.out, "%d:", lineNo)
	}
	fmt.Fprintln(g.out, text)
}

// diagnostics writes messages to stderr. Errors are always written;
// compile details and statistics only in verbose mode, with a timestamp.
type diagnostics struct {
	w       io.Writer
	stamp   *strftime.Strftime
	verbose bool
	now     func() time.Time
}

func newDiagnostics(w io.Writer, format string, verbose bool, now func() time.Time) (*diagnostics, error) {
	stamp, err := strftime.New(format)
	if err != nil {
		return nil, err
	}
	return &diagnostics{w: w, stamp: stamp, verbose: verbose, now: now}, nil
}

func (d *diagnostics) errorf(format string, args ...any) {
	if d.verbose {
		fmt.Fprintf(d.w, "%s ", d.stamp.FormatString(d.now()))
	}
	fmt.Fprintf(d.w, "vimre: "+format+"\n", args...)
}

func (d *diagnostics) infof(format string, args ...any) {
	if !d.verbose {
		return
	}
	fmt.Fprintf(d.w, "%s vimre: "+format+"\n", append([]any{d.stamp.FormatString(d.now())}, args...)...)
}

func (d *diagnostics) compiled(re *vimre.Regex) {
	d.infof("compiled %q: groups=%d foldcase=%t strategy=%s", re.String(), re.NumSubexp(), re.FoldCase(), re.Strategy())
}

func (d *diagnostics) stats(re *vimre.Regex) {
	st := re.Stats()
	d.infof("searches=%d steps=%d candidates=%d abandoned=%d", st.Searches, st.Steps, st.PrefilterCandidates, st.PrefilterAbandoned)
}
