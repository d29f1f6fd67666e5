// Package grep finds lines matching a regular expression, optionally printing
// trailing context lines after each match.
package grep

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"regexp"

	"github.com/josephlewis42/nesh/core/vos"
)

const (
	// DefaultGroupSeparator is printed between non-contiguous groups of
	// matches when trailing context is enabled.
	DefaultGroupSeparator = "--"
)

// ErrInvalidPattern is returned when the search expression doesn't compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// Options configure a Grepper.
type Options struct {
	// WholeWord only matches the pattern when it isn't directly preceded or
	// followed by a word character.
	WholeWord bool
	// IgnoreCase matches without regard to case.
	IgnoreCase bool
	// AfterContext is the number of lines to print after each matching line.
	AfterContext int
	// GroupSeparator overrides DefaultGroupSeparator.
	GroupSeparator string
	// Header formats the line printed before each file when several files
	// are searched, defaults to FileHeader.
	Header func(name string) string
}

// Grepper matches lines against a pattern compiled once at construction.
// It holds no per-scan state so one Grepper can scan any number of inputs.
type Grepper struct {
	pattern      *regexp.Regexp
	afterContext int
	separator    string
	header       func(name string) string
}

// New compiles pattern according to opts.
func New(pattern string, opts Options) (*Grepper, error) {
	if opts.AfterContext < 0 {
		return nil, fmt.Errorf("after context %d must not be negative: %w", opts.AfterContext, vos.ErrInvalidArgument)
	}

	// Validate the pattern on its own before embedding it so a fragment like
	// "a)|(b" can't escape the word boundary group.
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	expr := pattern
	if opts.WholeWord {
		// RE2 has no look-arounds; consuming a non-word character (or the
		// line edge) on each side is equivalent for deciding whether a line
		// contains a match.
		expr = `(?:^|\W)(?:` + pattern + `)(?:\W|$)`
	}
	if opts.IgnoreCase {
		expr = "(?i)" + expr
	}

	compiled, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	separator := opts.GroupSeparator
	if separator == "" {
		separator = DefaultGroupSeparator
	}

	header := opts.Header
	if header == nil {
		header = FileHeader
	}

	return &Grepper{
		pattern:      compiled,
		afterContext: opts.AfterContext,
		separator:    separator,
		header:       header,
	}, nil
}

// Match reports whether line contains a match.
func (g *Grepper) Match(line string) bool {
	return g.pattern.MatchString(line)
}

// Lines returns the output lines for the input lines in seq: every matching
// line, up to AfterContext lines after each match, and a separator before a
// match group that doesn't continue the previous one.
func (g *Grepper) Lines(seq iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		// Lines since the last match, -1 means the current line matched.
		sinceLastMatch := 0
		firstMatch := true

		for line := range seq {
			if g.Match(line) {
				if sinceLastMatch > g.afterContext && g.afterContext != 0 && !firstMatch {
					if !yield(g.separator) {
						return
					}
				}
				firstMatch = false
				sinceLastMatch = -1
			}

			if !firstMatch && sinceLastMatch < g.afterContext {
				if !yield(line) {
					return
				}
			}
			sinceLastMatch++
		}
	}
}

// Scan lazily reads lines from r and returns the output lines. The sequence
// is finite and can only be consumed once; call the returned error function
// after iterating to learn whether reading stopped early.
func (g *Grepper) Scan(r io.Reader) (iter.Seq[string], func() error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := func(yield func(string) bool) {
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}

	return g.Lines(lines), func() error {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("%w: %w", vos.ErrIOFailure, err)
		}
		return nil
	}
}

// Grep writes the output lines for r to w, one per line. It doesn't close
// either stream.
func (g *Grepper) Grep(r io.Reader, w io.Writer) error {
	seq, errFn := g.Scan(r)
	for line := range seq {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("%w: %w", vos.ErrIOFailure, err)
		}
	}
	return errFn()
}

func (g *Grepper) String() string {
	return fmt.Sprintf("Grepper(%q, after=%d)", g.pattern.String(), g.afterContext)
}
