package shell

// Lines are handled in the order POSIX describes:
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html
//
// 1. The input is broken into words and operators, then parsed into simple
//    commands joined by pipes, && and ||. mvdan.cc/sh does both.
// 2. Words are expanded: quotes removed, parameters substituted and a leading
//    ~ replaced with $HOME.
// 3. Redirections are opened and removed from the argument list.
// 4. Each pipeline is handed to the executor, builtins before programs on the
//    PATH, and its status becomes $?.
//
// Everything else the parser understands (loops, functions, subshells,
// command substitution) is rejected with an *UnsupportedError.

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/josephlewis42/nesh/core/logger"
	"mvdan.cc/sh/v3/syntax"
)

// UnsupportedError reports valid shell syntax that this shell can't run.
type UnsupportedError struct {
	Pos  syntax.Pos
	What string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s is not supported", e.Pos, e.What)
}

func parse(line string) (*syntax.File, error) {
	return syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(line), "")
}

// unsupported records the offending node in the session log and returns an
// error describing it.
func (s *Shell) unsupported(node syntax.Node, what string) error {
	buf := &bytes.Buffer{}
	_ = syntax.DebugPrint(buf, node)
	_ = s.env().Recorder().Record(&logger.InvalidInvocation{
		Command: []string{Name},
		Error:   fmt.Sprintf("unsupported %s: %s", what, buf.String()),
	})

	return &UnsupportedError{Pos: node.Pos(), What: what}
}
