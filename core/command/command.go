// Package command turns a program name and its arguments into something that
// can run: a builtin or an external program behind the same Command contract.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/josephlewis42/nesh/core/vos"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ErrCommandNotFound is returned when no Resolver recognizes a program name.
var ErrCommandNotFound = errors.New("command not found")

// Command is a single unit of execution bound to its streams, arguments and
// session. Run is called exactly once and returns the exit status; failures
// are reported on the command's stderr, never as a panic.
type Command interface {
	Run(ctx context.Context) int
}

// Func adapts a function to Command.
type Func func(ctx context.Context) int

var _ Command = Func(nil)

// Run implements Command.
func (f Func) Run(ctx context.Context) int {
	return f(ctx)
}

// Invocation is a single pipeline stage before resolution.
type Invocation struct {
	// Name is the program name as typed.
	Name string
	// Args are the arguments following Name.
	Args []string
	// Assignments are "key=value" variables visible only to this command.
	Assignments []string
}

// Argv returns the name followed by the arguments.
func (inv Invocation) Argv() []string {
	return append([]string{inv.Name}, inv.Args...)
}

// Resolver maps an invocation bound to streams and a session to a Command.
// It returns false when it doesn't recognize the name so the caller can try
// the next Resolver; that is not an error.
type Resolver interface {
	Resolve(inv Invocation, files vos.VIO, env *vos.Environment) (Command, bool)
}

// Lister is implemented by resolvers that know the names they accept, used
// for suggestions when nothing matched.
type Lister interface {
	Names() []string
}

// NotFoundError reports a name no Resolver in a Chain recognized.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, ErrCommandNotFound)
}

// Is makes errors.Is(err, ErrCommandNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrCommandNotFound
}

// Chain tries each Resolver in order, the first to recognize a name wins.
type Chain []Resolver

// Resolve returns the Command from the first Resolver that recognizes the
// invocation, or a *NotFoundError.
func (c Chain) Resolve(inv Invocation, files vos.VIO, env *vos.Environment) (Command, error) {
	for _, r := range c {
		if cmd, ok := r.Resolve(inv, files, env); ok {
			return cmd, nil
		}
	}

	return nil, &NotFoundError{Name: inv.Name, Suggestions: c.suggest(inv.Name)}
}

// Names lists every name known to the resolvers in the chain.
func (c Chain) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range c {
		lister, ok := r.(Lister)
		if !ok {
			continue
		}
		for _, name := range lister.Names() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (c Chain) suggest(name string) []string {
	if name == "" {
		return nil
	}

	ranks := fuzzy.RankFindNormalizedFold(name, c.Names())
	// Also match single character typos, e.g. "cst" for "cat".
	for _, candidate := range c.Names() {
		if fuzzy.LevenshteinDistance(name, candidate) == 1 {
			ranks = append(ranks, fuzzy.Rank{Source: name, Target: candidate, Distance: 1})
		}
	}
	sort.Stable(ranks)

	var out []string
	seen := make(map[string]bool)
	for _, r := range ranks {
		if !seen[r.Target] {
			seen[r.Target] = true
			out = append(out, r.Target)
		}
	}
	return out
}
