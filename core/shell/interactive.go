package shell

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/nesh/core/command"
	"github.com/josephlewis42/nesh/core/logger"
)

// ReadlineConfig holds the terminal settings of an interactive session.
type ReadlineConfig struct {
	// Stdin is read for input, nil reads the process's standard input.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// HistoryFile persists history between sessions if set.
	HistoryFile string
}

// NewReadline creates a line editor that completes the command names the
// executor can resolve.
func (s *Shell) NewReadline(rc ReadlineConfig) (*readline.Instance, error) {
	cfg := &readline.Config{
		Prompt:          s.Prompt(),
		HistoryFile:     rc.HistoryFile,
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          rc.Stdout,
		Stderr:          rc.Stderr,
	}
	if rc.Stdin != nil {
		cfg.Stdin = readline.NewCancelableStdin(rc.Stdin)
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	return readline.NewEx(cfg)
}

func (s *Shell) completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	if lister, ok := s.Executor.Resolver.(command.Lister); ok {
		for _, name := range lister.Names() {
			items = append(items, readline.PcItem(name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

// RunInteractive prompts for and runs lines until input ends or a command
// asks to exit, then returns the session status. An interrupt discards the
// line being edited.
func (s *Shell) RunInteractive(ctx context.Context, rl *readline.Instance) int {
	for {
		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()

		switch {
		case errors.Is(err, io.EOF):
			return s.Status()

		case errors.Is(err, readline.ErrInterrupt):
			continue

		case err != nil:
			logger.L(ctx).Error("reading line", "err", err)
			return s.Status()

		case strings.TrimSpace(line) == "":
			continue
		}

		s.RunLine(ctx, line)
		if s.env().ExitRequested() {
			return s.Status()
		}
	}
}
