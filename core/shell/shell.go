// Package shell reads command lines, turns them into pipelines and runs them
// against a session.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/josephlewis42/nesh/core/command"
	"github.com/josephlewis42/nesh/core/logger"
	"github.com/josephlewis42/nesh/core/pipeline"
	"github.com/josephlewis42/nesh/core/vos"
	"mvdan.cc/sh/v3/syntax"
)

const (
	// Name prefixes errors reported by the shell itself.
	Name = "nesh"

	// ExitSyntaxError is the status of a line that couldn't be parsed or
	// used syntax the shell can't run.
	ExitSyntaxError = 2
)

// Shell runs command lines in a session. Every pipeline reads from and
// writes to Files unless redirected.
type Shell struct {
	Executor *pipeline.Executor
	Files    vos.VIO
}

// New creates a shell running pipelines with executor.
func New(executor *pipeline.Executor, files vos.VIO) *Shell {
	return &Shell{
		Executor: executor,
		Files:    files,
	}
}

func (s *Shell) env() *vos.Environment {
	return s.Executor.Env
}

// Status is the code the session should end with: the code passed to exit,
// or the status of the last pipeline.
func (s *Shell) Status() int {
	if s.env().ExitRequested() {
		return s.env().ExitCode()
	}
	return s.env().LastStatus()
}

// RunLine parses and runs one line and returns the status of the last
// pipeline it ran. Statements after a request to exit are skipped.
func (s *Shell) RunLine(ctx context.Context, line string) int {
	file, err := parse(line)
	if err != nil {
		s.fail(ctx, fmt.Errorf("syntax error: %w", err), ExitSyntaxError)
		return s.env().LastStatus()
	}

	for _, stmt := range file.Stmts {
		if s.env().ExitRequested() {
			break
		}
		if err := s.runStmt(ctx, stmt); err != nil {
			s.fail(ctx, err, ExitSyntaxError)
			break
		}
	}

	return s.env().LastStatus()
}

// RunReader runs each line of r until the input ends or a command asks to
// exit, and returns the session status. Lines are read without reading
// ahead so commands that share r see the input after their own line.
func (s *Shell) RunReader(ctx context.Context, r io.Reader) (int, error) {
	for {
		line, err := readLine(r)
		switch {
		case errors.Is(err, io.EOF):
			return s.Status(), nil
		case err != nil:
			return s.Status(), fmt.Errorf("%w: %w", vos.ErrIOFailure, err)
		}

		s.RunLine(ctx, line)
		if s.env().ExitRequested() {
			return s.Status(), nil
		}
	}
}

// readLine reads a single line from r one byte at a time. A final line
// without a newline is returned without error, io.EOF follows on the next
// call.
func readLine(r io.Reader) (string, error) {
	var line []byte
	b := make([]byte, 1)
	for {
		n, err := r.Read(b)
		if n > 0 {
			if b[0] == '\n' {
				return strings.TrimSuffix(string(line), "\r"), nil
			}
			line = append(line, b[0])
		}
		switch {
		case errors.Is(err, io.EOF) && len(line) > 0:
			return strings.TrimSuffix(string(line), "\r"), nil
		case err != nil:
			return "", err
		}
	}
}

// runStmt runs a single statement. Failures of a pipeline are reported and
// stored as its status, only unsupported syntax is returned.
func (s *Shell) runStmt(ctx context.Context, stmt *syntax.Stmt) error {
	switch {
	case stmt.Negated:
		return s.unsupported(stmt, "negation")
	case stmt.Background:
		return s.unsupported(stmt, "background job")
	case stmt.Coprocess:
		return s.unsupported(stmt, "coprocess")
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		if len(cmd.Args) == 0 {
			if len(stmt.Redirs) > 0 {
				return s.unsupported(stmt, "redirection without a command")
			}
			return s.assign(cmd.Assigns)
		}
		return s.runPipeline(ctx, stmt)

	case *syntax.BinaryCmd:
		switch cmd.Op {
		case syntax.Pipe:
			return s.runPipeline(ctx, stmt)

		case syntax.AndStmt, syntax.OrStmt:
			if len(stmt.Redirs) > 0 {
				return s.unsupported(stmt, "redirection of a list")
			}
			if err := s.runStmt(ctx, cmd.X); err != nil {
				return err
			}
			if s.env().ExitRequested() {
				return nil
			}
			succeeded := s.env().LastStatus() == 0
			if succeeded == (cmd.Op == syntax.AndStmt) {
				return s.runStmt(ctx, cmd.Y)
			}
			return nil

		default:
			return s.unsupported(stmt, fmt.Sprintf("operator %q", cmd.Op.String()))
		}

	case nil:
		return s.unsupported(stmt, "redirection without a command")

	default:
		return s.unsupported(stmt, "compound command")
	}
}

// assign sets session variables for a line holding only assignments.
func (s *Shell) assign(assigns []*syntax.Assign) error {
	assignments, err := s.evalAssign(s.expansionEnv(), assigns)
	if err != nil {
		return err
	}
	if err := vos.CopyEnv(s.env().Vars(), vos.EnvList(assignments)); err != nil {
		return err
	}
	s.env().SetLastStatus(0)
	return nil
}

func (s *Shell) runPipeline(ctx context.Context, stmt *syntax.Stmt) error {
	stmts, err := s.flatten(stmt)
	if err != nil {
		return err
	}

	env := s.expansionEnv()
	stages := make([]command.Invocation, len(stmts))
	for i, stage := range stmts {
		call, ok := stage.Cmd.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return s.unsupported(stage, "pipeline stage")
		}
		if stages[i], err = s.invocation(env, call); err != nil {
			return err
		}
	}

	files, opened, err := s.redirect(env, stmts)
	defer func() {
		for _, c := range opened {
			if err := c.Close(); err != nil {
				logger.L(ctx).Warn("closing redirected file", "err", err)
			}
		}
	}()
	if err != nil {
		var unsupported *UnsupportedError
		if errors.As(err, &unsupported) {
			return err
		}
		s.fail(ctx, err, 1)
		return nil
	}

	if _, err := s.Executor.Run(ctx, stages, files); err != nil {
		s.reportRunError(ctx, err)
	}
	return nil
}

// flatten returns the statements joined by pipes in stmt, left to right.
func (s *Shell) flatten(stmt *syntax.Stmt) ([]*syntax.Stmt, error) {
	bin, ok := stmt.Cmd.(*syntax.BinaryCmd)
	if !ok || bin.Op != syntax.Pipe {
		return []*syntax.Stmt{stmt}, nil
	}
	if len(stmt.Redirs) > 0 {
		return nil, s.unsupported(stmt, "redirection of a pipeline")
	}

	left, err := s.flatten(bin.X)
	if err != nil {
		return nil, err
	}
	right, err := s.flatten(bin.Y)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

func (s *Shell) invocation(env vos.VEnv, call *syntax.CallExpr) (command.Invocation, error) {
	assignments, err := s.evalAssign(env, call.Assigns)
	if err != nil {
		return command.Invocation{}, err
	}

	var args []string
	for _, word := range call.Args {
		arg, err := s.evalWord(env, word)
		if err != nil {
			return command.Invocation{}, err
		}
		args = append(args, arg)
	}

	return command.Invocation{
		Name:        args[0],
		Args:        args[1:],
		Assignments: assignments,
	}, nil
}

// redirect builds the outer streams of a pipeline: input redirection applies
// to the first stage and output redirection to the last. The returned
// closers are the files opened here, they're returned even on error.
func (s *Shell) redirect(env vos.VEnv, stmts []*syntax.Stmt) (vos.VIO, []io.Closer, error) {
	files := &vos.VIOAdapter{
		IStdin:  s.Files.Stdin(),
		IStdout: s.Files.Stdout(),
		IStderr: s.Files.Stderr(),
	}
	fsys := vos.NewRelativeFs(s.env().Fs(), s.env().ExpandPath)

	var opened []io.Closer
	last := len(stmts) - 1
	for i, stmt := range stmts {
		for _, rd := range stmt.Redirs {
			fd := ""
			if rd.N != nil {
				fd = rd.N.Value
			}
			target, err := s.evalWord(env, rd.Word)
			if err != nil {
				return nil, opened, err
			}
			if target == "" {
				return nil, opened, s.unsupported(rd, "empty redirection target")
			}

			switch {
			case rd.Op == syntax.RdrIn && i == 0 && (fd == "" || fd == "0"):
				f, err := fsys.Open(target)
				if err != nil {
					return nil, opened, err
				}
				opened = append(opened, f)
				files.IStdin = f

			case (rd.Op == syntax.RdrOut || rd.Op == syntax.AppOut) && i == last && (fd == "" || fd == "1" || (fd == "2" && len(stmts) == 1)):
				flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
				if rd.Op == syntax.AppOut {
					flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
				}
				f, err := fsys.OpenFile(target, flag, 0644)
				if err != nil {
					return nil, opened, err
				}
				opened = append(opened, f)
				if fd == "2" {
					files.IStderr = f
				} else {
					files.IStdout = f
				}

			case rd.Op == syntax.DplOut && len(stmts) == 1 && fd == "2" && target == "1":
				files.IStderr = files.IStdout

			case rd.Op == syntax.DplOut && len(stmts) == 1 && (fd == "" || fd == "1") && target == "2":
				files.IStdout = files.IStderr

			default:
				return nil, opened, s.unsupported(rd, fmt.Sprintf("redirection %q", fd+rd.Op.String()+target))
			}
		}
	}

	return files, opened, nil
}

func (s *Shell) reportRunError(ctx context.Context, err error) {
	var notFound *command.NotFoundError
	if !errors.As(err, &notFound) {
		s.fail(ctx, err, 1)
		return
	}

	// The executor already set the status.
	fmt.Fprintf(s.Files.Stderr(), "%s: %v\n", Name, err)
	if len(notFound.Suggestions) > 0 {
		fmt.Fprintf(s.Files.Stderr(), "%s: did you mean: %s?\n", Name, strings.Join(notFound.Suggestions, ", "))
	}
}

// fail reports err on the terminal and stores status as the last status.
func (s *Shell) fail(ctx context.Context, err error, status int) {
	logger.L(ctx).Debug("line failed", "err", err, "status", status)
	fmt.Fprintf(s.Files.Stderr(), "%s: %v\n", Name, err)
	s.env().SetLastStatus(status)
}
