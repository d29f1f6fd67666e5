package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/nesh/commands"
	"github.com/josephlewis42/nesh/core/command"
	"github.com/josephlewis42/nesh/core/config"
	"github.com/josephlewis42/nesh/core/logger"
	"github.com/josephlewis42/nesh/core/pipeline"
	"github.com/josephlewis42/nesh/core/shell"
	"github.com/josephlewis42/nesh/core/ttylog"
	"github.com/josephlewis42/nesh/core/vos"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// session holds everything one run of the shell needs, closers are released
// when it ends.
type session struct {
	shell   *shell.Shell
	closers []io.Closer
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

// isTerminal reports whether stream is backed by a terminal.
func isTerminal(stream interface{}) bool {
	f, ok := vos.OSFile(stream)
	return ok && term.IsTerminal(int(f.Fd()))
}

// sessionVariables returns the initial shell variables: the process
// environment with the configured settings applied on top.
func sessionVariables(cfg *config.Configuration, files vos.VIO) []string {
	vars := os.Environ()

	prompt := cfg.Prompt
	if prompt == "" {
		prompt = shell.DefaultPrompt
		if cfg.Color != "never" && isTerminal(files.Stdout()) {
			prompt = shell.DefaultColorPrompt
		}
	}
	vars = append(vars, shell.EnvPrompt+"="+prompt)

	if host, err := os.Hostname(); err == nil {
		vars = append(vars, shell.EnvHostname+"="+host)
	}
	vars = append(vars, vos.EnvPath+"="+cfg.SearchPath(os.Getenv(vos.EnvPath)))
	if cfg.Color != "" {
		vars = append(vars, vos.EnvColor+"="+cfg.Color)
	}
	if cfg.GrepSeparator != "" {
		vars = append(vars, vos.EnvGrepSeparator+"="+cfg.GrepSeparator)
	}
	return vars
}

// newSession wires the configured environment, executor and shell to the
// given streams.
func newSession(ctx context.Context, cfg *config.Configuration, files vos.VIO) (*session, error) {
	sess := &session{}

	home, err := cfg.HomeDir()
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	var recorder logger.EventRecorder = &logger.NopEventRecorder{}
	logFile, err := cfg.OpenSessionLog()
	switch {
	case err != nil:
		logger.L(ctx).Warn("couldn't open session log, events won't be recorded", "err", err)
	case logFile != nil:
		sess.closers = append(sess.closers, logFile)
		recorder = logger.NewJSONLinesLogRecorder(logFile).NewSession()
	}

	env, err := vos.NewEnvironment(vos.NewOsFs(), wd,
		vos.WithVariables(sessionVariables(cfg, files)),
		vos.WithHome(home),
		vos.WithRecorder(recorder))
	if err != nil {
		_ = sess.Close()
		return nil, err
	}

	executor := &pipeline.Executor{
		Resolver:   command.Chain{commands.BuiltinResolver{}, command.ExternalResolver{}},
		Env:        env,
		PipeBuffer: cfg.PipeBuffer,
		PipeFail:   cfg.PipeFail,
	}
	sess.shell = shell.New(executor, files)

	return sess, nil
}

// recordTo wraps files so their output is also written to an asciicast
// file at path.
func recordTo(path string, files vos.VIO) (*ttylog.Recorder, io.Closer, error) {
	fd, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	width, height := 80, 24
	if f, ok := vos.OSFile(files.Stdout()); ok {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			width, height = w, h
		}
	}

	return ttylog.NewRecorder(files, ttylog.NewAsciicastLogSink(fd, width, height)), fd, nil
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.L(ctx)

	stdin := cmd.InOrStdin()
	interactive := !cmd.Flags().Changed("command") && isTerminal(stdin)

	var files vos.VIO = &vos.VIOAdapter{
		IStdin:  vos.NopSource(stdin),
		IStdout: vos.NopSink(cmd.OutOrStdout()),
		IStderr: vos.NopSink(cmd.ErrOrStderr()),
	}

	var recorder *ttylog.Recorder
	if recordPath != "" {
		rec, closer, err := recordTo(recordPath, files)
		if err != nil {
			return err
		}
		defer closer.Close()
		recorder = rec
		files = rec
	}

	sess, err := newSession(ctx, appConfig, files)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("closing session", "err", err)
		}
	}()

	var status int
	switch {
	case cmd.Flags().Changed("command"):
		sess.shell.RunLine(ctx, commandLine)
		status = sess.shell.Status()

	case interactive:
		history, err := appConfig.HistoryPath()
		if err != nil {
			return err
		}
		rl, err := sess.shell.NewReadline(shell.ReadlineConfig{
			Stdout:      files.Stdout(),
			Stderr:      files.Stderr(),
			HistoryFile: history,
		})
		if err != nil {
			return fmt.Errorf("starting line editor: %w", err)
		}
		defer rl.Close()
		status = sess.shell.RunInteractive(ctx, rl)

	default:
		status, err = sess.shell.RunReader(ctx, stdin)
		if err != nil {
			return err
		}
	}

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			log.Error("recording stopped early", "path", recordPath, "err", err)
		}
	}

	if status != 0 {
		return exitStatus(status)
	}
	return nil
}
