package vos

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/josephlewis42/nesh/core/logger"
)

// Environment is the state shared by every command in a session: the working
// directory, a pending exit request and the shell variables.
//
// Mutations are serialized so stages of one pipeline may run concurrently.
type Environment struct {
	// fs is the root filesystem, it's only addressed with absolute paths.
	fs VFS

	mu            sync.RWMutex
	wd            string
	exitRequested bool
	exitCode      int
	lastStatus    int

	vars *MapEnv

	recorder logger.EventRecorder
}

// EnvOption configures an Environment.
type EnvOption func(*Environment) error

// WithHome sets the directory "cd" with no arguments and "~" resolve to.
func WithHome(home string) EnvOption {
	return func(e *Environment) error {
		return e.vars.Setenv(EnvHome, home)
	}
}

// WithVariables seeds the shell variables with "key=value" pairs.
func WithVariables(environ []string) EnvOption {
	return func(e *Environment) error {
		return CopyEnv(e.vars, EnvList(environ))
	}
}

// WithRecorder records session events to r.
func WithRecorder(r logger.EventRecorder) EnvOption {
	return func(e *Environment) error {
		e.recorder = r
		return nil
	}
}

// NewEnvironment creates the session state rooted at the filesystem root with
// wd as the initial working directory, which must be an existing directory.
func NewEnvironment(root VFS, wd string, opts ...EnvOption) (*Environment, error) {
	env := &Environment{
		fs:       root,
		vars:     NewMapEnv(),
		recorder: &logger.NopEventRecorder{},
	}

	for _, opt := range opts {
		if err := opt(env); err != nil {
			return nil, err
		}
	}

	resolved, err := env.checkDir(ExpandPath(wd, "/", env.vars.Getenv(EnvHome)))
	if err != nil {
		return nil, err
	}
	env.wd = resolved
	_ = env.vars.Setenv(EnvPWD, resolved)

	return env, nil
}

// Fs returns the root filesystem.
func (e *Environment) Fs() VFS {
	return e.fs
}

// Vars returns the shell variables.
func (e *Environment) Vars() VEnv {
	return e.vars
}

// Recorder returns the session event recorder.
func (e *Environment) Recorder() logger.EventRecorder {
	return e.recorder
}

// Getwd returns the current working directory.
func (e *Environment) Getwd() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.wd
}

// Home returns the configured home directory.
func (e *Environment) Home() string {
	return e.vars.Getenv(EnvHome)
}

// ExpandPath resolves path against the current working directory and home.
func (e *Environment) ExpandPath(path string) string {
	return ExpandPath(path, e.Getwd(), e.Home())
}

// Chdir changes the working directory. The new directory must exist and be a
// directory, otherwise the working directory is left unchanged and the error
// wraps ErrPathNotFound or ErrNotADirectory.
func (e *Environment) Chdir(dir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	target := ExpandPath(dir, e.wd, e.vars.Getenv(EnvHome))
	resolved, err := e.checkDir(target)
	if err != nil {
		return err
	}

	from := e.wd
	e.wd = resolved
	_ = e.vars.Setenv(EnvPWD, resolved)
	_ = e.recorder.Record(&logger.ChangeDirectory{From: from, To: resolved})
	return nil
}

func (e *Environment) checkDir(dir string) (string, error) {
	stat, err := e.fs.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", &fs.PathError{Op: "stat", Path: dir, Err: ErrPathNotFound}
	case err != nil:
		return "", &fs.PathError{Op: "stat", Path: dir, Err: err}
	case !stat.IsDir():
		return "", &fs.PathError{Op: "stat", Path: dir, Err: ErrNotADirectory}
	default:
		return dir, nil
	}
}

// RequestExit marks the session for termination with the given code.
func (e *Environment) RequestExit(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exitRequested = true
	e.exitCode = code
}

// ExitRequested reports whether a command asked the session to end.
func (e *Environment) ExitRequested() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.exitRequested
}

// ExitCode is the code passed to the last RequestExit.
func (e *Environment) ExitCode() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.exitCode
}

// SetLastStatus stores the status of the most recent pipeline.
func (e *Environment) SetLastStatus(status int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastStatus = status
}

// LastStatus returns the status of the most recent pipeline.
func (e *Environment) LastStatus() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastStatus
}

// StartProcess creates the view of the environment one command runs with.
// The process gets its own copy of the shell variables with the extra
// "key=value" assignments applied; the working directory and exit request
// stay shared with the session.
func (e *Environment) StartProcess(argv []string, assignments []string, files VIO) (*ProcOS, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("start process: empty argv: %w", ErrInvalidArgument)
	}

	env := NewMapEnvFrom(e.vars)
	if err := CopyEnv(env, EnvList(assignments)); err != nil {
		return nil, err
	}

	if files == nil {
		files = NewNullIO()
	}

	proc := &ProcOS{
		session: e,
		VEnv:    env,
		VIO:     files,
		args:    argv,
	}
	proc.VFS = NewRelativeFs(e.fs, e.ExpandPath)

	return proc, nil
}
