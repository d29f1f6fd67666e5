// Package vostest provides deterministic environments for testing commands.
package vostest

import (
	"bytes"
	"io"

	"github.com/josephlewis42/nesh/core/vos"
	"github.com/spf13/afero"
)

const (
	// Home is the home directory of test environments.
	Home = "/home/user"
)

// NewTestEnvironment creates a session rooted on an in-memory filesystem
// containing /, /tmp and Home, with Home as the working directory.
func NewTestEnvironment() *vos.Environment {
	fs := afero.NewMemMapFs()
	for _, dir := range []string{"/", "/tmp", Home} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			panic(err)
		}
	}

	env, err := vos.NewEnvironment(fs, Home, vos.WithHome(Home), vos.WithVariables([]string{
		"PATH=/usr/bin:/bin",
		"USER=user",
	}))
	if err != nil {
		panic(err)
	}
	return env
}

// Cmd is similar to exec.Cmd but runs a builtin in a test environment.
type Cmd struct {
	// Process function
	Process vos.ProcessFunc
	// Process arguments, the first argument should be the process name.
	Argv []string
	// Env is the session the command runs in, created on first use.
	Env *vos.Environment

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	ExitStatus int
}

// Command creates a Cmd running process with the given arguments.
func Command(process vos.ProcessFunc, name string, arg ...string) *Cmd {
	return &Cmd{
		Process: process,
		Argv:    append([]string{name}, arg...),
		Env:     NewTestEnvironment(),
	}
}

// Fs is the root filesystem of the command's environment.
func (c *Cmd) Fs() afero.Fs {
	return c.Env.Fs()
}

// CombinedOutput runs the command and returns stdout and stderr interleaved.
func (c *Cmd) CombinedOutput() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf
	c.Stderr = buf

	err := c.Run()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Output runs the command and returns its stdout, stderr is discarded
// unless Stderr is set.
func (c *Cmd) Output() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf

	if err := c.Run(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run starts the command and waits for it to complete.
func (c *Cmd) Run() error {
	if c.Env == nil {
		c.Env = NewTestEnvironment()
	}

	proc, err := c.Env.StartProcess(c.Argv, nil, vos.NewVIOAdapter(c.Stdin, c.Stdout, c.Stderr))
	if err != nil {
		return err
	}

	c.ExitStatus = c.Process(proc)
	return nil
}
