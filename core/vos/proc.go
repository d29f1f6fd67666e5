package vos

import (
	"errors"
	"strings"

	"github.com/josephlewis42/nesh/core/logger"
)

// ProcOS is the VOS a single command runs against. Variables are private to
// the process; the working directory and exit request belong to the session.
type ProcOS struct {
	session *Environment

	VEnv
	VFS
	VIO

	args []string
}

var _ VOS = (*ProcOS)(nil)

// Args implements VOS.Args.
func (p *ProcOS) Args() []string {
	return p.args
}

// Getwd implements VOS.Getwd.
func (p *ProcOS) Getwd() string {
	return p.session.Getwd()
}

// Chdir implements VOS.Chdir.
func (p *ProcOS) Chdir(dir string) error {
	return p.session.Chdir(dir)
}

// ExpandPath implements VOS.ExpandPath.
func (p *ProcOS) ExpandPath(path string) string {
	return p.session.ExpandPath(path)
}

// RequestExit implements VOS.RequestExit.
func (p *ProcOS) RequestExit(code int) {
	p.session.RequestExit(code)
}

// UserHomeDir implements VEnv.UserHomeDir using the session's home.
func (p *ProcOS) UserHomeDir() (string, error) {
	home := p.session.Home()
	if home == "" {
		return "", errors.New("$HOME is not defined")
	}
	return home, nil
}

// LogInvalidInvocation implements VOS.LogInvalidInvocation.
func (p *ProcOS) LogInvalidInvocation(err error) {
	_ = p.session.Recorder().Record(&logger.InvalidInvocation{
		Command: p.args,
		Error:   err.Error(),
	})
}

// String returns the command line of the process.
func (p *ProcOS) String() string {
	return strings.Join(p.args, " ")
}
