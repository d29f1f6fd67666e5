package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/josephlewis42/nesh/core/logger"
	"github.com/josephlewis42/nesh/core/vos"
)

// ExitCommandNotExecutable is the status of a program that was found but
// could not be started, matching POSIX shells.
const ExitCommandNotExecutable = 126

// ExternalResolver resolves names to executables on the session PATH and runs
// them as child processes with the stage's streams.
type ExternalResolver struct{}

var _ Resolver = ExternalResolver{}

// Resolve implements Resolver.
func (ExternalResolver) Resolve(inv Invocation, files vos.VIO, env *vos.Environment) (Command, bool) {
	path, err := vos.LookPath(env, inv.Name)
	if err != nil {
		return nil, false
	}

	return &externalCommand{path: path, inv: inv, files: files, env: env}, true
}

type externalCommand struct {
	path  string
	inv   Invocation
	files vos.VIO
	env   *vos.Environment
}

func (c *externalCommand) Run(ctx context.Context) int {
	cmd := exec.CommandContext(ctx, c.path, c.inv.Args...)
	cmd.Args[0] = c.inv.Name
	cmd.Dir = c.env.Getwd()
	cmd.Env = append(c.env.Vars().Environ(), c.inv.Assignments...)

	cmd.Stdin = c.files.Stdin()
	if f, ok := vos.OSFile(c.files.Stdin()); ok {
		cmd.Stdin = f
	}
	cmd.Stdout = c.files.Stdout()
	if f, ok := vos.OSFile(c.files.Stdout()); ok {
		cmd.Stdout = f
	}
	cmd.Stderr = c.files.Stderr()
	if f, ok := vos.OSFile(c.files.Stderr()); ok {
		cmd.Stderr = f
	}

	logger.L(ctx).Debug("starting external command", "path", c.path, "args", c.inv.Args)

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		// Terminated by a signal, no exit code.
		return 1
	case vos.IsClosedPipe(err):
		// The program exited cleanly but the reader went away before all
		// of its output was copied.
		return 0
	default:
		fmt.Fprintf(c.files.Stderr(), "%s: %v\n", c.inv.Name, err)
		return ExitCommandNotExecutable
	}
}
