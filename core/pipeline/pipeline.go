// Package pipeline runs a sequence of commands where the output of each stage
// feeds the input of the next.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/josephlewis42/nesh/core/command"
	"github.com/josephlewis42/nesh/core/logger"
	"github.com/josephlewis42/nesh/core/vos"
	"golang.org/x/sync/errgroup"
)

const (
	// ExitCommandNotFound is the status of a pipeline that couldn't be built
	// because a stage named an unknown program.
	ExitCommandNotFound = 127
)

// State is the lifecycle of a single pipeline run.
type State int

const (
	// Building means stages are being resolved and wired together.
	Building State = iota
	// Running means every stage resolved and is executing.
	Running
	// Completed means every stage returned and closed its output.
	Completed
	// Aborted means a stage failed to resolve, nothing ran.
	Aborted
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Resolver turns an invocation bound to streams into a Command.
// command.Chain implements it.
type Resolver interface {
	Resolve(inv command.Invocation, files vos.VIO, env *vos.Environment) (command.Command, error)
}

var _ Resolver = command.Chain(nil)

// Result is the outcome of a pipeline run.
type Result struct {
	State State
	// Status is the status of the pipeline as a whole.
	Status int
	// Stages holds the status of each stage in order, it's empty if the
	// pipeline was aborted.
	Stages []int
}

// Executor runs pipelines against a shared Environment.
type Executor struct {
	Resolver Resolver
	Env      *vos.Environment

	// PipeBuffer is the number of bytes a stage may write ahead of its
	// reader. Zero makes every write wait for the reader.
	PipeBuffer int

	// PipeFail makes the pipeline status the last non-zero stage status
	// rather than the status of the last stage.
	PipeFail bool
}

// Run resolves every stage then runs them concurrently. Stage 0 reads from
// files.Stdin(), the last stage writes to files.Stdout() and every stage
// shares files.Stderr(). Run never closes the streams in files.
//
// If any stage fails to resolve, no stage runs and the returned error
// wraps command.ErrCommandNotFound. Failures within a running stage are
// only reflected in its status.
func (e *Executor) Run(ctx context.Context, stages []command.Invocation, files vos.VIO) (*Result, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("empty pipeline: %w", vos.ErrInvalidArgument)
	}

	log := logger.L(ctx).With("stages", len(stages))
	result := &Result{State: Building}

	stageFiles, internal := e.wire(len(stages), files)

	cmds := make([]command.Command, len(stages))
	for i, inv := range stages {
		cmd, err := e.Resolver.Resolve(inv, stageFiles[i], e.Env)
		if err != nil {
			closeAll(internal)

			result.State = Aborted
			result.Status = ExitCommandNotFound
			e.Env.SetLastStatus(result.Status)
			if errors.Is(err, command.ErrCommandNotFound) {
				e.record(ctx, &logger.UnknownCommand{Command: inv.Argv()})
			}
			log.Debug("pipeline aborted", "stage", i, "name", inv.Name, "err", err)
			return result, err
		}
		cmds[i] = cmd
	}

	result.State = Running
	log.Debug("pipeline running")

	statuses := make([]int, len(cmds))
	var group errgroup.Group
	for i, cmd := range cmds {
		group.Go(func() error {
			statuses[i] = cmd.Run(ctx)

			// Only the pipe ends created here are closed, the caller owns
			// the outer streams. Closing the reader lets an upstream stage
			// that is still writing fail instead of blocking forever.
			var errs []error
			if i > 0 {
				errs = append(errs, stageFiles[i].Stdin().Close())
			}
			if i < len(cmds)-1 {
				if err := stageFiles[i].Stdout().Close(); err != nil && !vos.IsClosedPipe(err) {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		})
	}

	if err := group.Wait(); err != nil {
		log.Warn("closing pipeline streams", "err", err)
	}

	result.State = Completed
	result.Stages = statuses
	result.Status = e.status(statuses)
	e.Env.SetLastStatus(result.Status)

	argv := make([][]string, len(stages))
	for i, inv := range stages {
		argv[i] = inv.Argv()
	}
	e.record(ctx, &logger.RunPipeline{Stages: argv, Statuses: statuses, Status: result.Status})
	log.Debug("pipeline completed", "status", result.Status, "statuses", statuses)

	return result, nil
}

// wire builds the streams of each stage. The returned closers are the pipe
// ends created for the pipeline.
func (e *Executor) wire(n int, files vos.VIO) ([]vos.VIO, []io.Closer) {
	stageFiles := make([]vos.VIO, n)
	var internal []io.Closer

	stdin := files.Stdin()
	for i := 0; i < n; i++ {
		stdout := files.Stdout()
		var next vos.Source
		if i < n-1 {
			next, stdout = vos.NewPipe(e.PipeBuffer)
			internal = append(internal, next, stdout)
		}

		stageFiles[i] = &vos.VIOAdapter{
			IStdin:  stdin,
			IStdout: stdout,
			IStderr: files.Stderr(),
		}
		stdin = next
	}

	return stageFiles, internal
}

func (e *Executor) status(statuses []int) int {
	last := statuses[len(statuses)-1]
	if !e.PipeFail {
		return last
	}

	for i := len(statuses) - 1; i >= 0; i-- {
		if statuses[i] != 0 {
			return statuses[i]
		}
	}
	return 0
}

func (e *Executor) record(ctx context.Context, event logger.LogType) {
	if err := e.Env.Recorder().Record(event); err != nil {
		logger.L(ctx).Warn("couldn't record event", "err", err)
	}
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
