package commands

import (
	"errors"
	"fmt"

	"github.com/josephlewis42/nesh/core/grep"
	"github.com/josephlewis42/nesh/core/vos"
)

// Grep prints lines matching a regular expression with optional trailing
// context.
func Grep(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "grep [-iw] [-A NUM] PATTERN [FILE]...",
		Short: "Search files, or standard input, for lines matching a pattern.",
	}

	opts := cmd.Flags()
	ignoreCase := opts.Bool('i', "ignore case distinctions")
	wholeWord := opts.Bool('w', "match only whole words")
	afterContext := opts.Int('A', 0, "print NUM lines of trailing context")
	var color ColorPrinter
	color.Init(opts, virtOS)

	return cmd.Run(virtOS, func() int {
		args := opts.Args()
		if len(args) == 0 {
			err := errors.New("missing argument PATTERN")
			virtOS.LogInvalidInvocation(err)
			cmd.LogProgramError(virtOS, err)
			return 2
		}

		grepper, err := grep.New(args[0], grep.Options{
			WholeWord:      *wholeWord,
			IgnoreCase:     *ignoreCase,
			AfterContext:   *afterContext,
			GroupSeparator: virtOS.Getenv(vos.EnvGrepSeparator),
			Header: func(name string) string {
				return color.Sprintf(ColorBoldCyan, "%s", grep.FileHeader(name))
			},
		})
		if err != nil {
			virtOS.LogInvalidInvocation(err)
			cmd.LogProgramError(virtOS, err)
			return 2
		}

		files := args[1:]
		if len(files) == 0 {
			if err := grepper.Grep(virtOS.Stdin(), virtOS.Stdout()); err != nil && !vos.IsClosedPipe(err) {
				cmd.LogProgramError(virtOS, err)
				return 2
			}
			return 0
		}

		status := 0
		err = grepper.GrepFiles(virtOS, files, virtOS.Stdout(), func(err error) {
			fmt.Fprintln(virtOS.Stderr(), err)
			status = 2
		})
		if err != nil && !vos.IsClosedPipe(err) {
			cmd.LogProgramError(virtOS, err)
			return 2
		}
		return status
	})
}

var _ vos.ProcessFunc = Grep

func init() {
	mustAddBuiltin("grep", Grep)
}
