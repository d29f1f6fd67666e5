package commands

import (
	"fmt"
	"strconv"

	"github.com/josephlewis42/nesh/core/vos"
)

// Exit asks the session to end once the current pipeline completes. The
// status is the first argument or 0.
func Exit(virtOS vos.VOS) int {
	args := virtOS.Args()

	code := 0
	switch len(args) {
	case 1:
	case 2:
		parsed, err := strconv.Atoi(args[1])
		if err != nil {
			err = fmt.Errorf("%s: numeric argument required: %w", args[1], vos.ErrInvalidArgument)
			virtOS.LogInvalidInvocation(err)
			fmt.Fprintf(virtOS.Stderr(), "%s: %v\n", args[0], err)
			return 2
		}
		code = parsed
	default:
		err := fmt.Errorf("too many arguments: %w", vos.ErrInvalidArgument)
		virtOS.LogInvalidInvocation(err)
		fmt.Fprintf(virtOS.Stderr(), "%s: %v\n", args[0], err)
		return 1
	}

	virtOS.RequestExit(code)
	return code
}

var _ vos.ProcessFunc = Exit

func init() {
	mustAddBuiltin("exit", Exit)
}
