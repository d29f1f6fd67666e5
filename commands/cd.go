package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/josephlewis42/nesh/core/vos"
)

// Cd changes the session working directory, defaulting to $HOME.
func Cd(virtOS vos.VOS) int {
	args := virtOS.Args()

	var target string
	switch len(args) {
	case 1:
		home, err := virtOS.UserHomeDir()
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "%s: %v\n", args[0], err)
			return 1
		}
		target = home
	case 2:
		target = args[1]
	default:
		err := errors.New("too many arguments")
		virtOS.LogInvalidInvocation(err)
		fmt.Fprintf(virtOS.Stderr(), "%s: %v\n", args[0], err)
		return 1
	}

	if err := virtOS.Chdir(target); err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			err = pathErr.Err
		}
		fmt.Fprintf(virtOS.Stderr(), "%s: %s: %v\n", args[0], target, err)
		return 1
	}

	return 0
}

var _ vos.ProcessFunc = Cd

func init() {
	mustAddBuiltin("cd", Cd)
}
