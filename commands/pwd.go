package commands

import (
	"fmt"

	"github.com/josephlewis42/nesh/core/vos"
)

// Pwd implements the UNIX pwd command.
func Pwd(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "pwd",
		Short: "Print the name of the current working directory.",
	}

	return cmd.Run(virtOS, func() int {
		if args := cmd.Flags().Args(); len(args) > 0 {
			cmd.LogProgramError(virtOS, fmt.Errorf("too many arguments"))
			return 1
		}

		fmt.Fprintln(virtOS.Stdout(), virtOS.Getwd())
		return 0
	})
}

var _ vos.ProcessFunc = Pwd

func init() {
	mustAddBuiltin("pwd", Pwd)
}
