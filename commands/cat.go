package commands

import (
	"io"

	"github.com/josephlewis42/nesh/core/vos"
)

// Cat implements the UNIX cat command.
func Cat(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "cat [FILE]...",
		Short: "Concatenate FILE(s) to standard output, read standard input if none are given.",
	}

	return cmd.Run(virtOS, func() int {
		return cmd.RunEachFileOrStdin(virtOS, cmd.Flags().Args(), func(_ string, fd io.Reader) error {
			if _, err := io.Copy(virtOS.Stdout(), fd); err != nil && !vos.IsClosedPipe(err) {
				return err
			}
			return nil
		})
	})
}

var _ vos.ProcessFunc = Cat

func init() {
	mustAddBuiltin("cat", Cat)
}
