package cmd

import (
	"os"
	"time"

	"github.com/josephlewis42/nesh/core/ttylog"
	"github.com/spf13/cobra"
)

var idleLimit time.Duration

var playCmd = &cobra.Command{
	Use:   "play FILE",
	Short: "Play a recorded session.",
	Long:  `Plays a session recorded with --record back to the current terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		return ttylog.Replay(
			ttylog.NewAsciicastLogSource(fd),
			ttylog.NewRealTimePlayback(idleLimit, ttylog.NewClientOutput(cmd.OutOrStdout())))
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().DurationVarP(&idleLimit, "idle", "i", 2*time.Second, "longest pause to replay between outputs")
}
