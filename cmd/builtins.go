package cmd

import (
	"fmt"

	"github.com/josephlewis42/nesh/commands"
	"github.com/spf13/cobra"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "List the commands built into the shell.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, builtin := range commands.ListBuiltinCommands() {
			fmt.Fprintln(cmd.OutOrStdout(), builtin.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
