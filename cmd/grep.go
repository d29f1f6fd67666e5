package cmd

import (
	"fmt"

	"github.com/josephlewis42/nesh/core/grep"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var grepOpts grep.Options

var grepCmd = &cobra.Command{
	Use:   "grep [-iw] [-A NUM] PATTERN [FILE]...",
	Short: "Search host files, or standard input, for a pattern.",
	Long: `Runs the shell's grep against the host filesystem. Unreadable files are
reported and skipped, in which case the exit status is 2.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := grepOpts
		opts.GroupSeparator = appConfig.GrepSeparator

		grepper, err := grep.New(args[0], opts)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			return grepper.Grep(cmd.InOrStdin(), cmd.OutOrStdout())
		}

		failed := false
		err = grepper.GrepFiles(afero.NewOsFs(), args[1:], cmd.OutOrStdout(), func(err error) {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			failed = true
		})
		switch {
		case err != nil:
			return err
		case failed:
			return exitStatus(2)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(grepCmd)
	grepCmd.Flags().BoolVarP(&grepOpts.IgnoreCase, "ignore-case", "i", false, "ignore case distinctions")
	grepCmd.Flags().BoolVarP(&grepOpts.WholeWord, "word-regexp", "w", false, "match only whole words")
	grepCmd.Flags().IntVarP(&grepOpts.AfterContext, "after-context", "A", 0, "print NUM lines of trailing context")
}
