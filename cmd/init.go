package cmd

import (
	"github.com/josephlewis42/nesh/core/config"
	"github.com/josephlewis42/nesh/core/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// initCmd writes the default configuration so session logs and history are
// kept.
var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Initialize the shell configuration.",
	Long: `Writes the default configuration to DIR, --config or ~/.nesh in that order
of preference. An existing configuration is left untouched.`,
	Args: cobra.MaximumNArgs(1),
	// Overrides the root so a missing configuration isn't an error.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log := logger.New(logger.Config{Verbosity: verbosity, Output: cmd.ErrOrStderr()})
		cmd.SetContext(logger.WithLogger(cmd.Context(), log))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfgPath
		switch {
		case len(args) == 1:
			dir = args[0]
		case dir == "":
			defaultDir, err := config.DefaultDir()
			if err != nil {
				return err
			}
			dir = defaultDir
		}

		_, err := config.Initialize(afero.NewOsFs(), dir, logger.L(cmd.Context()))
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
