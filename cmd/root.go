// Package cmd implements the nesh command line using cobra.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/josephlewis42/nesh/core/config"
	"github.com/josephlewis42/nesh/core/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	verbosity   int
	commandLine string
	recordPath  string

	// appConfig is loaded in PersistentPreRunE.
	appConfig *config.Configuration
)

// exitStatus is returned by a command that wants the process to exit with a
// status other than 0 without printing an error.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// loadConfig reads the configuration from --config, falling back to the
// built in defaults if no path was given and ~/.nesh has no configuration.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	osFs := afero.NewOsFs()

	dir := cfgPath
	if dir == "" {
		defaultDir, err := config.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = defaultDir
	}

	configuration, err := config.Load(osFs, dir)
	switch {
	case errors.Is(err, fs.ErrNotExist) && cfgPath == "":
		configuration = config.Default(osFs, dir)
		// Nowhere to write to until init is run.
		configuration.SessionLog = ""
		configuration.History = ""
		return configuration, nil
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintln(cmd.ErrOrStderr(), "Couldn't load config: did you run init?")
	}

	return configuration, err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nesh [-c COMMAND]",
	Short: "A small interactive command shell",
	Long: `nesh reads command lines, resolves each program to a builtin or an
executable on the PATH and runs pipelines of them.

Without -c it reads lines from standard input, interactively if standard input
is a terminal.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		appConfig = cfg

		level := cfg.Verbosity
		if verbosity > level {
			level = verbosity
		}
		log := logger.New(logger.Config{Verbosity: level, Output: cmd.ErrOrStderr()})
		cmd.SetContext(logger.WithLogger(cmd.Context(), log))
		return nil
	},
	RunE: runShell,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()

	var status exitStatus
	if errors.As(err, &status) {
		os.Exit(int(status))
	}
	cobra.CheckErr(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "configuration directory (default ~/.nesh)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase diagnostic logging, repeat for more")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run COMMAND then exit")
	rootCmd.Flags().StringVar(&recordPath, "record", "", "record terminal output to an asciicast file")
}
