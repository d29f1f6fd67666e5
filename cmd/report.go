package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/nesh/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var reportCmd = &cobra.Command{
	Use:   "report [FILE]",
	Short: "Summarize the session event log.",
	Long: `Reads the JSON lines session event log, or FILE if given, and prints a
summary of the pipelines run and the errors seen.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			fd  io.ReadCloser
			err error
		)
		if len(args) == 1 {
			fd, err = os.Open(args[0])
		} else {
			if appConfig.SessionLog == "" {
				return fmt.Errorf("session logging is disabled, pass a log file or run init")
			}
			fd, err = appConfig.ReadSessionLog()
		}
		if err != nil {
			return err
		}
		defer fd.Close()

		return writeReport(fd, cmd.OutOrStdout())
	},
}

func writeReport(r io.Reader, w io.Writer) error {
	var report logger.Report
	if err := logger.ReadJSONLinesLog(r, report.Update); err != nil {
		return err
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		return err
	}

	_, err = w.Write(out)
	return err
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
