// Command hornverify is a small CLI host for the horn verification core —
// the counterpart of the teacher's cmd/example, built on
// github.com/spf13/cobra the way CLI entry points are built across the
// retrieval pack.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

func main() {
	root := &cobra.Command{
		Use:   "hornverify",
		Short: "Symbolic verifier for stateful Horn-clause security protocols",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logrus log level (trace, debug, info, warn, error)")

	root.AddCommand(newCheckCommand())
	root.AddCommand(newBatchCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
