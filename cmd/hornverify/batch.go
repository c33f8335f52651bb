package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gitrdm/hornverify/internal/modelpool"
	"github.com/gitrdm/hornverify/pkg/horn"
)

func newBatchCommand() *cobra.Command {
	var limit int
	var when string
	var asJSON bool
	var workers int

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Compile and run every *.hrn file in a directory concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := filepath.Glob(filepath.Join(args[0], "*.hrn"))
			if err != nil {
				return errors.Wrapf(err, "listing %s", args[0])
			}
			sort.Strings(files)
			if len(files) == 0 {
				return errors.Errorf("no *.hrn files found in %s", args[0])
			}

			results := modelpool.Run(context.Background(), workers, files, func(path string) (any, error) {
				return runFile(path, limit, when)
			})

			failures := 0
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Name, r.Err)
					failures++
					continue
				}
				result := r.Value.(horn.Result)
				if err := printResult(cmd.OutOrStdout(), r.Name, result, asJSON); err != nil {
					return err
				}
				if result.Status == horn.ProvenStatus {
					failures++
				}
			}
			if failures > 0 {
				return errors.Errorf("%d of %d files found an attack or failed to check", failures, len(files))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "override each rule source's maxDepth")
	cmd.Flags().StringVar(&when, "when", "", "override each query's when state")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-readable attack dumps")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = number of CPUs)")
	return cmd
}
