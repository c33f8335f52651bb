package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gitrdm/hornverify/pkg/horn"
	"github.com/gitrdm/hornverify/pkg/rulelang"
)

func newCheckCommand() *cobra.Command {
	var limit int
	var when string
	var asJSON bool
	var describe bool

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Compile and run one rule-source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if describe {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return errors.Wrapf(err, "reading %s", args[0])
				}
				model, compileErrs := rulelang.Compile(string(data))
				if len(compileErrs) != 0 {
					return errors.Errorf("%s: %s", args[0], rulelang.FormatErrors(compileErrs))
				}
				fmt.Fprintln(cmd.OutOrStdout(), model.String())
			}
			result, err := runFile(args[0], limit, when)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), args[0], result, asJSON)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "override the rule source's maxDepth")
	cmd.Flags().StringVar(&when, "when", "", "override the query's when state, e.g. SD(done[])")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit a machine-readable attack dump")
	cmd.Flags().BoolVar(&describe, "describe", false, "print the compiled model's state/query/rule summary before checking")
	return cmd
}

// runFile compiles path and runs it to completion, applying any
// command-line overrides for the rule source's own limit/when lines.
func runFile(path string, limitOverride int, whenOverride string) (horn.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return horn.Result{}, errors.Wrapf(err, "reading %s", path)
	}

	model, compileErrs := rulelang.Compile(string(data))
	if len(compileErrs) != 0 {
		return horn.Result{}, errors.Errorf("%s: %s", path, rulelang.FormatErrors(compileErrs))
	}

	when := model.Query.When
	if whenOverride != "" {
		state, err := rulelang.ParseState(whenOverride)
		if err != nil {
			return horn.Result{}, errors.Wrap(err, "parsing --when")
		}
		when = &state
	}

	limit := model.Limit
	if limitOverride > 0 {
		limit = limitOverride
	}
	var opts []horn.Option
	if limit > 0 {
		opts = append(opts, horn.WithMaxDepth(limit))
	}

	engine := horn.NewEngine(model.States, model.Query.Target, when, model.Rules, opts...)
	result, err := engine.Execute(horn.Callbacks{})
	if err != nil {
		return horn.Result{}, errors.Wrapf(err, "%s", path)
	}
	return result, nil
}

// attackReport is the --json rendering of one file's result: HornClause
// and IMessage values don't carry json tags of their own (the core has no
// reason to know about the CLI's wire format), so the host flattens them
// to strings here instead of exporting serialization concerns into horn.
type attackReport struct {
	File    string   `json:"file"`
	Status  string   `json:"status"`
	Query   string   `json:"query"`
	Actual  string   `json:"actual,omitempty"`
	When    string   `json:"when,omitempty"`
	Facts   []string `json:"facts,omitempty"`
	Clauses []string `json:"clauses,omitempty"`
}

func printResult(w io.Writer, file string, result horn.Result, asJSON bool) error {
	report := attackReport{File: file, Status: result.Status.String()}
	if result.Query != nil {
		report.Query = result.Query.String()
	}
	if result.Attack != nil {
		report.Actual = result.Attack.Actual.String()
		for _, f := range result.Attack.Facts {
			report.Facts = append(report.Facts, f.String())
		}
		for _, c := range result.Attack.Clauses {
			report.Clauses = append(report.Clauses, c.Result.String())
		}
	}
	if result.When != nil {
		report.When = result.When.String()
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if result.Attack == nil {
		_, err := fmt.Fprintf(w, "%s: %s — no attack found\n", file, result.Status)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s: %s\n", file, result.Status); err != nil {
		return err
	}
	return result.Attack.Describe(w)
}
