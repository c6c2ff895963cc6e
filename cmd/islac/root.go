package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "islac",
	Short: "Generate inputs satisfying ISLa-style semantic constraints",
	Long: `islac drives the gokando-isla solver over one of its built-in
grammar+constraint scenarios:
- Generates derivation trees satisfying the scenario's constraint.
- Logs when the search space is exhausted and, with --parallel, the
  worker pool's execution stats. The solver's trace counters are not printed.
It does not check existing inputs against a constraint.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command, printing any error to stderr.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
