package main

import (
	"fmt"
	"strings"

	"github.com/gitrdm/gokando-isla/internal/scenarios"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List the built-in scenarios available to generate",
		Example: `  islac list`,
		Args:    cobra.NoArgs,
		RunE:    runList,
	}
	rootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(scenarios.Names(), "\n"))
	return nil
}
