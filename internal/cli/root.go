// Package cli wires the advisor commands: the HTTP/MCP server, a one-shot
// workflow runner, and the catalog seeder.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the advisor CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "advisor",
		Short:         "Credit health assessment and card recommendation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewSeedCommand())

	return cmd
}
