// Package main provides the entry point for the namescan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for namescan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "namescan",
		Short: "Check identifier registration across web services",
		Long: `Namescan checks whether an identifier (usually a username) is registered
across a catalog of web services. Each service is probed with an HTTP
request and the response is classified as claimed, available, or unknown.

Fetched pages are parsed for further identifiers
(linked social accounts, embedded account IDs), which are then probed
recursively unless --no-recursion is set.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewSitesCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
