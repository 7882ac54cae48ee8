// Package main provides the entry point for the onioncrawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for onioncrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onioncrawl",
		Short: "Parallel crawler for Tor hidden services",
		Long: `Onioncrawl is a parallel crawler for Tor hidden services (.onion addresses).
It dispatches each seed domain to a worker pool, follows links breadth-first
to a bounded depth, and stores deduplicated page records in a local SQLite
database.

By default, onioncrawl starts an embedded Tor daemon automatically.
Use --external-tor to use an existing Tor proxy instead.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewStatsCmd())
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
