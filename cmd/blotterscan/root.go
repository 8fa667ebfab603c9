// Package main provides the entry point for the blotterscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for blotterscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blotterscan",
		Short: "Search county booking blotters for a list of names",
		Long: `Blotterscan logs into a county booking blotter, searches a list of names
concurrently using headless browser sessions, and exports the booking
records it finds as text, CSV, Excel, JSON, or Markdown.

Completed runs can be saved to a local history database and diffed to
show who was booked since the previous run.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
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
