// Package commands wires up the bank2ynab CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mokshasoul/bank2ynab/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "bank2ynab",
		Short:   "Import bank CSV exports into YNAB",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newListCommand())

	return rootCmd
}
