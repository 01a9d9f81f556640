// Package commands holds the smartspend command line.
package commands

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "smartspend",
		Short: "Personal finance API with recurring transaction automation",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newAutomateCmd())
	return rootCmd
}
