// Package cmd implements the admin-state command line.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the admin-state command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "admin-state",
		Short: "Persistent admin dashboard state",
		Long: `admin-state keeps the state of an admin dashboard (backups, packages,
products and settings) in a durable store and applies changes through
validated actions.

Configuration comes from AS_* environment variables and an optional .env file.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newShowCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newThemeCmd(),
		newLanguageCmd(),
		newPackageCmd(),
		newProductCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}
