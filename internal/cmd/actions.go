package cmd

import (
	"fmt"
	"strconv"

	"github.com/nholik/admin-state/internal/domain/settings"
	"github.com/nholik/admin-state/internal/domain/system"
	"github.com/nholik/admin-state/internal/reducer"
	"github.com/spf13/cobra"
)

// actionCmd builds a one-shot command that dispatches the action returned by build.
func actionCmd(use, short, domain string, build func(cmd *cobra.Command, args []string) (reducer.Action, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := build(cmd, args)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			return rt.dispatch(cmd.Context(), cmd.OutOrStdout(), domain, action)
		},
	}
}

func newBackupCmd() *cobra.Command {
	return actionCmd("backup <repository>", "Stamp a new backup for a registered repository", system.Domain,
		func(_ *cobra.Command, args []string) (reducer.Action, error) {
			return system.InitializeBackup{Repository: args[0]}, nil
		})
}

func newRestoreCmd() *cobra.Command {
	return actionCmd("restore <unix-millis>", "Record a restoration time", system.Domain,
		func(_ *cobra.Command, args []string) (reducer.Action, error) {
			millis, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid restoration time %q: %w", args[0], err)
			}
			return system.Restore{LastRestorationDate: &millis}, nil
		})
}

func newThemeCmd() *cobra.Command {
	return actionCmd("theme <light|dark|system>", "Switch the interface theme", settings.Domain,
		func(_ *cobra.Command, args []string) (reducer.Action, error) {
			return settings.SetTheme{Theme: settings.Theme(args[0])}, nil
		})
}

func newLanguageCmd() *cobra.Command {
	return actionCmd("language <tag>", "Switch the interface language", settings.Domain,
		func(_ *cobra.Command, args []string) (reducer.Action, error) {
			return settings.SetLanguage{Language: args[0]}, nil
		})
}
