package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/nholik/admin-state/internal/coordinator"
	"github.com/nholik/admin-state/internal/domain/packages"
	"github.com/nholik/admin-state/internal/domain/products"
	"github.com/nholik/admin-state/internal/domain/settings"
	"github.com/nholik/admin-state/internal/domain/system"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "show [domain]",
		Short:     "Print the persisted state of one domain, or all of them",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: coordinator.Domains,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			snap := rt.coord.Snapshot()
			var value any = snap
			if len(args) == 1 {
				switch args[0] {
				case system.Domain:
					value = snap.System
				case packages.Domain:
					value = snap.Packages
				case products.Domain:
					value = snap.Products
				case settings.Domain:
					value = snap.Settings
				default:
					return fmt.Errorf("%w: %q", coordinator.ErrUnknownDomain, args[0])
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(value)
		},
	}
}
