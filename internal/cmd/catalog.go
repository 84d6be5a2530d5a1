package cmd

import (
	"github.com/nholik/admin-state/internal/domain/packages"
	"github.com/nholik/admin-state/internal/domain/products"
	"github.com/nholik/admin-state/internal/reducer"
	"github.com/spf13/cobra"
)

func newPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Manage the package catalog",
	}
	cmd.AddCommand(newPackageAddCmd(), newPackageUpdateCmd(), newPackageRemoveCmd())
	return cmd
}

type packageFlags struct {
	name        string
	version     string
	description string
	tags        []string
}

func (f *packageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().StringVar(&f.version, "version", "", "semantic version")
	cmd.Flags().StringVar(&f.description, "description", "", "free-form description")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "tag (repeatable)")
}

func newPackageAddCmd() *cobra.Command {
	var flags packageFlags
	cmd := actionCmd("add <id>", "Append a package", packages.Domain,
		func(_ *cobra.Command, args []string) (reducer.Action, error) {
			return packages.AddPackage{Package: &packages.Package{
				ID:          args[0],
				Name:        flags.name,
				Version:     flags.version,
				Description: flags.description,
				Tags:        flags.tags,
			}}, nil
		})
	flags.bind(cmd)
	return cmd
}

func newPackageUpdateCmd() *cobra.Command {
	var flags packageFlags
	cmd := actionCmd("update <id>", "Change fields of a package", packages.Domain,
		func(cmd *cobra.Command, args []string) (reducer.Action, error) {
			patch := &packages.Patch{}
			changed := cmd.Flags().Changed
			if changed("name") {
				patch.Name = &flags.name
			}
			if changed("version") {
				patch.Version = &flags.version
			}
			if changed("description") {
				patch.Description = &flags.description
			}
			if changed("tag") {
				patch.Tags = flags.tags
			}
			return packages.UpdatePackage{ID: args[0], Patch: patch}, nil
		})
	flags.bind(cmd)
	return cmd
}

func newPackageRemoveCmd() *cobra.Command {
	return actionCmd("remove <id>", "Drop a package", packages.Domain,
		func(_ *cobra.Command, args []string) (reducer.Action, error) {
			return packages.RemovePackage{ID: args[0]}, nil
		})
}

func newProductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the product catalog",
	}
	cmd.AddCommand(newProductAddCmd(), newProductUpdateCmd(), newProductRemoveCmd())
	return cmd
}

type productFlags struct {
	name      string
	sku       string
	price     float64
	packageID string
}

func (f *productFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().StringVar(&f.sku, "sku", "", "stock keeping unit")
	cmd.Flags().Float64Var(&f.price, "price", 0, "unit price")
	cmd.Flags().StringVar(&f.packageID, "package", "", "id of the package the product belongs to")
}

func newProductAddCmd() *cobra.Command {
	var flags productFlags
	cmd := actionCmd("add <id>", "Append a product", products.Domain,
		func(_ *cobra.Command, args []string) (reducer.Action, error) {
			return products.AddProduct{Product: &products.Product{
				ID:        args[0],
				Name:      flags.name,
				SKU:       flags.sku,
				Price:     flags.price,
				PackageID: flags.packageID,
			}}, nil
		})
	flags.bind(cmd)
	return cmd
}

func newProductUpdateCmd() *cobra.Command {
	var flags productFlags
	cmd := actionCmd("update <id>", "Change fields of a product", products.Domain,
		func(cmd *cobra.Command, args []string) (reducer.Action, error) {
			patch := &products.Patch{}
			changed := cmd.Flags().Changed
			if changed("name") {
				patch.Name = &flags.name
			}
			if changed("sku") {
				patch.SKU = &flags.sku
			}
			if changed("price") {
				patch.Price = &flags.price
			}
			if changed("package") {
				patch.PackageID = &flags.packageID
			}
			return products.UpdateProduct{ID: args[0], Patch: patch}, nil
		})
	flags.bind(cmd)
	return cmd
}

func newProductRemoveCmd() *cobra.Command {
	return actionCmd("remove <id>", "Drop a product", products.Domain,
		func(_ *cobra.Command, args []string) (reducer.Action, error) {
			return products.RemoveProduct{ID: args[0]}, nil
		})
}
