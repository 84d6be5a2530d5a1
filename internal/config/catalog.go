package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/nholik/admin-state/internal/domain/packages"
	"github.com/nholik/admin-state/internal/domain/products"
	"github.com/nholik/admin-state/internal/domain/system"
	"gopkg.in/yaml.v3"
)

// CatalogSettings overrides the settings defaults on first start.
type CatalogSettings struct {
	Theme       string            `yaml:"theme,omitempty"`
	Language    string            `yaml:"language,omitempty"`
	Preferences map[string]string `yaml:"preferences,omitempty"`
}

// Catalog is the parsed YAML seed file:
// repositories: [{name, location}], packages: [...], products: [...], settings: {...}
type Catalog struct {
	Repositories []system.Repository `yaml:"repositories"`
	Packages     []packages.Package  `yaml:"packages"`
	Products     []products.Product  `yaml:"products"`
	Settings     *CatalogSettings    `yaml:"settings,omitempty"`
}

// LoadCatalogFile parses a YAML catalog from the given path.
// Returns nil if path is empty (no catalog file).
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	if err := catalog.validate(); err != nil {
		return nil, err
	}

	return &catalog, nil
}

// validate checks names and references. Field formats are left to the domain schemas.
func (c *Catalog) validate() error {
	if len(c.Repositories) == 0 && len(c.Packages) == 0 && len(c.Products) == 0 && c.Settings == nil {
		return fmt.Errorf("catalog file is empty")
	}

	seen := make(map[string]bool)
	for i, repo := range c.Repositories {
		name := strings.TrimSpace(repo.Name)
		if name == "" {
			return fmt.Errorf("repository %d: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("repository %q: duplicate name", name)
		}
		seen[name] = true
	}

	pkgIDs := make(map[string]bool)
	for i, pkg := range c.Packages {
		if pkg.ID == "" {
			return fmt.Errorf("package %d: id is required", i)
		}
		if pkgIDs[pkg.ID] {
			return fmt.Errorf("package %q: duplicate id", pkg.ID)
		}
		pkgIDs[pkg.ID] = true
	}

	productIDs := make(map[string]bool)
	for i, product := range c.Products {
		if product.ID == "" {
			return fmt.Errorf("product %d: id is required", i)
		}
		if productIDs[product.ID] {
			return fmt.Errorf("product %q: duplicate id", product.ID)
		}
		productIDs[product.ID] = true

		if !pkgIDs[product.PackageID] {
			return fmt.Errorf("product %q: package_id %q is not listed in packages", product.ID, product.PackageID)
		}
	}

	return nil
}
