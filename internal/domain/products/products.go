// Package products holds the ordered product list domain. Every product belongs to
// a package that must already be persisted.
package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/nholik/admin-state/internal/domain/packages"
	"github.com/nholik/admin-state/internal/reducer"
	"github.com/nholik/admin-state/internal/storage"
	"github.com/nholik/admin-state/internal/validation"
	"github.com/rs/zerolog"
)

// Domain is the name of this domain and of its storage slot.
const Domain = "products"

// Product is one sellable product.
type Product struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	SKU       string  `json:"sku" yaml:"sku"`
	Price     float64 `json:"price" yaml:"price"`
	PackageID string  `json:"packageId" yaml:"package_id"`
}

// Patch lists product fields to overwrite. Nil fields are kept.
type Patch struct {
	Name      *string
	SKU       *string
	Price     *float64
	PackageID *string
}

// State is the ordered product list.
type State []Product

// Find returns the product with id.
func (s State) Find(id string) (Product, bool) {
	if i := s.index(id); i >= 0 {
		return s[i], true
	}
	return Product{}, false
}

func (s State) index(id string) int {
	for i, product := range s {
		if product.ID == id {
			return i
		}
	}
	return -1
}

// AddProduct appends a product.
type AddProduct struct {
	reducer.Callbacks
	Product *Product
}

func (AddProduct) Kind() string { return "AddProduct" }

// UpdateProduct merges Patch into the product with ID.
type UpdateProduct struct {
	reducer.Callbacks
	ID    string
	Patch *Patch
}

func (UpdateProduct) Kind() string { return "UpdateProduct" }

// RemoveProduct drops the product with ID.
type RemoveProduct struct {
	reducer.Callbacks
	ID string
}

func (RemoveProduct) Kind() string { return "RemoveProduct" }

// Reducer computes product transitions. Package references are resolved against
// the packages slot in Medium.
type Reducer struct {
	Medium      storage.Medium
	PackagesKey storage.Key
	Validator   *validation.Validator
	Logger      zerolog.Logger
}

// NewReducer returns a Reducer resolving packages under namespace.
func NewReducer(medium storage.Medium, namespace string, logger zerolog.Logger) *Reducer {
	return &Reducer{
		Medium:      medium,
		PackagesKey: storage.NewKey(namespace, packages.Domain),
		Validator:   validation.MustNew(validation.SchemaProduct),
		Logger:      logger,
	}
}

// Reduce implements reducer.Func for State.
func (r *Reducer) Reduce(ctx context.Context, current State, action reducer.Action) (reducer.Outcome[State], error) {
	switch a := reducer.Deref(action).(type) {
	case AddProduct:
		return r.add(ctx, current, a)
	case UpdateProduct:
		return r.update(ctx, current, a)
	case RemoveProduct:
		return remove(current, a)
	default:
		return reducer.Outcome[State]{}, reducer.Unknown(Domain, action)
	}
}

func (r *Reducer) add(ctx context.Context, current State, a AddProduct) (reducer.Outcome[State], error) {
	if a.Product == nil {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, "product is required"), nil
	}
	product := *a.Product
	product.ID = strings.TrimSpace(product.ID)
	if fields := r.Validator.Validate(product); fields != nil {
		return reducer.Reject(current, reducer.ReasonValidationFailed, "product failed validation", fields...), nil
	}
	if current.index(product.ID) >= 0 {
		return reducer.Reject(current, reducer.ReasonAlreadyExists, fmt.Sprintf("product %q already exists", product.ID)), nil
	}
	if outcome, ok := r.checkPackage(ctx, current, product.PackageID); !ok {
		return outcome, nil
	}

	next := make(State, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, product)
	return reducer.Accept(current, next)
}

func (r *Reducer) update(ctx context.Context, current State, a UpdateProduct) (reducer.Outcome[State], error) {
	if a.ID == "" || a.Patch == nil {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, "id and patch are required"), nil
	}
	i := current.index(a.ID)
	if i < 0 {
		return reducer.Reject(current, reducer.ReasonNotFound, fmt.Sprintf("product %q not found", a.ID)), nil
	}

	product := current[i]
	if a.Patch.Name != nil {
		product.Name = *a.Patch.Name
	}
	if a.Patch.SKU != nil {
		product.SKU = *a.Patch.SKU
	}
	if a.Patch.Price != nil {
		product.Price = *a.Patch.Price
	}
	if a.Patch.PackageID != nil {
		product.PackageID = *a.Patch.PackageID
	}
	if fields := r.Validator.Validate(product); fields != nil {
		return reducer.Reject(current, reducer.ReasonValidationFailed, "product failed validation", fields...), nil
	}
	if a.Patch.PackageID != nil {
		if outcome, ok := r.checkPackage(ctx, current, product.PackageID); !ok {
			return outcome, nil
		}
	}

	next := append(State(nil), current...)
	next[i] = product
	return reducer.Accept(current, next)
}

func remove(current State, a RemoveProduct) (reducer.Outcome[State], error) {
	if a.ID == "" {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, "id is required"), nil
	}
	i := current.index(a.ID)
	if i < 0 {
		return reducer.Reject(current, reducer.ReasonNotFound, fmt.Sprintf("product %q not found", a.ID)), nil
	}

	next := make(State, 0, len(current)-1)
	next = append(next, current[:i]...)
	next = append(next, current[i+1:]...)
	return reducer.Accept(current, next)
}

// checkPackage reads the persisted package list, not an in-memory copy. It
// returns a rejection and false when id is unknown or the list cannot be read.
func (r *Reducer) checkPackage(ctx context.Context, current State, id string) (reducer.Outcome[State], bool) {
	persisted, _, err := storage.LoadStrict[packages.State](ctx, r.Medium, r.PackagesKey)
	if err != nil {
		r.Logger.Warn().Err(err).Str("package_id", id).Msg("package list unavailable")
		return reducer.Reject(current, reducer.ReasonUnavailable, fmt.Sprintf("package list unavailable: %v", err)), false
	}
	if _, ok := persisted.Find(id); !ok {
		return reducer.Reject(current, reducer.ReasonNotFound, fmt.Sprintf("package %q not found", id)), false
	}
	return reducer.Outcome[State]{}, true
}
