// Package packages holds the ordered package catalog domain.
package packages

import (
	"context"
	"fmt"
	"strings"

	"github.com/nholik/admin-state/internal/reducer"
	"github.com/nholik/admin-state/internal/validation"
)

// Domain is the name of this domain and of its storage slot.
const Domain = "packages"

// Package is one installable package.
type Package struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Version     string   `json:"version" yaml:"version"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Patch lists package fields to overwrite. Nil fields are kept.
type Patch struct {
	Name        *string
	Version     *string
	Description *string
	Tags        []string
}

// State is the ordered package list.
type State []Package

// Find returns the package with id.
func (s State) Find(id string) (Package, bool) {
	if i := s.index(id); i >= 0 {
		return s[i], true
	}
	return Package{}, false
}

func (s State) index(id string) int {
	for i, pkg := range s {
		if pkg.ID == id {
			return i
		}
	}
	return -1
}

// AddPackage appends a package.
type AddPackage struct {
	reducer.Callbacks
	Package *Package
}

func (AddPackage) Kind() string { return "AddPackage" }

// UpdatePackage merges Patch into the package with ID.
type UpdatePackage struct {
	reducer.Callbacks
	ID    string
	Patch *Patch
}

func (UpdatePackage) Kind() string { return "UpdatePackage" }

// RemovePackage drops the package with ID.
type RemovePackage struct {
	reducer.Callbacks
	ID string
}

func (RemovePackage) Kind() string { return "RemovePackage" }

// Reducer computes package transitions.
type Reducer struct {
	Validator *validation.Validator
}

// NewReducer returns a Reducer validating against the embedded package schema.
func NewReducer() *Reducer {
	return &Reducer{Validator: validation.MustNew(validation.SchemaPackage)}
}

// Reduce implements reducer.Func for State.
func (r *Reducer) Reduce(_ context.Context, current State, action reducer.Action) (reducer.Outcome[State], error) {
	switch a := reducer.Deref(action).(type) {
	case AddPackage:
		return r.add(current, a)
	case UpdatePackage:
		return r.update(current, a)
	case RemovePackage:
		return remove(current, a)
	default:
		return reducer.Outcome[State]{}, reducer.Unknown(Domain, action)
	}
}

func (r *Reducer) add(current State, a AddPackage) (reducer.Outcome[State], error) {
	if a.Package == nil {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, "package is required"), nil
	}
	pkg := *a.Package
	pkg.ID = strings.TrimSpace(pkg.ID)
	if fields := r.Validator.Validate(pkg); fields != nil {
		return reducer.Reject(current, reducer.ReasonValidationFailed, "package failed validation", fields...), nil
	}
	if current.index(pkg.ID) >= 0 {
		return reducer.Reject(current, reducer.ReasonAlreadyExists, fmt.Sprintf("package %q already exists", pkg.ID)), nil
	}

	next := make(State, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, pkg)
	return reducer.Accept(current, next)
}

func (r *Reducer) update(current State, a UpdatePackage) (reducer.Outcome[State], error) {
	if a.ID == "" || a.Patch == nil {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, "id and patch are required"), nil
	}
	i := current.index(a.ID)
	if i < 0 {
		return reducer.Reject(current, reducer.ReasonNotFound, fmt.Sprintf("package %q not found", a.ID)), nil
	}

	pkg := current[i]
	if a.Patch.Name != nil {
		pkg.Name = *a.Patch.Name
	}
	if a.Patch.Version != nil {
		pkg.Version = *a.Patch.Version
	}
	if a.Patch.Description != nil {
		pkg.Description = *a.Patch.Description
	}
	if a.Patch.Tags != nil {
		pkg.Tags = append([]string(nil), a.Patch.Tags...)
	}
	if fields := r.Validator.Validate(pkg); fields != nil {
		return reducer.Reject(current, reducer.ReasonValidationFailed, "package failed validation", fields...), nil
	}

	next := append(State(nil), current...)
	next[i] = pkg
	return reducer.Accept(current, next)
}

func remove(current State, a RemovePackage) (reducer.Outcome[State], error) {
	if a.ID == "" {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, "id is required"), nil
	}
	i := current.index(a.ID)
	if i < 0 {
		return reducer.Reject(current, reducer.ReasonNotFound, fmt.Sprintf("package %q not found", a.ID)), nil
	}

	next := make(State, 0, len(current)-1)
	next = append(next, current[:i]...)
	next = append(next, current[i+1:]...)
	return reducer.Accept(current, next)
}
