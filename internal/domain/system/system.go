// Package system holds the backup metadata domain.
package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nholik/admin-state/internal/reducer"
	"github.com/nholik/admin-state/internal/storage"
)

// Domain is the name of this domain and of its storage slot.
const Domain = "system"

// RepositoryNamespace is the namespace of backup repository slots.
const RepositoryNamespace = "repositories"

// Backup tracks the last backup and restoration as Unix milliseconds.
type Backup struct {
	LastBackupDate      *int64 `json:"lastBackupDate,omitempty"`
	LastRestorationDate *int64 `json:"lastRestorationDate,omitempty"`
}

// State is the system domain state.
type State struct {
	Backup Backup `json:"backup"`
}

// Repository describes a backup target registered in the medium.
type Repository struct {
	Name     string `json:"name" yaml:"name"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// InitializeBackup stamps a fresh backup time for a registered repository.
type InitializeBackup struct {
	reducer.Callbacks
	Repository string
}

func (InitializeBackup) Kind() string { return "InitializeBackup" }

// Restore records a restoration time.
type Restore struct {
	reducer.Callbacks
	LastRestorationDate *int64
}

func (Restore) Kind() string { return "Restore" }

// Reducer computes system transitions. Repositories are looked up in Medium.
type Reducer struct {
	Medium storage.Medium
	Now    func() time.Time
}

// NewReducer returns a Reducer using the wall clock.
func NewReducer(medium storage.Medium) *Reducer {
	return &Reducer{Medium: medium, Now: time.Now}
}

// Reduce implements reducer.Func for State.
func (r *Reducer) Reduce(ctx context.Context, current State, action reducer.Action) (reducer.Outcome[State], error) {
	switch a := reducer.Deref(action).(type) {
	case InitializeBackup:
		return r.initializeBackup(ctx, current, a)
	case Restore:
		return restore(current, a)
	default:
		return reducer.Outcome[State]{}, reducer.Unknown(Domain, action)
	}
}

func (r *Reducer) initializeBackup(ctx context.Context, current State, a InitializeBackup) (reducer.Outcome[State], error) {
	name := strings.TrimSpace(a.Repository)
	if name == "" {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, "repository is required"), nil
	}
	ok, err := storage.Has(ctx, r.Medium, RepositoryKey(name))
	if err != nil {
		return reducer.Reject(current, reducer.ReasonUnavailable, err.Error()), nil
	}
	if !ok {
		return reducer.Reject(current, reducer.ReasonNotFound, fmt.Sprintf("repository %q is not registered", name)), nil
	}

	stamp := r.Now().UnixMilli()
	return reducer.Accept(current, merge(current, Backup{LastBackupDate: &stamp}))
}

func restore(current State, a Restore) (reducer.Outcome[State], error) {
	if a.LastRestorationDate == nil {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, "lastRestorationDate is required"), nil
	}
	stamp := *a.LastRestorationDate
	return reducer.Accept(current, merge(current, Backup{LastRestorationDate: &stamp}))
}

// merge overlays the set fields of patch onto the backup of current.
func merge(current State, patch Backup) State {
	next := current
	if patch.LastBackupDate != nil {
		next.Backup.LastBackupDate = patch.LastBackupDate
	}
	if patch.LastRestorationDate != nil {
		next.Backup.LastRestorationDate = patch.LastRestorationDate
	}
	return next
}

// RepositoryKey returns the slot key of a repository.
func RepositoryKey(name string) storage.Key {
	return storage.NewKey(RepositoryNamespace, name)
}

// RegisterRepository writes a repository slot so backups can target it.
func RegisterRepository(ctx context.Context, medium storage.Medium, repo Repository) error {
	name := strings.TrimSpace(repo.Name)
	if name == "" {
		return fmt.Errorf("repository name is required")
	}
	repo.Name = name
	return storage.Save(ctx, medium, RepositoryKey(name), repo)
}
