// Package coordinator is the provider root: it builds one container per domain
// over a shared medium, seeds them from the catalog and runs background workers.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nholik/admin-state/internal/config"
	"github.com/nholik/admin-state/internal/container"
	"github.com/nholik/admin-state/internal/domain/packages"
	"github.com/nholik/admin-state/internal/domain/products"
	"github.com/nholik/admin-state/internal/domain/settings"
	"github.com/nholik/admin-state/internal/domain/system"
	"github.com/nholik/admin-state/internal/reducer"
	"github.com/nholik/admin-state/internal/storage"
	"github.com/rs/zerolog"
)

// ErrUnknownDomain is returned by Dispatch for a domain name no container serves.
var ErrUnknownDomain = errors.New("unknown domain")

// ErrSeedRejected is returned by Seed when a catalog entry is refused.
var ErrSeedRejected = errors.New("catalog entry rejected")

// Domains lists the domain names in seeding order.
var Domains = []string{system.Domain, packages.Domain, products.Domain, settings.Domain}

// Snapshot is the current state of every domain.
type Snapshot struct {
	System   system.State   `json:"system"`
	Packages packages.State `json:"packages"`
	Products products.State `json:"products"`
	Settings settings.State `json:"settings"`
}

// Worker is a background task run by the coordinator until its context ends.
type Worker interface {
	Run(ctx context.Context) error
}

// Coordinator owns the domain containers.
type Coordinator struct {
	logger    zerolog.Logger
	medium    storage.Medium
	namespace string

	System   *container.Container[system.State]
	Packages *container.Container[packages.State]
	Products *container.Container[products.State]
	Settings *container.Container[settings.State]

	dispatchers map[string]container.Dispatcher

	workers      map[string]Worker
	workerErrors map[string]error
	mu           sync.RWMutex
}

// New loads every domain from medium under namespace. opts apply to every container.
func New(ctx context.Context, logger zerolog.Logger, medium storage.Medium, namespace string, opts ...container.Option) *Coordinator {
	key := func(domain string) storage.Key { return storage.NewKey(namespace, domain) }

	systemReducer := system.NewReducer(medium)
	packagesReducer := packages.NewReducer()
	productsReducer := products.NewReducer(medium, namespace, logger.With().Str("domain", products.Domain).Logger())

	c := &Coordinator{
		logger:       logger,
		medium:       medium,
		namespace:    namespace,
		System:       container.New(ctx, logger, system.Domain, medium, key(system.Domain), system.State{}, systemReducer.Reduce, opts...),
		Packages:     container.New(ctx, logger, packages.Domain, medium, key(packages.Domain), packages.State{}, packagesReducer.Reduce, opts...),
		Products:     container.New(ctx, logger, products.Domain, medium, key(products.Domain), products.State{}, productsReducer.Reduce, opts...),
		Settings:     container.New(ctx, logger, settings.Domain, medium, key(settings.Domain), settings.Default(), settings.Reduce, opts...),
		workers:      make(map[string]Worker),
		workerErrors: make(map[string]error),
	}
	c.dispatchers = map[string]container.Dispatcher{
		system.Domain:   c.System,
		packages.Domain: c.Packages,
		products.Domain: c.Products,
		settings.Domain: c.Settings,
	}
	return c
}

// Dispatch routes action to the container serving domain.
func (c *Coordinator) Dispatch(ctx context.Context, domain string, action reducer.Action) (reducer.Status, error) {
	d, ok := c.dispatchers[domain]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	return d.Dispatch(ctx, action)
}

// Snapshot returns the current state of every domain.
func (c *Coordinator) Snapshot() Snapshot {
	return Snapshot{
		System:   c.System.State(),
		Packages: c.Packages.State(),
		Products: c.Products.State(),
		Settings: c.Settings.State(),
	}
}

// Seed applies catalog. Repositories are always registered; packages, products
// and settings are only seeded while their slot has never been written.
func (c *Coordinator) Seed(ctx context.Context, catalog *config.Catalog) error {
	if catalog == nil {
		return nil
	}

	for _, repo := range catalog.Repositories {
		if err := system.RegisterRepository(ctx, c.medium, repo); err != nil {
			return fmt.Errorf("register repository %q: %w", repo.Name, err)
		}
	}

	var actions []seedAction
	if fresh, err := c.fresh(ctx, packages.Domain); err != nil {
		return err
	} else if fresh {
		for _, pkg := range catalog.Packages {
			pkg := pkg
			actions = append(actions, seedAction{packages.Domain, packages.AddPackage{Package: &pkg}})
		}
	}
	if fresh, err := c.fresh(ctx, products.Domain); err != nil {
		return err
	} else if fresh {
		for _, product := range catalog.Products {
			product := product
			actions = append(actions, seedAction{products.Domain, products.AddProduct{Product: &product}})
		}
	}
	if fresh, err := c.fresh(ctx, settings.Domain); err != nil {
		return err
	} else if fresh && catalog.Settings != nil {
		actions = append(actions, settingsActions(*catalog.Settings)...)
	}

	for _, seed := range actions {
		status, err := c.Dispatch(ctx, seed.domain, seed.action)
		if err != nil {
			return fmt.Errorf("seed %s: %w", seed.domain, err)
		}
		if status == reducer.StatusRejected {
			return fmt.Errorf("%w: %s %s", ErrSeedRejected, seed.domain, seed.action.Kind())
		}
	}

	c.logger.Info().
		Int("repositories", len(catalog.Repositories)).
		Int("actions", len(actions)).
		Msg("catalog seeded")
	return nil
}

type seedAction struct {
	domain string
	action reducer.Action
}

func settingsActions(s config.CatalogSettings) []seedAction {
	var actions []seedAction
	if s.Theme != "" {
		actions = append(actions, seedAction{settings.Domain, settings.SetTheme{Theme: settings.Theme(s.Theme)}})
	}
	if s.Language != "" {
		actions = append(actions, seedAction{settings.Domain, settings.SetLanguage{Language: s.Language}})
	}
	if len(s.Preferences) > 0 {
		actions = append(actions, seedAction{settings.Domain, settings.UpdatePreferences{Preferences: s.Preferences}})
	}
	return actions
}

func (c *Coordinator) fresh(ctx context.Context, domain string) (bool, error) {
	ok, err := storage.Has(ctx, c.medium, storage.NewKey(c.namespace, domain))
	if err != nil {
		return false, fmt.Errorf("check %s slot: %w", domain, err)
	}
	return !ok, nil
}

// AddWorker registers a background worker under name. It must be called before Run.
func (c *Coordinator) AddWorker(name string, w Worker) {
	if w == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workers[name] = w
}

// Run starts all workers in parallel and blocks until they exit. Worker errors
// are logged and kept for WorkerErrors; Run itself returns nil on shutdown.
func (c *Coordinator) Run(ctx context.Context) error {
	c.mu.RLock()
	workers := make(map[string]Worker, len(c.workers))
	for name, w := range c.workers {
		workers[name] = w
	}
	c.mu.RUnlock()

	c.logger.Info().Int("workers", len(workers)).Msg("starting coordinator")

	var wg sync.WaitGroup
	for name, w := range workers {
		wg.Add(1)
		go c.runWorker(ctx, &wg, name, w)
	}
	wg.Wait()
	c.logger.Info().Msg("all workers stopped")

	return nil
}

func (c *Coordinator) runWorker(ctx context.Context, wg *sync.WaitGroup, name string, w Worker) {
	defer wg.Done()

	logger := c.logger.With().Str("worker", name).Logger()
	logger.Info().Msg("worker started")

	if err := w.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("worker exited with error")
		c.recordError(name, err)
		return
	}
	logger.Info().Msg("worker exited cleanly")
}

func (c *Coordinator) recordError(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workerErrors[name] = err
}

// WorkerErrors returns a copy of the errors returned by workers.
func (c *Coordinator) WorkerErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]error, len(c.workerErrors))
	for k, v := range c.workerErrors {
		result[k] = v
	}
	return result
}
