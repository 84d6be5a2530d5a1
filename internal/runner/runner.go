// Package runner drives scheduled system actions, such as periodic backups,
// from a ticker.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nholik/admin-state/internal/container"
	"github.com/nholik/admin-state/internal/domain/system"
	"github.com/nholik/admin-state/internal/reducer"
	"github.com/rs/zerolog"
)

// ErrBackupRejected is returned when the system domain refuses a scheduled backup.
var ErrBackupRejected = errors.New("backup rejected")

// Ticker is the minimal interface needed for driving the runner loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

// Runner dispatches InitializeBackup for one repository on every tick.
type Runner struct {
	logger        zerolog.Logger
	interval      time.Duration
	tickerFactory func(time.Duration) Ticker
	runOnce       func(context.Context) error
	dispatcher    container.Dispatcher
	repository    string
}

// Option customizes runner behavior.
type Option func(*Runner)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) Option {
	return func(r *Runner) {
		r.tickerFactory = factory
	}
}

// WithRunOnce overrides the single-cycle execution step.
func WithRunOnce(runOnce func(context.Context) error) Option {
	return func(r *Runner) {
		r.runOnce = runOnce
	}
}

// WithDispatcher sets the system dispatcher used by the default RunOnce.
func WithDispatcher(d container.Dispatcher) Option {
	return func(r *Runner) {
		r.dispatcher = d
	}
}

// WithRepository names the repository backed up on each cycle.
func WithRepository(name string) Option {
	return func(r *Runner) {
		r.repository = name
	}
}

// New constructs a Runner with the given logger and backup interval.
func New(logger zerolog.Logger, interval time.Duration, opts ...Option) *Runner {
	r := &Runner{
		logger:   logger,
		interval: interval,
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
	}
	r.runOnce = r.defaultRunOnce

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run starts the loop and blocks until the context is canceled. Cycle errors are
// logged and do not stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return errors.New("backup interval must be greater than zero")
	}

	// Run immediately on startup
	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error().Err(err).Msg("initial backup cycle failed")
	}

	ticker := r.tickerFactory(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("runner stopped")
			return nil
		case <-ticker.C():
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error().Err(err).Msg("backup cycle failed")
			}
		}
	}
}

// RunOnce executes a single cycle of the runner.
func (r *Runner) RunOnce(ctx context.Context) error {
	return r.runOnce(ctx)
}

func (r *Runner) defaultRunOnce(ctx context.Context) error {
	if r.dispatcher == nil {
		return nil
	}

	status, err := r.dispatcher.Dispatch(ctx, system.InitializeBackup{Repository: r.repository})
	if err != nil {
		return wrapRuntime("initialize backup", err)
	}
	if status == reducer.StatusRejected {
		return wrapRuntime("initialize backup", fmt.Errorf("%w: repository %q", ErrBackupRejected, r.repository))
	}

	r.logger.Info().
		Str("repository", r.repository).
		Str("status", string(status)).
		Msg("scheduled backup dispatched")
	return nil
}
