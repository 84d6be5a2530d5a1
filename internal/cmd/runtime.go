package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nholik/admin-state/internal/config"
	"github.com/nholik/admin-state/internal/container"
	"github.com/nholik/admin-state/internal/coordinator"
	"github.com/nholik/admin-state/internal/healthcheck"
	"github.com/nholik/admin-state/internal/logging"
	"github.com/nholik/admin-state/internal/metrics"
	"github.com/nholik/admin-state/internal/notify"
	"github.com/nholik/admin-state/internal/reducer"
	"github.com/nholik/admin-state/internal/storage"
	"github.com/rs/zerolog"
)

// ErrRejected is returned by action commands whose action was refused.
var ErrRejected = errors.New("action rejected")

// runtime is everything a command needs, wired from configuration.
type runtime struct {
	cfg     config.Config
	logger  zerolog.Logger
	medium  storage.Medium
	metrics *metrics.Metrics
	tracker *healthcheck.Tracker
	relay   *notify.Relay
	coord   *coordinator.Coordinator
}

func openRuntime(ctx context.Context, logOut io.Writer) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewWithWriter(logOut, cfg.LogLevel)

	catalog, err := config.LoadCatalogFile(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	notifier, err := buildNotifier(logger, cfg)
	if err != nil {
		return nil, err
	}

	medium, err := storage.Open(storage.Backend(cfg.StoreBackend), cfg.StorePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		medium:  medium,
		metrics: metrics.New(),
		tracker: healthcheck.NewTracker(),
		relay:   notify.NewRelay(logger, notifier, 0),
	}
	rt.coord = coordinator.New(ctx, logger, medium, cfg.Namespace,
		container.WithMetrics(rt.metrics),
		container.WithEvents(rt.relay),
		container.WithPersistRecorder(rt.tracker),
	)

	if err := rt.coord.Seed(ctx, catalog); err != nil {
		_ = medium.Close()
		return nil, err
	}
	rt.tracker.MarkReady(len(coordinator.Domains))

	logger.Debug().
		Str("backend", cfg.StoreBackend).
		Str("namespace", cfg.Namespace).
		Msg("store opened")
	return rt, nil
}

func buildNotifier(logger zerolog.Logger, cfg config.Config) (notify.Notifier, error) {
	if cfg.DryRun {
		return notify.NewDryRunNotifier(logger), nil
	}

	notifiers := []notify.Notifier{notify.NewSlackNotifier(logger, cfg.SlackWebhookURL)}
	webhook, err := notify.NewWebhookNotifier(logger, cfg.WebhookURL, cfg.WebhookTemplate)
	if err != nil {
		return nil, err
	}
	if webhook != nil {
		notifiers = append(notifiers, webhook)
	}
	return notify.NewMultiNotifier(notifiers...), nil
}

// close flushes pending notifications and releases the store.
func (rt *runtime) close(ctx context.Context) {
	if err := rt.relay.Flush(ctx); err != nil {
		rt.logger.Error().Err(err).Msg("notification flush failed")
	}
	if err := rt.medium.Close(); err != nil {
		rt.logger.Error().Err(err).Msg("close store failed")
	}
}

// dispatch sends action to domain and turns a rejection into ErrRejected.
func (rt *runtime) dispatch(ctx context.Context, out io.Writer, domain string, action reducer.Action) error {
	status, err := rt.coord.Dispatch(ctx, domain, action)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s: %s\n", domain, action.Kind(), status)
	if status == reducer.StatusRejected {
		return fmt.Errorf("%w: %s %s", ErrRejected, domain, action.Kind())
	}
	return nil
}
