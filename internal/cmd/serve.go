package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/nholik/admin-state/internal/runner"
	"github.com/nholik/admin-state/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run health, metrics and scheduled backups until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	rt, err := openRuntime(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	rt.logger.Info().
		Str("backend", rt.cfg.StoreBackend).
		Str("namespace", rt.cfg.Namespace).
		Msg("admin-state starting")

	server.Start(ctx, rt.logger, server.Options{
		Tracker:     rt.tracker,
		Metrics:     rt.metrics,
		State:       rt.coord,
		HealthPort:  rt.cfg.HealthPort,
		MetricsPort: rt.cfg.MetricsPort,
	})

	rt.coord.AddWorker("notifications", rt.relay)
	if rt.cfg.BackupInterval > 0 {
		rt.coord.AddWorker("backup", runner.New(
			rt.logger.With().Str("repository", rt.cfg.BackupRepository).Logger(),
			rt.cfg.BackupInterval,
			runner.WithDispatcher(rt.coord.System),
			runner.WithRepository(rt.cfg.BackupRepository),
		))
	}

	return rt.coord.Run(ctx)
}
