package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/dataguard/internal/application"
	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/internal/infrastructure/messaging"
	"github.com/turtacn/dataguard/internal/interfaces/http/handlers"
	"github.com/turtacn/dataguard/internal/interfaces/http/router"
	"github.com/turtacn/dataguard/pkg/logger"
)

// newServeCmd runs the long-lived engine: retraining, integrity scans, the access
// event consumer and the operations endpoint.
func newServeCmd(opts *rootOptions) *cobra.Command {
	var consume bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine with its background workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return opts.withApp(ctx, func(a *app) error {
				opts.loader.Watch(a.log, a.reload)
				return serve(ctx, a, consume)
			})
		},
	}
	cmd.Flags().BoolVar(&consume, "consume", false, "consume access events from the configured Kafka topic")
	return cmd
}

func serve(ctx context.Context, a *app, consume bool) error {
	cfg := a.cfg
	a.log.Info(ctx, "starting dataguard engine",
		logger.String("database", cfg.Database.Driver),
		logger.String("storage", cfg.Storage.Backend),
		logger.String("snapshot", cfg.Storage.Snapshot),
		logger.String("dedup", cfg.Alerts.DedupBackend),
		logger.Bool("consume", consume),
		logger.Bool("metrics", cfg.Metrics.Enabled),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.engine.Retrainer().Run(ctx) })

	scanner := application.NewIntegrityScanner(a.engine, cfg.Engine.IntegrityScanInterval, a.adapter, a.log)
	g.Go(func() error { return scanner.Run(ctx) })

	if consume {
		consumer := messaging.NewAccessConsumer(cfg.Kafka, a.engine, a.log)
		g.Go(func() error { return consumer.Run(ctx) })
	}
	if cfg.Metrics.Enabled {
		r := newOpsRouter(&cfg.Metrics, a)
		g.Go(func() error { return r.Run(ctx) })
	}

	err := g.Wait()
	a.log.Info(context.Background(), "dataguard engine stopped")
	return err
}

func newOpsRouter(cfg *config.MetricsConfig, a *app) *router.Router {
	health := handlers.NewHealthHandler(a.healthChecks(), a.log)
	return router.NewRouter(cfg, a.metrics, health, a.log)
}

//Personal.AI order the ending
