package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xykpool/internal/config"
	"xykpool/internal/engine"
	"xykpool/internal/metrics"
	"xykpool/internal/storage"
	"xykpool/internal/storage/postgres"
)

func runScenario(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("scenario path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		m = metrics.NewMetrics(registry)

		server := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server", zap.Error(err))
			}
		}()
		defer server.Close()

		logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
	}

	storageSink := storage.NewJsonlStorage(cfg.Out, cfg.Rejects)

	runner := engine.NewRunner(engine.RunConfig{
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		Faucet:            cfg.Faucet,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, storageSink, logger, m)

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		runner.SetSnapshotSink(store)
	}

	logger.Info("run start",
		zap.String("in", cfg.Input),
		zap.String("out", cfg.Out),
		zap.String("rejects", cfg.Rejects),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
		zap.Bool("faucet", cfg.Faucet),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	return runner.Run(ctx, cfg.Input)
}
