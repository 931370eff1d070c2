package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poolsim",
		Short:        "Constant-product pool simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario against a fresh pool registry",
		RunE:  runScenario,
	}

	runCmd.Flags().String("in", "", "scenario JSONL path")
	runCmd.Flags().String("out", "./data/events.jsonl", "event journal JSONL path")
	runCmd.Flags().String("rejects", "./data/rejects.jsonl", "reject journal JSONL path")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Uint64("batch-size", 500, "operations per batch")
	runCmd.Flags().Bool("faucet", true, "mint and approve inputs before add and swap ops")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for final pool snapshots")
	runCmd.Flags().String("metrics-addr", "", "optional Prometheus listen address (e.g. :9090)")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against explicit reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("amount-in", "", "input amount")
	quoteCmd.Flags().String("reserve-in", "", "input-side reserve")
	quoteCmd.Flags().String("reserve-out", "", "output-side reserve")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate the event journal into window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "", "input event journal JSONL")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(aggregateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
