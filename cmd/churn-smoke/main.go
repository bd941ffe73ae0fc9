package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/churnrisk/internal/smoketest"
	"github.com/okian/churnrisk/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "churn-smoke",
		Short:        "Smoke tests for the churn risk service",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cfg := &smoketest.Config{}
	var (
		logFile    string
		logFormat  string
		runTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a running churn service with generated customers",
		Long: `Generates valid customer records, scores them concurrently through
POST /api/v1/predict and checks that every verdict follows the 0.5
threshold, that repeated scoring is deterministic, that out-of-range input
is rejected with 400, and that /stats counted the run.`,
		Example: `  churn-smoke run --url http://localhost:8501 --records 2000 --workers 16
  churn-smoke run --seed 7 --output runs/scored.json --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := []logger.Option{logger.WithFormat(logFormat)}
			if logFile != "" {
				opts = append(opts, logger.WithFile(logFile, 0))
			}
			if err := logger.Init(opts...); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			_, err := smoketest.Run(ctx, cfg)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.BaseURL, "url", "http://localhost:8501", "base URL of the service")
	flags.IntVar(&cfg.Records, "records", smoketest.DefaultRecords, "number of records to generate and score")
	flags.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*smoketest.WorkerMultiplier, "number of concurrent requests")
	flags.DurationVar(&cfg.Timeout, "timeout", smoketest.DefaultTimeout, "HTTP request timeout")
	flags.Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "record generator seed")
	flags.IntVar(&cfg.Determinism, "determinism", smoketest.DefaultDeterminism, "records re-scored to check determinism")
	flags.StringVar(&cfg.OutputFile, "output", "", "write scored records to this JSON file")
	flags.BoolVar(&cfg.Verbose, "verbose", false, "log every prediction")
	flags.StringVar(&logFile, "log", "", "also write logs to this file")
	flags.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	flags.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "overall time limit")

	return cmd
}
