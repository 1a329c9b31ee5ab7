package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vitalis-app/rackmon/internal/buffer"
	"github.com/vitalis-app/rackmon/internal/collector"
	"github.com/vitalis-app/rackmon/internal/config"
	"github.com/vitalis-app/rackmon/internal/scheduler"
	"github.com/vitalis-app/rackmon/internal/sender"
	"github.com/vitalis-app/rackmon/internal/status"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll all configured sources until interrupted",
	Long: `Start the scheduler and the metrics writer.

Every tick each source that is neither busy nor backing off is probed in
its own goroutine. Readings are forwarded to the sink in the order their
batches completed. SIGINT or SIGTERM stops polling, waits for running
probes and flushes what is left before exiting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger := initLogger(cfg)
		defer func() { _ = logger.Sync() }()

		logger.Info("Starting rackmon",
			zap.String("version", version),
			zap.String("sink", cfg.Sink.Kind),
			zap.Int("sources", len(cfg.Sources)))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runAgent(ctx, cfg, logger); err != nil {
			logger.Error("Agent failed", zap.Error(err))
			return err
		}
		logger.Info("Agent stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runAgent wires the collectors, scheduler, writer and optional status
// endpoint together. It blocks until ctx is cancelled and the queue has
// been drained into the sink.
func runAgent(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	registry, err := collector.Build(cfg, logger.Named("collector"))
	if err != nil {
		return err
	}

	sink, err := sender.NewSink(cfg.Sink, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("Failed to close sink", zap.Error(err))
		}
	}()

	queue := buffer.New()
	state := scheduler.NewState(queue)
	for _, c := range registry.Collectors() {
		if err := state.Add(c); err != nil {
			return err
		}
	}

	sched := scheduler.New(state, scheduler.Config{
		Interval:      cfg.Scheduler.Interval.Duration,
		CooldownTicks: cfg.Scheduler.CooldownTicks,
		ProbeTimeout:  cfg.Scheduler.ProbeTimeout.Duration,
	}, logger.Named("scheduler"))
	writer := sender.NewWriter(queue, sink, logger.Named("writer"))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gCtx)
	})

	// The writer stops when the scheduler closes the queue, not on
	// cancellation, so readings taken before shutdown still reach the sink.
	g.Go(func() error {
		return writer.Run(context.WithoutCancel(gCtx))
	})

	if cfg.Status.Listen != "" {
		g.Go(func() error {
			return status.Serve(gCtx, cfg.Status.Listen, state, logger.Named("status"))
		})
	}

	err = g.Wait()
	stats := writer.Stats()
	logger.Info("Writer totals",
		zap.Uint64("batches", stats.Batches),
		zap.Uint64("metrics", stats.Metrics),
		zap.Uint64("sink_errors", stats.SinkErrors))

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
