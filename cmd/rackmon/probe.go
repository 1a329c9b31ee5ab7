package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitalis-app/rackmon/internal/collector"
)

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe <source>",
	Short: "Query one source once and print its readings",
	Long: `Run a single probe outside the scheduler and print the readings it
returns. Nothing is sent to the sink.

Example:
  rackmon probe zione -c rackmon.yaml`,
	Args: cobra.ExactArgs(1),
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

		registry, err := collector.Build(cfg, logger.Named("collector"))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
		defer cancel()

		res, err := registry.CollectOnce(ctx, args[0])
		if err != nil {
			return err
		}
		if res.Error != nil {
			logger.Error("Probe failed", zap.String("source", res.Name), zap.Error(res.Error))
			return res.Error
		}

		out := cmd.OutOrStdout()
		for _, m := range res.Batch.Metrics() {
			fmt.Fprintf(out, "%s %g\n", m.Name, m.Value)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", time.Minute, "give up after this long")
}
