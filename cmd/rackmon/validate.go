package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a rackmon configuration file without polling anything.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  rackmon validate -c rackmon.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Interval: %s\n", cfg.Scheduler.Interval.Duration)
	fmt.Fprintf(out, "  Cooldown: %d ticks\n", cfg.Scheduler.CooldownTicks)
	fmt.Fprintf(out, "  Sink:     %s\n", cfg.Sink.Kind)
	fmt.Fprintf(out, "  Sources:  %d\n", len(cfg.Sources))
	for _, s := range cfg.Sources {
		fmt.Fprintf(out, "    - %s (%s)\n", s.Name, s.Kind)
	}
	return nil
}
