// Package main is the entry point for rackmon, the homelab rack monitor.
//
// Usage:
//
//	rackmon run -c rackmon.yaml         # Poll all sources until interrupted
//	rackmon probe gpu -c rackmon.yaml   # Query one source once and print it
//	rackmon validate -c rackmon.yaml    # Check a configuration file
//	rackmon version                     # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vitalis-app/rackmon/internal/config"
)

// Version information, set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

var (
	configPath    string
	logLevel      string
	statsdAddress string
)

// rootCmd only shows help; the work is done by subcommands.
var rootCmd = &cobra.Command{
	Use:   "rackmon",
	Short: "Poll rack sensors, IPMI and GPUs and forward readings to statsd",
	Long: `rackmon samples a set of metric sources on a fixed tick and forwards
every reading as a gauge to a metrics sink.

Sources: a DHT22 humidity/temperature sensor (Linux IIO), IPMI sensor
tables via ipmitool, NVIDIA GPUs via nvidia-smi over ssh, and the local
host's thermal sensors.

Configuration is read from the file given with -c, or from the first of
the standard locations that exists. A .env file in the working directory
is loaded first.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rackmon %s (commit %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: search standard locations)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&statsdAddress, "statsd", "", "statsd address, host[:port]")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies the layered configuration for the current flags.
func loadConfig() (*config.Config, error) {
	cli := config.CLIOverrides{
		StatsdAddress: statsdAddress,
		LogLevel:      logLevel,
	}
	if configPath != "" {
		return config.LoadLayered(cli, configPath)
	}
	return config.LoadLayered(cli)
}

// initLogger creates a zap logger based on the configuration.
// It outputs to both console (human-readable) and optionally a JSON log file.
func initLogger(cfg *config.Config) *zap.Logger {
	level := parseLevel(cfg.Logging.Level)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			)
			cores = append(cores, fileCore)
		} else {
			fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", cfg.Logging.File, err)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
