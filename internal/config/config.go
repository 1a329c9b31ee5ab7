// Package config handles configuration loading from YAML files, .env files
// and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source kinds understood by the collector factory.
const (
	KindDHT  = "dht"
	KindIPMI = "ipmi"
	KindGPU  = "gpu"
	KindHost = "host"
)

// Sink kinds.
const (
	SinkStatsd = "statsd"
	SinkHTTP   = "http"
	SinkLog    = "log"
)

// defaultStatsdPrefix is the metric prefix existing dashboards are keyed on.
const defaultStatsdPrefix = "totomz.homelab"

// defaultStatsdPort is appended to statsd addresses given without a port.
const defaultStatsdPort = "8125"

// ErrNoSources is returned by Validate when no source is configured.
var ErrNoSources = errors.New("at least one source is required")

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "5s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all agent configuration.
type Config struct {
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sink      SinkConfig      `yaml:"sink"`
	Sources   []SourceConfig  `yaml:"sources"`
	Status    StatusConfig    `yaml:"status"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SchedulerConfig holds the polling cadence.
type SchedulerConfig struct {
	Interval      Duration `yaml:"interval"`
	CooldownTicks int      `yaml:"cooldown_ticks"`
	// ProbeTimeout bounds a single probe call. Zero disables the bound.
	ProbeTimeout Duration `yaml:"probe_timeout"`
}

// SinkConfig selects and configures the metrics sink.
type SinkConfig struct {
	Kind   string         `yaml:"kind"`
	Statsd StatsdConfig   `yaml:"statsd"`
	HTTP   HTTPSinkConfig `yaml:"http"`
}

// StatsdConfig holds statsd client settings.
type StatsdConfig struct {
	Address string `yaml:"address"`
	Prefix  string `yaml:"prefix"`
}

// HTTPSinkConfig holds settings for the HTTP gauge endpoint.
type HTTPSinkConfig struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
	Retries int      `yaml:"retries"`
}

// SourceConfig describes one pollable source. Exactly one of the kind
// specific blocks is read, selected by Kind.
type SourceConfig struct {
	Name string     `yaml:"name"`
	Kind string     `yaml:"kind"`
	DHT  DHTSource  `yaml:"dht,omitempty"`
	IPMI IPMISource `yaml:"ipmi,omitempty"`
	GPU  GPUSource  `yaml:"gpu,omitempty"`
	Host HostSource `yaml:"host,omitempty"`
}

// DHTSource reads a DHT11/DHT22 exposed by the Linux IIO dht11 driver.
type DHTSource struct {
	Device     string   `yaml:"device"`
	Prefix     string   `yaml:"prefix"`
	Retries    int      `yaml:"retries"`
	RetryDelay Duration `yaml:"retry_delay"`
}

// IPMISource queries a BMC with ipmitool.
type IPMISource struct {
	Address   string `yaml:"address"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Interface string `yaml:"interface"`
	// Hostname is the metric path segment. Defaults to the source name.
	Hostname string `yaml:"hostname"`
}

// GPUSource runs nvidia-smi on a (usually remote) host.
type GPUSource struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	KeyFile    string `yaml:"key_file"`
	Password   string `yaml:"password"`
	KnownHosts string `yaml:"known_hosts"`
	// Local runs nvidia-smi on this machine instead of over ssh.
	Local bool `yaml:"local"`
	// Hostname is the metric path segment. Defaults to Host.
	Hostname string `yaml:"hostname"`
}

// HostSource reads this machine's thermal sensors.
type HostSource struct {
	Hostname string `yaml:"hostname"`
}

// StatusConfig holds the optional status HTTP listener.
type StatusConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Interval:      Duration{5 * time.Second},
			CooldownTicks: 5,
		},
		Sink: SinkConfig{
			Kind: SinkStatsd,
			Statsd: StatsdConfig{
				Address: "localhost:" + defaultStatsdPort,
				Prefix:  defaultStatsdPrefix,
			},
			HTTP: HTTPSinkConfig{
				Timeout: Duration{5 * time.Second},
				Retries: 3,
			},
		},
		Sources: []SourceConfig{
			{Name: "rack", Kind: KindDHT},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables take highest precedence and override values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty, only defaults and environment variables are used.
// A path that does not exist is an error.
func Load(path string) (*Config, error) {
	return LoadLayered(CLIOverrides{}, path)
}

// CLIOverrides holds values from command-line flags.
// Empty strings are treated as "not set" and skipped.
type CLIOverrides struct {
	StatsdAddress string
	LogLevel      string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars (including .env) > YAML file > defaults.
//
// An optional configPath argument controls file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no file); the file must exist
func LoadLayered(cli CLIOverrides, configPath ...string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var filePath string
	explicit := len(configPath) > 0
	if explicit {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}

	var data []byte
	if filePath != "" {
		b, err := os.ReadFile(filePath)
		// A discovered file may vanish between Locate and here; a path the
		// user named must exist.
		if err != nil && (explicit || !os.IsNotExist(err)) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		data = b
	}

	cfg, err := LoadFromBytes(data)
	if err != nil {
		return nil, err
	}

	if cli.StatsdAddress != "" {
		cfg.Sink.Statsd.Address = withDefaultPort(cli.StatsdAddress)
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// loadDotEnv populates the environment from ./.env when present. Variables
// already set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	// statsd_url is the variable name older deployments put in .env.
	if addr := os.Getenv("statsd_url"); addr != "" {
		cfg.Sink.Statsd.Address = withDefaultPort(addr)
	}
	if addr := os.Getenv("RACKMON_STATSD_URL"); addr != "" {
		cfg.Sink.Statsd.Address = withDefaultPort(addr)
	}
	if prefix := os.Getenv("RACKMON_STATSD_PREFIX"); prefix != "" {
		cfg.Sink.Statsd.Prefix = prefix
	}
	if kind := os.Getenv("RACKMON_SINK"); kind != "" {
		cfg.Sink.Kind = kind
	}
	if level := os.Getenv("RACKMON_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if raw := os.Getenv("RACKMON_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid RACKMON_INTERVAL %q: %w", raw, err)
		}
		cfg.Scheduler.Interval = Duration{d}
	}
	return nil
}

// withDefaultPort appends the statsd port when addr carries none.
func withDefaultPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, defaultStatsdPort)
}

// Validate checks that the configuration can be run.
func (c *Config) Validate() error {
	if c.Scheduler.Interval.Duration <= 0 {
		return fmt.Errorf("scheduler interval must be positive (got: %s)", c.Scheduler.Interval.Duration)
	}
	if c.Scheduler.CooldownTicks < 1 {
		return fmt.Errorf("cooldown_ticks must be at least 1 (got: %d)", c.Scheduler.CooldownTicks)
	}
	if c.Scheduler.ProbeTimeout.Duration < 0 {
		return fmt.Errorf("probe_timeout must not be negative")
	}

	switch c.Sink.Kind {
	case SinkStatsd:
		if c.Sink.Statsd.Address == "" {
			return fmt.Errorf("statsd sink requires an address")
		}
	case SinkHTTP:
		if !strings.HasPrefix(c.Sink.HTTP.URL, "http://") && !strings.HasPrefix(c.Sink.HTTP.URL, "https://") {
			return fmt.Errorf("http sink requires an http(s) url (got: %q)", c.Sink.HTTP.URL)
		}
	case SinkLog:
	default:
		return fmt.Errorf("unknown sink kind %q", c.Sink.Kind)
	}

	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("source #%d: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("source %q: duplicate name", s.Name)
		}
		seen[s.Name] = true

		if err := s.validate(); err != nil {
			return fmt.Errorf("source %q: %w", s.Name, err)
		}
	}
	return nil
}

func (s SourceConfig) validate() error {
	switch s.Kind {
	case KindDHT:
		if s.DHT.Retries < 0 {
			return fmt.Errorf("dht retries must not be negative")
		}
	case KindIPMI:
		if s.IPMI.Address == "" {
			return fmt.Errorf("ipmi address is required")
		}
	case KindGPU:
		if !s.GPU.Local && s.GPU.Host == "" {
			return fmt.Errorf("gpu host is required unless local is set")
		}
	case KindHost:
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	return nil
}
