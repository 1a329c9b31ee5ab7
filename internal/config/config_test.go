package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
scheduler:
  interval: 10s
  cooldown_ticks: 3
  probe_timeout: 2m
sink:
  kind: statsd
  statsd:
    address: "statsd.lan:8125"
    prefix: "totomz.homelab"
sources:
  - name: rack
    kind: dht
    dht:
      device: /sys/bus/iio/devices/iio:device0
  - name: ziobob
    kind: ipmi
    ipmi:
      address: 192.168.10.30
      username: root
      password: root
  - name: zione
    kind: gpu
    gpu:
      host: zione
      key_file: /root/.ssh/id_ed25519
`

func TestLoadFromBytes_ParsesSources(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scheduler.Interval.Duration != 10*time.Second {
		t.Errorf("Interval = %v, want 10s", cfg.Scheduler.Interval.Duration)
	}
	if cfg.Scheduler.ProbeTimeout.Duration != 2*time.Minute {
		t.Errorf("ProbeTimeout = %v, want 2m", cfg.Scheduler.ProbeTimeout.Duration)
	}
	if len(cfg.Sources) != 3 {
		t.Fatalf("len(Sources) = %d, want 3 (defaults must be replaced)", len(cfg.Sources))
	}
	if cfg.Sources[1].IPMI.Address != "192.168.10.30" {
		t.Errorf("ipmi address = %q", cfg.Sources[1].IPMI.Address)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoadLayered_DefaultsWhenEmpty(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{}, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scheduler.Interval.Duration != 5*time.Second {
		t.Errorf("Interval = %v, want 5s default", cfg.Scheduler.Interval.Duration)
	}
	if cfg.Scheduler.CooldownTicks != 5 {
		t.Errorf("CooldownTicks = %d, want 5 default", cfg.Scheduler.CooldownTicks)
	}
	if cfg.Scheduler.ProbeTimeout.Duration != 0 {
		t.Errorf("ProbeTimeout = %v, want disabled by default", cfg.Scheduler.ProbeTimeout.Duration)
	}
	if cfg.Sink.Statsd.Prefix != "totomz.homelab" {
		t.Errorf("Prefix = %q, want totomz.homelab default", cfg.Sink.Statsd.Prefix)
	}
}

func TestLoadLayered_MissingExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := LoadLayered(CLIOverrides{}, path)
	if err == nil {
		t.Fatal("expected error for a config path that does not exist")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load: expected error for a config path that does not exist")
	}
}

func TestLoadLayered_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rackmon.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("statsd_url", "10.0.0.5")
	t.Setenv("RACKMON_LOG_LEVEL", "debug")
	t.Setenv("RACKMON_INTERVAL", "1s")

	cfg, err := LoadLayered(CLIOverrides{}, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sink.Statsd.Address != "10.0.0.5:8125" {
		t.Errorf("Address = %q, want env override with default port", cfg.Sink.Statsd.Address)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Scheduler.Interval.Duration != time.Second {
		t.Errorf("Interval = %v, want 1s", cfg.Scheduler.Interval.Duration)
	}
	if cfg.Sink.Statsd.Prefix != "totomz.homelab" {
		t.Errorf("Prefix = %q, want file value", cfg.Sink.Statsd.Prefix)
	}
}

func TestLoadLayered_CLIOverridesEverything(t *testing.T) {
	t.Setenv("RACKMON_STATSD_URL", "env-host:9125")
	t.Setenv("RACKMON_LOG_LEVEL", "warn")

	cfg, err := LoadLayered(CLIOverrides{StatsdAddress: "cli-host", LogLevel: "error"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sink.Statsd.Address != "cli-host:8125" {
		t.Errorf("Address = %q, want CLI override", cfg.Sink.Statsd.Address)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Level = %q, want CLI override", cfg.Logging.Level)
	}
}

func TestLoadLayered_InvalidEnvInterval(t *testing.T) {
	t.Setenv("RACKMON_INTERVAL", "soon")
	if _, err := LoadLayered(CLIOverrides{}, ""); err == nil {
		t.Error("expected error for invalid RACKMON_INTERVAL")
	}
}

func TestLoadFromBytes_BadDuration(t *testing.T) {
	_, err := LoadFromBytes([]byte("scheduler:\n  interval: fast\n"))
	if err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero interval", func(c *Config) { c.Scheduler.Interval = Duration{} }, true},
		{"zero cooldown", func(c *Config) { c.Scheduler.CooldownTicks = 0 }, true},
		{"negative timeout", func(c *Config) { c.Scheduler.ProbeTimeout = Duration{-time.Second} }, true},
		{"unknown sink", func(c *Config) { c.Sink.Kind = "kafka" }, true},
		{"http sink without url", func(c *Config) { c.Sink.Kind = SinkHTTP }, true},
		{"http sink", func(c *Config) {
			c.Sink.Kind = SinkHTTP
			c.Sink.HTTP.URL = "http://localhost:8080"
		}, false},
		{"log sink", func(c *Config) { c.Sink.Kind = SinkLog }, false},
		{"unnamed source", func(c *Config) { c.Sources[0].Name = "" }, true},
		{"duplicate source", func(c *Config) {
			c.Sources = append(c.Sources, SourceConfig{Name: "rack", Kind: KindHost})
		}, true},
		{"unknown kind", func(c *Config) { c.Sources[0].Kind = "snmp" }, true},
		{"ipmi without address", func(c *Config) {
			c.Sources = []SourceConfig{{Name: "ziobob", Kind: KindIPMI}}
		}, true},
		{"gpu without host", func(c *Config) {
			c.Sources = []SourceConfig{{Name: "zione", Kind: KindGPU}}
		}, true},
		{"local gpu", func(c *Config) {
			c.Sources = []SourceConfig{{Name: "zione", Kind: KindGPU, GPU: GPUSource{Local: true}}}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NoSources(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sources = nil
	if err := cfg.Validate(); !errors.Is(err, ErrNoSources) {
		t.Errorf("Validate() = %v, want ErrNoSources", err)
	}
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "rackmon.yaml")

	cfg := DefaultConfig()
	cfg.Sink.Statsd.Prefix = "lab"

	if err := WriteConfig(cfg, path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := LoadFromBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Sink.Statsd.Prefix != "lab" {
		t.Errorf("Prefix = %q, want lab", got.Sink.Statsd.Prefix)
	}
	if got.Scheduler.Interval.Duration != 5*time.Second {
		t.Errorf("Interval = %v, want 5s", got.Scheduler.Interval.Duration)
	}
}
