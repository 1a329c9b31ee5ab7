package sender

import (
	"fmt"

	"github.com/cactus/go-statsd-client/v5/statsd"

	"github.com/vitalis-app/rackmon/internal/config"
)

// gaugeClient is the part of statsd.Statter the sink uses.
type gaugeClient interface {
	GaugeFloat(stat string, value float64, rate float32, tags ...statsd.Tag) error
	Close() error
}

// StatsdSink sends each reading as a statsd gauge over UDP.
type StatsdSink struct {
	client gaugeClient
}

// NewStatsdSink creates an unbuffered statsd client, one packet per gauge.
func NewStatsdSink(cfg config.StatsdConfig) (*StatsdSink, error) {
	client, err := statsd.NewClientWithConfig(&statsd.ClientConfig{
		Address: cfg.Address,
		Prefix:  cfg.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("creating statsd client for %s: %w", cfg.Address, err)
	}
	return &StatsdSink{client: client}, nil
}

// Gauge sends one reading at full sample rate.
func (s *StatsdSink) Gauge(name string, value float64) error {
	return s.client.GaugeFloat(name, value, 1.0)
}

// Close closes the underlying socket.
func (s *StatsdSink) Close() error {
	return s.client.Close()
}
