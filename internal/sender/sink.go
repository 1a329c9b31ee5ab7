// Package sender delivers metric batches to the configured sink. A single
// Writer drains the aggregation queue and forwards every reading as a gauge,
// so sink calls are serialized and batches are never interleaved.
package sender

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vitalis-app/rackmon/internal/config"
)

// Sink receives individual gauge readings.
type Sink interface {
	Gauge(name string, value float64) error
	Close() error
}

// NewSink builds the sink selected by cfg.Kind.
func NewSink(cfg config.SinkConfig, logger *zap.Logger) (Sink, error) {
	switch cfg.Kind {
	case config.SinkStatsd, "":
		return NewStatsdSink(cfg.Statsd)
	case config.SinkHTTP:
		return NewHTTPSink(cfg.HTTP), nil
	case config.SinkLog:
		return NewLogSink(logger), nil
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Kind)
	}
}
