package sender

import "go.uber.org/zap"

// LogSink writes readings to the log instead of a metrics backend. Useful
// for trying out a configuration.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs every gauge at info level.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("sink")}
}

// Gauge logs one reading.
func (s *LogSink) Gauge(name string, value float64) error {
	s.logger.Info("gauge", zap.String("name", name), zap.Float64("value", value))
	return nil
}

// Close flushes the logger.
func (s *LogSink) Close() error {
	_ = s.logger.Sync()
	return nil
}
