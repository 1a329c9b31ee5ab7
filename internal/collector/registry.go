package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vitalis-app/rackmon/internal/models"
)

// Registry holds the collectors built from static configuration.
// Sources are registered once at startup; there is no runtime discovery.
type Registry struct {
	collectors []Collector
	logger     *zap.Logger
}

// NewRegistry creates a new collector registry with the given logger.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		collectors: make([]Collector, 0),
		logger:     logger,
	}
}

// Register adds a collector if it's available on the current machine.
// Unavailable collectors are logged and skipped.
func (r *Registry) Register(c Collector) bool {
	if !c.IsAvailable() {
		r.logger.Warn("Collector not available, skipping",
			zap.String("name", c.Name()),
			zap.String("kind", c.Kind()))
		return false
	}
	r.collectors = append(r.collectors, c)
	r.logger.Info("Registered collector",
		zap.String("name", c.Name()),
		zap.String("kind", c.Kind()))
	return true
}

// Collectors returns a copy of all registered collectors.
func (r *Registry) Collectors() []Collector {
	result := make([]Collector, len(r.collectors))
	copy(result, r.collectors)
	return result
}

// Lookup returns the registered collector with the given name.
func (r *Registry) Lookup(name string) (Collector, bool) {
	for _, c := range r.collectors {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// CollectOnce runs a single named collector synchronously. It backs the
// one-shot probe command and bypasses the scheduler entirely.
func (r *Registry) CollectOnce(ctx context.Context, name string) (*models.CollectorResult, error) {
	c, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no registered source named %q", name)
	}
	batch, err := c.Collect(ctx)
	return &models.CollectorResult{Name: c.Name(), Batch: batch, Error: err}, nil
}
