// NVIDIA GPU probe. Runs `nvidia-smi -q` on the GPU host, normally over ssh,
// and extracts memory, utilization, temperature, power and clock readings.
package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vitalis-app/rackmon/internal/config"
	"github.com/vitalis-app/rackmon/internal/models"
	"github.com/vitalis-app/rackmon/internal/platform"
)

const nvidiaSMIBinary = "nvidia-smi"

// GPUCollector polls the GPUs of one host.
type GPUCollector struct {
	name     string
	hostname string
	runner   platform.Runner
	logger   *zap.Logger
}

// NewGPUCollector creates a GPU probe. hostname is the metric path segment.
func NewGPUCollector(name, hostname string, runner platform.Runner, logger *zap.Logger) *GPUCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hostname == "" {
		hostname = name
	}
	return &GPUCollector{
		name:     name,
		hostname: metricSegment(hostname),
		runner:   runner,
		logger:   logger,
	}
}

// Name returns the source name.
func (c *GPUCollector) Name() string { return c.name }

// Kind returns the source kind.
func (c *GPUCollector) Kind() string { return config.KindGPU }

// IsAvailable returns true. Reachability of the host is only known at
// collection time, and failures there are handled by backoff.
func (c *GPUCollector) IsAvailable() bool { return true }

// Collect runs nvidia-smi and parses its report.
func (c *GPUCollector) Collect(ctx context.Context) (*models.Batch, error) {
	out, err := c.runner.Run(ctx, nvidiaSMIBinary, "-q")
	if err != nil {
		return nil, fmt.Errorf("gpu %s: %w", c.hostname, err)
	}

	batch, gpus := parseNvidiaSMI(c.name, c.hostname, out)
	if gpus == 0 {
		return nil, fmt.Errorf("gpu %s: no GPU found in nvidia-smi output", c.hostname)
	}
	if batch.Len() == 0 {
		return nil, fmt.Errorf("gpu %s: no readings in nvidia-smi output", c.hostname)
	}

	c.logger.Debug("GPU readings",
		zap.String("source", c.name),
		zap.Int("gpus", gpus),
		zap.Int("metrics", batch.Len()))
	return batch, nil
}
