// Local thermal sensor probe. Reads every temperature sensor gopsutil can
// see on the machine rackmon runs on.
package collector

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/vitalis-app/rackmon/internal/config"
	"github.com/vitalis-app/rackmon/internal/models"
)

// minValidTemp is the minimum temperature (°C) considered valid.
const minValidTemp = 0.0

// maxValidTemp is the maximum temperature (°C) considered valid.
// Readings above this are likely sensor errors.
const maxValidTemp = 150.0

// HostSensorsCollector reports local temperature sensors.
type HostSensorsCollector struct {
	name     string
	hostname string
	logger   *zap.Logger

	sensors func(context.Context) ([]host.TemperatureStat, error)
}

// NewHostSensorsCollector creates the local sensor probe. An empty hostname
// falls back to os.Hostname.
func NewHostSensorsCollector(name string, cfg config.HostSource, logger *zap.Logger) *HostSensorsCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	hostname := cfg.Hostname
	if hostname == "" {
		if h, err := os.Hostname(); err == nil {
			hostname = h
		} else {
			hostname = name
		}
	}
	return &HostSensorsCollector{
		name:     name,
		hostname: metricSegment(hostname),
		logger:   logger,
		sensors:  host.SensorsTemperaturesWithContext,
	}
}

// Name returns the source name.
func (c *HostSensorsCollector) Name() string { return c.name }

// Kind returns the source kind.
func (c *HostSensorsCollector) Kind() string { return config.KindHost }

// IsAvailable always returns true. Platforms without sensors fail at
// collection time.
func (c *HostSensorsCollector) IsAvailable() bool { return true }

// Collect reads all sensors and keeps readings within the valid range.
func (c *HostSensorsCollector) Collect(ctx context.Context) (*models.Batch, error) {
	temps, err := c.sensors(ctx)
	// gopsutil returns partial results with a warnings error on some
	// platforms, so only give up when nothing came back.
	if err != nil && len(temps) == 0 {
		return nil, fmt.Errorf("host sensors: %w", err)
	}
	if err != nil {
		c.logger.Debug("Partial sensor read", zap.Error(err))
	}

	batch := models.NewBatch(c.name)
	for _, t := range temps {
		if t.Temperature <= minValidTemp || t.Temperature > maxValidTemp {
			continue
		}
		key := metricSegment(t.SensorKey)
		if key == "" {
			continue
		}
		batch.Set("host."+c.hostname+"."+key, t.Temperature)
	}

	if batch.Len() == 0 {
		return nil, errors.New("host sensors: no valid temperature readings")
	}
	return batch, nil
}
