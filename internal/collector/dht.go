// DHT22 humidity/temperature probe.
// The sensor is read through the Linux IIO dht11 driver (it handles both
// DHT11 and DHT22), which exposes milli-degrees and milli-percent in sysfs.
// Reads fail often on this sensor, so a failed read is retried a few times
// before the probe gives up.
package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vitalis-app/rackmon/internal/config"
	"github.com/vitalis-app/rackmon/internal/models"
)

const (
	defaultDHTDevice     = "/sys/bus/iio/devices/iio:device0"
	defaultDHTPrefix     = "rack"
	defaultDHTRetries    = 15
	defaultDHTRetryDelay = 2 * time.Second

	dhtTempFile     = "in_temp_input"
	dhtHumidityFile = "in_humidityrelative_input"
)

// DHTCollector reads one DHT sensor.
type DHTCollector struct {
	name       string
	device     string
	prefix     string
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger

	readFile func(string) ([]byte, error)
}

// NewDHTCollector creates a DHT probe. Zero values in cfg select defaults.
func NewDHTCollector(name string, cfg config.DHTSource, logger *zap.Logger) *DHTCollector {
	c := &DHTCollector{
		name:       name,
		device:     cfg.Device,
		prefix:     cfg.Prefix,
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay.Duration,
		logger:     logger,
		readFile:   os.ReadFile,
	}
	if c.device == "" {
		c.device = defaultDHTDevice
	}
	if c.prefix == "" {
		c.prefix = defaultDHTPrefix
	}
	if c.retries == 0 {
		c.retries = defaultDHTRetries
	}
	if c.retryDelay == 0 {
		c.retryDelay = defaultDHTRetryDelay
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Name returns the source name.
func (c *DHTCollector) Name() string { return c.name }

// Kind returns the source kind.
func (c *DHTCollector) Kind() string { return config.KindDHT }

// IsAvailable reports whether the IIO device directory exists.
func (c *DHTCollector) IsAvailable() bool {
	_, err := os.Stat(c.device)
	return err == nil
}

// Collect reads humidity and temperature, retrying failed reads.
func (c *DHTCollector) Collect(ctx context.Context) (*models.Batch, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("dht read abandoned after %d attempts: %w", attempt-1, ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}

		humidity, temperature, err := c.read()
		if err == nil {
			c.logger.Info("DHT reading",
				zap.String("source", c.name),
				zap.Float64("temperature", temperature),
				zap.Float64("humidity", humidity))

			batch := models.NewBatch(c.name)
			batch.Set(c.prefix+".humidity", humidity)
			batch.Set(c.prefix+".temperature", temperature)
			return batch, nil
		}

		lastErr = err
		c.logger.Debug("DHT read failed",
			zap.String("source", c.name),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return nil, fmt.Errorf("dht read failed after %d attempts: %w", c.retries, lastErr)
}

func (c *DHTCollector) read() (humidity, temperature float64, err error) {
	temperature, err = c.readMilli(dhtTempFile)
	if err != nil {
		return 0, 0, err
	}
	humidity, err = c.readMilli(dhtHumidityFile)
	if err != nil {
		return 0, 0, err
	}
	return humidity, temperature, nil
}

// readMilli reads an IIO attribute expressed in thousandths.
func (c *DHTCollector) readMilli(file string) (float64, error) {
	raw, err := c.readFile(filepath.Join(c.device, file))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", file, err)
	}
	return v / 1000, nil
}
