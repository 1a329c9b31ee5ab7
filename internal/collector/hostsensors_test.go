package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalis-app/rackmon/internal/config"
)

func TestHostSensorsCollect(t *testing.T) {
	c := NewHostSensorsCollector("local", config.HostSource{Hostname: "rackpi"}, nil)
	c.sensors = func(context.Context) ([]host.TemperatureStat, error) {
		return []host.TemperatureStat{
			{SensorKey: "coretemp_core_0_input", Temperature: 48},
			{SensorKey: "acpitz_temp1_input", Temperature: 27.8},
			{SensorKey: "bogus_input", Temperature: 255},
			{SensorKey: "nvme_composite", Temperature: 0},
		}, nil
	}

	batch, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Len())

	v, ok := batch.Get("host.rackpi.coretemp_core_0_input")
	require.True(t, ok)
	assert.Equal(t, 48.0, v)
}

func TestHostSensorsPartialWarnings(t *testing.T) {
	c := NewHostSensorsCollector("local", config.HostSource{Hostname: "rackpi"}, nil)
	c.sensors = func(context.Context) ([]host.TemperatureStat, error) {
		return []host.TemperatureStat{{SensorKey: "k10temp_tctl_input", Temperature: 55}},
			errors.New("Number of warnings: 1")
	}

	batch, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Len())
}

func TestHostSensorsNoReadings(t *testing.T) {
	c := NewHostSensorsCollector("local", config.HostSource{Hostname: "rackpi"}, nil)

	c.sensors = func(context.Context) ([]host.TemperatureStat, error) {
		return nil, errors.New("not implemented yet")
	}
	_, err := c.Collect(context.Background())
	assert.Error(t, err)

	c.sensors = func(context.Context) ([]host.TemperatureStat, error) {
		return []host.TemperatureStat{{SensorKey: "broken", Temperature: -40}}, nil
	}
	_, err = c.Collect(context.Background())
	assert.Error(t, err)
}
