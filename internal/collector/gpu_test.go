package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalis-app/rackmon/internal/platform"
)

const sampleNvidiaSMI = `
==============NVSMI LOG==============

Timestamp                                 : Sat Oct 17 21:14:03 2026
Driver Version                            : 535.183.01
CUDA Version                              : 12.2

Attached GPUs                             : 1
GPU 00000000:3B:00.0
    Product Name                          : NVIDIA GeForce RTX 3090
    Fan Speed                             : 30 %
    FB Memory Usage
        Total                             : 24576 MiB
        Reserved                          : 311 MiB
        Used                              : 1024 MiB
        Free                              : 23240 MiB
    BAR1 Memory Usage
        Total                             : 256 MiB
        Used                              : 5 MiB
        Free                              : 251 MiB
    Compute Mode                          : Default
    Utilization
        Gpu                               : 12 %
        Memory                            : 3 %
        Encoder                           : 0 %
        Decoder                           : 0 %
    Temperature
        GPU Current Temp                  : 45 C
        GPU T.Limit Temp                  : N/A
        GPU Shutdown Temp                 : 98 C
        Memory Current Temp               : N/A
    GPU Power Readings
        Power Draw                        : 31.55 W
        Power Limit                       : 350.00 W
        Power Management                  : Supported
    Clocks
        Graphics                          : 210 MHz
        SM                                : 210 MHz
        Memory                            : 405 MHz
    Applications Clocks
        Graphics                          : N/A
        Memory                            : N/A
    Max Clocks
        Graphics                          : 2100 MHz
`

func TestParseNvidiaSMI(t *testing.T) {
	batch, gpus := parseNvidiaSMI("gpu", "zione", []byte(sampleNvidiaSMI))
	require.Equal(t, 1, gpus)

	tests := []struct {
		name string
		want float64
	}{
		{"host.zione.gpu.3b.memory.framebuffer.total", 24576},
		{"host.zione.gpu.3b.memory.framebuffer.used", 1024},
		{"host.zione.gpu.3b.memory.bar.free", 251},
		{"host.zione.gpu.3b.utilization.gpu", 12},
		{"host.zione.gpu.3b.temp.gpu_current_temp", 45},
		{"host.zione.gpu.3b.power.power_draw", 31.55},
		{"host.zione.gpu.3b.clocks.sm", 210},
	}
	for _, tt := range tests {
		got, ok := batch.Get(tt.name)
		if assert.True(t, ok, "missing %s", tt.name) {
			assert.InDelta(t, tt.want, got, 1e-9, tt.name)
		}
	}

	// N/A and textual values are skipped, not zeroed.
	_, ok := batch.Get("host.zione.gpu.3b.temp.memory_current_temp")
	assert.False(t, ok)
	_, ok = batch.Get("host.zione.gpu.3b.power.power_management")
	assert.False(t, ok)

	// Only the exact "Clocks" section counts.
	_, ok = batch.Get("host.zione.gpu.3b.clocks.graphics")
	require.True(t, ok)
	v, _ := batch.Get("host.zione.gpu.3b.clocks.graphics")
	assert.Equal(t, 210.0, v)

	// Top-level fields outside a section are ignored.
	assert.Equal(t, 18, batch.Len())
}

func TestParseNvidiaSMIMultipleGPUs(t *testing.T) {
	out := `GPU 00000000:3B:00.0
    Temperature
        GPU Current Temp                  : 45 C
GPU 00000000:AF:00.0
    Temperature
        GPU Current Temp                  : 51 C
`
	batch, gpus := parseNvidiaSMI("gpu", "zione", []byte(out))
	assert.Equal(t, 2, gpus)

	v, ok := batch.Get("host.zione.gpu.af.temp.gpu_current_temp")
	require.True(t, ok)
	assert.Equal(t, 51.0, v)
	v, ok = batch.Get("host.zione.gpu.3b.temp.gpu_current_temp")
	require.True(t, ok)
	assert.Equal(t, 45.0, v)
}

func TestGPUCollect(t *testing.T) {
	var gotArgs []string
	runner := platform.RunnerFunc(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte(sampleNvidiaSMI), nil
	})

	c := NewGPUCollector("gpu", "zione", runner, nil)
	batch, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"nvidia-smi", "-q"}, gotArgs)
	assert.Equal(t, "gpu", batch.Source)
	assert.Positive(t, batch.Len())
}

func TestGPUCollectErrors(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
		want string
	}{
		{"runner failure", "", errors.New("ssh: connect: connection refused"), "connection refused"},
		{"no gpu", "NVIDIA-SMI has failed because it couldn't communicate with the NVIDIA driver.", nil, "no GPU"},
		{"no readings", "GPU 00000000:3B:00.0\n    Product Name : Tesla\n", nil, "no readings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := platform.RunnerFunc(func(context.Context, string, ...string) ([]byte, error) {
				return []byte(tt.out), tt.err
			})
			_, err := NewGPUCollector("gpu", "zione", runner, nil).Collect(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
