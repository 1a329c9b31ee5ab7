package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFloatOr(t *testing.T) {
	tests := []struct {
		in   string
		def  float64
		want float64
	}{
		{"38.000", 0, 38},
		{"  41.5 ", 0, 41.5},
		{"na", 0, 0},
		{"N/A", -1, -1},
		{"", 7, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseFloatOr(tt.in, tt.def), "input %q", tt.in)
	}
}

func TestMetricSegment(t *testing.T) {
	assert.Equal(t, "cpu1_temp", metricSegment(" CPU1 Temp "))
	assert.Equal(t, "inlet___temp", metricSegment("Inlet   Temp"))
	assert.Equal(t, "cpu__temp", metricSegment("CPU  Temp"))
	assert.Equal(t, "zione.lan", metricSegment("zione.lan"))
	assert.Equal(t, "gpu_t.limit_temp", metricSegment("GPU T.Limit Temp"))
	assert.Equal(t, "", metricSegment("   "))
}
