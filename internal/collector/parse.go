package collector

import (
	"strconv"
	"strings"
)

// parseFloatOr parses s as a float64, returning def when s is not a number.
// Sensor tables report missing readings as "na" or "N/A"; those become def.
func parseFloatOr(s string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return v
}

// metricSegment turns a human label ("CPU1 Temp") into a metric path
// segment ("cpu1_temp"): trimmed, lowercased, every space replaced by "_".
// Runs of spaces and dots are kept as they are so names match the ones
// existing dashboards were built on.
func metricSegment(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
