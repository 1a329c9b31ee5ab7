package collector

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/vitalis-app/rackmon/internal/models"
)

// nvsmiSections maps `nvidia-smi -q` section headers to metric path segments.
// Sections not listed here are ignored.
var nvsmiSections = map[string]string{
	"FB Memory Usage":    "memory.framebuffer",
	"BAR1 Memory Usage":  "memory.bar",
	"Utilization":        "utilization",
	"Temperature":        "temp",
	"Power Readings":     "power",
	"GPU Power Readings": "power",
	"Clocks":             "clocks",
}

const (
	nvsmiSectionIndent = 4
	nvsmiFieldIndent   = 8
)

// parseNvidiaSMI converts `nvidia-smi -q` output into a batch named
// host.<hostname>.gpu.<bus>.<section>.<field>. The bus is the PCI bus
// segment of the GPU header line ("GPU 00000000:3B:00.0" -> "3b").
// Fields whose value does not start with a number (N/A, Supported) are
// skipped. The second result is the number of GPU blocks seen.
func parseNvidiaSMI(source, hostname string, out []byte) (*models.Batch, int) {
	batch := models.NewBatch(source)
	gpus := 0

	var bus, section string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), " \t\r")
		if raw == "" {
			continue
		}
		indent := len(raw) - len(strings.TrimLeft(raw, " "))
		text := strings.TrimSpace(raw)

		if indent == 0 {
			section = ""
			if id, ok := gpuBusID(text); ok {
				bus = id
				gpus++
			}
			continue
		}
		if bus == "" {
			continue
		}

		key, value, hasValue := strings.Cut(text, ":")
		switch {
		case indent == nvsmiSectionIndent:
			section = ""
			if !hasValue {
				section = nvsmiSections[text]
			}
		case indent == nvsmiFieldIndent && section != "" && hasValue:
			v, ok := leadingFloat(value)
			if !ok {
				continue
			}
			name := "host." + hostname + ".gpu." + bus + "." + section + "." + metricSegment(key)
			batch.Set(name, v)
		}
	}
	return batch, gpus
}

// gpuBusID extracts the bus segment from a "GPU 00000000:3B:00.0" header.
func gpuBusID(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "GPU ")
	if !ok {
		return "", false
	}
	parts := strings.Split(strings.TrimSpace(rest), ":")
	if len(parts) < 3 {
		return "", false
	}
	return strings.ToLower(parts[1]), true
}

// leadingFloat parses the first whitespace separated token of s.
func leadingFloat(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
