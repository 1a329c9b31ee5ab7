// IPMI sensor probe. Runs `ipmitool sensor` against a BMC and keeps every
// temperature row of the sensor table.
package collector

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/vitalis-app/rackmon/internal/config"
	"github.com/vitalis-app/rackmon/internal/models"
	"github.com/vitalis-app/rackmon/internal/platform"
)

const ipmitoolBinary = "ipmitool"

// IPMICollector polls one BMC.
type IPMICollector struct {
	name     string
	hostname string
	cfg      config.IPMISource
	runner   platform.Runner
	logger   *zap.Logger

	lookPath func(string) (string, error)
}

// NewIPMICollector creates an IPMI probe that runs ipmitool through runner.
func NewIPMICollector(name string, cfg config.IPMISource, runner platform.Runner, logger *zap.Logger) *IPMICollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	hostname := cfg.Hostname
	if hostname == "" {
		hostname = name
	}
	return &IPMICollector{
		name:     name,
		hostname: metricSegment(hostname),
		cfg:      cfg,
		runner:   runner,
		logger:   logger,
		lookPath: exec.LookPath,
	}
}

// Name returns the source name.
func (c *IPMICollector) Name() string { return c.name }

// Kind returns the source kind.
func (c *IPMICollector) Kind() string { return config.KindIPMI }

// IsAvailable reports whether ipmitool is installed.
func (c *IPMICollector) IsAvailable() bool {
	_, err := c.lookPath(ipmitoolBinary)
	return err == nil
}

// Collect queries the BMC sensor table. A command failure (host down, bad
// credentials) is returned as an error so the scheduler can back off.
func (c *IPMICollector) Collect(ctx context.Context) (*models.Batch, error) {
	c.logger.Debug("Querying IPMI sensors",
		zap.String("source", c.name),
		zap.String("address", c.cfg.Address))

	out, err := c.runner.Run(ctx, ipmitoolBinary, c.args()...)
	if err != nil {
		return nil, fmt.Errorf("ipmi %s: %w", c.cfg.Address, err)
	}

	batch := parseIPMISensors(c.name, c.hostname, out)
	c.logger.Debug("IPMI readings",
		zap.String("source", c.name),
		zap.Int("metrics", batch.Len()))
	return batch, nil
}

func (c *IPMICollector) args() []string {
	var args []string
	if c.cfg.Interface != "" {
		args = append(args, "-I", c.cfg.Interface)
	}
	args = append(args, "-H", c.cfg.Address)
	if c.cfg.Username != "" {
		args = append(args, "-U", c.cfg.Username)
	}
	if c.cfg.Password != "" {
		args = append(args, "-P", c.cfg.Password)
	}
	return append(args, "sensor")
}

// parseIPMISensors converts `ipmitool sensor` output into a batch. Rows look
// like
//
//	CPU1 Temp        | 38.000     | degrees C  | ok    | 0.000 | ...
//
// Only rows mentioning "temp" are kept. Unreadable values ("na") become 0.
func parseIPMISensors(source, hostname string, out []byte) *models.Batch {
	batch := models.NewBatch(source)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.ToLower(scanner.Text())
		if !strings.Contains(line, "temp") {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 2 {
			continue
		}
		label := metricSegment(fields[0])
		if label == "" {
			continue
		}
		batch.Set("host."+hostname+"."+label, parseFloatOr(fields[1], 0))
	}
	return batch
}
