package collector

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vitalis-app/rackmon/internal/config"
	"github.com/vitalis-app/rackmon/internal/platform"
)

// ErrNoCollectors is returned by Build when every configured source was
// unavailable on this machine.
var ErrNoCollectors = errors.New("no configured source is available")

// Build creates one collector per configured source and registers the
// available ones.
func Build(cfg *config.Config, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := NewRegistry(logger)

	for _, src := range cfg.Sources {
		c, err := newCollector(src, logger.With(zap.String("source", src.Name)))
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Name, err)
		}
		reg.Register(c)
	}

	if len(reg.Collectors()) == 0 {
		return nil, ErrNoCollectors
	}
	return reg, nil
}

func newCollector(src config.SourceConfig, logger *zap.Logger) (Collector, error) {
	switch src.Kind {
	case config.KindDHT:
		return NewDHTCollector(src.Name, src.DHT, logger), nil

	case config.KindIPMI:
		return NewIPMICollector(src.Name, src.IPMI, platform.NewLocal(), logger), nil

	case config.KindGPU:
		hostname := src.GPU.Hostname
		if hostname == "" {
			hostname = src.GPU.Host
		}
		if src.GPU.Local {
			return NewGPUCollector(src.Name, hostname, platform.NewLocal(), logger), nil
		}
		runner, err := platform.NewSSH(platform.SSHConfig{
			Host:           src.GPU.Host,
			Port:           src.GPU.Port,
			User:           src.GPU.User,
			KeyFile:        src.GPU.KeyFile,
			Password:       src.GPU.Password,
			KnownHostsFile: src.GPU.KnownHosts,
		})
		if err != nil {
			return nil, err
		}
		return NewGPUCollector(src.Name, hostname, runner, logger), nil

	case config.KindHost:
		return NewHostSensorsCollector(src.Name, src.Host, logger), nil

	default:
		return nil, fmt.Errorf("unknown kind %q", src.Kind)
	}
}
