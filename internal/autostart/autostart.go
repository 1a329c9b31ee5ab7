// Package autostart installs rackmon as a systemd service so it starts at
// boot and is restarted when it exits.
package autostart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vitalis-app/rackmon/internal/platform"
)

const (
	// ServiceName is the systemd unit name.
	ServiceName = "rackmon"

	// DefaultUnitPath is where the unit file is written.
	DefaultUnitPath = "/etc/systemd/system/rackmon.service"
)

// unitTemplate is the systemd unit file written during installation.
// {execStart} is replaced with the binary path and its arguments.
const unitTemplate = `[Unit]
Description=rackmon homelab rack monitor
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart={execStart}
Restart=always
RestartSec=10
StandardOutput=journal
StandardError=journal
SyslogIdentifier=rackmon

# Security hardening
NoNewPrivileges=true
ProtectSystem=strict
ProtectHome=read-only
PrivateTmp=true

[Install]
WantedBy=multi-user.target
`

// Manager installs and removes the systemd unit.
type Manager struct {
	UnitPath string
	Runner   platform.Runner
}

// New returns a Manager for the default unit path using local systemctl.
func New() *Manager {
	return &Manager{
		UnitPath: DefaultUnitPath,
		Runner:   platform.NewLocal(),
	}
}

// Unit renders the unit file for the given binary and config file.
func Unit(execPath, configPath string) string {
	execStart := execPath + " run"
	if configPath != "" {
		execStart += " -c " + configPath
	}
	return strings.ReplaceAll(unitTemplate, "{execStart}", execStart)
}

// CheckElevation verifies the process can write the unit file and talk to
// systemd.
func CheckElevation() error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("installing the service requires root privileges\n\nRun with sudo:\n  sudo %s install", os.Args[0])
	}
	return nil
}

// IsInstalled checks whether the unit file exists.
func (m *Manager) IsInstalled() (bool, error) {
	_, err := os.Stat(m.UnitPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking unit file: %w", err)
	}
	return true, nil
}

// Install writes the unit file, reloads systemd, enables and starts the
// service. configPath is made absolute so the service does not depend on
// its working directory.
func (m *Manager) Install(ctx context.Context, execPath, configPath string) error {
	if configPath != "" {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
		configPath = abs
	}

	unit := Unit(execPath, configPath)
	if err := os.WriteFile(m.UnitPath, []byte(unit), 0644); err != nil {
		return fmt.Errorf("writing unit file: %w", err)
	}

	commands := [][]string{
		{"daemon-reload"},
		{"enable", ServiceName},
		{"restart", ServiceName},
	}
	for _, args := range commands {
		if _, err := m.Runner.Run(ctx, "systemctl", args...); err != nil {
			return fmt.Errorf("running systemctl %s: %w", strings.Join(args, " "), err)
		}
	}
	return nil
}

// Uninstall stops, disables and removes the service.
func (m *Manager) Uninstall(ctx context.Context) error {
	// Best-effort stop and disable; the service may already be inactive.
	_, _ = m.Runner.Run(ctx, "systemctl", "stop", ServiceName)
	_, _ = m.Runner.Run(ctx, "systemctl", "disable", ServiceName)

	if err := os.Remove(m.UnitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing unit file: %w", err)
	}

	_, _ = m.Runner.Run(ctx, "systemctl", "daemon-reload")
	return nil
}
