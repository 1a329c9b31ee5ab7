//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		"rackmon.yaml",
		filepath.Join(home, ".config", "rackmon", "rackmon.yaml"),
		"/etc/rackmon/rackmon.yaml",
	}
}
