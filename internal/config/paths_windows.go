//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	programData := os.Getenv("ProgramData")
	return []string{
		"rackmon.yaml",
		filepath.Join(programData, "rackmon", "rackmon.yaml"),
	}
}
