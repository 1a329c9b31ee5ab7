package autostart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalis-app/rackmon/internal/platform"
)

type recorder struct {
	calls []string
	fail  string
}

func (r *recorder) runner() platform.Runner {
	return platform.RunnerFunc(func(_ context.Context, name string, args ...string) ([]byte, error) {
		call := name + " " + strings.Join(args, " ")
		r.calls = append(r.calls, call)
		if call == r.fail {
			return []byte("Failed"), errors.New("exit status 1")
		}
		return nil, nil
	})
}

func TestUnit(t *testing.T) {
	unit := Unit("/usr/local/bin/rackmon", "/etc/rackmon/rackmon.yaml")
	assert.Contains(t, unit, "ExecStart=/usr/local/bin/rackmon run -c /etc/rackmon/rackmon.yaml\n")
	assert.Contains(t, unit, "SyslogIdentifier=rackmon")

	assert.Contains(t, Unit("/usr/local/bin/rackmon", ""), "ExecStart=/usr/local/bin/rackmon run\n")
}

func TestInstallAndUninstall(t *testing.T) {
	rec := &recorder{}
	m := &Manager{
		UnitPath: filepath.Join(t.TempDir(), "rackmon.service"),
		Runner:   rec.runner(),
	}

	installed, err := m.IsInstalled()
	require.NoError(t, err)
	assert.False(t, installed)

	require.NoError(t, m.Install(context.Background(), "/usr/local/bin/rackmon", "/etc/rackmon/rackmon.yaml"))

	installed, err = m.IsInstalled()
	require.NoError(t, err)
	assert.True(t, installed)

	data, err := os.ReadFile(m.UnitPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-c /etc/rackmon/rackmon.yaml")

	assert.Equal(t, []string{
		"systemctl daemon-reload",
		"systemctl enable rackmon",
		"systemctl restart rackmon",
	}, rec.calls)

	rec.calls = nil
	require.NoError(t, m.Uninstall(context.Background()))
	installed, err = m.IsInstalled()
	require.NoError(t, err)
	assert.False(t, installed)
	assert.Equal(t, "systemctl daemon-reload", rec.calls[len(rec.calls)-1])
}

func TestInstallReportsSystemctlFailure(t *testing.T) {
	rec := &recorder{fail: "systemctl enable rackmon"}
	m := &Manager{
		UnitPath: filepath.Join(t.TempDir(), "rackmon.service"),
		Runner:   rec.runner(),
	}

	err := m.Install(context.Background(), "/usr/local/bin/rackmon", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "systemctl enable rackmon")
}

func TestUninstallMissingUnit(t *testing.T) {
	rec := &recorder{}
	m := &Manager{UnitPath: filepath.Join(t.TempDir(), "absent.service"), Runner: rec.runner()}
	assert.NoError(t, m.Uninstall(context.Background()))
}
