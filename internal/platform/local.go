package platform

import (
	"bytes"
	"context"
	"os/exec"
)

// LocalRunner runs commands on this machine.
type LocalRunner struct{}

// NewLocal creates a runner for local commands.
func NewLocal() *LocalRunner {
	return &LocalRunner{}
}

// Run executes the command with exec.CommandContext, so the process is
// killed when ctx is done. Standard error only ends up in the error.
func (r *LocalRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, commandError(name, stderr.Bytes(), ctxErr)
		}
		return out, commandError(name, stderr.Bytes(), err)
	}
	return out, nil
}
