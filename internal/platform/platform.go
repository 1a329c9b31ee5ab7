// Package platform abstracts where a probe's external command runs: on the
// local machine or on a remote host over ssh. Probes only see the Runner
// interface, which keeps them testable with canned output.
package platform

import (
	"context"
	"fmt"
	"strings"
)

// Runner executes a command and returns its standard output. Standard
// error is not mixed into the output; runners report it in the error.
type Runner interface {
	// Run executes name with args. The command must be abandoned when ctx
	// is done.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// maxErrOutput bounds how much command output is copied into an error.
const maxErrOutput = 512

// commandError wraps a failed command with the tail of its output.
func commandError(name string, out []byte, err error) error {
	tail := strings.TrimSpace(string(out))
	if len(tail) > maxErrOutput {
		tail = "..." + tail[len(tail)-maxErrOutput:]
	}
	if tail == "" {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("%s: %w: %s", name, err, tail)
}

// shellQuote renders argv as a single POSIX shell command line.
func shellQuote(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{name}, args...) {
		if a != "" && strings.IndexFunc(a, needsQuote) < 0 {
			parts = append(parts, a)
			continue
		}
		parts = append(parts, "'"+strings.ReplaceAll(a, "'", `'\''`)+"'")
	}
	return strings.Join(parts, " ")
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./:=,@%+", r):
		return false
	}
	return true
}
