package scheduler

import (
	"errors"
	"fmt"
)

// ErrProbeTimeout is recorded when a probe outlives the configured probe
// timeout.
var ErrProbeTimeout = errors.New("probe timed out")

// ProbePanicError is the failure recorded for a probe that panicked.
// ID correlates the log line carrying the stack with the status output.
type ProbePanicError struct {
	ID     string
	Source string
	Value  any
	Stack  []byte
}

func (e *ProbePanicError) Error() string {
	return fmt.Sprintf("probe %s panicked (id %s): %v", e.Source, e.ID, e.Value)
}
