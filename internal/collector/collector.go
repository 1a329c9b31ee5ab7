// Package collector defines the Collector interface and the probe adapters
// for every supported source kind.
package collector

import (
	"context"

	"github.com/vitalis-app/rackmon/internal/models"
)

// Collector is the interface that all metric probes must implement.
// A Collector is stateless from the scheduler's point of view: each Collect
// call is independent and produces a fresh batch.
type Collector interface {
	// Name returns the unique source name used in logs and status.
	Name() string

	// Kind returns the source kind (dht, ipmi, gpu, host).
	Kind() string

	// Collect probes the source once. The context carries cancellation and
	// the optional per-probe deadline.
	Collect(ctx context.Context) (*models.Batch, error)

	// IsAvailable checks if this collector can run on the current machine.
	// Collectors that return false will not be registered.
	IsAvailable() bool
}
