package scheduler

import "sync/atomic"

// Guard marks a source as busy while one of its probes is running. It has
// try-semantics only: a caller that cannot acquire it moves on.
type Guard struct {
	busy atomic.Bool
}

// TryAcquire marks the guard busy. It returns false immediately when the
// guard is already held.
func (g *Guard) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Release frees the guard.
func (g *Guard) Release() {
	g.busy.Store(false)
}

// Busy reports whether the guard is held.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
