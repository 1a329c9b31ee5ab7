package scheduler

import "sync/atomic"

// DefaultCooldownTicks is how many ticks a failed source is left alone.
const DefaultCooldownTicks = 5

// Backoff counts down the ticks a failing source still has to sit out.
// The scheduler ages it once per tick and the probe lane sets it on
// failure, possibly from different goroutines.
type Backoff struct {
	remaining atomic.Int32
}

// ShouldSkip reports whether the source is still cooling down.
func (b *Backoff) ShouldSkip() bool {
	return b.remaining.Load() > 0
}

// RecordFailure starts a cool-down of the given number of ticks.
func (b *Backoff) RecordFailure(cooldownTicks int) {
	if cooldownTicks < 0 {
		cooldownTicks = 0
	}
	b.remaining.Store(int32(cooldownTicks))
}

// Tick ages the counter by one, never going below zero.
func (b *Backoff) Tick() {
	for {
		cur := b.remaining.Load()
		if cur <= 0 {
			return
		}
		if b.remaining.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// Remaining returns the ticks left in the current cool-down.
func (b *Backoff) Remaining() int {
	return int(b.remaining.Load())
}
