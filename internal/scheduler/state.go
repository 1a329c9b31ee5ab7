package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitalis-app/rackmon/internal/buffer"
	"github.com/vitalis-app/rackmon/internal/collector"
	"github.com/vitalis-app/rackmon/internal/models"
)

// Lane is the scheduler's record of one source: its probe, guard, backoff
// counter and bookkeeping. Lanes are created at startup and live for the
// lifetime of the process.
type Lane struct {
	probe   collector.Collector
	guard   Guard
	backoff Backoff

	dispatched atomic.Uint64
	succeeded  atomic.Uint64
	failed     atomic.Uint64
	skipped    atomic.Uint64

	mu          sync.Mutex
	lastErr     string
	lastSuccess time.Time
}

// Name returns the source name.
func (l *Lane) Name() string { return l.probe.Name() }

// Status returns a snapshot of the lane.
func (l *Lane) Status() models.SourceStatus {
	l.mu.Lock()
	lastErr, lastSuccess := l.lastErr, l.lastSuccess
	l.mu.Unlock()

	return models.SourceStatus{
		Name:        l.probe.Name(),
		Kind:        l.probe.Kind(),
		Busy:        l.guard.Busy(),
		Backoff:     l.backoff.Remaining(),
		Dispatched:  l.dispatched.Load(),
		Succeeded:   l.succeeded.Load(),
		Failed:      l.failed.Load(),
		Skipped:     l.skipped.Load(),
		LastError:   lastErr,
		LastSuccess: lastSuccess,
	}
}

func (l *Lane) recordSuccess(at time.Time) {
	l.succeeded.Add(1)
	l.mu.Lock()
	l.lastErr = ""
	l.lastSuccess = at
	l.mu.Unlock()
}

func (l *Lane) recordFailure(err error) {
	l.failed.Add(1)
	l.mu.Lock()
	l.lastErr = err.Error()
	l.mu.Unlock()
}

// State owns everything the scheduler mutates: the lanes and the queue the
// lanes feed.
type State struct {
	queue *buffer.Queue

	mu     sync.RWMutex
	lanes  []*Lane
	byName map[string]*Lane
}

// NewState creates an empty state around queue.
func NewState(queue *buffer.Queue) *State {
	return &State{
		queue:  queue,
		byName: make(map[string]*Lane),
	}
}

// Add creates a lane for c. Source names must be unique.
func (s *State) Add(c collector.Collector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[c.Name()]; ok {
		return fmt.Errorf("source %q already registered", c.Name())
	}
	l := &Lane{probe: c}
	s.lanes = append(s.lanes, l)
	s.byName[c.Name()] = l
	return nil
}

// Queue returns the aggregation queue.
func (s *State) Queue() *buffer.Queue {
	return s.queue
}

// Lanes returns the lanes in registration order.
func (s *State) Lanes() []*Lane {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Lane, len(s.lanes))
	copy(out, s.lanes)
	return out
}

// Lookup returns the lane for the named source.
func (s *State) Lookup(name string) (*Lane, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.byName[name]
	return l, ok
}

// Snapshot returns the status of every lane in registration order.
func (s *State) Snapshot() []models.SourceStatus {
	lanes := s.Lanes()
	out := make([]models.SourceStatus, 0, len(lanes))
	for _, l := range lanes {
		out = append(out, l.Status())
	}
	return out
}
