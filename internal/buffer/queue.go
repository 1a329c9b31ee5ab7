// Package buffer provides the aggregation queue that sits between the probe
// lanes and the metrics writer. It is unbounded and FIFO: any number of
// goroutines may Push, a single consumer Pops.
package buffer

import (
	"context"
	"errors"
	"sync"

	"github.com/vitalis-app/rackmon/internal/models"
)

// ErrClosed is returned by Push after Close, and by Pop once the queue is
// closed and fully drained.
var ErrClosed = errors.New("buffer: queue closed")

// Queue is an unbounded multi-producer, single-consumer queue of batches.
// Push never blocks, so a slow sink can never stall a probe lane.
type Queue struct {
	mu     sync.Mutex
	items  []*models.Batch
	closed bool
	notify chan struct{}
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		items:  make([]*models.Batch, 0),
		notify: make(chan struct{}, 1),
	}
}

// Push appends a batch to the tail of the queue.
func (q *Queue) Push(b *models.Batch) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, b)
	q.mu.Unlock()

	q.wake()
	return nil
}

// Pop removes and returns the batch at the head of the queue, blocking until
// one is available. It returns ctx.Err() if ctx is done first, and ErrClosed
// when the queue has been closed and nothing is left to drain.
func (q *Queue) Pop(ctx context.Context) (*models.Batch, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			b := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return b, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrClosed
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

// Close stops accepting new batches. Batches already queued can still be
// popped. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

// Len returns the number of queued batches.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// wake signals a waiting consumer without ever blocking the caller.
func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
