package sender

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vitalis-app/rackmon/internal/buffer"
	"github.com/vitalis-app/rackmon/internal/models"
)

// Stats counts what a Writer has delivered.
type Stats struct {
	Batches    uint64 `json:"batches"`
	Metrics    uint64 `json:"metrics"`
	SinkErrors uint64 `json:"sink_errors"`
}

// Writer is the only consumer of the aggregation queue.
type Writer struct {
	queue  *buffer.Queue
	sink   Sink
	logger *zap.Logger

	batches    atomic.Uint64
	metrics    atomic.Uint64
	sinkErrors atomic.Uint64
}

// NewWriter creates a writer draining queue into sink.
func NewWriter(queue *buffer.Queue, sink Sink, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		queue:  queue,
		sink:   sink,
		logger: logger,
	}
}

// Run writes batches until the queue is closed and drained, returning nil,
// or until ctx is done, returning ctx.Err(). Run must be called from
// exactly one goroutine.
func (w *Writer) Run(ctx context.Context) error {
	for {
		batch, err := w.queue.Pop(ctx)
		if errors.Is(err, buffer.ErrClosed) {
			w.logger.Info("Queue drained, writer stopping",
				zap.Uint64("batches", w.batches.Load()),
				zap.Uint64("metrics", w.metrics.Load()))
			return nil
		}
		if err != nil {
			return err
		}
		w.write(batch)
	}
}

// write sends every metric of one batch, in order, before returning.
func (w *Writer) write(batch *models.Batch) {
	for _, m := range batch.Metrics() {
		if err := w.sink.Gauge(m.Name, m.Value); err != nil {
			w.sinkErrors.Add(1)
			w.logger.Warn("Failed to write metric",
				zap.String("source", batch.Source),
				zap.String("metric", m.Name),
				zap.Error(err))
			continue
		}
		w.metrics.Add(1)
	}
	w.batches.Add(1)

	w.logger.Debug("Batch written",
		zap.String("source", batch.Source),
		zap.Int("metrics", batch.Len()),
		zap.Duration("age", time.Since(batch.CollectedAt)))
}

// Stats returns the writer's counters.
func (w *Writer) Stats() Stats {
	return Stats{
		Batches:    w.batches.Load(),
		Metrics:    w.metrics.Load(),
		SinkErrors: w.sinkErrors.Load(),
	}
}
