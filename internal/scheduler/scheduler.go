// Package scheduler runs every configured probe on a fixed tick. Each probe
// runs in its own goroutine behind a per-source guard, so a slow or hung
// source never delays the others and never gets a second concurrent call.
// Failing sources are left alone for a number of ticks. Successful batches
// are pushed onto the aggregation queue; the scheduler never writes to the
// sink itself.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitalis-app/rackmon/internal/collector"
	"github.com/vitalis-app/rackmon/internal/models"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 5 * time.Second

// Config holds the scheduler's timing.
type Config struct {
	Interval      time.Duration
	CooldownTicks int
	// ProbeTimeout bounds a single probe call. Zero waits for the probe
	// however long it takes.
	ProbeTimeout time.Duration
}

// Scheduler dispatches probes on every tick.
type Scheduler struct {
	state  *State
	cfg    Config
	logger *zap.Logger

	inflight sync.WaitGroup
}

// New creates a scheduler over state. Zero Interval and CooldownTicks
// select the defaults.
func New(state *State, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.CooldownTicks <= 0 {
		cfg.CooldownTicks = DefaultCooldownTicks
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		state:  state,
		cfg:    cfg,
		logger: logger,
	}
}

// Run ticks until ctx is cancelled. The first dispatch happens immediately.
// On shutdown Run waits for in-flight probes, which see the cancelled
// context, and then closes the queue so the writer can drain and exit.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("Scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("cooldown_ticks", s.cfg.CooldownTicks),
		zap.Int("sources", len(s.state.Lanes())))

	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopping, waiting for in-flight probes")
			s.Wait()
			s.state.Queue().Close()
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one dispatch pass over all lanes. It never waits on a probe.
func (s *Scheduler) Tick(ctx context.Context) {
	for _, l := range s.state.Lanes() {
		l.backoff.Tick()

		if l.backoff.ShouldSkip() {
			l.skipped.Add(1)
			s.logger.Debug("Source in backoff, skipping",
				zap.String("source", l.Name()),
				zap.Int("remaining_ticks", l.backoff.Remaining()))
			continue
		}

		if !l.guard.TryAcquire() {
			l.skipped.Add(1)
			s.logger.Info("Source is still being queried, skipping",
				zap.String("source", l.Name()))
			continue
		}

		l.dispatched.Add(1)
		s.inflight.Add(1)
		go s.runLane(ctx, l)
	}
}

// Wait blocks until every dispatched probe has returned.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

// runLane owns the lane's guard for the duration of one probe call.
func (s *Scheduler) runLane(ctx context.Context, l *Lane) {
	defer s.inflight.Done()
	defer l.guard.Release()

	batch, err := s.probe(ctx, l.probe)
	if err != nil {
		l.backoff.RecordFailure(s.cfg.CooldownTicks)
		l.recordFailure(err)
		s.logFailure(ctx, l, err)
		return
	}

	l.recordSuccess(time.Now().UTC())

	if batch.Len() == 0 {
		s.logger.Debug("Probe returned no metrics", zap.String("source", l.Name()))
		return
	}
	if batch.Source == "" {
		batch.Source = l.Name()
	}
	if err := s.state.Queue().Push(batch); err != nil {
		s.logger.Warn("Dropping batch",
			zap.String("source", l.Name()),
			zap.Int("metrics", batch.Len()),
			zap.Error(err))
	}
}

// probe calls the collector, enforcing the probe timeout when one is set.
// A timed-out probe keeps running in the background; its result is dropped.
func (s *Scheduler) probe(ctx context.Context, c collector.Collector) (*models.Batch, error) {
	if s.cfg.ProbeTimeout <= 0 {
		return safeCollect(ctx, c)
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()

	type result struct {
		batch *models.Batch
		err   error
	}
	done := make(chan result, 1)
	go func() {
		b, err := safeCollect(probeCtx, c)
		done <- result{b, err}
	}()

	select {
	case r := <-done:
		return r.batch, r.err
	case <-probeCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w after %s", ErrProbeTimeout, s.cfg.ProbeTimeout)
	}
}

func (s *Scheduler) logFailure(ctx context.Context, l *Lane, err error) {
	fields := []zap.Field{
		zap.String("source", l.Name()),
		zap.Int("cooldown_ticks", s.cfg.CooldownTicks),
		zap.Error(err),
	}

	var panicErr *ProbePanicError
	if errors.As(err, &panicErr) {
		fields = append(fields,
			zap.String("panic_id", panicErr.ID),
			zap.ByteString("stack", panicErr.Stack))
	}

	// Probes interrupted by shutdown are expected.
	if ctx.Err() != nil {
		s.logger.Debug("Probe interrupted", fields...)
		return
	}
	s.logger.Error("Probe failed", fields...)
}

// safeCollect runs c.Collect, converting a panic into a ProbePanicError.
func safeCollect(ctx context.Context, c collector.Collector) (batch *models.Batch, err error) {
	defer func() {
		if r := recover(); r != nil {
			batch = nil
			err = &ProbePanicError{
				ID:     uuid.NewString(),
				Source: c.Name(),
				Value:  r,
				Stack:  debug.Stack(),
			}
		}
	}()
	return c.Collect(ctx)
}
