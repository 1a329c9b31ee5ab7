// Package models defines the metric data structures shared by the probes,
// the scheduler and the sink writer.
package models

import "time"

// Metric is a single named gauge reading.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Batch is the set of readings produced by one successful probe invocation.
// It behaves as an ordered map from metric name to value: the first Set of a
// name fixes its position, later Sets overwrite the value in place.
//
// A Batch is built by exactly one probe. Once it has been pushed onto the
// aggregation queue it must not be modified.
type Batch struct {
	Source      string    `json:"source"`
	CollectedAt time.Time `json:"collected_at"`

	metrics []Metric
	index   map[string]int
}

// NewBatch creates an empty batch for the named source.
func NewBatch(source string) *Batch {
	return &Batch{
		Source:      source,
		CollectedAt: time.Now().UTC(),
		index:       make(map[string]int),
	}
}

// Set records a value for name.
func (b *Batch) Set(name string, value float64) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[name]; ok {
		b.metrics[i].Value = value
		return
	}
	b.index[name] = len(b.metrics)
	b.metrics = append(b.metrics, Metric{Name: name, Value: value})
}

// Get returns the value recorded for name.
func (b *Batch) Get(name string) (float64, bool) {
	if b == nil {
		return 0, false
	}
	i, ok := b.index[name]
	if !ok {
		return 0, false
	}
	return b.metrics[i].Value, true
}

// Len returns the number of distinct metrics in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.metrics)
}

// Metrics returns a copy of the readings in insertion order.
func (b *Batch) Metrics() []Metric {
	if b == nil {
		return nil
	}
	out := make([]Metric, len(b.metrics))
	copy(out, b.metrics)
	return out
}

// SourceStatus is a point-in-time view of one scheduled source.
type SourceStatus struct {
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Busy        bool      `json:"busy"`
	Backoff     int       `json:"backoff_ticks"`
	Dispatched  uint64    `json:"dispatched"`
	Succeeded   uint64    `json:"succeeded"`
	Failed      uint64    `json:"failed"`
	Skipped     uint64    `json:"skipped"`
	LastError   string    `json:"last_error,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
}

// CollectorResult holds the output of a single out-of-band collector run.
type CollectorResult struct {
	Name  string
	Batch *Batch
	Error error
}
