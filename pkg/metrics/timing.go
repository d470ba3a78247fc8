// Package metrics provides lightweight instrumentation for tavla.
//
// Timings cover the engine hot paths (derive, reconcile, allocate) and the
// I/O edges (feed loads, store writes). Counters track events that are
// otherwise swallowed, such as failed persistence writes. Collection is
// enabled by default and disabled with TAVLA_METRICS=0.
//
//	func allocate() {
//	    defer metrics.Timer(metrics.Allocate)()
//	}
package metrics

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"text/tabwriter"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TAVLA_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric tracks timing statistics for a named operation.
type TimingMetric struct {
	name    string
	count   atomic.Int64
	totalNs atomic.Int64
	maxNs   atomic.Int64
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record records a single measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.totalNs.Add(ns)
	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Stats returns a snapshot of the metric.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := m.totalNs.Load()
	var avg int64
	if count > 0 {
		avg = total / count
	}
	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(total) / 1e6,
		AvgMs:   float64(avg) / 1e6,
		MaxMs:   float64(m.maxNs.Load()) / 1e6,
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
}

// Counter counts occurrences of an event.
type Counter struct {
	name string
	n    atomic.Int64
}

// Inc increments the counter.
func (c *Counter) Inc() {
	if Enabled() {
		c.n.Add(1)
	}
}

// Value returns the current count.
func (c *Counter) Value() int64 { return c.n.Load() }

// Name returns the counter name.
func (c *Counter) Name() string { return c.name }

// Timer returns a function that records elapsed time when called.
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Engine and I/O metrics.
var (
	Derive     = newTimingMetric("derive")
	Reconcile  = newTimingMetric("reconcile")
	Allocate   = newTimingMetric("allocate")
	FeedLoad   = newTimingMetric("feed_load")
	StoreWrite = newTimingMetric("store_write")

	StoreWriteFailures = &Counter{name: "store_write_failures"}
	MalformedState     = &Counter{name: "malformed_state"}
)

// AllTimingMetrics returns all registered timing metrics.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{Derive, Reconcile, Allocate, FeedLoad, StoreWrite}
}

// AllCounters returns all registered counters.
func AllCounters() []*Counter {
	return []*Counter{StoreWriteFailures, MalformedState}
}

// ResetAll resets every metric and counter.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	for _, c := range AllCounters() {
		c.n.Store(0)
	}
}

// WriteSummary prints a table of all metrics that recorded data.
func WriteSummary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tCOUNT\tAVG(ms)\tMAX(ms)")
	for _, m := range AllTimingMetrics() {
		if m.Count() == 0 {
			continue
		}
		s := m.Stats()
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\n", s.Name, s.Count, s.AvgMs, s.MaxMs)
	}
	for _, c := range AllCounters() {
		if c.Value() == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t-\t-\n", c.Name(), c.Value())
	}
	return tw.Flush()
}
