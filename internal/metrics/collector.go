// Package metrics records in-flight run statistics for live reporting.
//
// The collector feeds the progress line and the dashboard while a run is
// active. Its histogram percentiles are approximate (three significant
// figures); the final summary is computed exactly from the raw outcome set
// by the result package.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/akshaymittal143/llmload/internal/result"
)

// Collector records per-outcome metrics in a thread-safe manner.
type Collector struct {
	mu            sync.Mutex
	hist          *hdrhistogram.Histogram
	expected      int
	successes     int64
	failures      int64
	tokens        int64
	minLatency    time.Duration
	maxLatency    time.Duration
	sumLatency    time.Duration
	errorsByCause map[result.Cause]int64
	start         time.Time
}

// Snapshot is a point-in-time view of a running test.
type Snapshot struct {
	Expected       int
	Completed      int64
	Successes      int64
	Failures       int64
	TotalTokens    int64
	MinLatencyMs   float64
	MaxLatencyMs   float64
	MeanLatencyMs  float64
	P50LatencyMs   float64
	P90LatencyMs   float64
	P99LatencyMs   float64
	RequestsPerSec float64
	Elapsed        time.Duration
	Errors         map[result.Cause]int64
}

// NewCollector creates a collector expecting the given number of outcomes.
func NewCollector(expected int) *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:          h,
		expected:      expected,
		errorsByCause: make(map[result.Cause]int64),
		start:         time.Now(),
	}
}

// Start marks the actual run start for elapsed/RPS computation. Reporters
// may be created before the first request is dispatched.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// Observe records a single outcome.
func (c *Collector) Observe(o result.Outcome) {
	latency := time.Duration(o.LatencyMs * float64(time.Millisecond))

	c.mu.Lock()
	defer c.mu.Unlock()

	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency

	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	if o.Succeeded() {
		c.successes++
		c.tokens += int64(o.TokensGenerated)
	} else {
		c.failures++
		cause := o.Cause
		if cause == "" {
			cause = result.CauseApplication
		}
		c.errorsByCause[cause]++
	}
}

// Snapshot computes current aggregated statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.start)
	total := c.successes + c.failures
	snap := Snapshot{
		Expected:     c.expected,
		Completed:    total,
		Successes:    c.successes,
		Failures:     c.failures,
		TotalTokens:  c.tokens,
		MinLatencyMs: float64(c.minLatency) / float64(time.Millisecond),
		MaxLatencyMs: float64(c.maxLatency) / float64(time.Millisecond),
		Elapsed:      elapsed,
	}

	if total > 0 {
		snap.MeanLatencyMs = float64(c.sumLatency) / float64(total) / float64(time.Millisecond)
	}
	if c.hist.TotalCount() > 0 {
		snap.P50LatencyMs = float64(c.hist.ValueAtQuantile(50)) / 1000
		snap.P90LatencyMs = float64(c.hist.ValueAtQuantile(90)) / 1000
		snap.P99LatencyMs = float64(c.hist.ValueAtQuantile(99)) / 1000
	}
	if elapsed > 0 && total > 0 {
		snap.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	if len(c.errorsByCause) > 0 {
		snap.Errors = make(map[result.Cause]int64, len(c.errorsByCause))
		for k, v := range c.errorsByCause {
			snap.Errors[k] = v
		}
	}
	return snap
}
