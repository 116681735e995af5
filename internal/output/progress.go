package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/akshaymittal143/llmload/internal/metrics"
)

// ProgressReporter displays real-time progress updates on a single line.
type ProgressReporter struct {
	collector *metrics.Collector
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval.
func NewProgressReporter(collector *metrics.Collector, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			snap := p.collector.Snapshot()
			line := fmt.Sprintf("\rRequests: %d/%d | Success: %d | Fail: %d | RPS: %.1f",
				snap.Completed, snap.Expected, snap.Successes, snap.Failures, snap.RequestsPerSec)
			if snap.P99LatencyMs > 0 {
				line += fmt.Sprintf(" | P99: %.1fms", snap.P99LatencyMs)
			}
			fmt.Fprint(p.writer, line)
		case <-p.done:
			return
		}
	}
}
