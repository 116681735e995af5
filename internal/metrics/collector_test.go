package metrics_test

import (
	"sync"
	"testing"

	"github.com/akshaymittal143/llmload/internal/metrics"
	"github.com/akshaymittal143/llmload/internal/result"
)

func TestCollectorLatencyStats(t *testing.T) {
	c := metrics.NewCollector(5)

	for i, ms := range []float64{10, 20, 30, 40, 50} {
		c.Observe(result.Success(i, ms, 0, 4, "m"))
	}

	snap := c.Snapshot()

	if snap.Completed != 5 {
		t.Errorf("expected 5 completed, got %d", snap.Completed)
	}
	if snap.Successes != 5 || snap.Failures != 0 {
		t.Errorf("expected 5/0 successes/failures, got %d/%d", snap.Successes, snap.Failures)
	}
	if snap.MinLatencyMs != 10 {
		t.Errorf("expected min 10ms, got %v", snap.MinLatencyMs)
	}
	if snap.MaxLatencyMs != 50 {
		t.Errorf("expected max 50ms, got %v", snap.MaxLatencyMs)
	}
	if snap.MeanLatencyMs != 30 {
		t.Errorf("expected mean 30ms, got %v", snap.MeanLatencyMs)
	}
	if snap.TotalTokens != 20 {
		t.Errorf("expected 20 tokens, got %d", snap.TotalTokens)
	}
	if snap.Expected != 5 {
		t.Errorf("expected outcome count 5, got %d", snap.Expected)
	}
}

func TestCollectorPercentilesApproximate(t *testing.T) {
	c := metrics.NewCollector(100)

	// 100 samples: 1ms, 2ms, ..., 100ms.
	for i := 1; i <= 100; i++ {
		c.Observe(result.Success(i-1, float64(i), 0, 1, "m"))
	}

	snap := c.Snapshot()

	if snap.P50LatencyMs < 49 || snap.P50LatencyMs > 51 {
		t.Errorf("expected P50 ~50ms, got %v", snap.P50LatencyMs)
	}
	if snap.P90LatencyMs < 89 || snap.P90LatencyMs > 91 {
		t.Errorf("expected P90 ~90ms, got %v", snap.P90LatencyMs)
	}
	if snap.P99LatencyMs < 98 || snap.P99LatencyMs > 100 {
		t.Errorf("expected P99 ~99ms, got %v", snap.P99LatencyMs)
	}
}

func TestCollectorErrorBreakdown(t *testing.T) {
	c := metrics.NewCollector(4)

	c.Observe(result.Success(0, 5, 0, 1, "m"))
	c.Observe(result.HTTPFailure(1, 5, 0, 500, "boom"))
	c.Observe(result.Failure(2, 5, 0, result.CauseTimeout, "deadline"))
	c.Observe(result.Failure(3, 5, 0, result.CauseTimeout, "deadline"))

	snap := c.Snapshot()

	if snap.Failures != 3 {
		t.Errorf("expected 3 failures, got %d", snap.Failures)
	}
	if snap.Errors[result.CauseApplication] != 1 {
		t.Errorf("expected 1 application error, got %d", snap.Errors[result.CauseApplication])
	}
	if snap.Errors[result.CauseTimeout] != 2 {
		t.Errorf("expected 2 timeouts, got %d", snap.Errors[result.CauseTimeout])
	}
}

func TestCollectorConcurrentObserve(t *testing.T) {
	c := metrics.NewCollector(1000)

	var wg sync.WaitGroup
	workers := 10
	perWorker := 100

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := w*perWorker + i
				if i%2 == 0 {
					c.Observe(result.Success(id, 10, 0, 1, "m"))
				} else {
					c.Observe(result.Failure(id, 10, 0, result.CauseTransport, "reset"))
				}
			}
		}(w)
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.Completed != int64(workers*perWorker) {
		t.Errorf("expected %d completed, got %d", workers*perWorker, snap.Completed)
	}
	if snap.Successes != snap.Failures {
		t.Errorf("expected even split, got %d/%d", snap.Successes, snap.Failures)
	}
}
