package runner

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/akshaymittal143/llmload/internal/limiter"
	"github.com/akshaymittal143/llmload/internal/result"
)

// Task abstracts executing a single request operation. Implementations
// convert all failure modes into Error outcomes instead of returning faults.
type Task interface {
	Run(ctx context.Context, requestID int) result.Outcome
}

// Observer receives each outcome as it completes, for live reporting.
type Observer interface {
	Observe(result.Outcome)
}

// Options configure the Runner.
type Options struct {
	TotalRequests int              // total requests to execute (required, > 0)
	Concurrency   int              // admission gate capacity
	RatePerSecond int              // dispatch pacing (0 means unlimited)
	Task          Task             // request executor (required)
	Limiter       *limiter.Limiter // optional; built from Concurrency when nil
	Observer      Observer         // optional live metrics sink

	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.TotalRequests < 0 {
		o.TotalRequests = 0
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.Limiter == nil {
		o.Limiter = limiter.New(o.Concurrency)
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
