package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/akshaymittal143/llmload/internal/result"
)

// Result captures a completed run: one outcome per dispatched request plus
// the wall-clock duration of the whole batch.
type Result struct {
	RunID    string
	Outcomes []result.Outcome
	Elapsed  time.Duration
}

// Runner coordinates bounded-concurrency execution of a fixed request count.
type Runner struct {
	opt Options
}

// New creates a Runner from options.
func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run dispatches exactly TotalRequests tasks through the admission limiter
// and blocks until every outcome is collected. The elapsed duration spans
// from before the first dispatch to after the last outcome lands; it is the
// denominator for throughput.
//
// Cancelling ctx does not drop outcomes: tasks that never reach the network
// yield cancellation-flavored Error outcomes, so len(Outcomes) always
// equals TotalRequests.
func (r *Runner) Run(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	total := r.opt.TotalRequests
	outcomes := make([]result.Outcome, total)
	pacer := r.opt.LimiterFactory(r.opt.RatePerSecond)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(total)
	for id := 0; id < total; id++ {
		go func(id int) {
			defer wg.Done()
			outcome := r.execute(ctx, pacer, id)
			outcomes[id] = outcome
			if r.opt.Observer != nil {
				r.opt.Observer.Observe(outcome)
			}
		}(id)
	}
	wg.Wait()

	return Result{
		RunID:    ulid.Make().String(),
		Outcomes: outcomes,
		Elapsed:  time.Since(start),
	}
}

// execute runs one task behind the pacer and the admission gate. Faults
// from the task machinery (panics, cancellation before dispatch) are
// converted into Error outcomes; they must never abort sibling requests.
func (r *Runner) execute(ctx context.Context, pacer *rate.Limiter, id int) (out result.Outcome) {
	start := time.Now()
	timestamp := float64(start.UnixNano()) / float64(time.Second)

	defer func() {
		if rec := recover(); rec != nil {
			out = result.Failure(id, sinceMs(start), timestamp, result.CauseApplication,
				fmt.Sprintf("task panic: %v", rec))
		}
	}()

	if err := pacer.Wait(ctx); err != nil {
		return result.Failure(id, sinceMs(start), timestamp, result.CauseCanceled,
			"run canceled before dispatch: "+err.Error())
	}
	if err := r.opt.Limiter.Acquire(ctx); err != nil {
		return result.Failure(id, sinceMs(start), timestamp, result.CauseCanceled,
			"run canceled awaiting admission: "+err.Error())
	}
	defer r.opt.Limiter.Release()

	return r.opt.Task.Run(ctx, id)
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
