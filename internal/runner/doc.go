// Package runner provides the load test execution engine for llmload.
//
// The runner dispatches exactly TotalRequests tasks, each gated by an
// admission limiter bounding simultaneous network calls, and collects one
// outcome per request id into a pre-allocated slice. Each index is written
// exactly once by exactly one task, so collection needs no synchronization
// beyond the final join barrier.
//
// # Basic Usage
//
//	r := runner.New(runner.Options{
//		TotalRequests: 100,
//		Concurrency:   20,
//		Task:          myTask,
//	})
//	res := r.Run(ctx)
//
// # Task Interface
//
// The [Task] interface defines what the runner executes:
//
//	type Task interface {
//		Run(ctx context.Context, requestID int) result.Outcome
//	}
//
// Tasks never return errors: every failure mode is converted into an Error
// outcome. The runner adds a second isolation layer, converting panics and
// cancellations into outcomes too, so the outcome set is always complete.
//
// # Pacing
//
// RatePerSecond optionally caps dispatch rate via golang.org/x/time/rate;
// zero means unlimited. The limiter factory can be injected for tests.
package runner
