package runner_test

import (
	"context"
	"testing"

	"github.com/akshaymittal143/llmload/internal/runner"
)

func TestRunnerNormalizesDegenerateOptions(t *testing.T) {
	task := &fakeTask{}
	r := runner.New(runner.Options{
		TotalRequests: 5,
		Concurrency:   0, // raised to 1
		RatePerSecond: -3,
		Task:          task,
	})

	res := r.Run(context.Background())

	if len(res.Outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(res.Outcomes))
	}
	if peak := task.peak; peak > 1 {
		t.Errorf("expected serialized execution with concurrency 0->1, peak=%d", peak)
	}
}

func TestRunnerZeroRequests(t *testing.T) {
	r := runner.New(runner.Options{TotalRequests: 0, Task: &fakeTask{}})
	res := r.Run(context.Background())
	if len(res.Outcomes) != 0 {
		t.Errorf("expected empty outcome set, got %d", len(res.Outcomes))
	}
}
