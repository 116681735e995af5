package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/akshaymittal143/llmload/internal/config"
	"github.com/akshaymittal143/llmload/internal/curves"
	"github.com/akshaymittal143/llmload/internal/dashboard"
	"github.com/akshaymittal143/llmload/internal/httpclient"
	"github.com/akshaymittal143/llmload/internal/metrics"
	"github.com/akshaymittal143/llmload/internal/output"
	"github.com/akshaymittal143/llmload/internal/result"
	"github.com/akshaymittal143/llmload/internal/runner"
	"github.com/akshaymittal143/llmload/internal/sysmetrics"
	"github.com/akshaymittal143/llmload/internal/task"
	"github.com/akshaymittal143/llmload/internal/threshold"
	"github.com/akshaymittal143/llmload/internal/tracing"
)

const progressInterval = time.Second

// failureLogger mirrors failed outcomes to stderr before passing them on
// to the wrapped observer.
type failureLogger struct {
	mu   sync.Mutex
	next runner.Observer
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}

	if len(cfg.Compare) > 0 {
		return runCompare(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	client := httpclient.NewClient(cfg.Timeout, cfg.Concurrency)
	collector := metrics.NewCollector(cfg.TotalRequests)
	tsk := task.New(client, builder, provider)

	var observer runner.Observer = collector
	if cfg.LogErrors {
		observer = &failureLogger{next: observer}
	}

	r := runner.New(runner.Options{
		TotalRequests: cfg.TotalRequests,
		Concurrency:   cfg.Concurrency,
		RatePerSecond: cfg.Rate,
		Task:          tsk,
		Observer:      observer,
	})

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.Config{
			ServiceURL:    cfg.ServiceURL,
			Model:         cfg.Model,
			Configuration: cfg.Configuration,
			Total:         cfg.TotalRequests,
			Concurrency:   cfg.Concurrency,
			Rate:          float64(cfg.Rate),
			Timeout:       cfg.Timeout,
			ConfigFile:    cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		defer dash.Stop()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(collector, progressInterval, os.Stdout)
		progress.Start()
		defer func() {
			progress.Stop()
			fmt.Fprintln(os.Stdout)
		}()
	}

	// Mark the actual start time in the collector for accurate RPS
	// calculation. Reporters may have been created earlier.
	collector.Start()
	res := r.Run(ctx)

	summary := result.Aggregate(result.RunInfo{
		RunID:         res.RunID,
		Concurrency:   cfg.Concurrency,
		Configuration: cfg.Configuration,
	}, res.Outcomes, res.Elapsed)

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, summary); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, summary)
		output.PrintErrorBreakdown(os.Stdout, collector.Snapshot())
	}

	if cfg.Output != "" {
		if err := output.SaveSummary(cfg.Output, summary); err != nil {
			return fmt.Errorf("saving summary: %w", err)
		}
		if !cfg.JSONOutput {
			fmt.Fprintf(os.Stdout, "Summary saved to %s\n", cfg.Output)
		}
	}

	if cfg.MetricsOutput != "" {
		// Uses a fresh context: the run context may already be canceled
		// when the test was interrupted.
		if err := collectSystemMetrics(context.Background(), cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: system metrics collection failed: %v\n", err)
		}
	}

	if len(thresholds) > 0 {
		results := threshold.NewEvaluator(thresholds).Evaluate(summary)
		failed := 0
		for _, tr := range results {
			fmt.Fprintln(os.Stdout, tr.Message)
			if !tr.Pass {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d threshold(s) failed", failed)
		}
	}

	if summary.FailedRequests > 0 {
		return fmt.Errorf("%d requests failed", summary.FailedRequests)
	}
	return nil
}

// runCompare loads saved summaries and renders latency-vs-throughput
// curves instead of running a load test.
func runCompare(cfg *config.Config) error {
	if err := cfg.ValidateCompare(); err != nil {
		return err
	}

	summaries, err := curves.LoadSummaries(cfg.Compare)
	if err != nil {
		return err
	}

	series := curves.BuildSeries(summaries)
	if err := curves.Render(os.Stdout, series); err != nil {
		return err
	}

	if cfg.DataOutput != "" {
		data := curves.CurveData{
			Series:       series,
			Improvements: curves.ComputeImprovements(series),
		}
		if err := output.SaveJSON(cfg.DataOutput, data); err != nil {
			return fmt.Errorf("saving curve data: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Curve data saved to %s\n", cfg.DataOutput)
	}
	return nil
}

// collectSystemMetrics snapshots the environment around the run and writes
// the report next to the load test results.
func collectSystemMetrics(ctx context.Context, cfg *config.Config) error {
	collector := sysmetrics.NewCollector(cfg.Configuration)

	collectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	report := collector.Collect(collectCtx, cfg.ServiceURL)
	if err := output.SaveJSON(cfg.MetricsOutput, report); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "System metrics saved to %s\n", cfg.MetricsOutput)
	return nil
}

func (l *failureLogger) Observe(o result.Outcome) {
	if !o.Succeeded() {
		l.mu.Lock()
		fmt.Fprintf(os.Stderr, "[llmload] request %d failed (%s): %s\n", o.RequestID, o.Cause, o.ErrorMessage)
		l.mu.Unlock()
	}
	if l.next != nil {
		l.next.Observe(o)
	}
}
