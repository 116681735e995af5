// Package threshold evaluates performance assertions against a completed
// run summary.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/akshaymittal143/llmload/internal/result"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "latency", "success_rate", "throughput", "failed"
	Aggregate string  // e.g., "p95", "p99", "mean", "rate", "rps", "count"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // the value to compare against
	Raw       string  // original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against a run summary.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks all thresholds against the provided summary.
func (e *Evaluator) Evaluate(s result.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, s))
	}
	return results
}

func evaluateOne(t Threshold, s result.Summary) Result {
	actual, err := extractMetricValue(t, s)
	if err != nil {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "PASS"
	if !pass {
		status = "FAIL"
	}
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
//   - "latency:p95 < 500"        (latency percentile in ms)
//   - "latency:mean < 200"       (mean latency in ms)
//   - "latency:max < 1000"       (max latency in ms)
//   - "success_rate:rate >= 0.99" (success rate as decimal)
//   - "failed:count < 10"        (failure count)
//   - "throughput:rps > 100"     (successful requests per second)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:aggregate operator value, e.g., 'latency:p95 < 500')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]

	value, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", matches[4], err)
	}

	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: latency, success_rate, failed, throughput)", metric)
	}
	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings, reporting every error.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	parsed := make([]Threshold, 0, len(thresholds))
	var errs []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		parsed = append(parsed, t)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}
	return parsed, nil
}

func isValidMetric(metric string) bool {
	switch metric {
	case "latency", "success_rate", "failed", "throughput":
		return true
	}
	return false
}

func isValidOperator(operator string) bool {
	switch operator {
	case "<", "<=", ">", ">=", "==":
		return true
	}
	return false
}

func extractMetricValue(t Threshold, s result.Summary) (float64, error) {
	switch t.Metric {
	case "latency":
		return extractLatencyMetric(t.Aggregate, s)
	case "success_rate":
		if t.Aggregate != "rate" {
			return 0, fmt.Errorf("unsupported aggregate %q for success_rate (use 'rate')", t.Aggregate)
		}
		return s.SuccessRate, nil
	case "failed":
		if t.Aggregate != "count" {
			return 0, fmt.Errorf("unsupported aggregate %q for failed (use 'count')", t.Aggregate)
		}
		return float64(s.FailedRequests), nil
	case "throughput":
		if t.Aggregate != "rps" {
			return 0, fmt.Errorf("unsupported aggregate %q for throughput (use 'rps')", t.Aggregate)
		}
		return s.ThroughputRPS, nil
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractLatencyMetric(aggregate string, s result.Summary) (float64, error) {
	ls := s.LatencyStats
	if ls == nil {
		return 0, fmt.Errorf("no latency statistics available (no successful requests)")
	}
	switch aggregate {
	case "mean", "avg":
		return ls.MeanMs, nil
	case "median", "p50":
		return ls.MedianMs, nil
	case "p95":
		return ls.P95Ms, nil
	case "p99":
		return ls.P99Ms, nil
	case "min":
		return ls.MinMs, nil
	case "max":
		return ls.MaxMs, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for latency", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Floating point comparison with a small epsilon.
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
