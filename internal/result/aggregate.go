package result

import (
	"math"
	"sort"
	"time"
)

// RunInfo carries run-level context into aggregation.
type RunInfo struct {
	RunID         string
	Concurrency   int
	Configuration string
}

// Aggregate reduces a complete outcome set into a Summary. It is a pure
// function of its inputs and never divides by zero: when no request
// succeeded, throughput is 0 and the stats blocks are omitted in favor of
// an explanatory Error field.
//
// Percentile convention: latencies are sorted ascending; the median is the
// mean of the two middle values for even sample sizes, and p95/p99 use the
// nearest-rank method (rank = ceil(p/100 * n), 1-based). For any sample of
// size >= 2 this guarantees p99 >= p95 >= median.
func Aggregate(info RunInfo, outcomes []Outcome, elapsed time.Duration) Summary {
	s := Summary{
		RunID:         info.RunID,
		TotalRequests: len(outcomes),
		Concurrency:   info.Concurrency,
		Configuration: info.Configuration,
	}
	if elapsed > 0 {
		s.TotalTimeSeconds = elapsed.Seconds()
	}

	var latencies []float64
	var totalTokens int
	for _, o := range outcomes {
		if o.Succeeded() {
			latencies = append(latencies, o.LatencyMs)
			totalTokens += o.TokensGenerated
		}
	}

	s.SuccessfulRequests = len(latencies)
	s.FailedRequests = s.TotalRequests - s.SuccessfulRequests
	if s.TotalRequests > 0 {
		s.SuccessRate = float64(s.SuccessfulRequests) / float64(s.TotalRequests)
	}

	if s.SuccessfulRequests == 0 {
		s.Error = "no successful requests"
		return s
	}

	if s.TotalTimeSeconds > 0 {
		s.ThroughputRPS = float64(s.SuccessfulRequests) / s.TotalTimeSeconds
	}

	sort.Float64s(latencies)
	s.LatencyStats = &LatencyStats{
		MeanMs:   mean(latencies),
		MedianMs: median(latencies),
		P95Ms:    percentileNearestRank(latencies, 95),
		P99Ms:    percentileNearestRank(latencies, 99),
		MinMs:    latencies[0],
		MaxMs:    latencies[len(latencies)-1],
	}
	s.TokensStats = &TokenStats{
		MeanTokens:  float64(totalTokens) / float64(s.SuccessfulRequests),
		TotalTokens: totalTokens,
	}
	return s
}

func mean(sorted []float64) float64 {
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}

// median averages the two middle values for even sample sizes.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentileNearestRank selects the value at rank ceil(p/100*n) in the
// sorted sample, without interpolation.
func percentileNearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	rank := int(math.Ceil(p / 100 * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}
