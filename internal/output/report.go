// Package output renders run summaries and live progress.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/akshaymittal143/llmload/internal/metrics"
	"github.com/akshaymittal143/llmload/internal/result"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, s result.Summary) {
	fmt.Fprintln(w, "\n=== Load Test Results ===")
	if s.RunID != "" {
		fmt.Fprintf(w, "Run ID:            %s\n", s.RunID)
	}
	if s.Configuration != "" {
		fmt.Fprintf(w, "Configuration:     %s\n", s.Configuration)
	}
	fmt.Fprintf(w, "Total Requests:    %d\n", s.TotalRequests)
	fmt.Fprintf(w, "Successful:        %d\n", s.SuccessfulRequests)
	fmt.Fprintf(w, "Failed:            %d\n", s.FailedRequests)
	fmt.Fprintf(w, "Success Rate:      %.2f%%\n", s.SuccessRate*100)
	fmt.Fprintf(w, "Concurrency:       %d\n", s.Concurrency)
	fmt.Fprintf(w, "Duration:          %.2fs\n", s.TotalTimeSeconds)
	fmt.Fprintf(w, "Throughput:        %.2f requests/sec\n", s.ThroughputRPS)

	if s.LatencyStats != nil {
		ls := s.LatencyStats
		fmt.Fprintln(w, "\nLatency:")
		fmt.Fprintf(w, "  Min:             %.2f ms\n", ls.MinMs)
		fmt.Fprintf(w, "  Max:             %.2f ms\n", ls.MaxMs)
		fmt.Fprintf(w, "  Mean:            %.2f ms\n", ls.MeanMs)
		fmt.Fprintf(w, "  Median:          %.2f ms\n", ls.MedianMs)
		fmt.Fprintf(w, "  P95:             %.2f ms\n", ls.P95Ms)
		fmt.Fprintf(w, "  P99:             %.2f ms\n", ls.P99Ms)
	}
	if s.TokensStats != nil {
		ts := s.TokensStats
		fmt.Fprintln(w, "\nTokens:")
		fmt.Fprintf(w, "  Mean per resp:   %.1f\n", ts.MeanTokens)
		fmt.Fprintf(w, "  Total:           %d\n", ts.TotalTokens)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "\nNote: %s\n", s.Error)
	}
}

// PrintJSONReport outputs the summary as indented JSON.
func PrintJSONReport(w io.Writer, s result.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// PrintErrorBreakdown lists failure causes from a live snapshot, sorted by
// descending count.
func PrintErrorBreakdown(w io.Writer, snap metrics.Snapshot) {
	if len(snap.Errors) == 0 {
		return
	}
	type row struct {
		cause result.Cause
		count int64
	}
	rows := make([]row, 0, len(snap.Errors))
	for cause, count := range snap.Errors {
		rows = append(rows, row{cause, count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count == rows[j].count {
			return rows[i].cause < rows[j].cause
		}
		return rows[i].count > rows[j].count
	})

	fmt.Fprintln(w, "\nError Breakdown:")
	for _, r := range rows {
		fmt.Fprintf(w, "  %-12s %d\n", r.cause+":", r.count)
	}
}
