// Package curves compares saved run summaries and renders
// latency-vs-throughput performance curves.
package curves

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/guptarohit/asciigraph"

	"github.com/akshaymittal143/llmload/internal/result"
)

// Point is a single measurement on a performance curve.
type Point struct {
	ThroughputRPS float64 `json:"throughput_rps"`
	LatencyMs     float64 `json:"latency_ms"`
	Concurrency   int     `json:"concurrency"`
}

// Series groups the points of one configuration, ordered by throughput.
type Series struct {
	Configuration string  `json:"configuration"`
	Points        []Point `json:"points"`
}

// Improvements quantifies the gap between the slowest and fastest series.
type Improvements struct {
	BaselineConfiguration  string  `json:"baseline_configuration"`
	OptimizedConfiguration string  `json:"optimized_configuration"`
	ThroughputImprovement  float64 `json:"throughput_improvement"`
	LatencyImprovement     float64 `json:"latency_improvement"`
	MaxBaselineThroughput  float64 `json:"max_baseline_throughput"`
	MaxOptimizedThroughput float64 `json:"max_optimized_throughput"`
	MinBaselineLatencyMs   float64 `json:"min_baseline_latency_ms"`
	MinOptimizedLatencyMs  float64 `json:"min_optimized_latency_ms"`
}

// CurveData is the JSON document written by --data-output.
type CurveData struct {
	Series       []Series      `json:"series"`
	Improvements *Improvements `json:"improvements,omitempty"`
}

// LoadSummaries reads previously saved run summaries from disk.
func LoadSummaries(paths []string) ([]result.Summary, error) {
	summaries := make([]result.Summary, 0, len(paths))
	for _, path := range paths {
		s, err := loadSummary(path)
		if err != nil {
			return nil, fmt.Errorf("loading summary %s: %w", path, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func loadSummary(path string) (result.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return result.Summary{}, err
	}
	var s result.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return result.Summary{}, fmt.Errorf("parsing JSON: %w", err)
	}
	if s.TotalRequests == 0 {
		return result.Summary{}, fmt.Errorf("not a run summary (total_requests is 0)")
	}
	return s, nil
}

// BuildSeries groups summaries by configuration name into curves.
// Summaries without latency stats are skipped; they carry no point.
func BuildSeries(summaries []result.Summary) []Series {
	byConfig := make(map[string][]Point)
	var order []string
	for _, s := range summaries {
		if s.LatencyStats == nil {
			continue
		}
		name := s.Configuration
		if name == "" {
			name = "default"
		}
		if _, seen := byConfig[name]; !seen {
			order = append(order, name)
		}
		byConfig[name] = append(byConfig[name], Point{
			ThroughputRPS: s.ThroughputRPS,
			LatencyMs:     s.LatencyStats.MeanMs,
			Concurrency:   s.Concurrency,
		})
	}

	series := make([]Series, 0, len(order))
	for _, name := range order {
		points := byConfig[name]
		sort.Slice(points, func(i, j int) bool {
			return points[i].ThroughputRPS < points[j].ThroughputRPS
		})
		series = append(series, Series{Configuration: name, Points: points})
	}
	return series
}

// ComputeImprovements compares the first series (baseline) against the one
// with the highest peak throughput. Returns nil when fewer than two series
// exist or a series has no points.
func ComputeImprovements(series []Series) *Improvements {
	if len(series) < 2 {
		return nil
	}
	baseline := series[0]
	optimized := series[1]
	for _, s := range series[1:] {
		if maxThroughput(s) > maxThroughput(optimized) {
			optimized = s
		}
	}
	if len(baseline.Points) == 0 || len(optimized.Points) == 0 {
		return nil
	}

	maxBase := maxThroughput(baseline)
	maxOpt := maxThroughput(optimized)
	minBase := minLatency(baseline)
	minOpt := minLatency(optimized)

	imp := &Improvements{
		BaselineConfiguration:  baseline.Configuration,
		OptimizedConfiguration: optimized.Configuration,
		MaxBaselineThroughput:  maxBase,
		MaxOptimizedThroughput: maxOpt,
		MinBaselineLatencyMs:   minBase,
		MinOptimizedLatencyMs:  minOpt,
	}
	if maxBase > 0 {
		imp.ThroughputImprovement = maxOpt / maxBase
	}
	if minOpt > 0 {
		imp.LatencyImprovement = minBase / minOpt
	}
	return imp
}

func maxThroughput(s Series) float64 {
	var max float64
	for _, p := range s.Points {
		if p.ThroughputRPS > max {
			max = p.ThroughputRPS
		}
	}
	return max
}

func minLatency(s Series) float64 {
	min := -1.0
	for _, p := range s.Points {
		if min < 0 || p.LatencyMs < min {
			min = p.LatencyMs
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

// Render writes an ASCII latency-vs-throughput chart plus a textual
// improvement summary to w.
func Render(w io.Writer, series []Series) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to render")
	}

	maxLen := 0
	for _, s := range series {
		if len(s.Points) > maxLen {
			maxLen = len(s.Points)
		}
	}
	if maxLen == 0 {
		return fmt.Errorf("no data points to render")
	}

	data := make([][]float64, len(series))
	for i, s := range series {
		// Pad shorter series so PlotMany aligns them.
		row := make([]float64, maxLen)
		for j := range row {
			if j < len(s.Points) {
				row[j] = s.Points[j].LatencyMs
			} else {
				row[j] = s.Points[len(s.Points)-1].LatencyMs
			}
		}
		data[i] = row
	}

	colors := seriesColors(len(series))
	graph := asciigraph.PlotMany(data,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption("Mean latency (ms) by load point, per configuration"),
		asciigraph.SeriesColors(colors...),
	)
	fmt.Fprintln(w, graph)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Configurations ===")
	for i, s := range series {
		fmt.Fprintf(w, "  [%d] %s: %d point(s), peak throughput %.1f req/s, best latency %.1f ms\n",
			i+1, s.Configuration, len(s.Points), maxThroughput(s), minLatency(s))
	}

	if imp := ComputeImprovements(series); imp != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Performance Improvements ===")
		fmt.Fprintf(w, "  %s vs %s\n", imp.OptimizedConfiguration, imp.BaselineConfiguration)
		fmt.Fprintf(w, "  Throughput: %.1f -> %.1f req/s (%.1fx)\n",
			imp.MaxBaselineThroughput, imp.MaxOptimizedThroughput, imp.ThroughputImprovement)
		fmt.Fprintf(w, "  Latency: %.1f -> %.1f ms (%.1fx)\n",
			imp.MinBaselineLatencyMs, imp.MinOptimizedLatencyMs, imp.LatencyImprovement)
	}
	return nil
}

func seriesColors(n int) []asciigraph.AnsiColor {
	palette := []asciigraph.AnsiColor{
		asciigraph.Red,
		asciigraph.Blue,
		asciigraph.Green,
		asciigraph.Yellow,
		asciigraph.Cyan,
		asciigraph.Magenta,
	}
	colors := make([]asciigraph.AnsiColor, n)
	for i := range colors {
		colors[i] = palette[i%len(palette)]
	}
	return colors
}
