package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/akshaymittal143/llmload/internal/metrics"
	"github.com/akshaymittal143/llmload/internal/result"
)

// Config holds the run parameters shown in the summary panel.
type Config struct {
	ServiceURL    string
	Model         string
	Configuration string
	Total         int
	Concurrency   int
	Rate          float64
	Timeout       time.Duration
	ConfigFile    string
}

// Dashboard renders a live terminal UI while a load test runs.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	grid           *ui.Grid
	summaryPara    *widgets.Paragraph
	progressGauge  *widgets.Gauge
	metricsPara    *widgets.Paragraph
	latencySparkle *widgets.SparklineGroup
	latencyPara    *widgets.Paragraph
	errorList      *widgets.List
	latencyHistory []float64
	startTime      time.Time
	cfg            Config
}

// New creates a dashboard bound to the given collector. shutdownFunc is
// invoked when the user presses q or Ctrl-C.
func New(collector *metrics.Collector, cfg Config, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		collector:      collector,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		latencyHistory: make([]float64, 0, 100),
		startTime:      time.Now(),
		cfg:            cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Latency (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Real-time Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency Stats"
	d.latencyPara.Text = "Min: 0ms\nMean: 0ms\nP50: 0ms\nP90: 0ms\nP99: 0ms"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Progress"
	d.progressGauge.Percent = 0
	d.progressGauge.BarColor = ui.ColorBlue
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.errorList = widgets.NewList()
	d.errorList.Title = "Failures"
	d.errorList.Rows = []string{"No failures"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Metrics"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.20,
			ui.NewCol(0.5, d.progressGauge),
			ui.NewCol(0.5, d.metricsPara),
		),
		ui.NewRow(0.34,
			ui.NewCol(0.65, d.latencySparkle),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(1.0, d.errorList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := d.collector.Snapshot()
	elapsed := time.Since(d.startTime)

	if snap.MeanLatencyMs > 0 {
		d.latencyHistory = append(d.latencyHistory, snap.MeanLatencyMs)
		if len(d.latencyHistory) > 100 {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf(
			"Real-time Latency | Mean: %.2fms | Min: %.2fms | Max: %.2fms",
			snap.MeanLatencyMs,
			snap.MinLatencyMs,
			snap.MaxLatencyMs,
		)
	}

	d.progressGauge.Percent = completionPercent(snap)
	d.progressGauge.Label = fmt.Sprintf("%d/%d | %.1f RPS", snap.Completed, snap.Expected, snap.RequestsPerSec)

	successRate := 0.0
	if snap.Completed > 0 {
		successRate = float64(snap.Successes) / float64(snap.Completed) * 100
	}

	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s\n%s\nElapsed: %s | Completed: %d | Success Rate: %.1f%%",
		d.cfg.ServiceURL,
		formatRunParams(d.cfg),
		elapsed.Round(time.Second),
		snap.Completed,
		successRate,
	)

	d.metricsPara.Text = fmt.Sprintf(
		"Completed:        %d / %d\nSuccessful:       %d\nFailed:           %d\nCurrent RPS:      %.2f\nTokens Generated: %d\nMin Latency:      %.2fms\nMean Latency:     %.2fms\nP50/P90/P99:      %.2f / %.2f / %.2f ms",
		snap.Completed,
		snap.Expected,
		snap.Successes,
		snap.Failures,
		snap.RequestsPerSec,
		snap.TotalTokens,
		snap.MinLatencyMs,
		snap.MeanLatencyMs,
		snap.P50LatencyMs,
		snap.P90LatencyMs,
		snap.P99LatencyMs,
	)

	d.latencyPara.Text = fmt.Sprintf(
		"Min:  %.2fms\nMean: %.2fms\nP50:  %.2fms\nP90:  %.2fms\nP99:  %.2fms",
		snap.MinLatencyMs,
		snap.MeanLatencyMs,
		snap.P50LatencyMs,
		snap.P90LatencyMs,
		snap.P99LatencyMs,
	)

	d.errorList.Rows = formatErrorRows(snap.Errors)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

// completionPercent maps completed/expected onto a 0-100 gauge value.
func completionPercent(snap metrics.Snapshot) int {
	if snap.Expected <= 0 {
		return 0
	}
	percent := int(float64(snap.Completed) / float64(snap.Expected) * 100)
	if percent > 100 {
		percent = 100
	}
	return percent
}

// formatErrorRows renders the failure breakdown sorted by count, highest
// first, ties broken by cause name.
func formatErrorRows(errors map[result.Cause]int64) []string {
	if len(errors) == 0 {
		return []string{"[No failures](fg:green)"}
	}
	type row struct {
		cause result.Cause
		count int64
	}
	rows := make([]row, 0, len(errors))
	for cause, count := range errors {
		rows = append(rows, row{cause: cause, count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count == rows[j].count {
			return rows[i].cause < rows[j].cause
		}
		return rows[i].count > rows[j].count
	})
	formatted := make([]string, 0, len(rows))
	for _, r := range rows {
		formatted = append(formatted, fmt.Sprintf("[%s](fg:red) %d", strings.ToUpper(string(r.cause)), r.count))
	}
	return formatted
}

// formatRunParams formats the run configuration for the summary panel.
func formatRunParams(cfg Config) string {
	var parts []string

	if cfg.Model != "" {
		parts = append(parts, fmt.Sprintf("Model: %s", cfg.Model))
	}
	if cfg.Configuration != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", cfg.Configuration))
	}
	if cfg.Total > 0 {
		parts = append(parts, fmt.Sprintf("Requests: %d", cfg.Total))
	}
	if cfg.Concurrency > 0 {
		parts = append(parts, fmt.Sprintf("Workers: %d", cfg.Concurrency))
	}
	if cfg.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %.0f/s", cfg.Rate))
	} else {
		parts = append(parts, "Rate: unlimited")
	}
	if cfg.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", cfg.Timeout))
	}
	if cfg.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("File: %s", cfg.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
