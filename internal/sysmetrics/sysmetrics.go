// Package sysmetrics captures a snapshot of the environment around a load
// test run: Kubernetes pod resource usage, GPU utilization, storage I/O,
// and the target service's health endpoint.
package sysmetrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner executes an external command and returns its stdout.
// It exists so tests can substitute canned output for kubectl,
// nvidia-smi, and iostat.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PodMetrics is one row of `kubectl top pods`.
type PodMetrics struct {
	Pod    string `json:"pod"`
	CPU    string `json:"cpu"`
	Memory string `json:"memory"`
}

// GPUMetrics is one GPU's utilization as reported by nvidia-smi.
type GPUMetrics struct {
	GPUID         int     `json:"gpu_id"`
	Utilization   int     `json:"utilization"`
	MemoryUsed    int     `json:"memory_used"`
	MemoryTotal   int     `json:"memory_total"`
	MemoryPercent float64 `json:"memory_percent"`
}

// GPUSummary aggregates utilization across all visible GPUs.
type GPUSummary struct {
	AvgUtilization   float64 `json:"avg_gpu_utilization"`
	AvgMemoryPercent float64 `json:"avg_gpu_memory_usage"`
	MaxUtilization   int     `json:"max_gpu_utilization"`
	MaxMemoryPercent float64 `json:"max_gpu_memory_usage"`
}

// DeviceMetrics is one device row from `iostat -x`.
type DeviceMetrics struct {
	ReadsPerSec   float64 `json:"r_s"`
	WritesPerSec  float64 `json:"w_s"`
	ReadKBPerSec  float64 `json:"rkB_s"`
	WriteKBPerSec float64 `json:"wkB_s"`
	Utilization   float64 `json:"util"`
}

// HealthCheck records the target's /health response.
type HealthCheck struct {
	Status    string  `json:"status"`
	LatencyMs float64 `json:"latency_ms"`
}

// Report is the full environment snapshot written alongside a run summary.
type Report struct {
	Timestamp      string                   `json:"timestamp"`
	Configuration  string                   `json:"configuration"`
	PodMetrics     []PodMetrics             `json:"pod_metrics"`
	GPUMetrics     []GPUMetrics             `json:"gpu_metrics"`
	GPUSummary     *GPUSummary              `json:"gpu_summary,omitempty"`
	StorageMetrics map[string]DeviceMetrics `json:"storage_metrics"`
	HealthCheck    *HealthCheck             `json:"health_check,omitempty"`
}

// Collector gathers system metrics from its host and the target service.
type Collector struct {
	configuration string
	runner        CommandRunner
	httpClient    *http.Client
	now           func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

// WithRunner substitutes the command runner, used by tests.
func WithRunner(r CommandRunner) Option {
	return func(c *Collector) { c.runner = r }
}

// WithHTTPClient substitutes the health-check client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Collector) { c.httpClient = h }
}

// WithClock substitutes the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// NewCollector creates a collector labeled with the given configuration name.
func NewCollector(configuration string, opts ...Option) *Collector {
	c := &Collector{
		configuration: configuration,
		runner:        defaultRunner,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect gathers every available metric source. Sources that fail
// (missing binary, no GPUs, unreachable service) contribute empty
// sections rather than an error: a load test on a laptop still gets
// a usable report.
func (c *Collector) Collect(ctx context.Context, serviceURL string) Report {
	report := Report{
		Timestamp:      c.now().Format(time.RFC3339),
		Configuration:  c.configuration,
		PodMetrics:     c.collectPods(ctx),
		StorageMetrics: c.collectStorage(ctx),
	}

	report.GPUMetrics = c.collectGPUs(ctx)
	report.GPUSummary = summarizeGPUs(report.GPUMetrics)

	if serviceURL != "" {
		report.HealthCheck = c.checkHealth(ctx, serviceURL)
	}
	return report
}

func (c *Collector) collectPods(ctx context.Context) []PodMetrics {
	out, err := c.runner(ctx, "kubectl", "top", "pods",
		"-l", fmt.Sprintf("app=llm-%s", c.configuration),
		"--no-headers")
	if err != nil {
		return []PodMetrics{}
	}
	return parsePodMetrics(string(out))
}

func parsePodMetrics(out string) []PodMetrics {
	pods := []PodMetrics{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pods = append(pods, PodMetrics{
			Pod:    fields[0],
			CPU:    fields[1],
			Memory: fields[2],
		})
	}
	return pods
}

func (c *Collector) collectGPUs(ctx context.Context) []GPUMetrics {
	out, err := c.runner(ctx, "nvidia-smi",
		"--query-gpu=utilization.gpu,memory.used,memory.total",
		"--format=csv,noheader,nounits")
	if err != nil {
		return []GPUMetrics{}
	}
	return parseGPUMetrics(string(out))
}

func parseGPUMetrics(out string) []GPUMetrics {
	gpus := []GPUMetrics{}
	for i, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			continue
		}
		util, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		used, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		total, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil || err3 != nil || total == 0 {
			continue
		}
		gpus = append(gpus, GPUMetrics{
			GPUID:         i,
			Utilization:   util,
			MemoryUsed:    used,
			MemoryTotal:   total,
			MemoryPercent: float64(used) / float64(total) * 100,
		})
	}
	return gpus
}

func summarizeGPUs(gpus []GPUMetrics) *GPUSummary {
	if len(gpus) == 0 {
		return nil
	}
	s := &GPUSummary{}
	var utilSum, memSum float64
	for _, g := range gpus {
		utilSum += float64(g.Utilization)
		memSum += g.MemoryPercent
		if g.Utilization > s.MaxUtilization {
			s.MaxUtilization = g.Utilization
		}
		if g.MemoryPercent > s.MaxMemoryPercent {
			s.MaxMemoryPercent = g.MemoryPercent
		}
	}
	s.AvgUtilization = utilSum / float64(len(gpus))
	s.AvgMemoryPercent = memSum / float64(len(gpus))
	return s
}

func (c *Collector) collectStorage(ctx context.Context) map[string]DeviceMetrics {
	out, err := c.runner(ctx, "iostat", "-x", "1", "1")
	if err != nil {
		return map[string]DeviceMetrics{}
	}
	return parseStorageMetrics(string(out))
}

func parseStorageMetrics(out string) map[string]DeviceMetrics {
	devices := map[string]DeviceMetrics{}
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "nvme") && !strings.Contains(line, "sd") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 14 {
			continue
		}
		// iostat -x columns: Device r/s w/s rkB/s wkB/s ... %util (last).
		rs, err1 := strconv.ParseFloat(fields[1], 64)
		ws, err2 := strconv.ParseFloat(fields[2], 64)
		rkb, err3 := strconv.ParseFloat(fields[3], 64)
		wkb, err4 := strconv.ParseFloat(fields[4], 64)
		util, err5 := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		devices[fields[0]] = DeviceMetrics{
			ReadsPerSec:   rs,
			WritesPerSec:  ws,
			ReadKBPerSec:  rkb,
			WriteKBPerSec: wkb,
			Utilization:   util,
		}
	}
	return devices
}

func (c *Collector) checkHealth(ctx context.Context, serviceURL string) *HealthCheck {
	url := strings.TrimRight(serviceURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &HealthCheck{Status: "error"}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil {
		return &HealthCheck{Status: "error", LatencyMs: latency}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return &HealthCheck{
		Status:    strconv.Itoa(resp.StatusCode),
		LatencyMs: latency,
	}
}
