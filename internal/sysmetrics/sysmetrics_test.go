package sysmetrics

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
}

func fakeRunner(outputs map[string]string) CommandRunner {
	return func(_ context.Context, name string, _ ...string) ([]byte, error) {
		out, ok := outputs[name]
		if !ok {
			return nil, fmt.Errorf("%s: command not found", name)
		}
		return []byte(out), nil
	}
}

func TestCollectPods(t *testing.T) {
	runner := fakeRunner(map[string]string{
		"kubectl": "llm-optimized-abc123   1200m   8192Mi\nllm-optimized-def456   950m    7168Mi\n",
	})
	c := NewCollector("optimized", WithRunner(runner), WithClock(fixedClock))

	report := c.Collect(context.Background(), "")
	if len(report.PodMetrics) != 2 {
		t.Fatalf("expected 2 pods, got %d", len(report.PodMetrics))
	}
	if report.PodMetrics[0].Pod != "llm-optimized-abc123" || report.PodMetrics[0].CPU != "1200m" || report.PodMetrics[0].Memory != "8192Mi" {
		t.Errorf("unexpected first pod: %+v", report.PodMetrics[0])
	}
	if report.Timestamp != "2025-03-14T12:00:00Z" {
		t.Errorf("unexpected timestamp: %s", report.Timestamp)
	}
	if report.Configuration != "optimized" {
		t.Errorf("unexpected configuration: %s", report.Configuration)
	}
}

func TestCollectGPUs(t *testing.T) {
	runner := fakeRunner(map[string]string{
		"nvidia-smi": "85, 60000, 80000\n90, 40000, 80000\n",
	})
	c := NewCollector("baseline", WithRunner(runner))

	report := c.Collect(context.Background(), "")
	if len(report.GPUMetrics) != 2 {
		t.Fatalf("expected 2 GPUs, got %d", len(report.GPUMetrics))
	}
	g := report.GPUMetrics[0]
	if g.GPUID != 0 || g.Utilization != 85 || g.MemoryUsed != 60000 || g.MemoryTotal != 80000 {
		t.Errorf("unexpected gpu 0: %+v", g)
	}
	if math.Abs(g.MemoryPercent-75) > 1e-9 {
		t.Errorf("memory percent = %v, want 75", g.MemoryPercent)
	}

	s := report.GPUSummary
	if s == nil {
		t.Fatal("expected GPU summary")
	}
	if math.Abs(s.AvgUtilization-87.5) > 1e-9 {
		t.Errorf("avg utilization = %v, want 87.5", s.AvgUtilization)
	}
	if s.MaxUtilization != 90 {
		t.Errorf("max utilization = %v, want 90", s.MaxUtilization)
	}
	if math.Abs(s.AvgMemoryPercent-62.5) > 1e-9 {
		t.Errorf("avg memory = %v, want 62.5", s.AvgMemoryPercent)
	}
	if math.Abs(s.MaxMemoryPercent-75) > 1e-9 {
		t.Errorf("max memory = %v, want 75", s.MaxMemoryPercent)
	}
}

func TestCollectStorage(t *testing.T) {
	iostat := `Linux 6.8.0 (host)  03/14/25  _x86_64_  (16 CPU)

avg-cpu:  %user   %nice %system %iowait  %steal   %idle
           5.00    0.00    2.00    1.00    0.00   92.00

Device   r/s     w/s     rkB/s    wkB/s   rrqm/s  wrqm/s  %rrqm  %wrqm  r_await  w_await  aqu-sz  rareq-sz  wareq-sz  svctm  %util
nvme0n1  120.50  30.25   5120.00  880.00  0.00    1.20    0.00   3.81   0.35     0.80     0.10    42.49     29.09     0.05   12.40
loop0    0.01    0.00    0.05     0.00    0.00    0.00    0.00   0.00   0.10     0.00     0.00    5.00      0.00      0.01   0.00
`
	runner := fakeRunner(map[string]string{"iostat": iostat})
	c := NewCollector("baseline", WithRunner(runner))

	report := c.Collect(context.Background(), "")
	dev, ok := report.StorageMetrics["nvme0n1"]
	if !ok {
		t.Fatalf("nvme0n1 missing from storage metrics: %+v", report.StorageMetrics)
	}
	if dev.ReadsPerSec != 120.5 || dev.WritesPerSec != 30.25 {
		t.Errorf("unexpected rates: %+v", dev)
	}
	if dev.Utilization != 12.4 {
		t.Errorf("utilization = %v, want 12.4", dev.Utilization)
	}
	if _, ok := report.StorageMetrics["loop0"]; ok {
		t.Error("loop devices should be excluded")
	}
}

func TestCollectCommandsUnavailable(t *testing.T) {
	c := NewCollector("baseline", WithRunner(fakeRunner(nil)))

	report := c.Collect(context.Background(), "")
	if report.PodMetrics == nil || len(report.PodMetrics) != 0 {
		t.Errorf("expected empty pod metrics, got %v", report.PodMetrics)
	}
	if len(report.GPUMetrics) != 0 || report.GPUSummary != nil {
		t.Errorf("expected no GPU data, got %v / %v", report.GPUMetrics, report.GPUSummary)
	}
	if report.StorageMetrics == nil || len(report.StorageMetrics) != 0 {
		t.Errorf("expected empty storage metrics, got %v", report.StorageMetrics)
	}
	if report.HealthCheck != nil {
		t.Error("health check should be nil without a service URL")
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewCollector("baseline", WithRunner(fakeRunner(nil)), WithHTTPClient(srv.Client()))
	report := c.Collect(context.Background(), srv.URL)

	hc := report.HealthCheck
	if hc == nil {
		t.Fatal("expected health check")
	}
	if hc.Status != "200" {
		t.Errorf("status = %s, want 200", hc.Status)
	}
	if hc.LatencyMs <= 0 {
		t.Errorf("latency should be positive, got %v", hc.LatencyMs)
	}
}

func TestHealthCheckUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewCollector("baseline", WithRunner(fakeRunner(nil)))
	report := c.Collect(context.Background(), srv.URL)

	if report.HealthCheck == nil || report.HealthCheck.Status != "error" {
		t.Errorf("expected error health check, got %+v", report.HealthCheck)
	}
}
