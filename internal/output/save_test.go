package output_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/akshaymittal143/llmload/internal/output"
	"github.com/akshaymittal143/llmload/internal/result"
)

func TestSaveSummaryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline-results.json")

	if err := output.SaveSummary(path, sampleSummary()); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var loaded result.Summary
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if loaded.TotalRequests != 10 || loaded.ThroughputRPS != 4.5 {
		t.Errorf("summary did not round-trip: %+v", loaded)
	}
	if loaded.LatencyStats == nil || loaded.LatencyStats.P99Ms != 100 {
		t.Errorf("latency stats did not round-trip: %+v", loaded.LatencyStats)
	}

	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Error("lock file should be removed after save")
	}
}

func TestSaveJSONArbitraryDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	doc := map[string]interface{}{"configuration": "optimized", "count": 3}

	if err := output.SaveJSON(path, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var loaded map[string]interface{}
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if loaded["configuration"] != "optimized" {
		t.Errorf("document did not round-trip: %v", loaded)
	}
}
