package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestWriteReportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := WriteReport(path, samplePhases()); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var records []PhaseRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(records) != 2 || records[0].Concurrency != 1 || records[1].Concurrency != 4 {
		t.Fatalf("unexpected records: %+v", records)
	}
	if !strings.Contains(string(data), `"p95_latency_s": null`) {
		t.Errorf("expected null p95 in:\n%s", data)
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock file should be removed, stat err = %v", err)
	}
}

func TestWriteReportYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	if err := WriteReport(path, samplePhases()); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var records []PhaseRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].MedianLatencyS == nil || *records[0].MedianLatencyS != 0.812 {
		t.Errorf("median = %v, want 0.812", records[0].MedianLatencyS)
	}
	if records[1].MedianLatencyS != nil {
		t.Errorf("expected nil median, got %v", *records[1].MedianLatencyS)
	}
}

func TestWriteReportMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "results.json")
	if err := WriteReport(path, samplePhases()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
