package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/lumen/engine"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// A nil manager accepts every call.
	if err := om.WritePerf(PerfStats{}, 1); err != nil {
		t.Error(err)
	}
	if err := om.WriteQuality(QualityRecord{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager has a dir")
	}
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := int32(1); i <= 3; i++ {
		if err := om.WritePerf(PerfStats{AvgTickDuration: time.Millisecond}, i*60); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("perf.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,avg_tick_us") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "window_end") != 1 {
		t.Error("header written more than once")
	}
}

func TestQualityRecordsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	tr := engine.QualityTransition{
		From:    engine.QualityHigh,
		To:      engine.QualityMedium,
		At:      3 * time.Second,
		Average: 25 * time.Millisecond,
	}
	if err := om.WriteQuality(NewQualityRecord(180, tr, 3)); err != nil {
		t.Fatal(err)
	}
	om.Close()

	f, err := os.Open(filepath.Join(dir, "quality.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := ReadQuality(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	r := records[0]
	if r.Frame != 180 || r.From != "high" || r.To != "medium" || r.AvgFrameMS != 25 || r.AtSec != 3 {
		t.Errorf("record = %+v", r)
	}
}
