package telemetry

import (
	"math"
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{0.9, 0.1, 0.5, 0.3, 0.7, 0.2, 0.4, 0.6, 0.8, 1.0}
	d := ComputeDistribution(values)

	if math.Abs(d.Mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", d.Mean)
	}
	// Population std of 0.1..1.0
	if math.Abs(d.Std-0.2872) > 0.001 {
		t.Errorf("std = %v, want ~0.287", d.Std)
	}
	if math.Abs(d.P10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", d.P10)
	}
	if math.Abs(d.P50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", d.P50)
	}
	if math.Abs(d.P90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", d.P90)
	}
	if values[0] != 0.9 {
		t.Error("input slice was reordered")
	}
}

func TestComputeDistributionEmpty(t *testing.T) {
	if d := ComputeDistribution(nil); d != (Distribution{}) {
		t.Errorf("empty distribution = %+v, want zero", d)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(time.Second)

	for i := 0; i < 50; i++ {
		c.RecordFrame(20 * time.Millisecond)
	}
	c.RecordFrame(0)
	c.Record(NewRespawnEvent(10, 3))
	c.Record(NewRespawnEvent(11, 2))
	c.Record(NewPressEvent(12))
	c.Record(NewQualityChangeEvent(40, "high", "medium"))
	c.Record(NewReseedEvent(45, 7))

	if !c.ShouldFlush() {
		t.Fatal("window of 50 x 20ms should be full")
	}

	stats := c.Flush(50, FieldState{Particles: 500, Quality: "medium", Tier: "high"})
	if stats.Frames != 50 {
		t.Errorf("frames = %d, want 50", stats.Frames)
	}
	if math.Abs(stats.FPS-50) > 0.01 {
		t.Errorf("fps = %v, want 50", stats.FPS)
	}
	if math.Abs(stats.FrameMeanMS-20) > 0.001 || stats.FrameStdMS > 0.001 {
		t.Errorf("frame mean/std = %v/%v, want 20/0", stats.FrameMeanMS, stats.FrameStdMS)
	}
	if stats.Respawns != 5 || stats.Presses != 1 || stats.QualityChanges != 1 || stats.Reseeds != 1 {
		t.Errorf("event counts = %+v", stats)
	}
	if stats.Particles != 500 || stats.Quality != "medium" || stats.Tier != "high" {
		t.Errorf("field state = %+v", stats)
	}

	if c.ShouldFlush() {
		t.Error("flush did not reset the window")
	}
	next := c.Flush(60, FieldState{})
	if next.WindowStartFrame != 50 || next.Frames != 0 || next.Respawns != 0 {
		t.Errorf("second window = %+v", next)
	}
}

func TestEventTypeString(t *testing.T) {
	if EventTierChange.String() != "tier_change" {
		t.Errorf("EventTierChange = %q", EventTierChange.String())
	}
	if EventType(99).String() != "unknown" {
		t.Error("unknown event type should stringify as unknown")
	}
}
