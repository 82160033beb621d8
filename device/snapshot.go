// Package device probes the runtime environment and classifies it into a
// coarse performance tier with a recommended particle budget.
package device

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// Tier is a coarse performance classification.
type Tier uint8

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	}
	return fmt.Sprintf("Tier(%d)", uint8(t))
}

// ParseTier maps a config name to a tier.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(s) {
	case "low":
		return TierLow, nil
	case "medium":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	}
	return TierMedium, fmt.Errorf("unknown tier %q", s)
}

// BatteryState is the power-saving hint.
type BatteryState uint8

const (
	BatteryUnknown BatteryState = iota
	BatteryNormal
	BatterySaver
)

func (b BatteryState) String() string {
	switch b {
	case BatteryNormal:
		return "normal"
	case BatterySaver:
		return "saver"
	}
	return "unknown"
}

// ThermalState mirrors the platform thermal pressure levels.
type ThermalState uint8

const (
	ThermalUnknown ThermalState = iota
	ThermalNominal
	ThermalFair
	ThermalSerious
	ThermalCritical
)

func (s ThermalState) String() string {
	switch s {
	case ThermalNominal:
		return "nominal"
	case ThermalFair:
		return "fair"
	case ThermalSerious:
		return "serious"
	case ThermalCritical:
		return "critical"
	}
	return "unknown"
}

// Snapshot is an immutable read of environment signals. Zero values mean
// the signal was unavailable.
type Snapshot struct {
	Headless       bool
	CPUs           int
	MemoryGB       float64
	PixelRatio     float64
	MaxTouchPoints int
	ReducedMotion  bool
	Battery        BatteryState
	Renderer       string
	FrameBudget    time.Duration
	Platform       string
	Connection     string
	Thermal        ThermalState

	PerformanceScore float64
}

// BatterySaver reports whether the battery signal requested power saving.
func (s Snapshot) BatterySaver() bool {
	return s.Battery == BatterySaver
}

// score computes a 0-100 performance estimate averaged over the signals
// that are present.
func score(s Snapshot) float64 {
	if s.Headless {
		return 50
	}

	var total float64
	factors := 0

	if s.CPUs > 0 {
		total += math.Min(float64(s.CPUs)/8, 1) * 25
		factors++
	}
	if s.MemoryGB > 0 {
		total += math.Min(s.MemoryGB/8, 1) * 20
		factors++
	}
	if s.Renderer != "" {
		total += gpuScore(s.Renderer)
		factors++
	}
	if s.FrameBudget > 0 {
		ms := float64(s.FrameBudget) / float64(time.Millisecond)
		total += math.Max(0, 15-(ms-16.67)*0.5)
		factors++
	}
	if s.PixelRatio > 0 {
		total += math.Max(0, 5-(s.PixelRatio-1)*2)
		factors++
	}
	if s.Connection != "" {
		switch s.Connection {
		case "4g", "5g", "ethernet", "wifi":
			total += 5
		case "3g":
			total += 3
		case "2g", "slow-2g":
			total += 1
		}
		factors++
	}

	if s.BatterySaver() {
		total *= 0.7
	}
	switch s.Thermal {
	case ThermalCritical:
		total *= 0.5
	case ThermalSerious:
		total *= 0.7
	}

	if factors == 0 {
		return 50
	}
	return math.Min(total/float64(factors), 100)
}

// gpuScore ranks a renderer string by vendor and product family.
func gpuScore(renderer string) float64 {
	r := strings.ToLower(renderer)
	switch {
	case strings.Contains(r, "nvidia") || strings.Contains(r, "amd") || strings.Contains(r, "radeon"):
		switch {
		case strings.Contains(r, "rtx") || strings.Contains(r, "rx 6") || strings.Contains(r, "rx 7"):
			return 30
		case strings.Contains(r, "gtx") || strings.Contains(r, "rx 5"):
			return 20
		}
		return 15
	case strings.Contains(r, "intel"):
		if strings.Contains(r, "iris") || strings.Contains(r, "xe") {
			return 18
		}
		return 10
	case strings.Contains(r, "apple") || strings.Contains(r, "m1") || strings.Contains(r, "m2"):
		return 25
	}
	return 12
}

// Describe renders a one-line debug summary of a snapshot.
func Describe(s Snapshot) string {
	unknown := func(ok bool, v string) string {
		if !ok {
			return "unknown"
		}
		return v
	}
	renderer := "unavailable"
	if s.Renderer != "" {
		renderer = s.Renderer
		if len(renderer) > 30 {
			renderer = renderer[:30] + "..."
		}
	}
	frame := "unmeasured"
	if s.FrameBudget > 0 {
		frame = fmt.Sprintf("%.1fms", float64(s.FrameBudget)/float64(time.Millisecond))
	}
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}

	parts := []string{
		"Headless: " + yesNo(s.Headless),
		"CPU Cores: " + unknown(s.CPUs > 0, fmt.Sprint(s.CPUs)),
		"Memory: " + unknown(s.MemoryGB > 0, fmt.Sprintf("%.0fGB", s.MemoryGB)),
		"DPR: " + unknown(s.PixelRatio > 0, fmt.Sprint(s.PixelRatio)),
		fmt.Sprintf("Touch: %d", s.MaxTouchPoints),
		"Reduced Motion: " + yesNo(s.ReducedMotion),
		"Battery: " + s.Battery.String(),
		"GPU: " + renderer,
		"Frame Budget: " + frame,
		"Connection: " + unknown(s.Connection != "", s.Connection),
		"Thermal: " + s.Thermal.String(),
		fmt.Sprintf("Score: %.1f", s.PerformanceScore),
	}
	return "[device] " + strings.Join(parts, " | ")
}

// LogValue implements slog.LogValuer.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("headless", s.Headless),
		slog.Int("cpus", s.CPUs),
		slog.Float64("memory_gb", s.MemoryGB),
		slog.Float64("pixel_ratio", s.PixelRatio),
		slog.Int("touch_points", s.MaxTouchPoints),
		slog.Bool("reduced_motion", s.ReducedMotion),
		slog.String("battery", s.Battery.String()),
		slog.String("renderer", s.Renderer),
		slog.Duration("frame_budget", s.FrameBudget),
		slog.String("thermal", s.Thermal.String()),
		slog.Float64("score", s.PerformanceScore),
	)
}
