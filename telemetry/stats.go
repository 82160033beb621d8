package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartFrame int32   `csv:"-"`
	WindowEndFrame   int32   `csv:"window_end"`
	ElapsedSec       float64 `csv:"elapsed"`

	// Frame timing over the window, in milliseconds
	Frames      int     `csv:"frames"`
	FPS         float64 `csv:"fps"`
	FrameMeanMS float64 `csv:"frame_mean_ms"`
	FrameStdMS  float64 `csv:"frame_std_ms"`
	FrameP10MS  float64 `csv:"frame_p10_ms"`
	FrameP50MS  float64 `csv:"frame_p50_ms"`
	FrameP90MS  float64 `csv:"frame_p90_ms"`

	// Field state at window end
	Particles int    `csv:"particles"`
	Quality   string `csv:"quality"`
	Tier      string `csv:"tier"`

	// Events during window
	Respawns       int `csv:"respawns"`
	Presses        int `csv:"presses"`
	QualityChanges int `csv:"quality_changes"`
	TierChanges    int `csv:"tier_changes"`
	Reseeds        int `csv:"reseeds"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeDistribution calculates the population mean, standard deviation
// and percentiles of values.
func ComputeDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartFrame)),
		slog.Int("window_end", int(s.WindowEndFrame)),
		slog.Float64("elapsed", s.ElapsedSec),
		slog.Int("frames", s.Frames),
		slog.Float64("fps", s.FPS),
		slog.Float64("frame_mean_ms", s.FrameMeanMS),
		slog.Float64("frame_std_ms", s.FrameStdMS),
		slog.Float64("frame_p10_ms", s.FrameP10MS),
		slog.Float64("frame_p50_ms", s.FrameP50MS),
		slog.Float64("frame_p90_ms", s.FrameP90MS),
		slog.Int("particles", s.Particles),
		slog.String("quality", s.Quality),
		slog.String("tier", s.Tier),
		slog.Int("respawns", s.Respawns),
		slog.Int("presses", s.Presses),
		slog.Int("quality_changes", s.QualityChanges),
		slog.Int("tier_changes", s.TierChanges),
		slog.Int("reseeds", s.Reseeds),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
