package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/lumen/engine"
)

// Phase names for one frame. The simulation phases are reported by the
// engine itself.
const (
	PhaseInput     = "input"
	PhaseIntegrate = engine.PhaseIntegrate
	PhaseRespawn   = engine.PhaseRespawn
	PhaseUpload    = engine.PhaseUpload
	PhaseDraw      = "draw"
	PhaseUI        = "ui"
)

// Phases lists every phase in frame order.
var Phases = []string{PhaseInput, PhaseIntegrate, PhaseRespawn, PhaseUpload, PhaseDraw, PhaseUI}

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks per-phase frame cost over a rolling window. It
// satisfies engine.PhaseTimer.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	current    map[string]time.Duration
	tickStart  time.Time
	phaseStart time.Time
	lastPhase  string

	// Wall-clock frame pacing (graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
		current:    make(map[string]time.Duration),
		now:        time.Now,
	}
}

// StartTick begins timing a new frame.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.current = make(map[string]time.Duration, len(Phases))
	p.lastPhase = ""
}

// StartPhase closes the running phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	p.lastPhase = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.lastPhase != "" {
		p.current[p.lastPhase] += now.Sub(p.phaseStart)
	}
}

// EndTick finishes the frame and records the sample.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.lastPhase = ""

	p.samples[p.writeIndex] = PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.current,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records wall-clock frame pacing.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Average duration and share of tick time per phase
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		stats.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.sampleCount == 0 {
		return stats
	}

	ticks := make([]float64, p.sampleCount)
	phaseSum := make(map[string]time.Duration)
	for i, s := range p.samples[:p.sampleCount] {
		ticks[i] = float64(s.TickDuration)
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}

	avg := time.Duration(stat.Mean(ticks, nil))
	stats.AvgTickDuration = avg
	stats.MinTickDuration = time.Duration(floats.Min(ticks))
	stats.MaxTickDuration = time.Duration(floats.Max(ticks))
	if avg > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(avg)
	}

	n := time.Duration(p.sampleCount)
	for phase, sum := range phaseSum {
		stats.PhaseAvg[phase] = sum / n
		if avg > 0 {
			stats.PhasePct[phase] = float64(sum/n) / float64(avg) * 100
		}
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	InputPct     float64 `csv:"input_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	RespawnPct   float64 `csv:"respawn_pct"`
	UploadPct    float64 `csv:"upload_pct"`
	DrawPct      float64 `csv:"draw_pct"`
	UIPct        float64 `csv:"ui_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		InputPct:     s.PhasePct[PhaseInput],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		RespawnPct:   s.PhasePct[PhaseRespawn],
		UploadPct:    s.PhasePct[PhaseUpload],
		DrawPct:      s.PhasePct[PhaseDraw],
		UIPct:        s.PhasePct[PhaseUI],
	}
}
