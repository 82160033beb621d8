// Package viewer wires the particle engine, its render loop and telemetry
// into a raylib window or a headless run.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/lumen/camera"
	"github.com/pthm-cable/lumen/config"
	"github.com/pthm-cable/lumen/device"
	"github.com/pthm-cable/lumen/engine"
	"github.com/pthm-cable/lumen/host"
	"github.com/pthm-cable/lumen/interaction"
	"github.com/pthm-cable/lumen/renderer"
	"github.com/pthm-cable/lumen/telemetry"
	"github.com/pthm-cable/lumen/ui"
)

// DefaultStep is the simulated frame time of a headless run.
const DefaultStep = time.Second / 60

// Options holds runtime settings that are not part of the config file.
type Options struct {
	// Count overrides the tier's particle count when positive.
	Count       int
	LogStats    bool
	SnapshotDir string
	OutputDir   string
	Headless    bool
	// Step is the simulated frame time when headless.
	Step time.Duration
	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Viewer owns one host, the engine it drives and everything that observes
// them. All methods run on the loop goroutine.
type Viewer struct {
	cfg  *config.Config
	opts Options

	loop    *host.FrameLoop
	host    *host.Host
	eng     *engine.Engine
	cam     *camera.Camera
	backend engine.Backend
	points  *renderer.Backend
	// pipeline belongs to the engine currently owned by the host.
	pipeline *renderer.PointPipeline
	surface  *RaylibSurface
	unsub    func()

	background *renderer.BackgroundRenderer
	hud        *ui.HUD
	perfPanel  *ui.PerfPanel
	tuning     *ui.TuningPanel

	tier    device.Tier
	prober  *device.Prober
	sampler *device.FrameSampler
	probeCh chan device.DetectionResult
	cancel  context.CancelFunc

	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager

	seed        int64
	clock       time.Time
	frame       int32
	respawns    int
	lastGesture interaction.Gesture
	needsFrame  bool
	paused      bool
	fallback    bool
	showPerf    bool
	disposed    bool

	screenWidth, screenHeight float32
	pixelRatio                float32
}

// New builds a viewer. In graphical mode the raylib window must already be
// open. A failing particle pipeline is not an error: the viewer falls back
// to drawing the background alone.
func New(cfg *config.Config, opts Options) (*Viewer, error) {
	if cfg == nil {
		return nil, errors.New("viewer: nil config")
	}
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}

	v := &Viewer{
		cfg:          cfg,
		opts:         opts,
		loop:         host.NewFrameLoop(),
		seed:         cfg.Engine.Seed,
		clock:        time.Unix(0, 0),
		needsFrame:   true,
		screenWidth:  cfg.Derived.ScreenW32,
		screenHeight: cfg.Derived.ScreenH32,
		pixelRatio:   1,
	}

	v.sampler = device.NewFrameSampler(max(cfg.Device.SampleFrames, 1) * 2)
	env := cfg.SystemEnvironment(opts.Headless)
	if !opts.Headless {
		v.initWindowState(env)
	} else {
		v.backend = engine.NullBackend{}
	}
	v.prober = cfg.Prober(env, v.sampler)

	detected := v.prober.DetectSync()
	v.tier = detected.Tier
	if cfg.Derived.HasForcedTier {
		v.tier = cfg.Derived.ForcedTier
	}
	slog.Info("device detected", "result", detected, "tier", v.tier.String())

	v.initTelemetry()

	eng, err := v.newEngine(v.tier)
	if err != nil {
		if opts.Headless {
			v.closeTelemetry()
			return nil, err
		}
		slog.Error("particle engine unavailable, showing background only", "error", err)
		v.fallback = true
	}
	v.eng = eng
	v.adoptPipeline()

	hostOpts := cfg.HostOptions()
	hostOpts.Invalidate = v.invalidate
	hostOpts.Observers = []host.Observer{v.collector, v.sampler}
	v.host, err = host.New(v.loop, eng, hostOpts)
	if err != nil {
		eng.Dispose()
		v.closeTelemetry()
		return nil, fmt.Errorf("creating host: %w", err)
	}
	v.host.Start()

	// Headless detection has no async signals, so the sync result stands.
	if !v.fallback && !cfg.Derived.HasForcedTier && !opts.Headless {
		v.startProbe()
	}
	return v, nil
}

// newEngine builds and initializes an engine for tier. On failure the
// returned engine is already disposed.
func (v *Viewer) newEngine(tier device.Tier) (*engine.Engine, error) {
	eng := engine.New(v.engineConfig(tier))
	eng.SetPhaseTimer(v.perf)
	eng.OnQualityChange(v.onQualityChange)

	att := engine.Attachments{Scheduler: v.loop}
	if v.surface != nil {
		att.Surface = v.surface
		att.Projector = v.cam
	}
	if err := eng.Init(v.backend, att); err != nil {
		return eng, fmt.Errorf("initializing engine: %w", err)
	}
	eng.Resize(v.viewport())
	return eng, nil
}

func (v *Viewer) adoptPipeline() {
	if v.points != nil && !v.fallback {
		v.pipeline = v.points.Pipeline()
	}
}

func (v *Viewer) engineConfig(tier device.Tier) engine.Config {
	ec := v.cfg.EngineOptions(tier)
	if v.opts.Count > 0 {
		ec.ParticleCount = v.opts.Count
		ec.Geometry.Count = v.opts.Count
	}
	ec.Seed = v.seed
	ec.Geometry.Seed = v.seed
	return ec
}

func (v *Viewer) viewport() engine.Viewport {
	return engine.Viewport{Width: v.screenWidth, Height: v.screenHeight, PixelRatio: v.pixelRatio}
}

// invalidate is the smart-mode redraw request.
func (v *Viewer) invalidate() {
	v.needsFrame = true
}

// SetTier rebuilds the engine for tier and hands it to the host. If the new
// engine cannot start, the current one keeps running.
func (v *Viewer) SetTier(tier device.Tier) error {
	if v.disposed {
		return errors.New("viewer: disposed")
	}
	if tier == v.tier && !v.fallback {
		return nil
	}
	eng, err := v.newEngine(tier)
	if err != nil {
		return err
	}
	if err := v.host.Replace(eng); err != nil {
		return err
	}

	from := v.tier
	v.eng = eng
	v.adoptPipeline()
	v.tier = tier
	v.fallback = false
	v.respawns = 0
	v.collector.Record(telemetry.NewTierChangeEvent(v.frame, from.String(), tier.String()))
	slog.Info("tier changed", "from", from.String(), "to", tier.String(), "particles", eng.ParticleCount())
	return nil
}

// Reseed regenerates the field with a fresh seed.
func (v *Viewer) Reseed(seed int64) error {
	if v.eng == nil || v.fallback {
		return nil
	}
	if err := v.eng.Reseed(seed); err != nil {
		return err
	}
	v.seed = seed
	v.needsFrame = true
	v.collector.Record(telemetry.NewReseedEvent(v.frame, seed))
	return nil
}

// TogglePause stops or restarts the host.
func (v *Viewer) TogglePause() {
	v.paused = !v.paused
	if v.paused {
		v.host.Stop()
	} else {
		v.host.Start()
	}
}

// Step runs one frame at now: it drains the probe result, runs scheduled
// callbacks and, outside always mode, advances the host when a frame was
// requested.
func (v *Viewer) Step(now time.Time) {
	v.pollProbe()
	v.loop.RunFrame(now)
	if v.host.Mode() != host.ModeAlways && v.needsFrame && !v.paused {
		v.needsFrame = false
		v.host.Advance(now)
	}
	v.frame = int32(v.host.Stats().Frames)
	v.trackEngineEvents()
}

// trackEngineEvents turns engine counters and gesture changes into
// telemetry events.
func (v *Viewer) trackEngineEvents() {
	if v.eng == nil || v.fallback {
		return
	}
	if n := v.eng.Respawns() - v.respawns; n > 0 {
		v.collector.Record(telemetry.NewRespawnEvent(v.frame, n))
		v.respawns = v.eng.Respawns()
	}
	if tr := v.eng.Tracker(); tr != nil {
		g := tr.State().Gesture
		if g == interaction.GesturePress && v.lastGesture != interaction.GesturePress {
			v.collector.Record(telemetry.NewPressEvent(v.frame))
		}
		v.lastGesture = g
	}
}

// UpdateHeadless advances the simulated clock by one step and runs a
// frame.
func (v *Viewer) UpdateHeadless() {
	v.perf.StartTick()
	v.clock = v.clock.Add(v.opts.Step)
	v.needsFrame = true
	v.Step(v.clock)
	v.perf.EndTick()
	v.perf.RecordFrame()
	v.flushTelemetry()
}

// Frame returns the number of stepped frames.
func (v *Viewer) Frame() int32 {
	return v.frame
}

// Engine returns the current engine.
func (v *Viewer) Engine() *engine.Engine {
	return v.eng
}

// Tier returns the active device tier.
func (v *Viewer) Tier() device.Tier {
	return v.tier
}

// Fallback reports whether the particle engine failed to start.
func (v *Viewer) Fallback() bool {
	return v.fallback
}

// Probing reports whether async detection is still running.
func (v *Viewer) Probing() bool {
	return v.probeCh != nil
}

// Unload stops the probe, disposes the host and engine and closes outputs.
// It is safe to call more than once.
func (v *Viewer) Unload() {
	if v.disposed {
		return
	}
	v.disposed = true
	if v.cancel != nil {
		v.cancel()
	}
	if v.unsub != nil {
		v.unsub()
	}
	v.host.Dispose()
	if v.background != nil {
		v.background.Unload()
	}
	v.closeTelemetry()
}
