// Package engine simulates the particle field and drives a rendering
// pipeline. An Engine is constructed, initialized once, updated once per
// frame and disposed once.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/lumen/geometry"
	"github.com/pthm-cable/lumen/interaction"
)

// ErrDisposed is returned by Init after Dispose.
var ErrDisposed = errors.New("engine: disposed")

// Phase names reported to a PhaseTimer.
const (
	PhaseIntegrate = "integrate"
	PhaseRespawn   = "respawn"
	PhaseUpload    = "upload"
)

// PhaseTimer receives phase boundaries during Update.
type PhaseTimer interface {
	StartPhase(phase string)
}

// Gesture multipliers applied to attraction.
const (
	pressMultiplier   = 1.6
	dragMultiplier    = 1.3
	hoverMultiplier   = 1.0
	releaseMultiplier = 0.8
)

// Noise axis offsets decorrelate the three velocity components.
const (
	noiseOffsetY = 31.416
	noiseOffsetZ = 47.853
)

// NoiseForce samples the flow field felt by a particle with the given seed
// at p and engine time t. Components are roughly within [-1, 1].
func NoiseForce(n opensimplex.Noise, p mgl32.Vec3, t, seed, scale float32) mgl32.Vec3 {
	x, y, z := float64(p[0]*scale), float64(p[1]*scale), float64(p[2]*scale)
	w := float64(t)*0.5 + float64(seed)
	return mgl32.Vec3{
		float32(n.Eval4(x, y, z, w)),
		float32(n.Eval4(x, y, z, w+noiseOffsetY)),
		float32(n.Eval4(x, y, z, w+noiseOffsetZ)),
	}
}

// Attachments are optional collaborators passed to Init.
type Attachments struct {
	// Projector and Surface together let the engine build its own tracker.
	Projector interaction.Projector
	Surface   interaction.Surface
	Scheduler interaction.Scheduler
}

// Engine owns a particle field, its pipeline and, optionally, the
// interaction tracker feeding attraction. It is not safe for concurrent use.
type Engine struct {
	cfg Config

	field    *geometry.Field
	pipeline Pipeline
	tracker  *interaction.Tracker
	noise    opensimplex.Noise
	quality  *QualityController

	initialized bool
	disposed    bool

	time     float32
	viewport Viewport
	frames   int
	uploads  int
	respawns int

	mouseEnabled bool
	noiseEnabled bool
	target       *mgl32.Vec3

	pointSize          float32
	noiseStrength      float32
	attractionStrength float32

	timer     PhaseTimer
	onQuality func(QualityTransition)
}

// New creates an engine in the constructed state.
func New(cfg Config) *Engine {
	cfg = cfg.Normalize()
	return &Engine{
		cfg:                cfg,
		viewport:           Viewport{Width: 1920, Height: 1080, PixelRatio: 1},
		mouseEnabled:       cfg.MouseEnabled,
		noiseEnabled:       cfg.NoiseEnabled,
		pointSize:          cfg.PointSize,
		noiseStrength:      cfg.NoiseStrength,
		attractionStrength: cfg.AttractionStrength,
	}
}

// Config returns the normalized configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Init generates the field and creates the pipeline. A second call after
// success logs a warning and does nothing. After Dispose it returns
// ErrDisposed. On failure every partially created resource is released and
// the engine is left disposed.
func (e *Engine) Init(backend Backend, att Attachments) (err error) {
	if e.disposed {
		return ErrDisposed
	}
	if e.initialized {
		slog.Warn("engine already initialized")
		return nil
	}
	if backend == nil {
		backend = NullBackend{}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine init panicked: %v", r)
		}
		if err != nil {
			e.release()
			e.disposed = true
		}
	}()

	e.field = geometry.Create(e.cfg.Geometry)
	e.noise = opensimplex.New(e.cfg.Seed)

	e.pipeline, err = backend.NewPipeline(PipelineSpec{
		Count:     e.cfg.ParticleCount,
		BaseColor: e.cfg.BaseColor,
	})
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}
	if e.pipeline == nil {
		return errors.New("creating pipeline: backend returned nil")
	}

	if e.cfg.AdaptiveQuality {
		e.quality = NewQualityController(e.cfg.Quality)
	}
	if att.Surface != nil && att.Projector != nil {
		e.tracker = interaction.New(att.Projector, att.Surface, att.Scheduler, e.cfg.Mouse)
	}

	e.pipeline.Upload(e.field.Buffers)
	e.uploads++
	e.pipeline.SetUniforms(e.uniforms())
	e.initialized = true

	slog.Debug("engine initialized",
		"particles", e.cfg.ParticleCount,
		"seed", e.cfg.Seed,
		"distribution", e.cfg.Geometry.Position.String(),
	)
	return nil
}

// Initialized reports whether Init succeeded and Dispose was not called.
func (e *Engine) Initialized() bool {
	return e.initialized && !e.disposed
}

// Disposed reports whether Dispose was called or Init failed.
func (e *Engine) Disposed() bool {
	return e.disposed
}

// Update advances the simulation by dt seconds and uploads the result.
// It is a no-op before Init and after Dispose.
func (e *Engine) Update(dt float32) {
	if !e.initialized || e.disposed {
		return
	}
	if e.quality != nil && dt > 0 {
		frame := time.Duration(float64(dt) * float64(time.Second))
		if tr, ok := e.quality.Observe(frame); ok {
			e.applyQuality(tr)
		}
	}

	dt = clampf(dt, 0, e.cfg.MaxDelta)
	e.time += dt
	e.frames++

	var st interaction.State
	if e.tracker != nil {
		st = e.tracker.State()
	}
	target, strength, attract := e.attraction(st)

	e.startPhase(PhaseIntegrate)
	b := e.field.Buffers
	n := b.Len()
	noiseAmp := e.currentNoise()
	softening := e.cfg.Mouse.Radius
	respawn := make([]int, 0, 8)

	for i := 0; i < n; i++ {
		i3 := i * 3
		px := b.Positions[i3] + b.Velocities[i3]*dt
		py := b.Positions[i3+1] + b.Velocities[i3+1]*dt
		pz := b.Positions[i3+2] + b.Velocities[i3+2]*dt
		b.Positions[i3], b.Positions[i3+1], b.Positions[i3+2] = px, py, pz

		// Per-frame damping expressed at 60 fps so it is rate independent.
		damp := float32(math.Pow(float64(b.Dampings[i]), float64(dt*60)))
		vx := b.Velocities[i3] * damp
		vy := b.Velocities[i3+1] * damp
		vz := b.Velocities[i3+2] * damp

		if noiseAmp > 0 {
			f := NoiseForce(e.noise, mgl32.Vec3{px, py, pz}, e.time, b.Seeds[i], e.cfg.NoiseScale)
			k := noiseAmp * dt
			vx += f[0] * k
			vy += f[1] * k
			vz += f[2] * k
		}

		if attract {
			dx, dy, dz := target[0]-px, target[1]-py, target[2]-pz
			dist := float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
			if dist > 0.1 {
				f := strength * dt / (dist + softening)
				vx += dx * f
				vy += dy * f
				vz += dz * f
			}
		}
		b.Velocities[i3], b.Velocities[i3+1], b.Velocities[i3+2] = vx, vy, vz

		life := b.Lifetimes[i] - e.cfg.LifetimeDecay*dt
		if life <= 0 {
			life = 0
			respawn = append(respawn, i)
		}
		b.Lifetimes[i] = life
	}

	e.startPhase(PhaseRespawn)
	gen := e.field.Generator()
	for _, i := range respawn {
		gen.Spawn(b, i)
	}
	e.respawns += len(respawn)

	e.startPhase(PhaseUpload)
	e.pipeline.Upload(b)
	e.uploads++
	e.pipeline.SetUniforms(e.uniforms())
}

// attraction resolves the target and effective strength for this frame.
func (e *Engine) attraction(st interaction.State) (mgl32.Vec3, float32, bool) {
	if !e.mouseEnabled || e.attractionStrength <= 0 {
		return mgl32.Vec3{}, 0, false
	}
	if e.target != nil {
		return *e.target, e.attractionStrength, true
	}
	if e.tracker == nil || !st.HasWorld {
		return mgl32.Vec3{}, 0, false
	}

	var mult float32
	switch {
	case st.Gesture == interaction.GestureRelease:
		mult = releaseMultiplier * min(st.Strength, 1)
	case !st.Active:
		return mgl32.Vec3{}, 0, false
	case !e.cfg.GestureAware:
		mult = 1
	case st.Gesture == interaction.GesturePress:
		mult = pressMultiplier
	case st.Gesture == interaction.GestureDrag:
		mult = dragMultiplier
	default:
		mult = hoverMultiplier
	}
	if mult <= 0 {
		return mgl32.Vec3{}, 0, false
	}
	return st.World, e.attractionStrength * mult, true
}

func (e *Engine) currentNoise() float32 {
	if !e.noiseEnabled {
		return 0
	}
	return e.noiseStrength * e.qualityFactor()
}

func (e *Engine) qualityFactor() float32 {
	if e.quality == nil {
		return 1
	}
	return e.quality.Factor()
}

func (e *Engine) applyQuality(tr QualityTransition) {
	slog.Info("quality changed",
		"from", tr.From.String(),
		"to", tr.To.String(),
		"avg_frame_ms", float64(tr.Average)/float64(time.Millisecond),
	)
	if e.onQuality != nil {
		e.onQuality(tr)
	}
}

func (e *Engine) uniforms() Uniforms {
	u := Uniforms{
		Time:       e.time,
		PixelRatio: e.viewport.PixelRatio,
		Viewport:   [2]float32{e.viewport.Width, e.viewport.Height},
		BaseColor:  e.cfg.BaseColor,
		PointSize:  e.EffectivePointSize(),
		Quality:    QualityHigh,
	}
	u.NoiseStrength = e.currentNoise()
	if e.mouseEnabled {
		u.AttractionStrength = e.attractionStrength
	}
	if e.quality != nil {
		u.Quality = e.quality.Level()
	}
	return u
}

func (e *Engine) startPhase(phase string) {
	if e.timer != nil {
		e.timer.StartPhase(phase)
	}
}

// Resize updates viewport-dependent uniforms. Particle buffers are not
// touched.
func (e *Engine) Resize(v Viewport) {
	if e.disposed {
		return
	}
	if v.PixelRatio <= 0 {
		v.PixelRatio = 1
	}
	if v.Width <= 0 || v.Height <= 0 {
		return
	}
	e.viewport = v
	if e.initialized {
		e.pipeline.SetUniforms(e.uniforms())
	}
}

// Viewport returns the last viewport passed to Resize.
func (e *Engine) Viewport() Viewport {
	return e.viewport
}

// SetMouseAttraction toggles attraction. A non-nil target pins attraction
// to a fixed world point instead of the tracker; nil returns control to
// the tracker.
func (e *Engine) SetMouseAttraction(enabled bool, target *mgl32.Vec3) {
	if e.disposed {
		return
	}
	e.mouseEnabled = enabled
	if target != nil {
		t := *target
		e.target = &t
	} else {
		e.target = nil
	}
}

// SetAttractionTarget pins attraction to a world point; nil clears it.
func (e *Engine) SetAttractionTarget(target *mgl32.Vec3) {
	e.SetMouseAttraction(e.mouseEnabled, target)
}

// SetNoiseEnabled toggles the noise perturbation.
func (e *Engine) SetNoiseEnabled(enabled bool) {
	if e.disposed {
		return
	}
	e.noiseEnabled = enabled
}

// SetPointSize sets the base point size, clamped to [0.1, 20].
func (e *Engine) SetPointSize(size float32) {
	if e.disposed {
		return
	}
	e.pointSize = clampf(size, 0.1, 20)
}

// SetNoiseStrength sets the base noise strength, clamped to [0, 1].
func (e *Engine) SetNoiseStrength(s float32) {
	if e.disposed {
		return
	}
	e.noiseStrength = clampf(s, 0, 1)
}

// SetAttractionStrength sets attraction strength, clamped to [0, 2].
func (e *Engine) SetAttractionStrength(s float32) {
	if e.disposed {
		return
	}
	e.attractionStrength = clampf(s, 0, 2)
}

// MouseEnabled reports whether attraction is on.
func (e *Engine) MouseEnabled() bool { return e.mouseEnabled }

// NoiseEnabled reports whether noise is on.
func (e *Engine) NoiseEnabled() bool { return e.noiseEnabled }

// PointSizeBase returns the base point size before quality scaling.
func (e *Engine) PointSizeBase() float32 { return e.pointSize }

// NoiseStrength returns the base noise strength before quality scaling.
func (e *Engine) NoiseStrength() float32 { return e.noiseStrength }

// AttractionStrength returns the attraction strength.
func (e *Engine) AttractionStrength() float32 { return e.attractionStrength }

// EffectivePointSize is the base point size after quality scaling.
func (e *Engine) EffectivePointSize() float32 {
	return e.pointSize * e.qualityFactor()
}

// QualityLevel returns the adaptive quality level, or high when adaptive
// quality is off.
func (e *Engine) QualityLevel() QualityLevel {
	if e.quality == nil {
		return QualityHigh
	}
	return e.quality.Level()
}

// OnQualityChange registers a callback for quality transitions.
func (e *Engine) OnQualityChange(fn func(QualityTransition)) {
	e.onQuality = fn
}

// SetPhaseTimer attaches a timer receiving Update phase boundaries.
func (e *Engine) SetPhaseTimer(t PhaseTimer) {
	e.timer = t
}

// Reseed regenerates the field in place with a new seed.
func (e *Engine) Reseed(seed int64) error {
	if !e.initialized || e.disposed {
		return nil
	}
	opts := e.field.Options()
	opts.Seed = seed
	if err := e.field.Reseed(opts); err != nil {
		return fmt.Errorf("reseeding field: %w", err)
	}
	e.noise = opensimplex.New(seed)
	e.pipeline.Upload(e.field.Buffers)
	e.uploads++
	return nil
}

// Field returns the simulated field, or nil before Init and after Dispose.
func (e *Engine) Field() *geometry.Field {
	return e.field
}

// Tracker returns the engine-owned tracker, if one was created.
func (e *Engine) Tracker() *interaction.Tracker {
	return e.tracker
}

// Time returns the simulated time in seconds.
func (e *Engine) Time() float32 { return e.time }

// Frames returns the number of Update calls that advanced the simulation.
func (e *Engine) Frames() int { return e.frames }

// Respawns returns the total number of particles respawned.
func (e *Engine) Respawns() int { return e.respawns }

// Uploads returns the number of buffer uploads issued.
func (e *Engine) Uploads() int { return e.uploads }

// ParticleCount returns the fixed particle budget.
func (e *Engine) ParticleCount() int { return e.cfg.ParticleCount }

// Dispose releases the pipeline and the tracker. Calling it more than once
// is a no-op.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.release()
	e.disposed = true
	e.initialized = false
}

func (e *Engine) release() {
	if e.tracker != nil {
		e.tracker.Dispose()
		e.tracker = nil
	}
	if e.pipeline != nil {
		e.pipeline.Release()
		e.pipeline = nil
	}
	e.field = nil
	e.quality = nil
}
