package engine

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/lumen/geometry"
	"github.com/pthm-cable/lumen/interaction"
)

// Particle count limits for a single engine.
const (
	MinParticles = 1
	MaxParticles = 2000
)

// Config is fixed for the lifetime of an Engine. Changing the particle
// count requires disposing and constructing a new Engine.
type Config struct {
	ParticleCount      int
	BaseColor          colorful.Color
	PointSize          float32
	NoiseStrength      float32
	AttractionStrength float32
	Seed               int64

	Geometry geometry.Options
	Mouse    interaction.Options

	MouseEnabled    bool
	NoiseEnabled    bool
	GestureAware    bool
	AdaptiveQuality bool
	Quality         QualityOptions

	// MaxDelta caps a single step, in seconds.
	MaxDelta float32
	// LifetimeDecay is the lifetime lost per second.
	LifetimeDecay float32
	// NoiseScale is the spatial frequency of the noise field.
	NoiseScale float32
}

// DefaultBaseColor is the stock particle tint.
var DefaultBaseColor = colorful.Color{R: 0, G: 0xaa / 255.0, B: 1}

// DefaultConfig returns the stock configuration. Low-power devices get
// half the particles.
func DefaultConfig(lowPower bool) Config {
	count := 500
	if lowPower {
		count = 250
	}
	return Config{
		ParticleCount:      count,
		BaseColor:          DefaultBaseColor,
		PointSize:          4,
		NoiseStrength:      0.1,
		AttractionStrength: 0.5,
		Seed:               12345,
		Geometry:           geometry.DefaultOptions(count),
		Mouse:              interaction.DefaultOptions(),
		MouseEnabled:       true,
		NoiseEnabled:       true,
		GestureAware:       true,
		AdaptiveQuality:    true,
		Quality:            DefaultQualityOptions(),
		MaxDelta:           0.033,
		LifetimeDecay:      0.2,
		NoiseScale:         0.5,
	}
}

// Normalize clamps every field into range and fills zero defaults. The
// geometry count and seed follow the engine's.
func (c Config) Normalize() Config {
	c.ParticleCount = min(max(c.ParticleCount, MinParticles), MaxParticles)
	c.PointSize = clampf(c.PointSize, 0.1, 20)
	c.NoiseStrength = clampf(c.NoiseStrength, 0, 1)
	c.AttractionStrength = clampf(c.AttractionStrength, 0, 2)
	if c.MaxDelta <= 0 {
		c.MaxDelta = 0.033
	}
	if c.LifetimeDecay <= 0 {
		c.LifetimeDecay = 0.2
	}
	if c.NoiseScale <= 0 {
		c.NoiseScale = 0.5
	}
	c.Quality = c.Quality.normalize()

	c.Geometry.Count = c.ParticleCount
	c.Geometry.Seed = c.Seed
	c.Geometry = c.Geometry.Normalize()
	return c
}

// Viewport describes the drawable area.
type Viewport struct {
	Width, Height float32
	PixelRatio    float32
}

// Uniforms are the per-frame shader parameters.
type Uniforms struct {
	Time               float32
	PixelRatio         float32
	Viewport           [2]float32
	BaseColor          colorful.Color
	PointSize          float32
	NoiseStrength      float32
	AttractionStrength float32
	Quality            QualityLevel
}

// QualityOptions tunes adaptive quality.
type QualityOptions struct {
	// Window is the number of frames averaged.
	Window   int
	Poor     time.Duration
	Good     time.Duration
	Cooldown time.Duration
	// Factor scales point size and noise per level below the start level.
	Factor float32
	// Start is the initial level and the ceiling for upgrades. Zero means
	// QualityHigh.
	Start QualityLevel
}

// DefaultQualityOptions returns the stock thresholds.
func DefaultQualityOptions() QualityOptions {
	return QualityOptions{
		Window:   60,
		Poor:     20 * time.Millisecond,
		Good:     12 * time.Millisecond,
		Cooldown: 2 * time.Second,
		Factor:   0.75,
		Start:    QualityHigh,
	}
}

func (o QualityOptions) normalize() QualityOptions {
	d := DefaultQualityOptions()
	if o.Window < 1 {
		o.Window = d.Window
	}
	if o.Poor <= 0 {
		o.Poor = d.Poor
	}
	if o.Good <= 0 || o.Good > o.Poor {
		o.Good = min(d.Good, o.Poor)
	}
	if o.Cooldown <= 0 {
		o.Cooldown = d.Cooldown
	}
	if o.Factor <= 0 || o.Factor > 1 {
		o.Factor = d.Factor
	}
	if o.Start == 0 || o.Start > QualityHigh {
		o.Start = QualityHigh
	}
	return o
}

func clampf(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
