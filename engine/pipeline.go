package engine

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/lumen/geometry"
)

// PipelineSpec describes the GPU resources an engine needs.
type PipelineSpec struct {
	Count     int
	BaseColor colorful.Color
}

// Pipeline owns the GPU-side particle buffers and shader state. The engine
// is its only writer.
type Pipeline interface {
	// Upload copies the attribute buffers for the next draw.
	Upload(b *geometry.Buffers)
	SetUniforms(u Uniforms)
	Release()
}

// Backend creates pipelines.
type Backend interface {
	NewPipeline(spec PipelineSpec) (Pipeline, error)
}

// NullBackend creates pipelines that discard everything. It is used for
// headless runs.
type NullBackend struct{}

// NewPipeline implements Backend.
func (NullBackend) NewPipeline(spec PipelineSpec) (Pipeline, error) {
	return &nullPipeline{}, nil
}

type nullPipeline struct{}

func (*nullPipeline) Upload(*geometry.Buffers) {}
func (*nullPipeline) SetUniforms(Uniforms)     {}
func (*nullPipeline) Release()                 {}

// Reference height for the viewport size factor.
const referenceHeight = 1080

// Point size limits in pixels.
const (
	MinPointPixels = 1
	MaxPointPixels = 64
)

// PointSize returns the on-screen diameter of a point at the given view
// depth: base size scaled by pixel ratio, inverse distance and viewport.
func PointSize(base, pixelRatio, depth float32, viewport [2]float32) float32 {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	distance := 1 / max(depth, 0.1)
	screen := min(viewport[0], viewport[1]) / referenceHeight
	return clampf(base*pixelRatio*distance*screen, MinPointPixels, MaxPointPixels)
}

// LifetimeFade ramps alpha in over the first tenth of life and out over
// the last tenth.
func LifetimeFade(lifetime float32) float32 {
	return smoothstep(0, 0.1, lifetime) * smoothstep(1, 0.9, lifetime)
}

// EdgeAlpha is the soft circular mask at distance d from the point center,
// where 0.5 is the edge. Beyond the edge the fragment is discarded.
func EdgeAlpha(d float32) (float32, bool) {
	if d > 0.5 {
		return 0, false
	}
	return 1 - smoothstep(0.3, 0.5, d), true
}

// HueShift is the seed-driven color offset applied to each particle.
func HueShift(seed float32) float32 {
	return float32(math.Sin(float64(seed)*2*math.Pi)) * 0.1
}

// Tint is the color and alpha of a particle: the base color hue-shifted by
// its seed and faded by its lifetime.
func Tint(base colorful.Color, seed, lifetime float32) (colorful.Color, float32) {
	h, s, v := base.Hsv()
	h = math.Mod(h+float64(HueShift(seed))*360+360, 360)
	return colorful.Hsv(h, s, v).Clamped(), LifetimeFade(lifetime)
}

func smoothstep(edge0, edge1, x float32) float32 {
	t := clampf((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
