package renderer

import (
	"errors"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/lumen/camera"
	"github.com/pthm-cable/lumen/engine"
	"github.com/pthm-cable/lumen/geometry"
)

// Backend creates raylib point pipelines. It must be used after the window
// exists.
type Backend struct {
	cam     *camera.Camera
	current *PointPipeline
}

// NewBackend creates a backend projecting through cam.
func NewBackend(cam *camera.Camera) *Backend {
	return &Backend{cam: cam}
}

// NewPipeline implements engine.Backend.
func (b *Backend) NewPipeline(spec engine.PipelineSpec) (engine.Pipeline, error) {
	p := NewPointPipeline(spec, b.cam)
	if err := p.Init(); err != nil {
		return nil, err
	}
	b.current = p
	return p, nil
}

// Pipeline returns the most recently created pipeline, or nil.
func (b *Backend) Pipeline() *PointPipeline {
	return b.current
}

// PointPipeline draws particles as camera-facing soft sprites with
// additive blending. Particles are projected on the CPU and sized with
// engine.PointSize.
type PointPipeline struct {
	shader   rl.Shader
	timeLoc  int32
	noiseLoc int32
	sprite   rl.Texture2D

	cam  *camera.Camera
	base colorful.Color

	// Staging copy of the attributes read by Draw
	positions []float32
	lifetimes []float32
	seeds     []float32
	colors    []rl.Color

	uniforms engine.Uniforms

	dirty       bool
	initialized bool
	released    bool
}

// NewPointPipeline creates an uninitialized pipeline for spec.Count
// particles.
func NewPointPipeline(spec engine.PipelineSpec, cam *camera.Camera) *PointPipeline {
	return &PointPipeline{
		cam:       cam,
		base:      spec.BaseColor,
		positions: make([]float32, 3*spec.Count),
		lifetimes: make([]float32, spec.Count),
		seeds:     make([]float32, spec.Count),
		colors:    make([]rl.Color, spec.Count),
	}
}

// Init compiles the shader pair and creates the sprite texture.
func (p *PointPipeline) Init() error {
	if p.initialized {
		return nil
	}
	if p.released {
		return errors.New("point pipeline released")
	}

	p.shader = rl.LoadShaderFromMemory(pointsVS, pointsFS)
	if !rl.IsShaderValid(p.shader) {
		return errors.New("compiling point shaders")
	}

	img := rl.GenImageColor(1, 1, rl.White)
	p.sprite = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	if !rl.IsTextureValid(p.sprite) {
		rl.UnloadShader(p.shader)
		return errors.New("creating point sprite")
	}

	p.timeLoc = rl.GetShaderLocation(p.shader, "time")
	p.noiseLoc = rl.GetShaderLocation(p.shader, "noiseStrength")
	p.initialized = true
	return nil
}

// Upload implements engine.Pipeline.
func (p *PointPipeline) Upload(b *geometry.Buffers) {
	if p.released {
		return
	}
	n := min(b.Len(), len(p.lifetimes))
	copy(p.positions, b.Positions[:3*n])
	copy(p.lifetimes, b.Lifetimes[:n])
	copy(p.seeds, b.Seeds[:n])
	p.dirty = true
}

// SetUniforms implements engine.Pipeline.
func (p *PointPipeline) SetUniforms(u engine.Uniforms) {
	p.uniforms = u
	p.base = u.BaseColor
}

// retint recomputes per-particle colors from the last upload.
func (p *PointPipeline) retint() {
	for i := range p.colors {
		c, alpha := engine.Tint(p.base, p.seeds[i], p.lifetimes[i])
		r, g, b := c.RGB255()
		p.colors[i] = rl.Color{R: r, G: g, B: b, A: uint8(alpha * 255)}
	}
}

// Draw renders the last uploaded state. Colors are rebuilt at most once per
// upload.
func (p *PointPipeline) Draw() {
	if !p.initialized {
		return
	}
	if p.dirty {
		p.retint()
		p.dirty = false
	}

	u := p.uniforms
	rl.SetShaderValue(p.shader, p.timeLoc, []float32{u.Time}, rl.ShaderUniformFloat)
	rl.SetShaderValue(p.shader, p.noiseLoc, []float32{u.NoiseStrength}, rl.ShaderUniformFloat)

	src := rl.Rectangle{Width: 1, Height: 1}

	rl.BeginBlendMode(rl.BlendAdditive)
	rl.BeginShaderMode(p.shader)
	for i, c := range p.colors {
		if c.A == 0 {
			continue
		}
		pos := mgl32.Vec3{p.positions[3*i], p.positions[3*i+1], p.positions[3*i+2]}
		sx, sy, depth, ok := p.cam.Project(pos)
		if !ok {
			continue
		}
		size := engine.PointSize(u.PointSize, u.PixelRatio, depth, u.Viewport)
		dst := rl.Rectangle{X: sx, Y: sy, Width: size, Height: size}
		rl.DrawTexturePro(p.sprite, src, dst, rl.Vector2{X: size / 2, Y: size / 2}, 0, c)
	}
	rl.EndShaderMode()
	rl.EndBlendMode()
}

// Release implements engine.Pipeline. It is safe to call more than once.
func (p *PointPipeline) Release() {
	if p.initialized {
		rl.UnloadShader(p.shader)
		rl.UnloadTexture(p.sprite)
		p.initialized = false
	}
	p.released = true
}
