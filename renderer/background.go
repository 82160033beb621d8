package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/lucasb-eyer/go-colorful"
)

// BackgroundRenderer renders a soft animated glow behind the particles. It
// is also drawn alone when the particle engine fails to start.
type BackgroundRenderer struct {
	shader        rl.Shader
	timeLoc       int32
	resolutionLoc int32
	baseColorLoc  int32
	clearColorLoc int32

	screenW, screenH float32
	baseColor        [3]float32
	clearColor       [3]float32
	initialized      bool
	failed           bool
}

// NewBackgroundRenderer creates a new background renderer.
func NewBackgroundRenderer(screenW, screenH int32, base, clear colorful.Color) *BackgroundRenderer {
	return &BackgroundRenderer{
		screenW:    float32(screenW),
		screenH:    float32(screenH),
		baseColor:  vec3(base),
		clearColor: vec3(clear),
	}
}

func vec3(c colorful.Color) [3]float32 {
	return [3]float32{float32(c.R), float32(c.G), float32(c.B)}
}

// Init initializes the renderer (must be called after raylib window is created).
func (b *BackgroundRenderer) Init() {
	if b.initialized || b.failed {
		return
	}

	b.shader = rl.LoadShaderFromMemory("", backgroundFS)
	if !rl.IsShaderValid(b.shader) {
		// Fall back to a flat clear.
		b.failed = true
		return
	}
	b.timeLoc = rl.GetShaderLocation(b.shader, "time")
	b.resolutionLoc = rl.GetShaderLocation(b.shader, "resolution")
	b.baseColorLoc = rl.GetShaderLocation(b.shader, "baseColor")
	b.clearColorLoc = rl.GetShaderLocation(b.shader, "clearColor")

	rl.SetShaderValue(b.shader, b.baseColorLoc, b.baseColor[:], rl.ShaderUniformVec3)
	rl.SetShaderValue(b.shader, b.clearColorLoc, b.clearColor[:], rl.ShaderUniformVec3)
	b.setResolution()

	b.initialized = true
}

func (b *BackgroundRenderer) setResolution() {
	rl.SetShaderValue(b.shader, b.resolutionLoc, []float32{b.screenW, b.screenH}, rl.ShaderUniformVec2)
}

// Resize updates the covered area.
func (b *BackgroundRenderer) Resize(screenW, screenH int32) {
	b.screenW, b.screenH = float32(screenW), float32(screenH)
	if b.initialized {
		b.setResolution()
	}
}

// Draw renders the background.
func (b *BackgroundRenderer) Draw(time float32) {
	if !b.initialized {
		b.Init()
	}
	if b.failed {
		c := b.clearColor
		rl.ClearBackground(rl.Color{R: uint8(c[0] * 255), G: uint8(c[1] * 255), B: uint8(c[2] * 255), A: 255})
		return
	}

	rl.BeginShaderMode(b.shader)
	rl.SetShaderValue(b.shader, b.timeLoc, []float32{time}, rl.ShaderUniformFloat)
	rl.DrawRectangle(0, 0, int32(b.screenW), int32(b.screenH), rl.White)
	rl.EndShaderMode()
}

// Unload frees resources.
func (b *BackgroundRenderer) Unload() {
	if b.initialized {
		rl.UnloadShader(b.shader)
		b.initialized = false
	}
}
