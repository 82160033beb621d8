// Noise field preview tool - interactive view of the flow field that pushes
// particles, sliced through a z plane, with sliders.
//
// Usage: go run ./cmd/noisepreview
package main

import (
	"fmt"
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/lumen/config"
	"github.com/pthm-cable/lumen/engine"
)

const (
	windowWidth  = 1000
	windowHeight = 640
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
	gridSize     = 128
	arrowEvery   = 8
)

// NoiseParams holds the flow field parameters.
type NoiseParams struct {
	Scale    float32
	Strength float32
	Extent   float32 // half width of the previewed square, world units
	SliceZ   float32
	Particle float32 // particle seed in [0, 1)
	Seed     int64
}

func defaultParams() NoiseParams {
	p := NoiseParams{Scale: 0.5, Strength: 0.1, Extent: 4, Particle: 0.5, Seed: 12345}
	if cfg, err := config.Load(""); err == nil {
		p.Scale = float32(cfg.Engine.NoiseScale)
		p.Strength = float32(cfg.Engine.Tiers.Medium.NoiseStrength)
		p.Seed = cfg.Engine.Seed
	}
	return p
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Noise Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := defaultParams()
	noise := opensimplex.New(params.Seed)

	field := make([]mgl32.Vec3, gridSize*gridSize)
	img := rl.GenImageColor(gridSize, gridSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	// Engine time; the field drifts at half this rate
	var t float32
	animating := false
	needsRegen := true

	for !rl.WindowShouldClose() {
		if animating {
			t += rl.GetFrameTime()
			needsRegen = true
		}

		if needsRegen {
			sampleField(field, noise, params, t)
			updateTexture(texture, field)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: gridSize, Height: gridSize},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		drawArrows(field)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		// Stats
		minMag, maxMag, avgMag := magnitudes(field)
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("|F| min: %.3f  max: %.3f  avg: %.3f", minMag, maxMag, avgMag), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Time: %.1f  Peak speed change: %.3f units/s^2", t, maxMag*params.Strength), 15, statsY+20, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Noise Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		if slider(&panelY, panelX, "Scale (noise frequency)", "0.1", "3.0", &params.Scale, 0.1, 3, "%.2f") {
			needsRegen = true
		}
		slider(&panelY, panelX, "Strength (medium tier)", "0", "0.5", &params.Strength, 0, 0.5, "%.3f")
		if slider(&panelY, panelX, "Extent (half width, world units)", "1", "8", &params.Extent, 1, 8, "%.1f") {
			needsRegen = true
		}
		if slider(&panelY, panelX, "Slice Z", "-3", "3", &params.SliceZ, -3, 3, "%.2f") {
			needsRegen = true
		}
		if slider(&panelY, panelX, "Particle seed", "0", "1", &params.Particle, 0, 0.999, "%.3f") {
			needsRegen = true
		}

		// Separator
		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Time") {
			t = 0
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(1, 1<<30))
			noise = opensimplex.New(params.Seed)
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaultParams()
			noise = opensimplex.New(params.Seed)
			t = 0
			needsRegen = true
		}
		panelY += 55

		// Output YAML
		yaml := fmt.Sprintf("engine:\n  noise_scale: %.2f\n  seed: %d\n  tiers:\n    medium:\n      noise_strength: %.3f",
			params.Scale, params.Seed, params.Strength)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		rl.DrawText(yaml, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

// slider draws one labelled slider row and reports whether the value moved.
func slider(y *float32, x float32, label, lo, hi string, value *float32, minV, maxV float32, format string) bool {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	next := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 80), Height: 20},
		lo, hi,
		*value, minV, maxV,
	)
	rl.DrawText(fmt.Sprintf(format, *value), int32(x+float32(panelWidth-70)), int32(*y+2), 16, rl.DarkGray)
	*y += 35
	if next == *value {
		return false
	}
	*value = next
	return true
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// sampleField fills the grid with the force the engine applies at each
// point of the z = SliceZ plane.
func sampleField(field []mgl32.Vec3, noise opensimplex.Noise, params NoiseParams, t float32) {
	for y := 0; y < gridSize; y++ {
		// Screen y grows downward, world y upward
		wy := params.Extent * (1 - 2*(float32(y)+0.5)/gridSize)
		for x := 0; x < gridSize; x++ {
			wx := params.Extent * (2*(float32(x)+0.5)/gridSize - 1)
			p := mgl32.Vec3{wx, wy, params.SliceZ}
			field[y*gridSize+x] = engine.NoiseForce(noise, p, t, params.Particle, params.Scale)
		}
	}
}

func magnitudes(field []mgl32.Vec3) (minMag, maxMag, avgMag float32) {
	minMag = float32(math.Inf(1))
	var total float32
	for _, f := range field {
		m := f.Len()
		minMag = min(minMag, m)
		maxMag = max(maxMag, m)
		total += m
	}
	return minMag, maxMag, total / float32(len(field))
}

// drawArrows overlays the in-plane direction on a sparse grid.
func drawArrows(field []mgl32.Vec3) {
	cell := float32(previewSize) / gridSize
	for y := arrowEvery / 2; y < gridSize; y += arrowEvery {
		for x := arrowEvery / 2; x < gridSize; x += arrowEvery {
			f := field[y*gridSize+x]
			start := rl.Vector2{X: 10 + (float32(x)+0.5)*cell, Y: 10 + (float32(y)+0.5)*cell}
			length := float32(arrowEvery) * cell * 0.5
			end := rl.Vector2{X: start.X + f[0]*length, Y: start.Y - f[1]*length}
			rl.DrawLineV(start, end, rl.Fade(rl.Black, 0.6))
			rl.DrawCircleV(end, 1.5, rl.Fade(rl.Black, 0.6))
		}
	}
}

// updateTexture colors each cell by in-plane direction (hue), magnitude
// (value) and the out-of-plane component (saturation).
func updateTexture(texture rl.Texture2D, field []mgl32.Vec3) {
	pixels := make([]color.RGBA, len(field))
	for i, f := range field {
		hue := math.Atan2(float64(f[1]), float64(f[0]))*180/math.Pi + 180
		val := math.Min(1, float64(mgl32.Vec2{f[0], f[1]}.Len()))
		sat := 1 - 0.6*math.Min(1, math.Abs(float64(f[2])))
		r, g, b := colorful.Hsv(hue, sat, 0.15+0.85*val).Clamped().RGB255()
		pixels[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	rl.UpdateTexture(texture, pixels)
}
