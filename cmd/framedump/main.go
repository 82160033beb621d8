// Frame dump tool - simulates the particle field for a fixed number of
// frames and renders the result to a PNG file for inspection.
//
// Usage: go run ./cmd/framedump -tier high -frames 120 -out frame.png
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/lumen/config"
	"github.com/pthm-cable/lumen/device"
	"github.com/pthm-cable/lumen/engine"
	"github.com/pthm-cable/lumen/host"
	"github.com/pthm-cable/lumen/renderer"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	tierName := flag.String("tier", "medium", "Device tier: low, medium, high")
	frames := flag.Int("frames", 120, "Frames to simulate before rendering")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config)")
	outPath := flag.String("out", "frame.png", "Output PNG path")
	width := flag.Int("width", 512, "Render width")
	height := flag.Int("height", 512, "Render height")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Engine.Seed = *seed
	}
	tier, err := device.ParseTier(*tierName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(*width), int32(*height), "Frame Dump")
	defer rl.CloseWindow()

	cam := cfg.NewCamera(*width, *height)
	backend := renderer.NewBackend(cam)
	loop := host.NewFrameLoop()

	eng := engine.New(cfg.EngineOptions(tier))
	if err := eng.Init(backend, engine.Attachments{Scheduler: loop}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start engine: %v\n", err)
		os.Exit(1)
	}
	eng.Resize(engine.Viewport{Width: float32(*width), Height: float32(*height), PixelRatio: 1})

	opts := cfg.HostOptions()
	opts.Mode = host.ModeAlways
	h, err := host.New(loop, eng, opts)
	if err != nil {
		eng.Dispose()
		fmt.Fprintf(os.Stderr, "Failed to start host: %v\n", err)
		os.Exit(1)
	}
	defer h.Dispose()

	// Simulate at a fixed 60 Hz step
	h.Start()
	now := time.Unix(0, 0)
	for range *frames {
		loop.RunFrame(now)
		now = now.Add(time.Second / 60)
	}

	background := renderer.NewBackgroundRenderer(int32(*width), int32(*height),
		cfg.Derived.BaseColor, cfg.Derived.Background)
	background.Init()
	defer background.Unload()

	// Create render texture
	target := rl.LoadRenderTexture(int32(*width), int32(*height))
	defer rl.UnloadRenderTexture(target)

	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Black)
	background.Draw(eng.Time())
	if p := backend.Pipeline(); p != nil {
		p.Draw()
	}
	rl.EndTextureMode()

	// Get image from texture and flip it (OpenGL convention)
	img := rl.LoadImageFromTexture(target.Texture)
	rl.ImageFlipVertical(img)

	// Export to PNG
	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)

	if success {
		fmt.Printf("Frame %d rendered to: %s (%dx%d, %d particles, quality %s)\n",
			eng.Frames(), *outPath, *width, *height, eng.ParticleCount(), eng.QualityLevel())
	} else {
		fmt.Fprintf(os.Stderr, "Failed to export image\n")
		os.Exit(1)
	}
}
