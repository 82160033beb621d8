package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/lumen/config"
	"github.com/pthm-cable/lumen/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	count := flag.Int("count", 0, "Particle count (0 = tier default)")
	tier := flag.String("tier", "", "Force device tier: low, medium, high (empty = detect)")
	mode := flag.String("mode", "", "Render loop mode: always, demand, smart (empty = use config)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// CLI overrides
	switch {
	case *seed != 0:
		cfg.Engine.Seed = *seed
	case cfg.Engine.Seed == 0:
		cfg.Engine.Seed = time.Now().UnixNano()
	}
	if *tier != "" {
		cfg.Device.ForceTier = *tier
	}
	if *mode != "" {
		cfg.Host.Mode = *mode
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindowSec = *statsWindow
	}
	if err := cfg.Refresh(); err != nil {
		slog.Error("invalid flags", "error", err)
		os.Exit(1)
	}

	opts := viewer.Options{
		Count:       *count,
		LogStats:    *logStats,
		SnapshotDir: *snapshotDir,
		OutputDir:   *outputDir,
		Headless:    *headless,
	}

	if *headless {
		// Headless mode: no window, a fixed simulated frame time
		v, err := viewer.New(cfg, opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}
		defer v.Unload()

		slog.Info("starting headless run",
			"seed", cfg.Engine.Seed,
			"tier", v.Tier(),
			"particles", v.Engine().ParticleCount(),
			"max_frames", *maxFrames,
		)

		for {
			v.UpdateHeadless()

			if *maxFrames > 0 && int(v.Frame()) >= *maxFrames {
				slog.Info("max frames reached", "frame", v.Frame())
				return
			}
		}
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint | rl.FlagWindowHighdpi)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v, err := viewer.New(cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer v.Unload()

	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()

		if *maxFrames > 0 && int(v.Frame()) >= *maxFrames {
			break
		}
	}
}
