package viewer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/lumen/config"
	"github.com/pthm-cable/lumen/device"
	"github.com/pthm-cable/lumen/telemetry"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func newHeadless(t *testing.T, cfg *config.Config, opts Options) *Viewer {
	t.Helper()
	opts.Headless = true
	v, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("new viewer: %v", err)
	}
	t.Cleanup(v.Unload)
	return v
}

func TestHeadlessRunsFrames(t *testing.T) {
	v := newHeadless(t, loadConfig(t), Options{})

	if v.Tier() != device.TierMedium {
		t.Errorf("headless tier = %v, want medium", v.Tier())
	}
	for range 10 {
		v.UpdateHeadless()
	}
	if v.Frame() != 10 {
		t.Errorf("frame = %d, want 10", v.Frame())
	}
	if got := v.Engine().Frames(); got != 10 {
		t.Errorf("engine frames = %d, want 10", got)
	}
	if got := v.Engine().ParticleCount(); got != 350 {
		t.Errorf("particles = %d, want 350", got)
	}
}

func TestCountOverride(t *testing.T) {
	v := newHeadless(t, loadConfig(t), Options{Count: 42})
	if got := v.Engine().ParticleCount(); got != 42 {
		t.Errorf("particles = %d, want 42", got)
	}
	if got := v.Engine().Field().Buffers.Len(); got != 42 {
		t.Errorf("buffer len = %d, want 42", got)
	}
}

func TestDemandModeAdvancesHeadless(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Host.Mode = "demand"
	if err := cfg.Refresh(); err != nil {
		t.Fatal(err)
	}
	v := newHeadless(t, cfg, Options{})
	for range 5 {
		v.UpdateHeadless()
	}
	if v.Frame() != 5 {
		t.Errorf("frame = %d, want 5", v.Frame())
	}
}

func TestPauseStopsStepping(t *testing.T) {
	v := newHeadless(t, loadConfig(t), Options{})
	v.UpdateHeadless()
	v.TogglePause()
	for range 5 {
		v.UpdateHeadless()
	}
	if v.Frame() != 1 {
		t.Errorf("frame = %d while paused, want 1", v.Frame())
	}
	v.TogglePause()
	v.UpdateHeadless()
	if v.Frame() != 2 {
		t.Errorf("frame = %d after resume, want 2", v.Frame())
	}
}

func TestSetTierReplacesEngine(t *testing.T) {
	v := newHeadless(t, loadConfig(t), Options{})
	old := v.Engine()
	v.UpdateHeadless()

	if err := v.SetTier(device.TierHigh); err != nil {
		t.Fatalf("set tier: %v", err)
	}
	if !old.Disposed() {
		t.Error("previous engine not disposed")
	}
	if v.Engine() == old {
		t.Fatal("engine not replaced")
	}
	if got := v.Engine().ParticleCount(); got != 500 {
		t.Errorf("particles = %d, want 500", got)
	}

	v.UpdateHeadless()
	if v.Engine().Frames() != 1 {
		t.Errorf("new engine frames = %d, want 1", v.Engine().Frames())
	}
	if v.Frame() != 2 {
		t.Errorf("loop frames = %d, want 2", v.Frame())
	}
}

func TestStatsWindowFlush(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Telemetry.StatsWindowSec = 0.1

	var windows []telemetry.WindowStats
	v := newHeadless(t, cfg, Options{
		StatsCallback: func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	if err := v.Reseed(7); err != nil {
		t.Fatal(err)
	}
	for range 20 {
		v.UpdateHeadless()
	}

	if len(windows) == 0 {
		t.Fatal("no stats window flushed")
	}
	w := windows[0]
	if w.Tier != "medium" || w.Particles != 350 {
		t.Errorf("window state = %s/%d, want medium/350", w.Tier, w.Particles)
	}
	if w.Reseeds != 1 {
		t.Errorf("reseeds = %d, want 1", w.Reseeds)
	}
	if w.FPS < 55 || w.FPS > 65 {
		t.Errorf("fps = %.1f, want about 60", w.FPS)
	}
}

func TestOutputAndSnapshot(t *testing.T) {
	out := t.TempDir()
	snaps := t.TempDir()
	cfg := loadConfig(t)
	cfg.Telemetry.StatsWindowSec = 0.05

	v := newHeadless(t, cfg, Options{OutputDir: out, SnapshotDir: snaps, Step: 10 * time.Millisecond})
	for range 20 {
		v.UpdateHeadless()
	}

	path := v.SaveSnapshot(nil)
	if path == "" {
		t.Fatal("snapshot not written")
	}
	s, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if s.Frame != v.Frame() || len(s.Lifetimes) != v.Engine().ParticleCount() {
		t.Errorf("snapshot frame %d with %d particles", s.Frame, len(s.Lifetimes))
	}

	v.Unload()
	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv"} {
		info, err := os.Stat(filepath.Join(out, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestUnloadDisposesOnce(t *testing.T) {
	v := newHeadless(t, loadConfig(t), Options{})
	eng := v.Engine()
	v.Unload()
	v.Unload()
	if !eng.Disposed() {
		t.Error("engine not disposed")
	}
	if err := v.SetTier(device.TierLow); err == nil {
		t.Error("expected error after unload")
	}
}

func TestApplyDetectionChangesTier(t *testing.T) {
	v := newHeadless(t, loadConfig(t), Options{})
	v.applyDetection(device.DetectionResult{Tier: device.TierLow})
	if v.Tier() != device.TierLow {
		t.Fatalf("tier = %v, want low", v.Tier())
	}
	if got := v.Engine().ParticleCount(); got != 200 {
		t.Errorf("particles = %d, want 200", got)
	}
}

func TestForcedTierIgnoresDetection(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Device.ForceTier = "high"
	if err := cfg.Refresh(); err != nil {
		t.Fatal(err)
	}
	v := newHeadless(t, cfg, Options{})
	if v.Tier() != device.TierHigh {
		t.Fatalf("tier = %v, want forced high", v.Tier())
	}
	old := v.Engine()
	v.applyDetection(device.DetectionResult{Tier: device.TierLow})
	if v.Tier() != device.TierHigh || v.Engine() != old {
		t.Error("forced tier was overridden by detection")
	}
}
