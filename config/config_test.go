package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/lumen/device"
	"github.com/pthm-cable/lumen/engine"
	"github.com/pthm-cable/lumen/geometry"
	"github.com/pthm-cable/lumen/host"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Derived.Position != geometry.Sphere || cfg.Derived.Velocity != geometry.Outward {
		t.Errorf("distributions = %v/%v", cfg.Derived.Position, cfg.Derived.Velocity)
	}
	if cfg.Derived.HostMode != host.ModeAlways {
		t.Errorf("host mode = %v", cfg.Derived.HostMode)
	}
	if cfg.Derived.HasForcedTier {
		t.Error("defaults should not force a tier")
	}
	if got := cfg.Derived.BaseColor.Hex(); got != "#00aaff" {
		t.Errorf("base color = %s", got)
	}
}

func TestTierBudgetsMatchPolicy(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	policy := cfg.Policy()
	want := device.DefaultPolicy()
	if policy != want {
		t.Errorf("policy = %+v, want %+v", policy, want)
	}

	for _, tier := range []device.Tier{device.TierLow, device.TierMedium, device.TierHigh} {
		ec := cfg.EngineOptions(tier)
		if ec.ParticleCount != policy.RecommendedParticleCount(tier) {
			t.Errorf("%v: engine count %d != policy count %d", tier, ec.ParticleCount, policy.RecommendedParticleCount(tier))
		}
		if ec.Geometry.Count != ec.ParticleCount {
			t.Errorf("%v: geometry count %d != %d", tier, ec.Geometry.Count, ec.ParticleCount)
		}
	}
}

func TestEngineOptionsMatchEngineDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	got := cfg.EngineOptions(device.TierHigh).Normalize()
	want := engine.DefaultConfig(false).Normalize()

	if got.ParticleCount != want.ParticleCount || got.PointSize != want.PointSize ||
		got.NoiseStrength != want.NoiseStrength || got.AttractionStrength != want.AttractionStrength ||
		got.Seed != want.Seed || got.MaxDelta != want.MaxDelta || got.LifetimeDecay != want.LifetimeDecay {
		t.Errorf("engine options diverge from engine defaults:\n got %+v\nwant %+v", got, want)
	}
	if got.Quality != want.Quality {
		t.Errorf("quality = %+v, want %+v", got.Quality, want.Quality)
	}
	if got.Mouse.ReleaseGrace != 120*time.Millisecond || got.Mouse.Radius != 1.5 {
		t.Errorf("mouse options = %+v", got.Mouse)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.yaml")
	yaml := "geometry:\n  position: helix\nhost:\n  mode: smart\ndevice:\n  force_tier: low\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Derived.Position != geometry.Helix {
		t.Errorf("position = %v, want helix", cfg.Derived.Position)
	}
	if cfg.Derived.Velocity != geometry.Outward {
		t.Errorf("velocity = %v, want default outward", cfg.Derived.Velocity)
	}
	if cfg.Derived.HostMode != host.ModeSmart {
		t.Errorf("host mode = %v, want smart", cfg.Derived.HostMode)
	}
	if !cfg.Derived.HasForcedTier || cfg.Derived.ForcedTier != device.TierLow {
		t.Errorf("forced tier = %v/%v", cfg.Derived.HasForcedTier, cfg.Derived.ForcedTier)
	}
	if cfg.Screen.Width != 1280 {
		t.Errorf("unset key lost its default: width = %d", cfg.Screen.Width)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"color", "engine:\n  base_color: \"not-a-color\"\n"},
		{"position", "geometry:\n  position: cube\n"},
		{"mode", "host:\n  mode: sometimes\n"},
		{"tier", "device:\n  force_tier: ultra\n"},
		{"quality", "quality:\n  start: extreme\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Engine.Seed = 99
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Engine.Seed != 99 {
		t.Errorf("seed = %d, want 99", back.Engine.Seed)
	}
}

func TestNewCamera(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Camera.Distance = 20
	cam := cfg.NewCamera(800, 600)
	if d := cam.Distance(); d < 19.99 || d > 20.01 {
		t.Errorf("distance = %v, want 20", d)
	}
}
