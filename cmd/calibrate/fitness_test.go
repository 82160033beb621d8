package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/lumen/config"
	"github.com/pthm-cable/lumen/telemetry"
)

func window(respawns, particles int, sec, spread, visible float64) fieldSample {
	return fieldSample{
		stats:   telemetry.WindowStats{Respawns: respawns, Particles: particles, ElapsedSec: sec},
		spread:  spread,
		visible: visible,
	}
}

func TestScoreOnTarget(t *testing.T) {
	targets := Targets{Lifetime: 4, Spread: 1.5}
	// 100 particles over 2s with 50 respawns is 4s per particle.
	samples := []fieldSample{
		window(0, 100, 2, 0.5, 0.2), // settling window, ignored
		window(50, 100, 2, 1.5, 1),
		window(50, 100, 2, 1.5, 1),
	}
	sc := targets.score(samples)
	if math.Abs(sc.Lifetime-4) > 1e-9 {
		t.Errorf("lifetime = %v, want 4", sc.Lifetime)
	}
	if sc.Fitness > 1e-9 {
		t.Errorf("fitness = %v, want 0 on target", sc.Fitness)
	}
}

func TestScorePenalizesDrift(t *testing.T) {
	targets := Targets{Lifetime: 4, Spread: 1.5}
	short := targets.score([]fieldSample{window(200, 100, 2, 1.5, 1)})
	wide := targets.score([]fieldSample{window(50, 100, 2, 3, 1)})
	dim := targets.score([]fieldSample{window(50, 100, 2, 1.5, 0.5)})
	for name, sc := range map[string]Score{"short": short, "wide": wide, "dim": dim} {
		if sc.Fitness <= 0 {
			t.Errorf("%s fitness = %v, want > 0", name, sc.Fitness)
		}
	}
	if got := targets.score(nil); got.Fitness != failedFitness {
		t.Errorf("empty run fitness = %v, want %v", got.Fitness, failedFitness)
	}
}

func TestApplyToConfigKeepsTierRatios(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	ratio := cfg.Engine.Tiers.Low.NoiseStrength / cfg.Engine.Tiers.Medium.NoiseStrength

	v := []float64{0.3, 1.0, 0.2, 0.5, 2.0} // damping out of range
	pv.ApplyToConfig(cfg, v)

	got := pv.ExtractFromConfig(cfg)
	want := []float64{0.3, 1.0, 0.2, 0.5, 1.0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
	if r := cfg.Engine.Tiers.Low.NoiseStrength / cfg.Engine.Tiers.Medium.NoiseStrength; math.Abs(r-ratio) > 1e-9 {
		t.Errorf("low/medium noise ratio = %v, want %v", r, ratio)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-9 {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, back[i], def[i])
		}
	}
}
