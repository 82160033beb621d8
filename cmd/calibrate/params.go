package main

import (
	"github.com/pthm-cable/lumen/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of field dynamics parameters.
// Noise strength is tuned for the medium tier and scaled for the others.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "lifetime_decay", Path: "engine.lifetime_decay", Min: 0.05, Max: 1.0, Default: 0.2},
			{Name: "noise_scale", Path: "engine.noise_scale", Min: 0.1, Max: 3.0, Default: 0.5},
			{Name: "noise_strength", Path: "engine.tiers.medium.noise_strength", Min: 0, Max: 0.5, Default: 0.1},
			{Name: "initial_speed", Path: "geometry.initial_speed", Min: 0, Max: 1.0, Default: 0.2},
			{Name: "damping", Path: "geometry.damping", Min: 0.9, Max: 1.0, Default: 0.985},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	// Order must match Specs order
	clamped := pv.Clamp(values)

	cfg.Engine.LifetimeDecay = clamped[0]
	cfg.Engine.NoiseScale = clamped[1]

	// Keep the tier ratios of the base config
	tiers := &cfg.Engine.Tiers
	if base := tiers.Medium.NoiseStrength; base > 0 {
		tiers.Low.NoiseStrength *= clamped[2] / base
		tiers.High.NoiseStrength *= clamped[2] / base
	}
	tiers.Medium.NoiseStrength = clamped[2]

	cfg.Geometry.InitialSpeed = clamped[3]
	cfg.Geometry.Damping = clamped[4]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Engine.LifetimeDecay,
		cfg.Engine.NoiseScale,
		cfg.Engine.Tiers.Medium.NoiseStrength,
		cfg.Geometry.InitialSpeed,
		cfg.Geometry.Damping,
	}
}
