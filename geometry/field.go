// Package geometry generates deterministic particle fields.
//
// All randomness flows through a single LCG stream per field, so a field
// created from the same Options is bit-identical across runs.
package geometry

import (
	"errors"
	"math"
)

// Count limits.
const (
	MinCount = 1
	MaxCount = 20000
)

// Damping limits.
const (
	MinDamping = 0.9
	MaxDamping = 0.9999
)

const (
	seedScale     = 1000.0
	dampingJitter = 0.004
)

// ErrCountMismatch is returned by Reseed when the attribute slices
// disagree on the particle count.
var ErrCountMismatch = errors.New("geometry: invalid buffers")

// Options controls field generation.
type Options struct {
	Count        int
	SpawnRadius  float64
	InitialSpeed float64
	Damping      float64
	// LifetimeMin and LifetimeMax bound the normalized lifetime drawn for
	// each particle. Both are clamped to [0, 1].
	LifetimeMin float64
	LifetimeMax float64
	Seed        int64
	Position    PositionDistribution
	Velocity    VelocityDistribution
}

// DefaultOptions returns the stock options for count particles.
func DefaultOptions(count int) Options {
	return Options{
		Count:        count,
		SpawnRadius:  2.0,
		InitialSpeed: 0.2,
		Damping:      0.985,
		LifetimeMin:  0.7,
		LifetimeMax:  1.0,
		Seed:         1337,
		Position:     Sphere,
		Velocity:     Outward,
	}
}

// Normalize clamps every option into its valid range.
func (o Options) Normalize() Options {
	o.Count = min(max(o.Count, MinCount), MaxCount)
	if o.SpawnRadius <= 0 {
		o.SpawnRadius = 2.0
	}
	if o.InitialSpeed < 0 {
		o.InitialSpeed = 0
	}
	if o.Damping == 0 {
		o.Damping = 0.985
	}
	o.Damping = math.Min(math.Max(o.Damping, MinDamping), MaxDamping)

	o.LifetimeMin = math.Min(math.Max(o.LifetimeMin, 0), 1)
	o.LifetimeMax = math.Min(math.Max(o.LifetimeMax, 0), 1)
	if o.LifetimeMin > o.LifetimeMax {
		o.LifetimeMin, o.LifetimeMax = o.LifetimeMax, o.LifetimeMin
	}
	if o.LifetimeMax == 0 {
		o.LifetimeMax = 1
	}
	if o.Position >= numPositionDistributions {
		o.Position = Sphere
	}
	if o.Velocity >= numVelocityDistributions {
		o.Velocity = Outward
	}
	return o
}

// Metadata describes a generated field.
type Metadata struct {
	Count  int
	Bounds Bounds
}

// Field is a generated particle set plus the generator that produced it.
// The generator keeps drawing from the same stream for respawns.
type Field struct {
	Buffers  *Buffers
	Metadata Metadata

	opts Options
	gen  *Generator
}

// Create generates a new field.
func Create(opts Options) *Field {
	opts = opts.Normalize()
	b := NewBuffers(opts.Count)
	gen := NewGenerator(opts)
	gen.Fill(b)
	return &Field{
		Buffers:  b,
		Metadata: Metadata{Count: opts.Count, Bounds: ComputeBounds(b)},
		opts:     opts,
		gen:      gen,
	}
}

// Options returns the normalized options the field was generated with.
func (f *Field) Options() Options {
	return f.opts
}

// Generator returns the stream used for respawning particles.
func (f *Field) Generator() *Generator {
	return f.gen
}

// Reseed regenerates the field in place from opts. The particle count is
// fixed at construction, so opts.Count is ignored. The result matches a
// fresh Create with the same options and count.
func (f *Field) Reseed(opts Options) error {
	if f.Buffers == nil || !f.Buffers.valid() {
		return ErrCountMismatch
	}
	opts.Count = f.Buffers.Len()
	opts = opts.Normalize()
	if opts.Count != f.Buffers.Len() {
		return ErrCountMismatch
	}

	f.opts = opts
	f.gen = NewGenerator(opts)
	f.gen.Fill(f.Buffers)
	f.Metadata = Metadata{Count: opts.Count, Bounds: ComputeBounds(f.Buffers)}
	return nil
}

// UpdateBounds recomputes the bounds after the simulation moved particles.
func (f *Field) UpdateBounds() {
	f.Metadata.Bounds = ComputeBounds(f.Buffers)
}

// Generator draws particles from a seeded stream.
type Generator struct {
	rng  *RNG
	opts Options
}

// NewGenerator creates a generator; opts are normalized.
func NewGenerator(opts Options) *Generator {
	opts = opts.Normalize()
	return &Generator{rng: NewRNG(opts.Seed), opts: opts}
}

// Fill draws every particle in index order.
func (g *Generator) Fill(b *Buffers) {
	for i := 0; i < b.Len(); i++ {
		g.Spawn(b, i)
	}
}

// Spawn draws a fresh particle into slot i, continuing the stream.
// Draw order: position, velocity, lifetime, seed, damping, mass, phase.
func (g *Generator) Spawn(b *Buffers, i int) {
	o := &g.opts
	n := b.Len()

	pos := positionSamplers[o.Position](g.rng, i, n, o.SpawnRadius)
	vel := velocitySamplers[o.Velocity](g.rng, pos, o.InitialSpeed)

	i3 := i * 3
	b.Positions[i3] = float32(pos[0])
	b.Positions[i3+1] = float32(pos[1])
	b.Positions[i3+2] = float32(pos[2])
	b.Velocities[i3] = float32(vel[0])
	b.Velocities[i3+1] = float32(vel[1])
	b.Velocities[i3+2] = float32(vel[2])

	// Drawn downward from the max so the result lies in (min, max].
	b.Lifetimes[i] = float32(o.LifetimeMax - g.rng.Float64()*(o.LifetimeMax-o.LifetimeMin))
	b.Seeds[i] = float32(g.rng.Float64() * seedScale)

	d := o.Damping * (1 + g.rng.Signed()*dampingJitter*0.5)
	b.Dampings[i] = float32(math.Min(math.Max(d, MinDamping), MaxDamping))
	b.Masses[i] = float32(0.5 + g.rng.Float64())
	b.Phases[i] = float32(g.rng.Float64() * 2 * math.Pi)
}

// Options returns the generator's normalized options.
func (g *Generator) Options() Options {
	return g.opts
}
