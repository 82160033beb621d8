package geometry

import (
	"math"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRNGSequence(t *testing.T) {
	r := NewRNG(0)
	// First two outputs of the LCG from a zero state.
	if got := r.Next(); got != 1013904223 {
		t.Errorf("expected first value 1013904223, got %d", got)
	}
	if got := r.Next(); got != 1196435762 {
		t.Errorf("expected second value 1196435762, got %d", got)
	}
}

func TestRNGFloatRange(t *testing.T) {
	r := NewRNG(99)
	for i := 0; i < 10000; i++ {
		f := r.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %f", f)
		}
	}
}

func TestCreateDeterministic(t *testing.T) {
	for p := PositionDistribution(0); p < numPositionDistributions; p++ {
		for v := VelocityDistribution(0); v < numVelocityDistributions; v++ {
			opts := DefaultOptions(256)
			opts.Seed = 42
			opts.Position = p
			opts.Velocity = v

			a := Create(opts).Buffers
			b := Create(opts).Buffers

			if !slices.Equal(a.Positions, b.Positions) ||
				!slices.Equal(a.Velocities, b.Velocities) ||
				!slices.Equal(a.Lifetimes, b.Lifetimes) ||
				!slices.Equal(a.Seeds, b.Seeds) {
				t.Errorf("%s/%s: buffers differ between runs", p, v)
			}
		}
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a := DefaultOptions(16)
	b := a
	b.Seed = a.Seed + 1
	if slices.Equal(Create(a).Buffers.Positions, Create(b).Buffers.Positions) {
		t.Error("expected different seeds to produce different positions")
	}
}

func TestSphereContainment(t *testing.T) {
	opts := DefaultOptions(5000)
	opts.SpawnRadius = 3
	f := Create(opts)

	for i := 0; i < f.Buffers.Len(); i++ {
		if d := f.Buffers.Position(i).Len(); d > 3+1e-4 {
			t.Fatalf("particle %d at distance %f outside radius 3", i, d)
		}
	}
}

func TestSphereIsVolumeUniform(t *testing.T) {
	opts := DefaultOptions(20000)
	opts.SpawnRadius = 1
	f := Create(opts)

	// Uniform by volume puts 1 - 0.5^3 = 87.5% of points in the outer half.
	outer := 0
	for i := 0; i < f.Buffers.Len(); i++ {
		if f.Buffers.Position(i).Len() > 0.5 {
			outer++
		}
	}
	frac := float64(outer) / float64(f.Buffers.Len())
	if math.Abs(frac-0.875) > 0.02 {
		t.Errorf("expected ~87.5%% of points beyond r=0.5, got %.1f%%", frac*100)
	}
}

func TestBoxContainment(t *testing.T) {
	opts := DefaultOptions(5000)
	opts.Position = Box
	opts.SpawnRadius = 2
	f := Create(opts)

	for i, v := range f.Buffers.Positions {
		if v < -2 || v > 2 {
			t.Fatalf("component %d = %f outside [-2, 2]", i, v)
		}
	}
}

func TestRingBand(t *testing.T) {
	opts := DefaultOptions(2000)
	opts.Position = Ring
	opts.SpawnRadius = 1
	f := Create(opts)

	for i := 0; i < f.Buffers.Len(); i++ {
		p := f.Buffers.Position(i)
		r := math.Hypot(float64(p[0]), float64(p[1]))
		if r < ringInner-1e-4 || r > 1+1e-4 {
			t.Fatalf("ring particle %d at planar radius %f", i, r)
		}
	}
}

func TestHelixSpansHeight(t *testing.T) {
	opts := DefaultOptions(500)
	opts.Position = Helix
	opts.SpawnRadius = 2
	f := Create(opts)

	first := f.Buffers.Position(0)[1]
	last := f.Buffers.Position(f.Buffers.Len() - 1)[1]
	if first > -1.9 || last < 1.9 {
		t.Errorf("expected helix to run from y=-2 to y=2, got %f to %f", first, last)
	}
}

func TestOrbitalCurls(t *testing.T) {
	opts := DefaultOptions(500)
	opts.Velocity = Orbital
	f := Create(opts)

	for i := 0; i < f.Buffers.Len(); i++ {
		p := f.Buffers.Position(i)
		v := f.Buffers.Velocity(i)
		// Tangent to the z axis: no radial component in the XY plane.
		if dot := p[0]*v[0] + p[1]*v[1]; math.Abs(float64(dot)) > 1e-4 {
			t.Fatalf("particle %d has radial velocity %f", i, dot)
		}
	}
}

func TestOutwardRadiates(t *testing.T) {
	opts := DefaultOptions(200)
	opts.InitialSpeed = 0.5
	f := Create(opts)

	for i := 0; i < f.Buffers.Len(); i++ {
		p := f.Buffers.Position(i)
		v := f.Buffers.Velocity(i)
		if math.Abs(float64(v.Len())-0.5) > 1e-4 {
			t.Fatalf("particle %d speed %f, expected 0.5", i, v.Len())
		}
		if p.Len() > 1e-3 && p.Dot(v) <= 0 {
			t.Fatalf("particle %d velocity points inward", i)
		}
	}
}

func TestOutwardFallbackAtOrigin(t *testing.T) {
	v := outwardVelocity(NewRNG(1), mgl64.Vec3{}, 2)
	if math.Abs(v.Len()-2) > 1e-9 {
		t.Errorf("expected fallback speed 2, got %f", v.Len())
	}
}

func TestLifetimeRange(t *testing.T) {
	opts := DefaultOptions(1000)
	opts.LifetimeMin = 0.4
	opts.LifetimeMax = 0.6
	f := Create(opts)

	for i, l := range f.Buffers.Lifetimes {
		if l <= 0.4-1e-6 || l > 0.6+1e-6 {
			t.Fatalf("lifetime %d = %f outside (0.4, 0.6]", i, l)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Options
		check func(Options) bool
	}{
		{"count floor", Options{Count: 0}, func(o Options) bool { return o.Count == MinCount }},
		{"count ceiling", Options{Count: 1 << 20}, func(o Options) bool { return o.Count == MaxCount }},
		{"damping low", Options{Damping: 0.5}, func(o Options) bool { return o.Damping == MinDamping }},
		{"damping high", Options{Damping: 1.5}, func(o Options) bool { return o.Damping == MaxDamping }},
		{"lifetime swapped", Options{LifetimeMin: 0.9, LifetimeMax: 0.2}, func(o Options) bool {
			return o.LifetimeMin == 0.2 && o.LifetimeMax == 0.9
		}},
		{"lifetime clamped", Options{LifetimeMin: -1, LifetimeMax: 5}, func(o Options) bool {
			return o.LifetimeMin == 0 && o.LifetimeMax == 1
		}},
		{"bad distribution", Options{Position: 200, Velocity: 200}, func(o Options) bool {
			return o.Position == Sphere && o.Velocity == Outward
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(); !tc.check(got) {
				t.Errorf("unexpected normalized options %+v", got)
			}
		})
	}
}

func TestReseedMatchesCreate(t *testing.T) {
	f := Create(DefaultOptions(64))
	posPtr := &f.Buffers.Positions[0]

	next := DefaultOptions(64)
	next.Seed = 7
	next.Position = Disc
	next.Velocity = Spiral
	if err := f.Reseed(next); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if &f.Buffers.Positions[0] != posPtr {
		t.Error("reseed reallocated position storage")
	}

	fresh := Create(next)
	if !slices.Equal(f.Buffers.Positions, fresh.Buffers.Positions) ||
		!slices.Equal(f.Buffers.Velocities, fresh.Buffers.Velocities) ||
		!slices.Equal(f.Buffers.Lifetimes, fresh.Buffers.Lifetimes) ||
		!slices.Equal(f.Buffers.Phases, fresh.Buffers.Phases) {
		t.Error("reseeded field differs from a fresh field with the same options")
	}
}

func TestReseedKeepsCount(t *testing.T) {
	f := Create(DefaultOptions(10))
	opts := DefaultOptions(500)
	if err := f.Reseed(opts); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if f.Buffers.Len() != 10 || f.Metadata.Count != 10 {
		t.Errorf("expected count to stay 10, got %d", f.Buffers.Len())
	}
}

func TestReseedRejectsCorruptBuffers(t *testing.T) {
	f := Create(DefaultOptions(10))
	f.Buffers.Seeds = f.Buffers.Seeds[:5]
	if err := f.Reseed(DefaultOptions(10)); err != ErrCountMismatch {
		t.Errorf("expected ErrCountMismatch, got %v", err)
	}
}

func TestSpawnContinuesStream(t *testing.T) {
	f := Create(DefaultOptions(8))
	b := f.Buffers
	first := b.Position(0)

	f.Generator().Spawn(b, 0)
	second := b.Position(0)
	f.Generator().Spawn(b, 0)
	third := b.Position(0)

	if first == second || second == third {
		t.Error("respawns should draw new positions from the continuing stream")
	}
}

func TestBounds(t *testing.T) {
	opts := DefaultOptions(1000)
	opts.Position = Box
	opts.SpawnRadius = 1
	f := Create(opts)
	bb := f.Metadata.Bounds

	for k := 0; k < 3; k++ {
		if bb.Min[k] < -1 || bb.Max[k] > 1 || bb.Min[k] > bb.Max[k] {
			t.Errorf("axis %d bounds [%f, %f]", k, bb.Min[k], bb.Max[k])
		}
	}
	if bb.Radius <= 0 || bb.Radius > float32(math.Sqrt(3))*2 {
		t.Errorf("unexpected bounding radius %f", bb.Radius)
	}
}

func TestParseDistributions(t *testing.T) {
	for p := PositionDistribution(0); p < numPositionDistributions; p++ {
		got, err := ParsePositionDistribution(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePositionDistribution(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseVelocityDistribution("sideways"); err == nil {
		t.Error("expected error for unknown velocity distribution")
	}
}
