package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Buffers holds per-particle attributes as a struct of arrays.
// Vector attributes are interleaved xyz so they can be uploaded as-is.
type Buffers struct {
	Positions  []float32
	Velocities []float32
	Lifetimes  []float32
	Seeds      []float32
	Dampings   []float32
	Masses     []float32
	Phases     []float32
}

// NewBuffers allocates storage for n particles.
func NewBuffers(n int) *Buffers {
	return &Buffers{
		Positions:  make([]float32, n*3),
		Velocities: make([]float32, n*3),
		Lifetimes:  make([]float32, n),
		Seeds:      make([]float32, n),
		Dampings:   make([]float32, n),
		Masses:     make([]float32, n),
		Phases:     make([]float32, n),
	}
}

// Len returns the particle count.
func (b *Buffers) Len() int {
	return len(b.Lifetimes)
}

// valid reports whether all attribute slices agree on the particle count.
func (b *Buffers) valid() bool {
	n := len(b.Lifetimes)
	return len(b.Positions) == n*3 &&
		len(b.Velocities) == n*3 &&
		len(b.Seeds) == n &&
		len(b.Dampings) == n &&
		len(b.Masses) == n &&
		len(b.Phases) == n
}

// Position returns particle i's position.
func (b *Buffers) Position(i int) mgl32.Vec3 {
	i3 := i * 3
	return mgl32.Vec3{b.Positions[i3], b.Positions[i3+1], b.Positions[i3+2]}
}

// SetPosition overwrites particle i's position.
func (b *Buffers) SetPosition(i int, p mgl32.Vec3) {
	i3 := i * 3
	b.Positions[i3], b.Positions[i3+1], b.Positions[i3+2] = p[0], p[1], p[2]
}

// Velocity returns particle i's velocity.
func (b *Buffers) Velocity(i int) mgl32.Vec3 {
	i3 := i * 3
	return mgl32.Vec3{b.Velocities[i3], b.Velocities[i3+1], b.Velocities[i3+2]}
}

// SetVelocity overwrites particle i's velocity.
func (b *Buffers) SetVelocity(i int, v mgl32.Vec3) {
	i3 := i * 3
	b.Velocities[i3], b.Velocities[i3+1], b.Velocities[i3+2] = v[0], v[1], v[2]
}

// Bounds is an axis-aligned box plus an enclosing sphere.
type Bounds struct {
	Min, Max mgl32.Vec3
	Center   mgl32.Vec3
	Radius   float32
}

// ComputeBounds scans positions for the bounding box and a sphere centered
// on the box center.
func ComputeBounds(b *Buffers) Bounds {
	n := b.Len()
	if n == 0 {
		return Bounds{}
	}
	inf := float32(math.Inf(1))
	minV := mgl32.Vec3{inf, inf, inf}
	maxV := mgl32.Vec3{-inf, -inf, -inf}
	for i := 0; i < n; i++ {
		p := b.Position(i)
		for k := 0; k < 3; k++ {
			minV[k] = min(minV[k], p[k])
			maxV[k] = max(maxV[k], p[k])
		}
	}
	center := minV.Add(maxV).Mul(0.5)
	var radius float32
	for i := 0; i < n; i++ {
		radius = max(radius, b.Position(i).Sub(center).Len())
	}
	return Bounds{Min: minV, Max: maxV, Center: center, Radius: radius}
}
