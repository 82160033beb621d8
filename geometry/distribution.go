package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PositionDistribution selects how initial positions are sampled.
type PositionDistribution uint8

const (
	Sphere PositionDistribution = iota
	Disc
	Box
	Ring
	Helix
	numPositionDistributions
)

var positionNames = [numPositionDistributions]string{
	Sphere: "sphere",
	Disc:   "disc",
	Box:    "box",
	Ring:   "ring",
	Helix:  "helix",
}

func (d PositionDistribution) String() string {
	if d < numPositionDistributions {
		return positionNames[d]
	}
	return fmt.Sprintf("PositionDistribution(%d)", uint8(d))
}

// ParsePositionDistribution maps a config name to a distribution.
func ParsePositionDistribution(s string) (PositionDistribution, error) {
	for i, name := range positionNames {
		if name == s {
			return PositionDistribution(i), nil
		}
	}
	return Sphere, fmt.Errorf("unknown position distribution %q", s)
}

// VelocityDistribution selects how initial velocities are derived.
type VelocityDistribution uint8

const (
	Outward VelocityDistribution = iota
	Random
	Upward
	Orbital
	Spiral
	numVelocityDistributions
)

var velocityNames = [numVelocityDistributions]string{
	Outward: "outward",
	Random:  "random",
	Upward:  "upward",
	Orbital: "orbital",
	Spiral:  "spiral",
}

func (d VelocityDistribution) String() string {
	if d < numVelocityDistributions {
		return velocityNames[d]
	}
	return fmt.Sprintf("VelocityDistribution(%d)", uint8(d))
}

// ParseVelocityDistribution maps a config name to a distribution.
func ParseVelocityDistribution(s string) (VelocityDistribution, error) {
	for i, name := range velocityNames {
		if name == s {
			return VelocityDistribution(i), nil
		}
	}
	return Outward, fmt.Errorf("unknown velocity distribution %q", s)
}

// positionSampler produces the position of particle i out of n.
type positionSampler func(r *RNG, i, n int, radius float64) mgl64.Vec3

// velocitySampler produces a velocity for a particle already placed at pos.
type velocitySampler func(r *RNG, pos mgl64.Vec3, speed float64) mgl64.Vec3

var positionSamplers = [numPositionDistributions]positionSampler{
	Sphere: spherePosition,
	Disc:   discPosition,
	Box:    boxPosition,
	Ring:   ringPosition,
	Helix:  helixPosition,
}

var velocitySamplers = [numVelocityDistributions]velocitySampler{
	Outward: outwardVelocity,
	Random:  randomVelocity,
	Upward:  upwardVelocity,
	Orbital: orbitalVelocity,
	Spiral:  spiralVelocity,
}

const (
	// Below this magnitude a direction derived from position is unreliable.
	minDirectionLength = 1e-6

	discJitter   = 0.05 // z thickness of a disc, fraction of radius
	ringInner    = 0.7  // ring band as a fraction of radius
	helixTurns   = 3.0
	helixJitter  = 0.02
	upwardJitter = 0.3
	spiralLift   = 0.4
)

// unitDirection draws a direction uniformly distributed on the unit sphere.
func unitDirection(r *RNG) mgl64.Vec3 {
	theta := r.Float64() * 2 * math.Pi
	phi := math.Acos(1 - 2*r.Float64())
	return mgl64.Vec3{
		math.Sin(phi) * math.Cos(theta),
		math.Sin(phi) * math.Sin(theta),
		math.Cos(phi),
	}
}

// spherePosition samples uniformly by volume: the cube root on the radius
// compensates for shell area growing with r².
func spherePosition(r *RNG, _, _ int, radius float64) mgl64.Vec3 {
	dir := unitDirection(r)
	return dir.Mul(radius * math.Cbrt(r.Float64()))
}

func discPosition(r *RNG, _, _ int, radius float64) mgl64.Vec3 {
	angle := r.Float64() * 2 * math.Pi
	rad := math.Sqrt(r.Float64()) * radius
	z := r.Signed() * discJitter * radius
	return mgl64.Vec3{rad * math.Cos(angle), rad * math.Sin(angle), z}
}

func boxPosition(r *RNG, _, _ int, radius float64) mgl64.Vec3 {
	return mgl64.Vec3{
		r.Signed() * radius,
		r.Signed() * radius,
		r.Signed() * radius,
	}
}

func ringPosition(r *RNG, _, _ int, radius float64) mgl64.Vec3 {
	angle := r.Float64() * 2 * math.Pi
	rad := radius * (ringInner + (1-ringInner)*r.Float64())
	z := r.Signed() * discJitter * radius
	return mgl64.Vec3{rad * math.Cos(angle), rad * math.Sin(angle), z}
}

// helixPosition sweeps helixTurns full turns across the index range. The
// radius widens from half to full and the height runs bottom to top.
func helixPosition(r *RNG, i, n int, radius float64) mgl64.Vec3 {
	t := 0.0
	if n > 1 {
		t = float64(i) / float64(n-1)
	}
	angle := t * helixTurns * 2 * math.Pi
	rad := radius * (0.5 + 0.5*t)
	y := (t*2 - 1) * radius
	jitter := helixJitter * radius
	return mgl64.Vec3{
		rad*math.Cos(angle) + r.Signed()*jitter,
		y + r.Signed()*jitter,
		rad*math.Sin(angle) + r.Signed()*jitter,
	}
}

func outwardVelocity(r *RNG, pos mgl64.Vec3, speed float64) mgl64.Vec3 {
	l := pos.Len()
	if l < minDirectionLength {
		return unitDirection(r).Mul(speed)
	}
	return pos.Mul(speed / l)
}

func randomVelocity(r *RNG, _ mgl64.Vec3, speed float64) mgl64.Vec3 {
	return unitDirection(r).Mul(speed)
}

func upwardVelocity(r *RNG, _ mgl64.Vec3, speed float64) mgl64.Vec3 {
	return mgl64.Vec3{
		r.Signed() * 0.5 * upwardJitter * speed,
		speed,
		r.Signed() * 0.5 * upwardJitter * speed,
	}
}

// orbitalVelocity rotates the XY position by 90° so particles circle the z axis.
func orbitalVelocity(r *RNG, pos mgl64.Vec3, speed float64) mgl64.Vec3 {
	tangent := mgl64.Vec3{-pos[1], pos[0], 0}
	l := tangent.Len()
	if l < minDirectionLength {
		return randomVelocity(r, pos, speed)
	}
	return tangent.Mul(speed / l)
}

// spiralVelocity curls around the y axis and lifts along it.
func spiralVelocity(r *RNG, pos mgl64.Vec3, speed float64) mgl64.Vec3 {
	tangent := mgl64.Vec3{-pos[2], 0, pos[0]}
	l := tangent.Len()
	if l < minDirectionLength {
		return upwardVelocity(r, pos, speed)
	}
	v := tangent.Mul(speed / l)
	v[1] = spiralLift * speed
	return v
}
