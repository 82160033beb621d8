package geometry

// RNG is a 32-bit linear congruential generator.
// It is used for every stochastic decision in particle generation so that a
// given seed reproduces the same field on every platform.
type RNG struct {
	state uint32
}

// LCG constants (Numerical Recipes).
const (
	lcgMul = 1664525
	lcgInc = 1013904223
)

// NewRNG creates a generator seeded from the low 32 bits of seed.
func NewRNG(seed int64) *RNG {
	return &RNG{state: uint32(seed)}
}

// Next advances the generator and returns the raw 32-bit state.
func (r *RNG) Next() uint32 {
	r.state = r.state*lcgMul + lcgInc
	return r.state
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Next()) / 4294967296.0
}

// Signed returns a value in [-1, 1).
func (r *RNG) Signed() float64 {
	return r.Float64()*2 - 1
}

// State returns the current internal state.
func (r *RNG) State() uint32 {
	return r.state
}
