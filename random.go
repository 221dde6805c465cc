package gemm

import (
	"math/rand/v2"
)

// Source produces pseudo-random float32 values in [0, 1). Fixtures take an
// explicit Source instead of reading ambient randomness, so a seed fully
// determines the generated matrix.
type Source interface {
	Float32() float32
}

// pcgStream is the second PCG word. It is fixed so that the seed alone keys
// the sequence.
const pcgStream = 0x9e3779b97f4a7c15

// NewSource returns the default Source: a PCG generator keyed by seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, pcgStream))
}

// LCG is a linear congruential generator with the Numerical Recipes
// parameters. It is cheaper than PCG and has weaker statistics; use it when a
// fixture must be reproducible without depending on math/rand internals.
type LCG struct {
	state uint64
}

// NewLCG returns an LCG seeded with seed.
func NewLCG(seed uint64) *LCG {
	return &LCG{state: seed}
}

// Float32 returns the next value in [0, 1), built from the top 24 bits of
// the state so every value is exactly representable.
func (g *LCG) Float32() float32 {
	g.state = g.state*1103515245 + 12345
	return float32(g.state>>40) / (1 << 24)
}

// Random returns a rows×cols matrix filled from NewSource(seed).
//
// Example:
//
//	a := Random(128, 256, 12345) // 128x256 matrix
func Random(rows, cols int, seed uint64) *Matrix {
	return RandomFrom(rows, cols, NewSource(seed))
}

// RandomFrom returns a rows×cols matrix filled in row-major order from src.
func RandomFrom(rows, cols int, src Source) *Matrix {
	m := Zeros(rows, cols)
	for i := range m.data {
		m.data[i] = src.Float32()
	}
	return m
}

// RandomRange returns a rows×cols matrix with values in [lo, hi).
func RandomRange(rows, cols int, seed uint64, lo, hi float32) *Matrix {
	m := Random(rows, cols, seed)
	scale := hi - lo
	for i := range m.data {
		m.data[i] = m.data[i]*scale + lo
	}
	return m
}
