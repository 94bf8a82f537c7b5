package combat

import "math/rand/v2"

// Rand is the randomness the arena draws on. Tests inject fixed sequences.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a seeded source. A zero seed picks a random one.
func NewRand(seed uint64) Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
