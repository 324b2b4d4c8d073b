package rng

import (
	"math/rand"
)

// Adapter implements RNGPort with math/rand sources
type Adapter struct{}

// NewAdapter creates an RNG adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named
// operation. The stream depends on the seed alone, so a caller that reseeds
// with the same value reproduces an earlier run exactly.
func (a *Adapter) SeededStream(name string, seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
