package scheduler

import (
	"math/rand"

	"github.com/google/uuid"
)

// Rand is the random source threaded through every stochastic step of the
// search. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Int63() int64
	Float64() float64
	Read(p []byte) (int, error)
}

// NewRand returns a seeded source suitable for reproducible runs.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// derive splits off an independent source so work can run on another goroutine
// without sharing rng state.
func derive(rng Rand) *rand.Rand {
	return NewRand(rng.Int63())
}

// newID draws a UUID from rng so identities are part of the reproducible run.
func newID(rng Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
