package delay

import (
	"math/rand/v2"
	"sync"
)

// RandomSource supplies the uniform randomness used by the jitter and
// random-range strategies. *rand.Rand from math/rand/v2 satisfies it, but is
// not safe for concurrent use; wrap it with NewLockedSource when it is shared.
type RandomSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Int64N returns a value in [0, n). n must be positive.
	Int64N(n int64) int64
}

type globalSource struct{}

func (globalSource) Float64() float64     { return rand.Float64() }
func (globalSource) Int64N(n int64) int64 { return rand.Int64N(n) }

// DefaultSource returns a source backed by the top-level math/rand/v2
// functions, which are safe for concurrent use.
func DefaultSource() RandomSource {
	return globalSource{}
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedSource serialises access to rng so it can be shared between
// concurrent delays.
func NewLockedSource(rng *rand.Rand) RandomSource {
	return &lockedSource{rng: rng}
}

// NewSeededSource returns a reproducible, concurrency-safe source. The same
// seed always yields the same sequence.
func NewSeededSource(seed int64) RandomSource {
	s := uint64(seed)
	return NewLockedSource(rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)))
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *lockedSource) Int64N(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int64N(n)
}
