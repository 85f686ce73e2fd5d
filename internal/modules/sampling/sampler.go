// Package sampling draws distinct numbers from the 1..49 universe.
package sampling

import (
	"math"
	"math/rand"

	"github.com/aristath/lotto/internal/domain"
)

// PoolScale is the number of pool copies per unit of weight
const PoolScale = 10

// RNG is the random source used by every sampling step.
// *rand.Rand satisfies it.
type RNG interface {
	Intn(n int) int
	Float64() float64
}

// NewRNG returns a seeded generator. Equal seeds yield equal sequences.
func NewRNG(seed int64) RNG {
	return rand.New(rand.NewSource(seed))
}

// Allowed reports whether a number may be produced
type Allowed func(n int) bool

// Sampler draws numbers using one injected RNG. It is not safe for concurrent use.
type Sampler struct {
	rng RNG
}

// New creates a sampler bound to rng
func New(rng RNG) *Sampler {
	return &Sampler{rng: rng}
}

// RNG returns the underlying random source
func (s *Sampler) RNG() RNG {
	return s.rng
}

// Weighted draws count distinct numbers that are allowed and not in chosen.
//
// weights is indexed by number (index 0 unused); missing entries weigh 0.
// Each legal number gets round(weight*PoolScale) copies in a pool. A uniform
// pick from the pool selects a number, and every copy of it is purged. Once the
// pool runs dry the remaining slots are filled uniformly from the legal numbers
// left over. A legal universe smaller than count is a configuration error.
func (s *Sampler) Weighted(weights []float64, count int, chosen domain.Key, allowed Allowed) ([]int, error) {
	legal := s.legal(chosen, allowed)
	if len(legal) < count {
		return nil, domain.ConfigError("only %d legal numbers left for %d open slots", len(legal), count)
	}
	if count <= 0 {
		return []int{}, nil
	}

	var pool []int
	for _, n := range legal {
		if n >= len(weights) {
			continue
		}
		copies := int(math.Round(weights[n] * PoolScale))
		for i := 0; i < copies; i++ {
			pool = append(pool, n)
		}
	}

	picked := make([]int, 0, count)
	taken := chosen
	for len(picked) < count && len(pool) > 0 {
		n := pool[s.rng.Intn(len(pool))]
		picked = append(picked, n)
		taken = taken.With(n)
		pool = purge(pool, n)
	}

	if len(picked) < count {
		rest := make([]int, 0, len(legal))
		for _, n := range legal {
			if !taken.Has(n) {
				rest = append(rest, n)
			}
		}
		for len(picked) < count {
			idx := s.rng.Intn(len(rest))
			picked = append(picked, rest[idx])
			rest = append(rest[:idx], rest[idx+1:]...)
		}
	}

	return picked, nil
}

// Uniform draws count distinct legal numbers with equal probability
func (s *Sampler) Uniform(count int, chosen domain.Key, allowed Allowed) ([]int, error) {
	return s.Weighted(nil, count, chosen, allowed)
}

// Replacement picks one legal number absent from chosen.
// ok is false when no such number exists.
func (s *Sampler) Replacement(chosen domain.Key, allowed Allowed) (n int, ok bool) {
	legal := s.legal(chosen, allowed)
	if len(legal) == 0 {
		return 0, false
	}
	return legal[s.rng.Intn(len(legal))], true
}

func (s *Sampler) legal(chosen domain.Key, allowed Allowed) []int {
	legal := make([]int, 0, domain.MaxNumber)
	for n := domain.MinNumber; n <= domain.MaxNumber; n++ {
		if chosen.Has(n) {
			continue
		}
		if allowed != nil && !allowed(n) {
			continue
		}
		legal = append(legal, n)
	}
	return legal
}

// purge removes every copy of n in place
func purge(pool []int, n int) []int {
	out := pool[:0]
	for _, v := range pool {
		if v != n {
			out = append(out, v)
		}
	}
	return out
}
