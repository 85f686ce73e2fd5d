// Package montecarlo estimates how often a combination would match simulated
// draws that follow the historical frequency distribution.
package montecarlo

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/sampling"
	"github.com/aristath/lotto/internal/modules/statistics"
)

const (
	// DefaultSimulations is the trial count used when none is given
	DefaultSimulations = 5000
	// DefaultMinMatch is the match threshold used when none is given
	DefaultMinMatch = 3
	// MaxSimulations bounds the work of one estimate
	MaxSimulations = 1_000_000

	ctxCheckInterval = 1024
)

// Estimate is the outcome of one validation
type Estimate struct {
	Numbers     domain.Combination `json:"numbers"`
	Simulations int                `json:"simulations"`
	MinMatch    int                `json:"minMatch"`
	Wins        int                `json:"wins"`
	Percent     float64            `json:"percent"`
}

// Validator runs simulations with an injected random source.
// It is independent of the optimizer and not safe for concurrent use.
type Validator struct {
	rng sampling.RNG
}

// New creates a validator
func New(rng sampling.RNG) *Validator {
	return &Validator{rng: rng}
}

// Estimate simulates sims draws and counts those sharing at least minMatch
// numbers with c.
//
// Each simulated number is picked by cumulative probability proportional to
// snap.Frequency, redrawing when it already appears in the same simulated draw.
// A history without any frequency falls back to a uniform distribution.
func (v *Validator) Estimate(ctx context.Context, c domain.Combination, snap *statistics.Snapshot, sims, minMatch int) (*Estimate, error) {
	c = c.Sorted()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, domain.ConfigError("statistics snapshot is missing")
	}
	if sims < 1 || sims > MaxSimulations {
		return nil, domain.ConfigError("simulations must be in [1,%d], got %d", MaxSimulations, sims)
	}
	if minMatch < 1 || minMatch > domain.PickSize {
		return nil, domain.ConfigError("minMatch must be in [1,%d], got %d", domain.PickSize, minMatch)
	}

	cumulative, err := distribution(snap)
	if err != nil {
		return nil, err
	}
	total := cumulative[len(cumulative)-1]
	target := c.Key()

	wins := 0
	for trial := 0; trial < sims; trial++ {
		if trial%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var drawn domain.Key
		for drawn.Count() < domain.PickSize {
			r := v.rng.Float64() * total
			idx := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > r })
			if idx == len(cumulative) {
				idx = len(cumulative) - 1
			}
			drawn = drawn.With(idx + domain.MinNumber)
		}

		if (drawn & target).Count() >= minMatch {
			wins++
		}
	}

	return &Estimate{
		Numbers:     c,
		Simulations: sims,
		MinMatch:    minMatch,
		Wins:        wins,
		Percent:     100 * float64(wins) / float64(sims),
	}, nil
}

// distribution returns the cumulative weights of numbers 1..49 (index 0 is number 1)
func distribution(snap *statistics.Snapshot) ([]float64, error) {
	weights := make([]float64, domain.MaxNumber)
	positive := 0
	for n := domain.MinNumber; n <= domain.MaxNumber; n++ {
		if f := snap.Frequency[n]; f > 0 {
			weights[n-domain.MinNumber] = float64(f)
			positive++
		}
	}

	if positive == 0 {
		for i := range weights {
			weights[i] = 1
		}
		positive = len(weights)
	}
	if positive < domain.PickSize {
		return nil, domain.ConfigError("only %d numbers have a positive probability, need %d", positive, domain.PickSize)
	}

	return floats.CumSum(make([]float64, len(weights)), weights), nil
}
