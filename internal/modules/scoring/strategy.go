// Package scoring computes the bounded confidence of a combination.
package scoring

import (
	"strings"

	"github.com/aristath/lotto/internal/domain"
)

// Strategy is a named weight profile
type Strategy string

// Strategy values
const (
	StrategyBalanced     Strategy = "balanced"
	StrategyAggressive   Strategy = "aggressive"
	StrategyConservative Strategy = "conservative"
	StrategyExperimental Strategy = "experimental"
	// StrategyCustom uses balanced multipliers and activates the ConstraintSet
	StrategyCustom Strategy = "custom"
)

// Weights holds the per-factor multipliers
type Weights struct {
	Sum     float64 `json:"sum" yaml:"sum"`
	OddEven float64 `json:"oddEven" yaml:"oddEven"`
	HighLow float64 `json:"highLow" yaml:"highLow"`
	Decades float64 `json:"decades" yaml:"decades"`
	Hot     float64 `json:"hot" yaml:"hot"`
	Cold    float64 `json:"cold" yaml:"cold"`
	Overdue float64 `json:"overdue" yaml:"overdue"`
}

var profiles = map[Strategy]Weights{
	StrategyBalanced:     {Sum: 1.0, OddEven: 1.0, HighLow: 1.0, Decades: 1.0, Hot: 1.0, Cold: 0.5, Overdue: 1.0},
	StrategyAggressive:   {Sum: 0.7, OddEven: 0.8, HighLow: 0.8, Decades: 0.7, Hot: 1.5, Cold: 0.2, Overdue: 1.5},
	StrategyConservative: {Sum: 1.2, OddEven: 1.2, HighLow: 1.2, Decades: 1.2, Hot: 0.5, Cold: 0.8, Overdue: 0.8},
	StrategyExperimental: {Sum: 0.8, OddEven: 0.8, HighLow: 0.8, Decades: 0.8, Hot: 0.2, Cold: 1.5, Overdue: 1.2},
}

// Strategies lists every accepted strategy name
func Strategies() []Strategy {
	return []Strategy{StrategyBalanced, StrategyAggressive, StrategyConservative, StrategyExperimental, StrategyCustom}
}

// ParseStrategy resolves a strategy name. Unknown or empty names are a
// configuration error; there is no fallback profile.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if s == StrategyCustom {
		return s, nil
	}
	if _, ok := profiles[s]; ok {
		return s, nil
	}
	return "", domain.ConfigError("unknown strategy %q", name)
}

// Weights returns the multipliers of the strategy
func (s Strategy) Weights() Weights {
	if s == StrategyCustom {
		return profiles[StrategyBalanced]
	}
	return profiles[s]
}

// UsesConstraints reports whether the strategy applies a ConstraintSet
func (s Strategy) UsesConstraints() bool {
	return s == StrategyCustom
}

// Normalize validates an explicit weight override.
// Zero fields mean 1 and negative fields are a configuration error.
func (w Weights) Normalize() (Weights, error) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"sum", &w.Sum},
		{"oddEven", &w.OddEven},
		{"highLow", &w.HighLow},
		{"decades", &w.Decades},
		{"hot", &w.Hot},
		{"cold", &w.Cold},
		{"overdue", &w.Overdue},
	}
	for _, f := range fields {
		// NaN fails the comparison
		if !(*f.value >= 0) {
			return Weights{}, domain.ConfigError("weight %s must not be negative, got %v", f.name, *f.value)
		}
		if *f.value == 0 {
			*f.value = 1
		}
	}
	return w, nil
}
