// Package constraints validates and applies the custom strategy's rules.
package constraints

import (
	"sort"

	"github.com/aristath/lotto/internal/domain"
)

// Engine is a validated, immutable ConstraintSet.
// The zero-rule engine returned by None allows everything.
type Engine struct {
	sumMin  *int
	sumMax  *int
	include domain.Key
	exclude domain.Key
}

// None returns an engine without rules
func None() *Engine {
	return &Engine{}
}

// New validates set and builds an engine from it.
//
// Every contradiction is reported before anything is generated:
//   - sumMin > sumMax
//   - more than PickSize includes, or any include/exclude outside the universe
//   - a number both included and excluded
//   - fewer than PickSize numbers left once excludes are removed
//   - sum bounds no legal combination can reach
//
// A nil set yields None().
func New(set *domain.ConstraintSet) (*Engine, error) {
	if set.IsEmpty() {
		return None(), nil
	}

	e := &Engine{sumMin: copyInt(set.SumMin), sumMax: copyInt(set.SumMax)}

	if e.sumMin != nil && e.sumMax != nil && *e.sumMin > *e.sumMax {
		return nil, domain.ConfigError("sumMin %d is greater than sumMax %d", *e.sumMin, *e.sumMax)
	}
	if len(set.Include) > domain.PickSize {
		return nil, domain.ConfigError("%d include numbers, at most %d allowed", len(set.Include), domain.PickSize)
	}

	for _, n := range set.Include {
		if err := checkNumber("include", n); err != nil {
			return nil, err
		}
		if e.include.Has(n) {
			return nil, domain.ConfigError("include number %d listed twice", n)
		}
		e.include = e.include.With(n)
	}
	for _, n := range set.Exclude {
		if err := checkNumber("exclude", n); err != nil {
			return nil, err
		}
		if e.include.Has(n) {
			return nil, domain.ConfigError("number %d is both included and excluded", n)
		}
		e.exclude = e.exclude.With(n)
	}

	if legal := domain.MaxNumber - e.exclude.Count(); legal < domain.PickSize {
		return nil, domain.ConfigError("only %d numbers remain after exclusions, need %d", legal, domain.PickSize)
	}

	lo, hi := e.SumRange()
	if e.sumMin != nil && *e.sumMin > hi {
		return nil, domain.ConfigError("sumMin %d is unreachable, largest legal sum is %d", *e.sumMin, hi)
	}
	if e.sumMax != nil && *e.sumMax < lo {
		return nil, domain.ConfigError("sumMax %d is unreachable, smallest legal sum is %d", *e.sumMax, lo)
	}

	return e, nil
}

// Active reports whether the engine carries any rule
func (e *Engine) Active() bool {
	return e.sumMin != nil || e.sumMax != nil || e.include != 0 || e.exclude != 0
}

// Allowed reports whether n may be produced by sampling, crossover or mutation
func (e *Engine) Allowed(n int) bool {
	return n >= domain.MinNumber && n <= domain.MaxNumber && !e.exclude.Has(n)
}

// Required reports whether n must appear in every combination
func (e *Engine) Required(n int) bool {
	return e.include.Has(n)
}

// IncludeKey returns the include set as a key
func (e *Engine) IncludeKey() domain.Key {
	return e.include
}

// Includes returns the include numbers ascending
func (e *Engine) Includes() []int {
	return members(e.include)
}

// Excludes returns the exclude numbers ascending
func (e *Engine) Excludes() []int {
	return members(e.exclude)
}

// Check reports whether c respects the sum bounds and contains every include.
// Exclusion is not rechecked here: generators never produce excluded numbers.
func (e *Engine) Check(c domain.Combination) bool {
	sum := c.Sum()
	if e.sumMin != nil && sum < *e.sumMin {
		return false
	}
	if e.sumMax != nil && sum > *e.sumMax {
		return false
	}
	return c.Key()&e.include == e.include
}

// SumRange returns the smallest and largest sum of a legal combination
func (e *Engine) SumRange() (int, int) {
	base := 0
	for _, n := range e.Includes() {
		base += n
	}
	open := domain.PickSize - e.include.Count()

	free := make([]int, 0, domain.MaxNumber)
	for n := domain.MinNumber; n <= domain.MaxNumber; n++ {
		if e.Allowed(n) && !e.include.Has(n) {
			free = append(free, n)
		}
	}
	if open > len(free) {
		open = len(free)
	}

	lo, hi := base, base
	for i := 0; i < open; i++ {
		lo += free[i]
		hi += free[len(free)-1-i]
	}
	return lo, hi
}

// Set returns the rules as a ConstraintSet
func (e *Engine) Set() domain.ConstraintSet {
	return domain.ConstraintSet{
		SumMin:  copyInt(e.sumMin),
		SumMax:  copyInt(e.sumMax),
		Include: e.Includes(),
		Exclude: e.Excludes(),
	}
}

func checkNumber(kind string, n int) error {
	if n < domain.MinNumber || n > domain.MaxNumber {
		return domain.ConfigError("%s number %d outside [%d,%d]", kind, n, domain.MinNumber, domain.MaxNumber)
	}
	return nil
}

func members(k domain.Key) []int {
	out := make([]int, 0, k.Count())
	for n := domain.MinNumber; n <= domain.MaxNumber; n++ {
		if k.Has(n) {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
