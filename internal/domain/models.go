// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"math/bits"
	"sort"
	"time"
)

const (
	// MinNumber is the smallest number in the universe
	MinNumber = 1
	// MaxNumber is the largest number in the universe
	MaxNumber = 49
	// PickSize is the number of distinct numbers in a draw or combination
	PickSize = 6
	// HighThreshold splits low numbers (<= 24) from high numbers (> 24)
	HighThreshold = 24
	// DateLayout is the ISO date layout used by draw records
	DateLayout = "2006-01-02"
)

// Draw represents one historical draw record.
//
// Numbers are kept ascending. The bonus number is NOT required to differ from
// the main numbers: source feeds have never guaranteed it, so the overlap is
// reported by BonusOverlapsMain instead of being rejected.
type Draw struct {
	Date    string        `json:"date"`
	Numbers [PickSize]int `json:"numbers"`
	Bonus   int           `json:"bonus"`
}

// Time parses the draw date
func (d Draw) Time() (time.Time, error) {
	return time.Parse(DateLayout, d.Date)
}

// Combination returns the main numbers as a sorted combination
func (d Draw) Combination() Combination {
	return Combination(d.Numbers).Sorted()
}

// BonusOverlapsMain reports whether the bonus number is also one of the main numbers
func (d Draw) BonusOverlapsMain() bool {
	return Combination(d.Numbers).Contains(d.Bonus)
}

// Combination is a proposed or drawn set of PickSize numbers.
// Outside of construction it is always sorted ascending.
type Combination [PickSize]int

// NewCombination validates numbers and returns them as a sorted combination
func NewCombination(numbers []int) (Combination, error) {
	var c Combination
	if len(numbers) != PickSize {
		return c, ConfigError("combination needs exactly %d numbers, got %d", PickSize, len(numbers))
	}
	copy(c[:], numbers)
	c = c.Sorted()
	if err := c.Validate(); err != nil {
		return Combination{}, err
	}
	return c, nil
}

// Sorted returns a copy of the combination sorted ascending
func (c Combination) Sorted() Combination {
	sort.Ints(c[:])
	return c
}

// Validate checks that all numbers are distinct and inside the universe
func (c Combination) Validate() error {
	var seen Key
	for _, n := range c {
		if n < MinNumber || n > MaxNumber {
			return ConfigError("number %d outside [%d,%d]", n, MinNumber, MaxNumber)
		}
		if seen.Has(n) {
			return ConfigError("number %d appears more than once", n)
		}
		seen = seen.With(n)
	}
	return nil
}

// Sum returns the sum of all numbers
func (c Combination) Sum() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// OddCount returns how many numbers are odd
func (c Combination) OddCount() int {
	count := 0
	for _, n := range c {
		if n%2 != 0 {
			count++
		}
	}
	return count
}

// HighCount returns how many numbers are above HighThreshold
func (c Combination) HighCount() int {
	count := 0
	for _, n := range c {
		if n > HighThreshold {
			count++
		}
	}
	return count
}

// Deltas returns the consecutive differences of a sorted combination
func (c Combination) Deltas() [PickSize - 1]int {
	var deltas [PickSize - 1]int
	for i := 1; i < PickSize; i++ {
		deltas[i-1] = c[i] - c[i-1]
	}
	return deltas
}

// Contains reports whether n is part of the combination
func (c Combination) Contains(n int) bool {
	for _, v := range c {
		if v == n {
			return true
		}
	}
	return false
}

// Key returns the bit-set identity of the combination
func (c Combination) Key() Key {
	return KeyOf(c[:]...)
}

// Overlap counts the numbers shared with other
func (c Combination) Overlap(other Combination) int {
	return (c.Key() & other.Key()).Count()
}

// Key is a bit-set over the universe; bit n is set when number n is present.
// Two combinations are equal as sets exactly when their keys are equal.
type Key uint64

// KeyOf builds a key from numbers
func KeyOf(numbers ...int) Key {
	var k Key
	for _, n := range numbers {
		k = k.With(n)
	}
	return k
}

// With returns the key with n added
func (k Key) With(n int) Key {
	if n < 0 || n > 63 {
		return k
	}
	return k | Key(1)<<uint(n)
}

// Has reports whether n is in the key
func (k Key) Has(n int) bool {
	if n < 0 || n > 63 {
		return false
	}
	return k&(Key(1)<<uint(n)) != 0
}

// Count returns the number of members
func (k Key) Count() int {
	return bits.OnesCount64(uint64(k))
}

// OddEvenLabel formats an odd/even split, e.g. "3O/3E"
func OddEvenLabel(odd int) string {
	return fmt.Sprintf("%dO/%dE", odd, PickSize-odd)
}

// HighLowLabel formats a high/low split, e.g. "2H/4L"
func HighLowLabel(high int) string {
	return fmt.Sprintf("%dH/%dL", high, PickSize-high)
}

// Candidate is a scored combination
type Candidate struct {
	Numbers    Combination `json:"numbers"`
	Sum        int         `json:"sum"`
	OddEven    string      `json:"oddEven"`
	HighLow    string      `json:"highLow"`
	Confidence float64     `json:"confidence"`
}

// NewCandidate derives the descriptive fields of a combination
func NewCandidate(c Combination, confidence float64) Candidate {
	c = c.Sorted()
	return Candidate{
		Numbers:    c,
		Sum:        c.Sum(),
		OddEven:    OddEvenLabel(c.OddCount()),
		HighLow:    HighLowLabel(c.HighCount()),
		Confidence: confidence,
	}
}

// ConstraintSet holds the rules of the custom strategy.
// Bounds are inclusive and only checked when present.
type ConstraintSet struct {
	SumMin  *int  `json:"sumMin,omitempty" yaml:"sumMin,omitempty"`
	SumMax  *int  `json:"sumMax,omitempty" yaml:"sumMax,omitempty"`
	Include []int `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []int `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// IsEmpty reports whether the set carries no rule at all
func (s *ConstraintSet) IsEmpty() bool {
	return s == nil || (s.SumMin == nil && s.SumMax == nil && len(s.Include) == 0 && len(s.Exclude) == 0)
}

// PredictionVector holds an externally computed probability per number.
// Index i is the probability of number i+1.
type PredictionVector []float64

// Validate checks the vector length and value range
func (p PredictionVector) Validate() error {
	if len(p) != MaxNumber {
		return ConfigError("prediction vector needs %d values, got %d", MaxNumber, len(p))
	}
	for i, v := range p {
		// NaN fails both comparisons
		if !(v >= 0 && v <= 1) {
			return ConfigError("prediction for number %d is %v, want [0,1]", i+1, v)
		}
	}
	return nil
}

// Probability returns the probability of number n (0 when out of range)
func (p PredictionVector) Probability(n int) float64 {
	if n < MinNumber || n > len(p) {
		return 0
	}
	return p[n-1]
}
