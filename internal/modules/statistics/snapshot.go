// Package statistics turns a draw history into the feature tables used for scoring.
package statistics

import (
	"github.com/aristath/lotto/internal/domain"
)

const (
	// TopN is the length of every ranked list in a snapshot
	TopN = 10
	// CommonSumMin is the lower edge of the historically common sum band
	CommonSumMin = 115
	// CommonSumMax is the upper edge of the historically common sum band
	CommonSumMax = 215
	// SumBucketWidth is the width of a sum distribution bucket
	SumBucketWidth = 10
)

// Pair is the canonical key of an unordered number pair (smaller number first)
type Pair uint16

// NewPair builds the canonical key for a and b in any order
func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair(a<<6 | b)
}

// Numbers returns the two members, smaller first
func (p Pair) Numbers() (int, int) {
	return int(p >> 6), int(p & 63)
}

// PairCount is a pair with its co-occurrence count
type PairCount struct {
	Pair  [2]int `json:"pair"`
	Count int    `json:"count"`
}

// Key returns the canonical pair key
func (pc PairCount) Key() Pair {
	return NewPair(pc.Pair[0], pc.Pair[1])
}

// DeltaPattern is a consecutive-difference sequence with its occurrence count
type DeltaPattern struct {
	Pattern [domain.PickSize - 1]int `json:"pattern"`
	Count   int                      `json:"count"`
}

// SumStats describes the distribution of draw sums
type SumStats struct {
	Draws     []int       `json:"draws"`
	CommonMin int         `json:"commonMin"`
	CommonMax int         `json:"commonMax"`
	Buckets   map[int]int `json:"buckets"` // bucket start -> draws
	Mean      float64     `json:"mean"`
	StdDev    float64     `json:"stdDev"`
}

// Snapshot is the immutable statistical summary of a draw history.
// It is rebuilt wholesale whenever the history changes and must not be mutated
// after Analyze returns it.
type Snapshot struct {
	DrawCount     int                       `json:"drawCount"`
	Frequency     [domain.MaxNumber + 1]int `json:"frequency"`
	LastSeen      [domain.MaxNumber + 1]int `json:"lastSeen"` // DrawCount = never seen
	Hot           []int                     `json:"hot"`
	Cold          []int                     `json:"cold"`
	Overdue       []int                     `json:"overdue"`
	Affinity      map[Pair]int              `json:"affinity"`
	StrongPairs   []PairCount               `json:"strongPairs"`
	Sums          SumStats                  `json:"sums"`
	OddEven       [domain.PickSize + 1]int  `json:"oddEven"` // index = odd count
	HighLow       [domain.PickSize + 1]int  `json:"highLow"` // index = high count
	DeltaPatterns []DeltaPattern            `json:"deltaPatterns"`
}

// Gap returns how many draws ago number n was last seen.
// Never-seen numbers report zero.
func (s *Snapshot) Gap(n int) int {
	if n < domain.MinNumber || n > domain.MaxNumber {
		return 0
	}
	return s.DrawCount - s.LastSeen[n]
}

// AffinityOf returns how often a and b were drawn together
func (s *Snapshot) AffinityOf(a, b int) int {
	return s.Affinity[NewPair(a, b)]
}

// OddEvenDistribution returns the odd/even histogram keyed by label, e.g. "3O/3E".
// Splits that never occurred are omitted.
func (s *Snapshot) OddEvenDistribution() map[string]int {
	out := make(map[string]int)
	for odd, count := range s.OddEven {
		if count > 0 {
			out[domain.OddEvenLabel(odd)] = count
		}
	}
	return out
}

// HighLowDistribution returns the high/low histogram keyed by label, e.g. "2H/4L"
func (s *Snapshot) HighLowDistribution() map[string]int {
	out := make(map[string]int)
	for high, count := range s.HighLow {
		if count > 0 {
			out[domain.HighLowLabel(high)] = count
		}
	}
	return out
}

// Validate checks that every ranked list only references numbers in the universe
func (s *Snapshot) Validate() error {
	if s == nil {
		return domain.ScoringError("statistics snapshot is missing")
	}
	lists := map[string][]int{"hot": s.Hot, "cold": s.Cold, "overdue": s.Overdue}
	for name, list := range lists {
		if len(list) > TopN {
			return domain.ScoringError("%s list has %d entries, max %d", name, len(list), TopN)
		}
		for _, n := range list {
			if n < domain.MinNumber || n > domain.MaxNumber {
				return domain.ScoringError("%s list contains %d", name, n)
			}
		}
	}
	for _, pc := range s.StrongPairs {
		for _, n := range pc.Pair {
			if n < domain.MinNumber || n > domain.MaxNumber {
				return domain.ScoringError("strong pair contains %d", n)
			}
		}
	}
	return nil
}
