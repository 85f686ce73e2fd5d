package scoring

import (
	"math"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/constraints"
	"github.com/aristath/lotto/internal/modules/statistics"
)

const (
	// MaxBaseScore is the theoretical maximum of the structural factors
	MaxBaseScore = 100.0
	// Headroom is added to MaxBaseScore to form the normalization denominator.
	// The denominator is fixed: heavier weights saturate at 100 instead of rescaling.
	Headroom = 20.0

	sumCenter          = 175
	sumMaxPoints       = 20.0
	sumFalloff         = 4.0
	balancedPoints     = 15.0
	nearBalancedPoints = 10.0
	wideDecadePoints   = 15.0
	threeDecadePoints  = 5.0
	deltaTopPoints     = 10
	pairTopPoints      = 4
	pairCap            = 10
	predictionPoints   = 15.0
	consecutivePenalty = 7.0
)

// Result is the outcome of scoring one combination
type Result struct {
	Candidate domain.Candidate
	// Rejected marks a combination that broke an active constraint (confidence 0)
	Rejected bool
}

// Scorer scores combinations against one snapshot. It holds no mutable state
// and is safe for concurrent use.
type Scorer struct {
	weights     Weights
	prediction  domain.PredictionVector
	constraints *constraints.Engine

	hot, cold, overdue domain.Key
	deltaRank          map[[domain.PickSize - 1]int]int
	pairRank           map[statistics.Pair]int
}

// NewScorer prepares lookup tables for snap.
//
// prediction may be nil. engine may be nil, in which case no constraint is
// applied. A malformed snapshot is a scoring failure; a malformed prediction
// vector is a configuration error.
func NewScorer(snap *statistics.Snapshot, weights Weights, prediction domain.PredictionVector, engine *constraints.Engine) (*Scorer, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if prediction != nil {
		if err := prediction.Validate(); err != nil {
			return nil, err
		}
	}
	if engine == nil {
		engine = constraints.None()
	}

	s := &Scorer{
		weights:     weights,
		prediction:  prediction,
		constraints: engine,
		hot:         domain.KeyOf(snap.Hot...),
		cold:        domain.KeyOf(snap.Cold...),
		overdue:     domain.KeyOf(snap.Overdue...),
		deltaRank:   make(map[[domain.PickSize - 1]int]int, len(snap.DeltaPatterns)),
		pairRank:    make(map[statistics.Pair]int, len(snap.StrongPairs)),
	}
	for rank, dp := range snap.DeltaPatterns {
		if _, ok := s.deltaRank[dp.Pattern]; !ok {
			s.deltaRank[dp.Pattern] = rank
		}
	}
	for rank, pc := range snap.StrongPairs {
		if _, ok := s.pairRank[pc.Key()]; !ok {
			s.pairRank[pc.Key()] = rank
		}
	}
	return s, nil
}

// Score sorts c and computes its confidence in [0,100].
// A combination that is not six distinct numbers in range is a scoring failure.
func (s *Scorer) Score(c domain.Combination) (Result, error) {
	c = c.Sorted()
	if err := c.Validate(); err != nil {
		return Result{}, domain.ScoringError("invalid combination %v: %v", c, err)
	}

	if s.constraints.Active() && !s.constraints.Check(c) {
		return Result{Candidate: domain.NewCandidate(c, 0), Rejected: true}, nil
	}

	raw := s.raw(c)
	confidence := math.Max(0, math.Min(100, raw/(MaxBaseScore+Headroom)*100))
	return Result{Candidate: domain.NewCandidate(c, confidence)}, nil
}

// raw returns the unnormalized weighted score of a sorted, valid combination
func (s *Scorer) raw(c domain.Combination) float64 {
	w := s.weights
	score := 0.0

	sum := c.Sum()
	score += math.Max(0, sumMaxPoints-math.Abs(float64(sum-sumCenter))/sumFalloff) * w.Sum
	score += balance(c.OddCount()) * w.OddEven
	score += balance(c.HighCount()) * w.HighLow

	switch d := decadeCount(c); {
	case d >= 4:
		score += wideDecadePoints * w.Decades
	case d == 3:
		score += threeDecadePoints * w.Decades
	}

	if rank, ok := s.deltaRank[c.Deltas()]; ok {
		score += float64(max(0, deltaTopPoints-rank))
	}

	pairScore := 0
	for i := 0; i < len(c); i++ {
		for j := i + 1; j < len(c); j++ {
			if rank, ok := s.pairRank[statistics.NewPair(c[i], c[j])]; ok {
				pairScore += max(0, pairTopPoints-rank)
			}
		}
	}
	score += float64(min(pairCap, pairScore))

	for _, n := range c {
		if s.hot.Has(n) {
			score += w.Hot
		}
		if s.cold.Has(n) {
			score += w.Cold
		}
		if s.overdue.Has(n) {
			score += w.Overdue
		}
	}

	if s.prediction != nil {
		total := 0.0
		for _, n := range c {
			total += s.prediction.Probability(n)
		}
		score += predictionPoints * total / domain.PickSize
	}

	consecutive := 0
	for i := 1; i < len(c); i++ {
		if c[i] == c[i-1]+1 {
			consecutive++
		}
	}
	score -= consecutivePenalty * float64(consecutive)

	return score
}

// balance rewards an even 3/3 split and tolerates 2/4
func balance(count int) float64 {
	switch count {
	case 3:
		return balancedPoints
	case 2, 4:
		return nearBalancedPoints
	default:
		return 0
	}
}

func decadeCount(c domain.Combination) int {
	var seen [5]bool
	count := 0
	for _, n := range c {
		d := (n - 1) / 10
		if !seen[d] {
			seen[d] = true
			count++
		}
	}
	return count
}
