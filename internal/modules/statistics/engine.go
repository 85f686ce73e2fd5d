package statistics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/lotto/internal/domain"
)

// Analyze builds a snapshot from draws ordered oldest first.
//
// The pass is deterministic and allocation-light: one visit per draw plus the
// 15 pairs of each draw. An empty history is valid and yields an all-zero
// snapshot with empty ranked lists.
func Analyze(draws []domain.Draw) *Snapshot {
	s := &Snapshot{
		DrawCount:     len(draws),
		Hot:           []int{},
		Cold:          []int{},
		Overdue:       []int{},
		Affinity:      make(map[Pair]int),
		StrongPairs:   []PairCount{},
		DeltaPatterns: []DeltaPattern{},
		Sums: SumStats{
			Draws:     make([]int, 0, len(draws)),
			CommonMin: CommonSumMin,
			CommonMax: CommonSumMax,
			Buckets:   make(map[int]int),
		},
	}
	// Never-seen numbers sit at DrawCount, so their gap is zero and they rank last for overdue
	for n := range s.LastSeen {
		s.LastSeen[n] = len(draws)
	}

	// First-seen order is the tie breaker for pairs and delta patterns
	var pairOrder []Pair
	deltaIndex := make(map[[domain.PickSize - 1]int]int)

	for idx, draw := range draws {
		c := draw.Combination()

		for _, n := range c {
			if n < domain.MinNumber || n > domain.MaxNumber {
				continue
			}
			s.Frequency[n]++
			s.LastSeen[n] = idx
		}

		for i := 0; i < len(c); i++ {
			for j := i + 1; j < len(c); j++ {
				p := NewPair(c[i], c[j])
				if _, seen := s.Affinity[p]; !seen {
					pairOrder = append(pairOrder, p)
				}
				s.Affinity[p]++
			}
		}

		sum := c.Sum()
		s.Sums.Draws = append(s.Sums.Draws, sum)
		s.Sums.Buckets[(sum/SumBucketWidth)*SumBucketWidth]++
		s.OddEven[c.OddCount()]++
		s.HighLow[c.HighCount()]++

		deltas := c.Deltas()
		if pos, ok := deltaIndex[deltas]; ok {
			s.DeltaPatterns[pos].Count++
		} else {
			deltaIndex[deltas] = len(s.DeltaPatterns)
			s.DeltaPatterns = append(s.DeltaPatterns, DeltaPattern{Pattern: deltas, Count: 1})
		}
	}

	s.Sums.Mean, s.Sums.StdDev = sumMoments(s.Sums.Draws)

	if len(draws) == 0 {
		return s
	}

	s.Hot = rankNumbers(func(a, b int) bool { return s.Frequency[a] > s.Frequency[b] })
	s.Cold = rankNumbers(func(a, b int) bool { return s.Frequency[a] < s.Frequency[b] })
	s.Overdue = rankNumbers(func(a, b int) bool { return s.Gap(a) > s.Gap(b) })

	pairs := make([]PairCount, 0, len(pairOrder))
	for _, p := range pairOrder {
		a, b := p.Numbers()
		pairs = append(pairs, PairCount{Pair: [2]int{a, b}, Count: s.Affinity[p]})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Count > pairs[j].Count })
	s.StrongPairs = truncate(pairs, TopN)

	sort.SliceStable(s.DeltaPatterns, func(i, j int) bool {
		return s.DeltaPatterns[i].Count > s.DeltaPatterns[j].Count
	})
	s.DeltaPatterns = truncate(s.DeltaPatterns, TopN)

	return s
}

// rankNumbers orders the universe by less (ties keep ascending numeric order)
// and returns the first TopN numbers.
func rankNumbers(less func(a, b int) bool) []int {
	numbers := make([]int, 0, domain.MaxNumber)
	for n := domain.MinNumber; n <= domain.MaxNumber; n++ {
		numbers = append(numbers, n)
	}
	sort.SliceStable(numbers, func(i, j int) bool { return less(numbers[i], numbers[j]) })
	return truncate(numbers, TopN)
}

func truncate[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	out := make([]T, n)
	copy(out, items[:n])
	return out
}

// sumMoments returns mean and sample standard deviation of the draw sums.
// Fewer than two draws have no spread.
func sumMoments(sums []int) (float64, float64) {
	if len(sums) == 0 {
		return 0, 0
	}
	values := make([]float64, len(sums))
	for i, v := range sums {
		values[i] = float64(v)
	}
	if len(values) < 2 {
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}
