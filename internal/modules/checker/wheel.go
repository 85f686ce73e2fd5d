package checker

import (
	"sort"

	"github.com/aristath/lotto/internal/domain"
)

const (
	// FullWheelMin is the smallest number set a full wheel accepts
	FullWheelMin = 6
	// FullWheelMax is the largest number set a full wheel accepts
	FullWheelMax = 15
	// MaxWheelTickets caps the tickets returned by a full wheel
	MaxWheelTickets = 50
	// AbbreviatedWheelSize is the exact set size of the 3-if-4-in-10 wheel
	AbbreviatedWheelSize = 10
)

// WheelType names a wheel layout
type WheelType string

const (
	// WheelFull plays every 6-number subset of the set
	WheelFull WheelType = "full"
	// WheelThreeIfFourInTen guarantees 3 matches when 4 of the 10 numbers are drawn
	WheelThreeIfFourInTen WheelType = "3-if-4-in-10"
)

// Wheel is a set of tickets built from a number set
type Wheel struct {
	Type    WheelType            `json:"type"`
	Tickets []domain.Combination `json:"tickets"`
	// Total is the full ticket count before truncation
	Total     int  `json:"total"`
	Truncated bool `json:"truncated"`
}

// Build dispatches on wheel type
func Build(wheelType WheelType, numbers []int) (*Wheel, error) {
	switch wheelType {
	case WheelFull, "":
		return FullWheel(numbers)
	case WheelThreeIfFourInTen:
		return AbbreviatedWheel(numbers)
	default:
		return nil, domain.ConfigError("unknown wheel type %q", wheelType)
	}
}

// FullWheel returns every 6-number subset of numbers in lexicographic order
// of the sorted set, keeping the first MaxWheelTickets
func FullWheel(numbers []int) (*Wheel, error) {
	if len(numbers) < FullWheelMin || len(numbers) > FullWheelMax {
		return nil, domain.ConfigError("full wheel needs %d to %d numbers, got %d", FullWheelMin, FullWheelMax, len(numbers))
	}
	sorted, err := distinctSorted(numbers)
	if err != nil {
		return nil, err
	}

	total := binomial(len(sorted), domain.PickSize)
	tickets := subsets(sorted, domain.PickSize, MaxWheelTickets)
	return &Wheel{
		Type:      WheelFull,
		Tickets:   tickets,
		Total:     total,
		Truncated: total > len(tickets),
	}, nil
}

// AbbreviatedWheel builds the 3-ticket "3-if-4-in-10" wheel from exactly 10 numbers
func AbbreviatedWheel(numbers []int) (*Wheel, error) {
	if len(numbers) != AbbreviatedWheelSize {
		return nil, domain.ConfigError("3-if-4-in-10 wheel needs exactly %d numbers, got %d", AbbreviatedWheelSize, len(numbers))
	}
	n, err := distinctSorted(numbers)
	if err != nil {
		return nil, err
	}

	tickets := []domain.Combination{
		{n[0], n[1], n[2], n[3], n[4], n[5]},
		{n[0], n[1], n[2], n[6], n[7], n[8]},
		{n[3], n[4], n[5], n[6], n[7], n[9]},
	}
	return &Wheel{Type: WheelThreeIfFourInTen, Tickets: tickets, Total: len(tickets)}, nil
}

func distinctSorted(numbers []int) ([]int, error) {
	var seen domain.Key
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if n < domain.MinNumber || n > domain.MaxNumber {
			return nil, domain.ConfigError("number %d outside [%d,%d]", n, domain.MinNumber, domain.MaxNumber)
		}
		if seen.Has(n) {
			return nil, domain.ConfigError("number %d appears more than once", n)
		}
		seen = seen.With(n)
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// subsets returns up to limit k-element subsets of items in lexicographic index order
func subsets(items []int, k, limit int) []domain.Combination {
	n := len(items)
	if k > n || k <= 0 {
		return nil
	}

	var result []domain.Combination
	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}

	for len(result) < limit {
		var c domain.Combination
		for i, idx := range indices {
			c[i] = items[idx]
		}
		result = append(result, c)

		// Rightmost index that can still move
		i := k - 1
		for i >= 0 && indices[i] == n-k+i {
			i--
		}
		if i < 0 {
			break
		}
		indices[i]++
		for j := i + 1; j < k; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
	return result
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	result := 1
	for i := 1; i <= k; i++ {
		result = result * (n - k + i) / i
	}
	return result
}
