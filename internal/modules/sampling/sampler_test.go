package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/lotto/internal/domain"
)

func uniformWeights(w float64) []float64 {
	weights := make([]float64, domain.MaxNumber+1)
	for n := domain.MinNumber; n <= domain.MaxNumber; n++ {
		weights[n] = w
	}
	return weights
}

func assertDistinctLegal(t *testing.T, numbers []int, chosen domain.Key, allowed Allowed) {
	t.Helper()
	seen := chosen
	for _, n := range numbers {
		assert.GreaterOrEqual(t, n, domain.MinNumber)
		assert.LessOrEqual(t, n, domain.MaxNumber)
		assert.False(t, seen.Has(n), "number %d repeated", n)
		if allowed != nil {
			assert.True(t, allowed(n), "number %d not allowed", n)
		}
		seen = seen.With(n)
	}
}

func TestWeighted_DistinctAndLegal(t *testing.T) {
	s := New(NewRNG(1))
	noOdd := func(n int) bool { return n%2 == 0 }
	chosen := domain.KeyOf(2, 4)

	for i := 0; i < 200; i++ {
		got, err := s.Weighted(uniformWeights(1), 4, chosen, noOdd)
		require.NoError(t, err)
		require.Len(t, got, 4)
		assertDistinctLegal(t, got, chosen, noOdd)
	}
}

func TestWeighted_HeavyNumberDominates(t *testing.T) {
	s := New(NewRNG(7))
	weights := uniformWeights(0.1)
	weights[13] = 50

	hits := 0
	for i := 0; i < 500; i++ {
		got, err := s.Weighted(weights, 1, 0, nil)
		require.NoError(t, err)
		if got[0] == 13 {
			hits++
		}
	}
	// 500 copies of 13 against 48 single copies
	assert.Greater(t, hits, 400)
}

func TestWeighted_ZeroWeightsFallBackToUniform(t *testing.T) {
	s := New(NewRNG(3))

	got, err := s.Weighted(uniformWeights(0), domain.PickSize, 0, nil)
	require.NoError(t, err)
	assert.Len(t, got, domain.PickSize)
	assertDistinctLegal(t, got, 0, nil)
}

func TestWeighted_ExactlyEnoughLegalNumbers(t *testing.T) {
	s := New(NewRNG(5))
	only := func(n int) bool { return n <= 6 }

	got, err := s.Weighted(uniformWeights(1), domain.PickSize, 0, only)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6}, got)
}

func TestWeighted_LegalUniverseTooSmall(t *testing.T) {
	s := New(NewRNG(5))
	only := func(n int) bool { return n <= 5 }

	_, err := s.Weighted(uniformWeights(1), domain.PickSize, 0, only)
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestWeighted_Deterministic(t *testing.T) {
	a, err := New(NewRNG(42)).Weighted(uniformWeights(1.5), 6, 0, nil)
	require.NoError(t, err)
	b, err := New(NewRNG(42)).Weighted(uniformWeights(1.5), 6, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestUniform_ZeroCount(t *testing.T) {
	got, err := New(NewRNG(1)).Uniform(0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplacement(t *testing.T) {
	s := New(NewRNG(9))
	chosen := domain.KeyOf(1, 2, 3, 4, 5, 6)

	for i := 0; i < 100; i++ {
		n, ok := s.Replacement(chosen, func(n int) bool { return n < 10 })
		require.True(t, ok)
		assert.Contains(t, []int{7, 8, 9}, n)
	}

	_, ok := s.Replacement(chosen, func(n int) bool { return n <= 6 })
	assert.False(t, ok)
}
