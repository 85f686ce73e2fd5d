package montecarlo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/sampling"
	"github.com/aristath/lotto/internal/modules/statistics"
)

func repeatedHistory(n int, numbers [6]int) *statistics.Snapshot {
	draws := make([]domain.Draw, n)
	for i := range draws {
		draws[i] = domain.Draw{Date: "2024-01-01", Numbers: numbers, Bonus: 7}
	}
	return statistics.Analyze(draws)
}

func TestEstimate_CertainWin(t *testing.T) {
	snap := repeatedHistory(25, [6]int{1, 2, 3, 4, 5, 6})

	est, err := New(sampling.NewRNG(1)).Estimate(context.Background(), domain.Combination{1, 2, 3, 4, 5, 6}, snap, DefaultSimulations, 6)

	require.NoError(t, err)
	assert.Equal(t, 100.0, est.Percent)
	assert.Equal(t, DefaultSimulations, est.Wins)
}

func TestEstimate_ImpossibleWin(t *testing.T) {
	snap := repeatedHistory(25, [6]int{1, 2, 3, 4, 5, 6})

	est, err := New(sampling.NewRNG(1)).Estimate(context.Background(), domain.Combination{44, 45, 46, 47, 48, 49}, snap, DefaultSimulations, 1)

	require.NoError(t, err)
	assert.Equal(t, 0.0, est.Percent)
	assert.Zero(t, est.Wins)
}

func TestEstimate_UniformWhenHistoryIsEmpty(t *testing.T) {
	// P(at least one of six) = 1 - C(43,6)/C(49,6), about 56.4%
	est, err := New(sampling.NewRNG(3)).Estimate(context.Background(), domain.Combination{5, 12, 19, 26, 33, 40}, statistics.Analyze(nil), 20000, 1)

	require.NoError(t, err)
	assert.InDelta(t, 56.4, est.Percent, 2.0)
}

func TestEstimate_Deterministic(t *testing.T) {
	snap := repeatedHistory(3, [6]int{10, 11, 20, 30, 31, 45})
	c := domain.Combination{10, 11, 20, 30, 31, 45}

	a, err := New(sampling.NewRNG(5)).Estimate(context.Background(), c, snap, 500, DefaultMinMatch)
	require.NoError(t, err)
	b, err := New(sampling.NewRNG(5)).Estimate(context.Background(), c, snap, 500, DefaultMinMatch)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEstimate_Rejects(t *testing.T) {
	snap := statistics.Analyze(nil)
	v := New(sampling.NewRNG(1))
	valid := domain.Combination{1, 2, 3, 4, 5, 6}

	tests := []struct {
		name     string
		c        domain.Combination
		snap     *statistics.Snapshot
		sims     int
		minMatch int
	}{
		{"invalid combination", domain.Combination{1, 1, 2, 3, 4, 5}, snap, 10, 3},
		{"missing snapshot", valid, nil, 10, 3},
		{"zero simulations", valid, snap, 0, 3},
		{"too many simulations", valid, snap, MaxSimulations + 1, 3},
		{"zero minMatch", valid, snap, 10, 0},
		{"minMatch above six", valid, snap, 10, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Estimate(context.Background(), tt.c, tt.snap, tt.sims, tt.minMatch)
			require.Error(t, err)
			assert.True(t, domain.IsConfigurationError(err))
		})
	}
}

func TestEstimate_TooFewPositiveNumbers(t *testing.T) {
	snap := statistics.Analyze(nil)
	for n := 1; n <= 5; n++ {
		snap.Frequency[n] = 3
	}

	_, err := New(sampling.NewRNG(1)).Estimate(context.Background(), domain.Combination{1, 2, 3, 4, 5, 6}, snap, 10, 3)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestEstimate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(sampling.NewRNG(1)).Estimate(ctx, domain.Combination{1, 2, 3, 4, 5, 6}, statistics.Analyze(nil), 10, 3)
	assert.ErrorIs(t, err, context.Canceled)
}
