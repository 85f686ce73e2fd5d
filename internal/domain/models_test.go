package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCombination(t *testing.T) {
	tests := []struct {
		name    string
		numbers []int
		want    Combination
		wantErr bool
	}{
		{"sorted input", []int{1, 2, 3, 4, 5, 6}, Combination{1, 2, 3, 4, 5, 6}, false},
		{"unsorted input", []int{49, 7, 23, 1, 30, 12}, Combination{1, 7, 12, 23, 30, 49}, false},
		{"too few numbers", []int{1, 2, 3}, Combination{}, true},
		{"too many numbers", []int{1, 2, 3, 4, 5, 6, 7}, Combination{}, true},
		{"duplicate", []int{1, 1, 3, 4, 5, 6}, Combination{}, true},
		{"zero", []int{0, 2, 3, 4, 5, 6}, Combination{}, true},
		{"above range", []int{1, 2, 3, 4, 5, 50}, Combination{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCombination(tt.numbers)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigurationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCombination_Features(t *testing.T) {
	c := Combination{3, 11, 24, 25, 37, 48}

	assert.Equal(t, 148, c.Sum())
	assert.Equal(t, 4, c.OddCount())
	assert.Equal(t, 3, c.HighCount())
	assert.Equal(t, [5]int{8, 13, 1, 12, 11}, c.Deltas())
	assert.True(t, c.Contains(24))
	assert.False(t, c.Contains(26))
}

func TestCombination_KeyIsSetIdentity(t *testing.T) {
	a := Combination{5, 10, 15, 20, 25, 30}
	b := Combination{30, 25, 20, 15, 10, 5}
	c := Combination{5, 10, 15, 20, 25, 31}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, 6, a.Key().Count())
	assert.Equal(t, 5, a.Overlap(c))
}

func TestKey_OutOfRangeIgnored(t *testing.T) {
	var k Key
	k = k.With(-1).With(64).With(3)
	assert.Equal(t, 1, k.Count())
	assert.False(t, k.Has(64))
	assert.True(t, k.Has(3))
}

func TestNewCandidate(t *testing.T) {
	cand := NewCandidate(Combination{40, 2, 13, 26, 31, 7}, 42.5)

	assert.Equal(t, Combination{2, 7, 13, 26, 31, 40}, cand.Numbers)
	assert.Equal(t, 119, cand.Sum)
	assert.Equal(t, "3O/3E", cand.OddEven)
	assert.Equal(t, "3H/3L", cand.HighLow)
	assert.Equal(t, 42.5, cand.Confidence)
}

func TestDraw_BonusOverlapsMain(t *testing.T) {
	draw := Draw{Date: "2024-01-03", Numbers: [6]int{1, 2, 3, 4, 5, 6}, Bonus: 6}
	assert.True(t, draw.BonusOverlapsMain())

	draw.Bonus = 7
	assert.False(t, draw.BonusOverlapsMain())

	ts, err := draw.Time()
	require.NoError(t, err)
	assert.Equal(t, 2024, ts.Year())
}

func TestConstraintSet_IsEmpty(t *testing.T) {
	var nilSet *ConstraintSet
	assert.True(t, nilSet.IsEmpty())
	assert.True(t, (&ConstraintSet{}).IsEmpty())

	lo := 100
	assert.False(t, (&ConstraintSet{SumMin: &lo}).IsEmpty())
	assert.False(t, (&ConstraintSet{Exclude: []int{1}}).IsEmpty())
}

func TestPredictionVector_Validate(t *testing.T) {
	valid := make(PredictionVector, MaxNumber)
	for i := range valid {
		valid[i] = float64(i) / float64(MaxNumber)
	}
	require.NoError(t, valid.Validate())
	assert.InDelta(t, 1.0/49.0, valid.Probability(2), 1e-12)
	assert.Equal(t, 0.0, valid.Probability(0))
	assert.Equal(t, 0.0, valid.Probability(50))

	short := make(PredictionVector, 10)
	assert.True(t, IsConfigurationError(short.Validate()))

	withNaN := make(PredictionVector, MaxNumber)
	withNaN[3] = math.NaN()
	assert.True(t, IsConfigurationError(withNaN.Validate()))

	tooLarge := make(PredictionVector, MaxNumber)
	tooLarge[0] = 1.5
	assert.True(t, IsConfigurationError(tooLarge.Validate()))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "3O/3E", OddEvenLabel(3))
	assert.Equal(t, "0O/6E", OddEvenLabel(0))
	assert.Equal(t, "6H/0L", HighLowLabel(6))
}
