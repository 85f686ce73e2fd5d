package history

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/lotto/internal/domain"
	testutil "github.com/aristath/lotto/internal/testing"
)

func TestRepairLeadingZeros(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"array start", `[05, 12]`, `[5, 12]`},
		{"after separator", `[1,07,9]`, `[1,7,9]`},
		{"after key", `{"bonus": 03}`, `{"bonus": 3}`},
		{"double zero", `{"bonus":00}`, `{"bonus":0}`},
		{"plain numbers untouched", `[10, 20, 30]`, `[10, 20, 30]`},
		{"dates untouched", `{"date": "2024-01-05"}`, `{"date": "2024-01-05"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(RepairLeadingZeros([]byte(tt.in))))
		})
	}
}

func TestDecode(t *testing.T) {
	raw, err := Decode([]byte(testutil.HistoryJSON))
	require.NoError(t, err)
	require.Len(t, raw, 5)
	assert.Equal(t, []int{1, 15, 22, 29, 40, 47}, raw[1].Numbers)
	assert.Equal(t, 3, raw[2].Bonus)

	_, err = Decode([]byte(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestRawDraw_Validate(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawDraw
		wantErr bool
	}{
		{"valid", RawDraw{Date: "2024-02-29", Numbers: []int{9, 3, 1, 40, 22, 17}, Bonus: 5}, false},
		{"bonus may repeat a main number", RawDraw{Date: "2024-02-01", Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 6}, false},
		{"short date", RawDraw{Date: "2024-2-1", Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 7}, true},
		{"impossible month", RawDraw{Date: "2024-13-01", Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 7}, true},
		{"not a leap year", RawDraw{Date: "2023-02-29", Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 7}, true},
		{"five numbers", RawDraw{Date: "2024-01-01", Numbers: []int{1, 2, 3, 4, 5}, Bonus: 7}, true},
		{"number out of range", RawDraw{Date: "2024-01-01", Numbers: []int{1, 2, 3, 4, 5, 50}, Bonus: 7}, true},
		{"duplicate number", RawDraw{Date: "2024-01-01", Numbers: []int{1, 2, 3, 4, 5, 5}, Bonus: 7}, true},
		{"bonus zero", RawDraw{Date: "2024-01-01", Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.raw.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.raw.Date, d.Date)
			assert.True(t, sortedAscending(d.Numbers))
		})
	}
}

func TestClean(t *testing.T) {
	raw, err := Decode([]byte(testutil.HistoryJSON))
	require.NoError(t, err)

	draws, rejected := Clean(raw, zerolog.Nop())

	require.Len(t, draws, 4)
	require.Len(t, rejected, 1)
	assert.Equal(t, 3, rejected[0].Index)
	assert.Equal(t, "2024-13-01", rejected[0].Date)

	dates := make([]string, len(draws))
	for i, d := range draws {
		dates[i] = d.Date
	}
	assert.Equal(t, []string{"2024-01-06", "2024-01-10", "2024-01-13", "2024-01-17"}, dates)
}

func TestClean_EmptyInput(t *testing.T) {
	draws, rejected := Clean(nil, zerolog.Nop())
	assert.Empty(t, draws)
	assert.Empty(t, rejected)
}

func TestMerge(t *testing.T) {
	fixtures := testutil.NewDrawFixtures()
	existing := fixtures[:3]

	conflicting := fixtures[1]
	conflicting.Bonus = 1

	fetched := []domain.Draw{fixtures[4], conflicting, fixtures[3]}

	merged, added := Merge(existing, fetched)

	assert.Equal(t, fixtures, merged)
	require.Len(t, added, 2)
	assert.Equal(t, "2024-01-13", added[0].Date)
	assert.Equal(t, "2024-01-17", added[1].Date)
	assert.Equal(t, 30, merged[1].Bonus, "existing record wins")
}

func TestMerge_NothingNew(t *testing.T) {
	fixtures := testutil.NewDrawFixtures()
	merged, added := Merge(fixtures, fixtures)
	assert.Equal(t, fixtures, merged)
	assert.Empty(t, added)
}

func sortedAscending(numbers [domain.PickSize]int) bool {
	for i := 1; i < len(numbers); i++ {
		if numbers[i] <= numbers[i-1] {
			return false
		}
	}
	return true
}
