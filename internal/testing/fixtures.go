package testing

import (
	"time"

	"github.com/aristath/lotto/internal/domain"
)

// NewDrawFixtures returns a small chronological history (oldest first)
func NewDrawFixtures() []domain.Draw {
	return []domain.Draw{
		{Date: "2024-01-03", Numbers: [6]int{4, 11, 19, 27, 33, 45}, Bonus: 8},
		{Date: "2024-01-06", Numbers: [6]int{2, 9, 17, 23, 38, 41}, Bonus: 30},
		{Date: "2024-01-10", Numbers: [6]int{7, 12, 19, 28, 36, 44}, Bonus: 3},
		{Date: "2024-01-13", Numbers: [6]int{1, 15, 22, 29, 40, 47}, Bonus: 19},
		{Date: "2024-01-17", Numbers: [6]int{6, 11, 24, 31, 35, 49}, Bonus: 11},
	}
}

// NewRepeatedDraws returns count weekly draws that all carry the same numbers
func NewRepeatedDraws(count int, numbers [6]int) []domain.Draw {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	draws := make([]domain.Draw, count)
	for i := range draws {
		draws[i] = domain.Draw{
			Date:    start.AddDate(0, 0, 7*i).Format(domain.DateLayout),
			Numbers: numbers,
			Bonus:   domain.MaxNumber,
		}
	}
	return draws
}

// HistoryJSON is a raw feed payload in the format served by history sources,
// including the zero padded numbers some feeds emit and one malformed record
const HistoryJSON = `[
  {"date": "2024-01-17", "numbers": [6, 11, 24, 31, 35, 49], "bonus": 11},
  {"date": "2024-01-13", "numbers": [01, 15, 22, 29, 40, 47], "bonus": 19},
  {"date": "2024-01-10", "numbers": [7, 12, 19, 28, 36, 44], "bonus": 03},
  {"date": "2024-13-01", "numbers": [1, 2, 3, 4, 5, 6], "bonus": 7},
  {"date": "2024-01-06", "numbers": [2, 9, 17, 23, 38, 41], "bonus": 30}
]`
