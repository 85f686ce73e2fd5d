// Package checker compares combinations with drawn results and builds wheels.
package checker

import (
	"fmt"

	"github.com/aristath/lotto/internal/domain"
)

// Result is the outcome of checking one combination against one draw
type Result struct {
	Numbers    domain.Combination `json:"numbers"`
	DrawDate   string             `json:"drawDate"`
	Matches    []int              `json:"matches"`
	MatchCount int                `json:"matchCount"`
	BonusMatch bool               `json:"bonusMatch"`
	Label      string             `json:"label"`
}

// Check counts the main numbers of draw found in c.
// The bonus only matches when it is in c and is not already a main match.
func Check(c domain.Combination, draw domain.Draw) Result {
	c = c.Sorted()
	drawn := domain.KeyOf(draw.Numbers[:]...)

	matches := make([]int, 0, domain.PickSize)
	for _, n := range c {
		if drawn.Has(n) {
			matches = append(matches, n)
		}
	}
	bonus := c.Contains(draw.Bonus) && !drawn.Has(draw.Bonus)

	return Result{
		Numbers:    c,
		DrawDate:   draw.Date,
		Matches:    matches,
		MatchCount: len(matches),
		BonusMatch: bonus,
		Label:      Label(len(matches), bonus),
	}
}

// Label formats a match count, e.g. "Matched 3/6 + Bonus"
func Label(matches int, bonus bool) string {
	label := fmt.Sprintf("Matched %d/%d", matches, domain.PickSize)
	if bonus {
		label += " + Bonus"
	}
	return label
}

// CheckHistory checks c against every draw and returns the results with at
// least minMatches main matches, newest first
func CheckHistory(c domain.Combination, draws []domain.Draw, minMatches int) []Result {
	out := []Result{}
	for i := len(draws) - 1; i >= 0; i-- {
		r := Check(c, draws[i])
		if r.MatchCount >= minMatches {
			out = append(out, r)
		}
	}
	return out
}
