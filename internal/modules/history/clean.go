// Package history ingests, validates, stores and summarizes past draws.
package history

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/domain"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// A number token with leading zeros right after a key, array start or separator
	leadingZero = regexp.MustCompile(`([:\[,]\s*)0+(\d)`)
)

// RawDraw is a draw record as served by a feed, before validation
type RawDraw struct {
	Date    string `json:"date"`
	Numbers []int  `json:"numbers"`
	Bonus   int    `json:"bonus"`
}

// Rejection explains why a raw record was dropped
type Rejection struct {
	Index  int    `json:"index"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// RepairLeadingZeros rewrites zero padded numbers ("05") that some feeds emit
// and that are not valid JSON
func RepairLeadingZeros(data []byte) []byte {
	return leadingZero.ReplaceAll(data, []byte("${1}${2}"))
}

// Decode repairs and parses a JSON array of draw records
func Decode(data []byte) ([]RawDraw, error) {
	var raw []RawDraw
	if err := json.Unmarshal(RepairLeadingZeros(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode draw history: %w", err)
	}
	return raw, nil
}

// Validate checks one raw record and converts it into a Draw
func (r RawDraw) Validate() (domain.Draw, error) {
	var d domain.Draw
	if !datePattern.MatchString(r.Date) {
		return d, fmt.Errorf("date %q is not YYYY-MM-DD", r.Date)
	}
	if _, err := time.Parse(domain.DateLayout, r.Date); err != nil {
		return d, fmt.Errorf("date %q is not a calendar date", r.Date)
	}
	c, err := domain.NewCombination(r.Numbers)
	if err != nil {
		return d, err
	}
	if r.Bonus < domain.MinNumber || r.Bonus > domain.MaxNumber {
		return d, fmt.Errorf("bonus %d outside [%d,%d]", r.Bonus, domain.MinNumber, domain.MaxNumber)
	}

	d.Date = r.Date
	d.Numbers = c
	d.Bonus = r.Bonus
	return d, nil
}

// Clean validates every raw record, drops the malformed ones and returns the
// rest in chronological order. A bad record never fails the batch.
func Clean(raw []RawDraw, log zerolog.Logger) ([]domain.Draw, []Rejection) {
	draws := make([]domain.Draw, 0, len(raw))
	var rejected []Rejection

	for i, r := range raw {
		d, err := r.Validate()
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, Date: r.Date, Reason: err.Error()})
			log.Warn().
				Int("index", i).
				Str("date", r.Date).
				Err(err).
				Msg("Dropping malformed draw")
			continue
		}
		if d.BonusOverlapsMain() {
			log.Debug().Str("date", d.Date).Int("bonus", d.Bonus).Msg("Bonus number repeats a main number")
		}
		draws = append(draws, d)
	}

	sortChronological(draws)
	return draws, rejected
}

// Merge adds the fetched draws whose date is not known yet.
// Existing records win over fetched ones with the same date. The merged
// history is chronological; added lists only the new draws.
func Merge(existing, fetched []domain.Draw) (merged []domain.Draw, added []domain.Draw) {
	known := make(map[string]struct{}, len(existing)+len(fetched))
	merged = make([]domain.Draw, 0, len(existing)+len(fetched))

	for _, d := range existing {
		if _, dup := known[d.Date]; dup {
			continue
		}
		known[d.Date] = struct{}{}
		merged = append(merged, d)
	}
	for _, d := range fetched {
		if _, dup := known[d.Date]; dup {
			continue
		}
		known[d.Date] = struct{}{}
		merged = append(merged, d)
		added = append(added, d)
	}

	sortChronological(merged)
	sortChronological(added)
	return merged, added
}

// ISO dates sort lexically
func sortChronological(draws []domain.Draw) {
	sort.SliceStable(draws, func(i, j int) bool { return draws[i].Date < draws[j].Date })
}
