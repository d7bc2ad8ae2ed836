package processor

import (
	"sort"

	"github.com/XavierBriggs/Augur/pkg/models"
)

// Sort orders records by UTC calendar day, then sport priority, then kickoff.
// The sort is stable and returns a new slice.
func Sort(records []models.GameOddsRecord) []models.GameOddsRecord {
	out := make([]models.GameOddsRecord, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]

		dayA, dayB := dayKey(a), dayKey(b)
		if dayA != dayB {
			return dayA < dayB
		}

		if pa, pb := a.Sport.Priority(), b.Sport.Priority(); pa != pb {
			return pa < pb
		}

		return a.Kickoff.Before(b.Kickoff)
	})

	return out
}

// Dedupe keeps the first record for each (book, gameId) pair
func Dedupe(records []models.GameOddsRecord) []models.GameOddsRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.GameOddsRecord, 0, len(records))

	for _, r := range records {
		key := r.Book + "|" + r.GameID
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}

	return out
}

func dayKey(r models.GameOddsRecord) string {
	return r.Kickoff.UTC().Format("20060102")
}
