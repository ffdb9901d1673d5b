package lines

import (
	"sort"

	"github.com/hetulpatel/PropLines/internal/models"
)

// Rank orders entries by point delta, then probability delta, both
// descending. Entries without a point delta rank as zero; ties keep their
// input order.
func Rank(entries []models.ResultEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if pa, pb := a.RankPointDelta(), b.RankPointDelta(); pa != pb {
			return pa > pb
		}
		return a.ProbDelta > b.ProbDelta
	})
}

// Merge combines per-event results into one ranked slate.
func Merge(results ...Result) Result {
	var out Result
	for _, r := range results {
		out.DifferentPoints = append(out.DifferentPoints, r.DifferentPoints...)
		out.SamePoints = append(out.SamePoints, r.SamePoints...)
		out.Compared += r.Compared
		out.Skipped += r.Skipped
	}
	Rank(out.DifferentPoints)
	Rank(out.SamePoints)
	return out
}
