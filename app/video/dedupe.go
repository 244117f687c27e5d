package video

import (
	"sort"
)

// Dedupe collapses records sharing a VideoID. The last-seen record wins (a
// later source may carry richer metadata than a primary feed entry) while the
// first-seen position is preserved, so the output stays in insertion order.
func Dedupe(records []Record) []Record {
	index := make(map[string]int, len(records))
	out := make([]Record, 0, len(records))

	for _, rec := range records {
		if i, seen := index[rec.VideoID]; seen {
			out[i] = rec
			continue
		}
		index[rec.VideoID] = len(out)
		out = append(out, rec)
	}

	return out
}

// SortNewestFirst orders records by publish timestamp descending. The sort is
// stable: records with equal timestamps keep their relative arrival order.
func SortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublishedAt.After(records[j].PublishedAt)
	})
}
