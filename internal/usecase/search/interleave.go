package search

import "github.com/citeworthy/paperdex/internal/domain/search/result"

// interleave merges per-member ranked lists round-robin: rank-1 of member 1,
// rank-1 of member 2, ..., then rank-2 of member 1, and so on, skipping a
// list once exhausted. A paper appearing in several lists is emitted once,
// at its first (best) interleave slot. Stops after n entries or when every
// list is exhausted.
//
// Round-robin rather than pooling-and-sorting-by-raw-distance: one member
// with an unusually dense neighborhood must not monopolize the result list.
func interleave(lists [][]result.Entry, n int) []result.Entry {
	if n <= 0 {
		return nil
	}

	out := make([]result.Entry, 0, n)
	seen := make(map[string]struct{})

	for rank := 0; ; rank++ {
		remaining := false
		for _, list := range lists {
			if rank >= len(list) {
				continue
			}
			remaining = true

			entry := list[rank]
			if _, dup := seen[entry.ID()]; dup {
				continue
			}
			seen[entry.ID()] = struct{}{}

			out = append(out, entry)
			if len(out) == n {
				return out
			}
		}
		if !remaining {
			return out
		}
	}
}
