package search

import (
	"testing"
	"time"

	"github.com/citeworthy/paperdex/internal/domain/paper"
	"github.com/citeworthy/paperdex/internal/domain/search/result"
)

var testPublished = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func entry(t *testing.T, id string, distance float64) result.Entry {
	t.Helper()
	p, err := paper.New(id, "paper "+id, nil, nil, testPublished, "")
	if err != nil {
		t.Fatalf("paper.New(%s): %v", id, err)
	}
	return result.New(p, distance)
}

func ids(entries []result.Entry) []string {
	out := make([]string, len(entries))
	for i := range entries {
		out[i] = entries[i].ID()
	}
	return out
}

func assertIDs(t *testing.T, got []result.Entry, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got %v, want %v", gotIDs, want)
		}
	}
}

func TestInterleave_RoundRobinWithDedupe(t *testing.T) {
	// Two member lists sharing a neighbor: the first occurrence wins and
	// the duplicate is skipped, not re-emitted for the second member.
	p1 := []result.Entry{entry(t, "X", 0.1), entry(t, "Y", 0.3)}
	p2 := []result.Entry{entry(t, "Z", 0.05), entry(t, "X", 0.2)}

	got := interleave([][]result.Entry{p1, p2}, 3)
	assertIDs(t, got, "X", "Z", "Y")
}

func TestInterleave_FairnessAcrossUnevenLists(t *testing.T) {
	dense := []result.Entry{entry(t, "a1", 0.01), entry(t, "a2", 0.02), entry(t, "a3", 0.03)}
	sparse := []result.Entry{entry(t, "b1", 0.5)}

	got := interleave([][]result.Entry{dense, sparse}, 3)
	// The sparse member still gets its first-rank slot before the dense
	// member's second-rank neighbor.
	assertIDs(t, got, "a1", "b1", "a2")
}

func TestInterleave_SkipsExhaustedLists(t *testing.T) {
	one := []result.Entry{entry(t, "a", 0.1)}
	three := []result.Entry{entry(t, "b", 0.1), entry(t, "c", 0.2), entry(t, "d", 0.3)}

	got := interleave([][]result.Entry{one, three}, 10)
	assertIDs(t, got, "a", "b", "c", "d")
}

func TestInterleave_NilListsTolerated(t *testing.T) {
	got := interleave([][]result.Entry{nil, {entry(t, "a", 0.1)}, nil}, 5)
	assertIDs(t, got, "a")
}

func TestInterleave_StopsAtLimit(t *testing.T) {
	l1 := []result.Entry{entry(t, "a", 0.1), entry(t, "b", 0.2)}
	l2 := []result.Entry{entry(t, "c", 0.1), entry(t, "d", 0.2)}

	got := interleave([][]result.Entry{l1, l2}, 2)
	assertIDs(t, got, "a", "c")
}

func TestInterleave_Empty(t *testing.T) {
	if got := interleave(nil, 5); len(got) != 0 {
		t.Errorf("expected empty result, got %v", ids(got))
	}
	if got := interleave([][]result.Entry{nil, nil}, 5); len(got) != 0 {
		t.Errorf("expected empty result, got %v", ids(got))
	}
}
