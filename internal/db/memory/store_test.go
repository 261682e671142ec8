package memory

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/citeworthy/paperdex/internal/db"
)

var ctx = context.Background()

func newIndexedStore(t *testing.T, metric db.DistanceMetric) *Store {
	t.Helper()
	s := NewStore()
	def, err := db.NewIndex("papers:idx").
		Prefix("paper:").
		Tag(db.FieldID).
		Text(db.FieldTitle).
		TagWithSeparator(db.FieldCategories, db.CategorySeparator).
		Numeric(db.FieldPublished).
		VectorFlat(db.FieldVector, 2, metric).
		Build()
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	if err := s.CreateIndex(ctx, def); err != nil {
		t.Fatalf("create index: %v", err)
	}
	return s
}

func putPaper(t *testing.T, s *Store, id string, vec []float32, published time.Time, categories string) {
	t.Helper()
	fields := map[string]string{
		db.FieldID:         id,
		db.FieldTitle:      "paper " + id,
		db.FieldPublished:  strconv.FormatInt(published.Unix(), 10),
		db.FieldCategories: categories,
	}
	if vec != nil {
		fields[db.FieldVector] = db.VectorToBytes(vec)
	}
	if err := s.HSet(ctx, "paper:"+id, fields); err != nil {
		t.Fatalf("hset: %v", err)
	}
}

func keys(entries []db.SearchEntry) []string {
	out := make([]string, len(entries))
	for i := range entries {
		out[i] = entries[i].Key
	}
	return out
}

func assertKeys(t *testing.T, entries []db.SearchEntry, want ...string) {
	t.Helper()
	got := keys(entries)
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

var testNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestSearchKNN_OrdersByDistance(t *testing.T) {
	s := newIndexedStore(t, db.DistanceL2)
	putPaper(t, s, "far", []float32{10, 0}, testNow, "")
	putPaper(t, s, "near", []float32{1, 0}, testNow, "")
	putPaper(t, s, "mid", []float32{5, 0}, testNow, "")

	res, err := s.SearchKNN(ctx, &db.KNNQuery{
		IndexName: "papers:idx",
		Vector:    []float32{0, 0},
		K:         10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	assertKeys(t, res.Entries, "paper:near", "paper:mid", "paper:far")
}

func TestSearchKNN_TieBreaksByKey(t *testing.T) {
	s := newIndexedStore(t, db.DistanceL2)
	putPaper(t, s, "b", []float32{1, 0}, testNow, "")
	putPaper(t, s, "a", []float32{0, 1}, testNow, "")

	res, err := s.SearchKNN(ctx, &db.KNNQuery{
		IndexName: "papers:idx",
		Vector:    []float32{0, 0},
		K:         10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	assertKeys(t, res.Entries, "paper:a", "paper:b")
}

func TestSearchKNN_CosineDistance(t *testing.T) {
	s := newIndexedStore(t, db.DistanceCosine)
	putPaper(t, s, "parallel", []float32{2, 0}, testNow, "")
	putPaper(t, s, "orthogonal", []float32{0, 3}, testNow, "")

	res, err := s.SearchKNN(ctx, &db.KNNQuery{
		IndexName: "papers:idx",
		Vector:    []float32{1, 0},
		K:         10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	assertKeys(t, res.Entries, "paper:parallel", "paper:orthogonal")
	if d := res.Entries[0].Distance; d > 1e-9 {
		t.Errorf("parallel vectors should have ~0 cosine distance, got %v", d)
	}
	if d := res.Entries[1].Distance; d < 0.999 || d > 1.001 {
		t.Errorf("orthogonal vectors should have ~1 cosine distance, got %v", d)
	}
}

func TestSearchKNN_Filters(t *testing.T) {
	s := newIndexedStore(t, db.DistanceL2)
	putPaper(t, s, "recent-ai", []float32{1, 0}, testNow.Add(-24*time.Hour), "cs.AI,cs.LG")
	putPaper(t, s, "old-ai", []float32{1, 0}, testNow.Add(-90*24*time.Hour), "cs.AI")
	putPaper(t, s, "recent-math", []float32{1, 0}, testNow.Add(-24*time.Hour), "math.CO")

	res, err := s.SearchKNN(ctx, &db.KNNQuery{
		IndexName:  "papers:idx",
		Vector:     []float32{0, 0},
		K:          10,
		Cutoff:     testNow.Add(-7 * 24 * time.Hour),
		Categories: []string{"cs.AI"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	assertKeys(t, res.Entries, "paper:recent-ai")
}

func TestSearchKNN_Excludes(t *testing.T) {
	s := newIndexedStore(t, db.DistanceL2)
	putPaper(t, s, "a", []float32{1, 0}, testNow, "")
	putPaper(t, s, "b", []float32{2, 0}, testNow, "")

	res, err := s.SearchKNN(ctx, &db.KNNQuery{
		IndexName:  "papers:idx",
		Vector:     []float32{0, 0},
		K:          10,
		ExcludeIDs: []string{"a"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	assertKeys(t, res.Entries, "paper:b")
}

func TestSearchKNN_SkipsUnembeddedAndTruncates(t *testing.T) {
	s := newIndexedStore(t, db.DistanceL2)
	putPaper(t, s, "a", []float32{1, 0}, testNow, "")
	putPaper(t, s, "b", []float32{2, 0}, testNow, "")
	putPaper(t, s, "pending", nil, testNow, "")

	res, err := s.SearchKNN(ctx, &db.KNNQuery{
		IndexName: "papers:idx",
		Vector:    []float32{0, 0},
		K:         1,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	assertKeys(t, res.Entries, "paper:a")
	if res.Total != 2 {
		t.Errorf("total = %d, want 2 (pending paper has no vector)", res.Total)
	}
}

func TestSearchKNN_UnknownIndex(t *testing.T) {
	s := NewStore()
	_, err := s.SearchKNN(ctx, &db.KNNQuery{IndexName: "missing", Vector: []float32{0}, K: 1})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearchText_DateDescending(t *testing.T) {
	s := newIndexedStore(t, db.DistanceL2)
	putPaper(t, s, "oldest", nil, testNow.Add(-72*time.Hour), "")
	putPaper(t, s, "newest", nil, testNow.Add(-1*time.Hour), "")
	putPaper(t, s, "middle", nil, testNow.Add(-48*time.Hour), "")

	res, err := s.SearchText(ctx, &db.TextQuery{
		IndexName: "papers:idx",
		Term:      "paper",
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	assertKeys(t, res.Entries, "paper:newest", "paper:middle", "paper:oldest")
}

func TestSearchText_CaseInsensitiveSubstring(t *testing.T) {
	s := newIndexedStore(t, db.DistanceL2)
	if err := s.HSet(ctx, "paper:x", map[string]string{
		db.FieldID:        "x",
		db.FieldTitle:     "Attention Is All You Need",
		db.FieldPublished: strconv.FormatInt(testNow.Unix(), 10),
	}); err != nil {
		t.Fatalf("hset: %v", err)
	}

	res, err := s.SearchText(ctx, &db.TextQuery{
		IndexName: "papers:idx",
		Term:      "attention",
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	assertKeys(t, res.Entries, "paper:x")

	res, err = s.SearchText(ctx, &db.TextQuery{
		IndexName: "papers:idx",
		Term:      "convolution",
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Entries) != 0 {
		t.Errorf("expected no match, got %v", keys(res.Entries))
	}
}

func TestKV_RoundTripAndMissing(t *testing.T) {
	s := NewStore()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}
}

func TestSMembers_Sorted(t *testing.T) {
	s := NewStore()
	if err := s.SAdd(ctx, "tag:t:members", "c", "a", "b", "a"); err != nil {
		t.Fatalf("sadd: %v", err)
	}

	got, err := s.SMembers(ctx, "tag:t:members")
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("members = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("members = %v, want %v", got, want)
		}
	}
}

func TestCreateIndex_Duplicate(t *testing.T) {
	s := newIndexedStore(t, db.DistanceL2)
	def, err := db.NewIndex("papers:idx").Prefix("paper:").Tag(db.FieldID).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.CreateIndex(ctx, def); !errors.Is(err, db.ErrIndexExists) {
		t.Fatalf("expected ErrIndexExists, got %v", err)
	}
}
