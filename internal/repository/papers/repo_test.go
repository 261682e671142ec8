package papers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/citeworthy/paperdex/internal/db/memory"
	"github.com/citeworthy/paperdex/internal/domain"
	"github.com/citeworthy/paperdex/internal/domain/paper"
	"github.com/citeworthy/paperdex/internal/domain/search/filter"
	"github.com/citeworthy/paperdex/internal/domain/search/window"
)

var (
	ctx     = context.Background()
	testNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
)

func newRepo(t *testing.T) *Repo {
	t.Helper()
	r := New(memory.NewStore(), "test:", domain.VectorConfig{
		Dimensions: 2,
		Metric:     domain.MetricCosine,
	}).WithNow(func() time.Time { return testNow })
	if err := r.EnsureIndex(ctx); err != nil {
		t.Fatalf("ensure index: %v", err)
	}
	return r
}

func mustPaper(t *testing.T, id, title string, published time.Time, categories ...string) paper.Paper {
	t.Helper()
	p, err := paper.New(id, title, []string{"Doe"}, categories, published, "abstract of "+id)
	if err != nil {
		t.Fatalf("paper.New: %v", err)
	}
	return p
}

func TestUpsertGet_RoundTrip(t *testing.T) {
	r := newRepo(t)
	p := mustPaper(t, "2501.001", "Sparse Attention", testNow.Add(-time.Hour), "cs.LG", "cs.AI")

	if err := r.Upsert(ctx, p, []float32{0.5, 0.5}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := r.Get(ctx, "2501.001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title() != "Sparse Attention" {
		t.Errorf("title = %q", got.Title())
	}
	if len(got.Authors()) != 1 || got.Authors()[0] != "Doe" {
		t.Errorf("authors = %v", got.Authors())
	}
	if len(got.Categories()) != 2 {
		t.Errorf("categories = %v", got.Categories())
	}
	if !got.Published().Equal(p.Published().Truncate(time.Second)) {
		t.Errorf("published = %v, want %v", got.Published(), p.Published())
	}
}

func TestGet_NotFound(t *testing.T) {
	r := newRepo(t)
	if _, err := r.Get(ctx, "ghost"); !errors.Is(err, domain.ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
}

func TestUpsert_DimMismatch(t *testing.T) {
	r := newRepo(t)
	p := mustPaper(t, "2501.001", "Sparse Attention", testNow)

	err := r.Upsert(ctx, p, []float32{0.1, 0.2, 0.3})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestIsIndexed(t *testing.T) {
	r := newRepo(t)
	pending := mustPaper(t, "pending", "No Vector Yet", testNow)
	ready := mustPaper(t, "ready", "Has Vector", testNow)

	if err := r.Upsert(ctx, pending, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := r.Upsert(ctx, ready, []float32{1, 0}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if ok, err := r.IsIndexed(ctx, "pending"); err != nil || ok {
		t.Errorf("pending indexed = %v, %v; want false, nil", ok, err)
	}
	if ok, err := r.IsIndexed(ctx, "ready"); err != nil || !ok {
		t.Errorf("ready indexed = %v, %v; want true, nil", ok, err)
	}
	if _, err := r.IsIndexed(ctx, "ghost"); !errors.Is(err, domain.ErrPaperNotFound) {
		t.Errorf("expected ErrPaperNotFound, got %v", err)
	}
}

func TestEnsureIndex_Idempotent(t *testing.T) {
	r := newRepo(t)
	if err := r.EnsureIndex(ctx); err != nil {
		t.Fatalf("second EnsureIndex should be a no-op: %v", err)
	}
}

func TestFindByTitle(t *testing.T) {
	r := newRepo(t)
	recent := mustPaper(t, "recent", "Graph Transformers", testNow.Add(-24*time.Hour), "cs.LG")
	old := mustPaper(t, "old", "Graph Kernels", testNow.Add(-100*24*time.Hour), "cs.LG")

	for _, p := range []paper.Paper{recent, old} {
		if err := r.Upsert(ctx, p, nil); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	all, _ := filter.New(window.AllTime, nil)
	got, err := r.FindByTitle(ctx, "graph", all, 10)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(got))
	}
	if got[0].ID() != "recent" {
		t.Errorf("newest first, got %s", got[0].ID())
	}

	lastWeek, _ := filter.New(window.LastWeek, nil)
	got, err = r.FindByTitle(ctx, "graph", lastWeek, 10)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "recent" {
		t.Errorf("window filter should drop the old paper, got %d hits", len(got))
	}
}

func TestUpsertMulti(t *testing.T) {
	r := newRepo(t)
	items := []PaperWithVector{
		{Paper: mustPaper(t, "a", "First", testNow), Vector: []float32{1, 0}},
		{Paper: mustPaper(t, "b", "Second", testNow), Vector: nil},
	}

	if err := r.UpsertMulti(ctx, items); err != nil {
		t.Fatalf("upsert multi: %v", err)
	}

	for _, id := range []string{"a", "b"} {
		if _, err := r.Get(ctx, id); err != nil {
			t.Errorf("get %s: %v", id, err)
		}
	}

	bad := []PaperWithVector{{Paper: mustPaper(t, "c", "Third", testNow), Vector: []float32{1}}}
	if err := r.UpsertMulti(ctx, bad); !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestUpsertMulti_Batched(t *testing.T) {
	r := newRepo(t).WithMaxBatch(2)

	var items []PaperWithVector
	ids := []string{"b1", "b2", "b3", "b4", "b5"}
	for _, id := range ids {
		items = append(items, PaperWithVector{Paper: mustPaper(t, id, "Batch "+id, testNow)})
	}

	if err := r.UpsertMulti(ctx, items); err != nil {
		t.Fatalf("upsert multi: %v", err)
	}
	for _, id := range ids {
		if _, err := r.Get(ctx, id); err != nil {
			t.Errorf("get %s: %v", id, err)
		}
	}
}
