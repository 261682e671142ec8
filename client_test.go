package paperdex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/citeworthy/paperdex/internal/domain"
)

var ctx = context.Background()

type staticEmbedder struct {
	vec []float32
}

func (e *staticEmbedder) Embed(context.Context, string) (EmbeddingResult, error) {
	return EmbeddingResult{Embedding: e.vec, TotalTokens: 7}, nil
}

func newTestClient(t *testing.T, extra ...Option) *Client {
	t.Helper()
	opts := append([]Option{
		WithMemory(),
		WithVectorDimensions(2),
		WithMetric("l2"),
		WithDefaultWindows("all", "all"),
	}, extra...)

	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)

	if err := c.EnsureIndex(ctx); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	return c
}

func seedLibrary(t *testing.T, c *Client) {
	t.Helper()
	published := time.Now().Add(-24 * time.Hour)

	papers := []struct {
		id  string
		vec []float32
	}{
		{"origin", []float32{0, 0}},
		{"near", []float32{1, 0}},
		{"far", []float32{8, 0}},
	}
	for _, p := range papers {
		err := c.Papers().Upsert(ctx, Paper{
			ID:         p.id,
			Title:      "deep learning survey " + p.id,
			Categories: []string{"cs.LG"},
			Published:  published,
		}, p.vec)
		if err != nil {
			t.Fatalf("upsert %s: %v", p.id, err)
		}
	}
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without a store option")
	}
}

func TestNew_UnknownMetric(t *testing.T) {
	if _, err := New(WithMemory(), WithMetric("hamming")); err == nil {
		t.Fatal("expected error for unknown metric")
	}
}

func TestNew_MemoryPing(t *testing.T) {
	c, err := New(WithMemory())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestKeywordSearch(t *testing.T) {
	c := newTestClient(t)
	seedLibrary(t, c)

	results, err := c.Search().Keyword(ctx, "survey", nil)
	if err != nil {
		t.Fatalf("keyword: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
}

func TestSimilarToPaper(t *testing.T) {
	c := newTestClient(t)
	seedLibrary(t, c)

	results, err := c.Search().SimilarToPaper(ctx, "origin", nil)
	if err != nil {
		t.Fatalf("similar: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Paper.ID != "near" || results[1].Paper.ID != "far" {
		t.Errorf("order = [%s %s], want [near far]", results[0].Paper.ID, results[1].Paper.ID)
	}
	for _, r := range results {
		if r.Paper.ID == "origin" {
			t.Error("seed paper leaked into its own result")
		}
	}

	_, err = c.Search().SimilarToPaper(ctx, "missing", nil)
	if !errors.Is(err, domain.ErrPaperNotFound) {
		t.Errorf("err = %v, want ErrPaperNotFound", err)
	}
}

func TestSimilarToTag(t *testing.T) {
	c := newTestClient(t)
	seedLibrary(t, c)

	if err := c.Tags().Put(ctx, "toread", "me", "to read", []string{"origin", "near"}); err != nil {
		t.Fatalf("put tag: %v", err)
	}

	results, err := c.Search().SimilarToTag(ctx, "toread", nil)
	if err != nil {
		t.Fatalf("similar to tag: %v", err)
	}
	for _, r := range results {
		if r.Paper.ID == "origin" || r.Paper.ID == "near" {
			t.Errorf("tag member %s in result", r.Paper.ID)
		}
	}
	if len(results) != 1 || results[0].Paper.ID != "far" {
		t.Errorf("results = %+v, want just far", results)
	}

	members, err := c.Tags().Members(ctx, "toread")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("members = %v", members)
	}
}

func TestSimilarToText(t *testing.T) {
	c := newTestClient(t, WithEmbedder(&staticEmbedder{vec: []float32{0.5, 0}}))
	seedLibrary(t, c)

	results, err := c.Search().SimilarToText(ctx, "attention models", nil)
	if err != nil {
		t.Fatalf("similar to text: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3 (no exclusions for text queries)", len(results))
	}
	if results[0].Paper.ID != "origin" && results[0].Paper.ID != "near" {
		t.Errorf("closest = %s", results[0].Paper.ID)
	}
}

func TestSimilarToText_NoEmbedder(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Search().SimilarToText(ctx, "anything", nil)
	if !errors.Is(err, domain.ErrTextSearchNotSupported) {
		t.Errorf("err = %v, want ErrTextSearchNotSupported", err)
	}
}

func TestPaperGetIndexedFlag(t *testing.T) {
	c := newTestClient(t)

	if err := c.Papers().Upsert(ctx, Paper{
		ID:        "pending",
		Title:     "not embedded yet",
		Published: time.Now(),
	}, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	_, indexed, err := c.Papers().Get(ctx, "pending")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if indexed {
		t.Error("paper without a vector must report indexed=false")
	}

	_, err = c.Search().SimilarToPaper(ctx, "pending", nil)
	if !errors.Is(err, domain.ErrNotEmbedded) {
		t.Errorf("err = %v, want ErrNotEmbedded", err)
	}
}

func TestUpsertBatch(t *testing.T) {
	c := newTestClient(t)

	items := []Paper{
		{ID: "b1", Title: "batch one", Published: time.Now()},
		{ID: "b2", Title: "batch two", Published: time.Now()},
	}
	vectors := [][]float32{{1, 1}, nil}

	if err := c.Papers().UpsertBatch(ctx, items, vectors); err != nil {
		t.Fatalf("upsert batch: %v", err)
	}
	for _, id := range []string{"b1", "b2"} {
		if _, _, err := c.Papers().Get(ctx, id); err != nil {
			t.Errorf("get %s: %v", id, err)
		}
	}

	if err := c.Papers().UpsertBatch(ctx, items, [][]float32{{1, 1}}); err == nil {
		t.Error("expected error for papers/vectors length mismatch")
	}
}

func TestSearchOptions_Validation(t *testing.T) {
	c := newTestClient(t)
	seedLibrary(t, c)

	if _, err := c.Search().Keyword(ctx, "survey", &SearchOptions{Window: "fortnight"}); err == nil {
		t.Error("expected error for unknown window")
	}

	results, err := c.Search().Keyword(ctx, "survey", &SearchOptions{
		Window:     "all",
		Categories: []string{"cs.LG"},
		Limit:      2,
	})
	if err != nil {
		t.Fatalf("keyword: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("limit ignored: got %d results", len(results))
	}
}
