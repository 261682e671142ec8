package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/citeworthy/paperdex/internal/db/memory"
	"github.com/citeworthy/paperdex/internal/domain"
)

type countingEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (c *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	c.calls++
	if c.err != nil {
		return domain.EmbeddingResult{}, c.err
	}
	return domain.EmbeddingResult{Embedding: c.vec, TotalTokens: 11}, nil
}

func TestEmbed_SecondCallHitsCache(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{0.1, 0.2}}
	cached := New(inner, memory.NewStore(), "test:", nil, zap.NewNop())
	ctx := context.Background()

	first, err := cached.Embed(ctx, "graph neural networks")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if first.TotalTokens != 11 {
		t.Errorf("miss should report provider token usage, got %d", first.TotalTokens)
	}

	second, err := cached.Embed(ctx, "graph neural networks")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner embedder called %d times, want 1", inner.calls)
	}
	if len(second.Embedding) != 2 || second.Embedding[0] != 0.1 || second.Embedding[1] != 0.2 {
		t.Errorf("cached embedding = %v", second.Embedding)
	}
	if second.TotalTokens != 0 {
		t.Errorf("cache hit consumes no tokens, got %d", second.TotalTokens)
	}
}

func TestEmbed_DistinctTextsMiss(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{0.1}}
	cached := New(inner, memory.NewStore(), "test:", nil, zap.NewNop())
	ctx := context.Background()

	if _, err := cached.Embed(ctx, "first query"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if _, err := cached.Embed(ctx, "second query"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner embedder called %d times, want 2", inner.calls)
	}
}

func TestEmbed_ProviderErrorNotCached(t *testing.T) {
	inner := &countingEmbedder{err: domain.ErrEmbeddingProviderError}
	cached := New(inner, memory.NewStore(), "test:", nil, zap.NewNop())
	ctx := context.Background()

	if _, err := cached.Embed(ctx, "query"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}

	inner.err = nil
	inner.vec = []float32{0.5}
	if _, err := cached.Embed(ctx, "query"); err != nil {
		t.Fatalf("retry after provider recovery: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("failed call must not poison the cache, inner calls = %d", inner.calls)
	}
}
