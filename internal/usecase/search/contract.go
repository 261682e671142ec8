package search

import (
	"context"

	"github.com/citeworthy/paperdex/internal/domain/paper"
	"github.com/citeworthy/paperdex/internal/domain/search/filter"
	"github.com/citeworthy/paperdex/internal/domain/search/result"
)

// VectorIndex is the storage contract for embedding lookups and filtered
// nearest-neighbor search. Implementations must order by ascending distance
// with ties broken by paper id ascending, and must never fail on an empty
// candidate set.
type VectorIndex interface {
	// FetchEmbedding returns domain.ErrPaperNotFound for an unknown paper
	// and domain.ErrNotEmbedded for a paper without a vector.
	FetchEmbedding(ctx context.Context, paperID string) ([]float32, error)

	Nearest(
		ctx context.Context,
		vector []float32,
		f filter.Filter,
		excludeIDs []string,
		limit int,
	) ([]result.Entry, error)
}

// PaperReader reads paper metadata.
type PaperReader interface {
	Get(ctx context.Context, id string) (paper.Paper, error)
	FindByTitle(ctx context.Context, term string, f filter.Filter, limit int) ([]paper.Paper, error)
}

// TagReader reads tag membership at query time.
type TagReader interface {
	// Members returns domain.ErrTagNotFound for an unknown tag. The member
	// ids are deduplicated and ascending.
	Members(ctx context.Context, tagID string) ([]string, error)
}
