package vectors

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/citeworthy/paperdex/internal/db"
	"github.com/citeworthy/paperdex/internal/domain"
	"github.com/citeworthy/paperdex/internal/domain/search/filter"
	"github.com/citeworthy/paperdex/internal/domain/search/result"
	"github.com/citeworthy/paperdex/internal/repository/papers"
)

// store is the consumer interface for vector lookups (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements the vector index adapter: embedding fetch by paper id and
// filtered nearest-neighbor search. The distance metric is fixed at store
// construction; lower distance always means more similar.
type Repo struct {
	store  store
	prefix string
	dims   int
	now    func() time.Time
}

// New creates a vector repository.
func New(s store, keyPrefix string, dims int) *Repo {
	return &Repo{store: s, prefix: keyPrefix, dims: dims, now: time.Now}
}

// WithNow overrides the clock used for window cutoffs (tests).
func (r *Repo) WithNow(now func() time.Time) *Repo {
	r.now = now
	return r
}

func (r *Repo) indexName() string {
	return r.prefix + "papers:idx"
}

func (r *Repo) paperKey(id string) string {
	return r.prefix + "paper:" + id
}

// FetchEmbedding returns the stored embedding for a paper.
// domain.ErrPaperNotFound if the paper is unknown; domain.ErrNotEmbedded if
// the paper exists without a vector (not yet processed).
func (r *Repo) FetchEmbedding(ctx context.Context, paperID string) ([]float32, error) {
	fields, err := r.store.HGetAll(ctx, r.paperKey(paperID))
	if err != nil {
		return nil, fmt.Errorf("fetch embedding %s: %w", paperID, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("paper %s: %w", paperID, domain.ErrPaperNotFound)
	}
	raw, ok := fields[db.FieldVector]
	if !ok || raw == "" {
		return nil, fmt.Errorf("paper %s: %w", paperID, domain.ErrNotEmbedded)
	}
	vec := db.VectorFromBytes(raw)
	if r.dims > 0 && len(vec) != r.dims {
		return nil, fmt.Errorf("paper %s: stored vector has %d dimensions, want %d: %w",
			paperID, len(vec), r.dims, domain.ErrVectorDimMismatch)
	}
	return vec, nil
}

// Nearest returns up to limit papers matching the filter and not excluded,
// ordered by ascending distance, ties broken by paper id ascending. An empty
// candidate set yields an empty slice, never an error.
func (r *Repo) Nearest(
	ctx context.Context,
	vector []float32,
	f filter.Filter,
	excludeIDs []string,
	limit int,
) ([]result.Entry, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            limit,
		Cutoff:       f.Cutoff(r.now()),
		Categories:   f.Categories(),
		ExcludeIDs:   excludeIDs,
		ReturnFields: papers.ReturnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("nearest: %w", err)
	}

	entries := make([]result.Entry, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		p := papers.ParseFields(e.Fields[db.FieldID], e.Fields)
		entries = append(entries, result.New(p, e.Distance))
	}

	// Backends order by distance, but tie order is theirs; re-sort so that
	// identical inputs always yield identical output.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score() != entries[j].Score() {
			return entries[i].Score() < entries[j].Score()
		}
		return entries[i].ID() < entries[j].ID()
	})

	return entries, nil
}
