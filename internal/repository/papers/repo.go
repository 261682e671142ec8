package papers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citeworthy/paperdex/internal/db"
	"github.com/citeworthy/paperdex/internal/domain"
	"github.com/citeworthy/paperdex/internal/domain/paper"
	"github.com/citeworthy/paperdex/internal/domain/search/filter"
)

// store is the consumer interface for paper records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig holds index build parameters for the vector field.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo reads and writes paper records over a db store. The retrieval core
// only reads; the write path exists so collaborators (and tests) can
// populate a store.
type Repo struct {
	store    store
	prefix   string
	vector   domain.VectorConfig
	hnsw     HNSWConfig
	maxBatch int
	now      func() time.Time
}

// New creates a paper repository.
func New(s store, keyPrefix string, vector domain.VectorConfig) *Repo {
	return &Repo{
		store:    s,
		prefix:   keyPrefix,
		vector:   vector,
		maxBatch: 100,
		now:      time.Now,
	}
}

// WithHNSW sets HNSW index build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// WithMaxBatch caps the number of records per UpsertMulti round-trip.
func (r *Repo) WithMaxBatch(n int) *Repo {
	if n > 0 {
		r.maxBatch = n
	}
	return r
}

// WithNow overrides the clock used for window cutoffs (tests).
func (r *Repo) WithNow(now func() time.Time) *Repo {
	r.now = now
	return r
}

// IndexName returns the search index name for paper records.
func (r *Repo) IndexName() string {
	return r.prefix + "papers:idx"
}

func (r *Repo) paperKey(id string) string {
	return r.prefix + "paper:" + id
}

// EnsureIndex creates the paper search index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	metric := db.DistanceCosine
	if r.vector.Metric == domain.MetricL2 {
		metric = db.DistanceL2
	}

	def, err := db.NewIndex(r.IndexName()).
		Prefix(r.prefix + "paper:").
		Tag(db.FieldID).
		Text(db.FieldTitle).
		TagWithSeparator(db.FieldCategories, db.CategorySeparator).
		Numeric(db.FieldPublished).
		VectorHNSW(db.FieldVector, r.vector.Dimensions, metric, r.hnsw.M, r.hnsw.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Get fetches a paper by id.
func (r *Repo) Get(ctx context.Context, id string) (paper.Paper, error) {
	fields, err := r.store.HGetAll(ctx, r.paperKey(id))
	if err != nil {
		return paper.Paper{}, fmt.Errorf("get paper %s: %w", id, err)
	}
	if len(fields) == 0 {
		return paper.Paper{}, fmt.Errorf("paper %s: %w", id, domain.ErrPaperNotFound)
	}
	return ParseFields(id, fields), nil
}

// IsIndexed reports whether the paper exists and carries an embedding.
func (r *Repo) IsIndexed(ctx context.Context, id string) (bool, error) {
	fields, err := r.store.HGetAll(ctx, r.paperKey(id))
	if err != nil {
		return false, fmt.Errorf("get paper %s: %w", id, err)
	}
	if len(fields) == 0 {
		return false, fmt.Errorf("paper %s: %w", id, domain.ErrPaperNotFound)
	}
	return fields[db.FieldVector] != "", nil
}

// FindByTitle returns papers whose title matches the term, restricted by the
// candidate filter, ordered by publication date descending.
func (r *Repo) FindByTitle(
	ctx context.Context, term string, f filter.Filter, limit int,
) ([]paper.Paper, error) {
	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    r.IndexName(),
		Term:         term,
		Cutoff:       f.Cutoff(r.now()),
		Categories:   f.Categories(),
		Limit:        limit,
		ReturnFields: ReturnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("find papers by title: %w", err)
	}

	out := make([]paper.Paper, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := entry.Fields[db.FieldID]
		out = append(out, ParseFields(id, entry.Fields))
	}
	return out, nil
}

// Upsert writes a paper record with its embedding (nil = not yet indexed).
func (r *Repo) Upsert(ctx context.Context, p paper.Paper, vector []float32) error {
	if vector != nil && len(vector) != r.vector.Dimensions {
		return fmt.Errorf("paper %s: vector has %d dimensions, want %d: %w",
			p.ID(), len(vector), r.vector.Dimensions, domain.ErrVectorDimMismatch)
	}
	if err := r.store.HSet(ctx, r.paperKey(p.ID()), buildHashFields(p, vector)); err != nil {
		return fmt.Errorf("upsert paper %s: %w", p.ID(), err)
	}
	return nil
}

// PaperWithVector pairs a paper with its embedding for batch upserts.
type PaperWithVector struct {
	Paper  paper.Paper
	Vector []float32
}

// UpsertMulti writes multiple paper records in pipelined round-trips of at
// most maxBatch records each.
func (r *Repo) UpsertMulti(ctx context.Context, items []PaperWithVector) error {
	if len(items) == 0 {
		return nil
	}
	hashItems := make([]db.HashSetItem, len(items))
	for i, item := range items {
		if item.Vector != nil && len(item.Vector) != r.vector.Dimensions {
			return fmt.Errorf("paper %s: vector has %d dimensions, want %d: %w",
				item.Paper.ID(), len(item.Vector), r.vector.Dimensions, domain.ErrVectorDimMismatch)
		}
		hashItems[i] = db.HashSetItem{
			Key:    r.paperKey(item.Paper.ID()),
			Fields: buildHashFields(item.Paper, item.Vector),
		}
	}
	for start := 0; start < len(hashItems); start += r.maxBatch {
		end := min(start+r.maxBatch, len(hashItems))
		if err := r.store.HSetMulti(ctx, hashItems[start:end]); err != nil {
			return fmt.Errorf("upsert papers: %w", err)
		}
	}
	return nil
}
