package paperdex

import (
	"context"
	"fmt"
	"time"

	"github.com/citeworthy/paperdex/internal/domain/paper"
	"github.com/citeworthy/paperdex/internal/domain/search/filter"
	"github.com/citeworthy/paperdex/internal/domain/search/result"
	"github.com/citeworthy/paperdex/internal/domain/search/window"
	"github.com/citeworthy/paperdex/internal/domain/tag"
	papersrepo "github.com/citeworthy/paperdex/internal/repository/papers"
	tagsrepo "github.com/citeworthy/paperdex/internal/repository/tags"
	papersuc "github.com/citeworthy/paperdex/internal/usecase/papers"
	searchuc "github.com/citeworthy/paperdex/internal/usecase/search"
)

// Paper is the public paper record.
type Paper struct {
	ID         string
	Title      string
	Authors    []string
	Categories []string
	Published  time.Time
	Updated    time.Time
	Abstract   string
}

// SearchResult is one ranked hit. Distance is meaningful for similarity
// queries only (lower = more similar); keyword results order by date.
type SearchResult struct {
	Paper    Paper
	Distance float64
}

// SearchOptions restricts a query to a time window and category set.
// Zero value: default window for the query shape, any category.
type SearchOptions struct {
	Window     string // "1week", "1month", "3months", "6months", "12months", "24months", "all"
	Categories []string
	Limit      int
}

// SearchService executes retrieval queries.
type SearchService struct {
	svc *searchuc.Service
}

// Keyword returns papers whose title matches the term, newest first.
func (s *SearchService) Keyword(
	ctx context.Context, term string, opts *SearchOptions,
) ([]SearchResult, error) {
	f, limit, err := toFilter(opts)
	if err != nil {
		return nil, fmt.Errorf("keyword: %w", err)
	}
	entries, err := s.svc.Keyword(ctx, term, f, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword: %w", err)
	}
	return fromEntries(entries), nil
}

// SimilarToPaper returns the nearest neighbors of a stored paper, closest
// first. The source paper is never included.
func (s *SearchService) SimilarToPaper(
	ctx context.Context, paperID string, opts *SearchOptions,
) ([]SearchResult, error) {
	f, limit, err := toFilter(opts)
	if err != nil {
		return nil, fmt.Errorf("similar to paper: %w", err)
	}
	entries, err := s.svc.SimilarToPaper(ctx, paperID, f, limit)
	if err != nil {
		return nil, fmt.Errorf("similar to paper: %w", err)
	}
	return fromEntries(entries), nil
}

// SimilarToTag returns neighbors of a tag's member papers, merged fairly
// across members. Tag members are never included.
func (s *SearchService) SimilarToTag(
	ctx context.Context, tagID string, opts *SearchOptions,
) ([]SearchResult, error) {
	f, limit, err := toFilter(opts)
	if err != nil {
		return nil, fmt.Errorf("similar to tag: %w", err)
	}
	entries, err := s.svc.SimilarToTag(ctx, tagID, f, limit)
	if err != nil {
		return nil, fmt.Errorf("similar to tag: %w", err)
	}
	return fromEntries(entries), nil
}

// SimilarToText embeds free text and returns its nearest neighbors.
// Requires WithEmbedder.
func (s *SearchService) SimilarToText(
	ctx context.Context, text string, opts *SearchOptions,
) ([]SearchResult, error) {
	f, limit, err := toFilter(opts)
	if err != nil {
		return nil, fmt.Errorf("similar to text: %w", err)
	}
	entries, err := s.svc.SimilarToText(ctx, text, f, limit)
	if err != nil {
		return nil, fmt.Errorf("similar to text: %w", err)
	}
	return fromEntries(entries), nil
}

// PaperService stores and reads papers.
type PaperService struct {
	repo   *papersrepo.Repo
	detail *papersuc.Service
}

// Get retrieves a paper. The second return reports whether its embedding
// is stored (a paper without one cannot seed similarity queries).
func (p *PaperService) Get(ctx context.Context, id string) (Paper, bool, error) {
	d, err := p.detail.Get(ctx, id)
	if err != nil {
		return Paper{}, false, fmt.Errorf("get paper: %w", err)
	}
	return fromDomainPaper(d.Paper), d.Indexed, nil
}

// Upsert writes a paper record. vector may be nil for a not-yet-embedded
// paper; pass it later with another Upsert to make the paper searchable.
func (p *PaperService) Upsert(ctx context.Context, item Paper, vector []float32) error {
	dp, err := toDomainPaper(item)
	if err != nil {
		return fmt.Errorf("upsert paper: %w", err)
	}
	if err := p.repo.Upsert(ctx, dp, vector); err != nil {
		return fmt.Errorf("upsert paper: %w", err)
	}
	return nil
}

// UpsertBatch writes several papers at once.
func (p *PaperService) UpsertBatch(ctx context.Context, items []Paper, vectors [][]float32) error {
	if vectors != nil && len(vectors) != len(items) {
		return fmt.Errorf("upsert batch: %d papers but %d vectors", len(items), len(vectors))
	}
	batch := make([]papersrepo.PaperWithVector, len(items))
	for i, item := range items {
		dp, err := toDomainPaper(item)
		if err != nil {
			return fmt.Errorf("upsert batch item %d: %w", i, err)
		}
		batch[i].Paper = dp
		if vectors != nil {
			batch[i].Vector = vectors[i]
		}
	}
	if err := p.repo.UpsertMulti(ctx, batch); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}

// TagService stores and reads tags.
type TagService struct {
	repo *tagsrepo.Repo
}

// Put creates or replaces a tag with the given member papers.
func (t *TagService) Put(ctx context.Context, id, owner, name string, memberIDs []string) error {
	dt, err := tag.New(id, owner, name, memberIDs)
	if err != nil {
		return fmt.Errorf("put tag: %w", err)
	}
	if err := t.repo.Put(ctx, dt); err != nil {
		return fmt.Errorf("put tag: %w", err)
	}
	return nil
}

// Members lists a tag's member paper ids.
func (t *TagService) Members(ctx context.Context, id string) ([]string, error) {
	members, err := t.repo.Members(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tag members: %w", err)
	}
	return members, nil
}

// AddMembers adds papers to an existing tag.
func (t *TagService) AddMembers(ctx context.Context, id string, paperIDs ...string) error {
	if err := t.repo.AddMembers(ctx, id, paperIDs...); err != nil {
		return fmt.Errorf("add tag members: %w", err)
	}
	return nil
}

// RemoveMembers removes papers from a tag.
func (t *TagService) RemoveMembers(ctx context.Context, id string, paperIDs ...string) error {
	if err := t.repo.RemoveMembers(ctx, id, paperIDs...); err != nil {
		return fmt.Errorf("remove tag members: %w", err)
	}
	return nil
}

func toFilter(opts *SearchOptions) (filter.Filter, int, error) {
	if opts == nil {
		return filter.Filter{}, 0, nil
	}
	w := window.Window(opts.Window)
	f, err := filter.New(w, opts.Categories)
	if err != nil {
		return filter.Filter{}, 0, err
	}
	return f, opts.Limit, nil
}

func fromEntries(entries []result.Entry) []SearchResult {
	out := make([]SearchResult, len(entries))
	for i := range entries {
		out[i] = SearchResult{
			Paper:    fromDomainPaper(entries[i].Paper()),
			Distance: entries[i].Score(),
		}
	}
	return out
}

func fromDomainPaper(p paper.Paper) Paper {
	return Paper{
		ID:         p.ID(),
		Title:      p.Title(),
		Authors:    p.Authors(),
		Categories: p.Categories(),
		Published:  p.Published(),
		Updated:    p.Updated(),
		Abstract:   p.Abstract(),
	}
}

func toDomainPaper(p Paper) (paper.Paper, error) {
	dp, err := paper.New(p.ID, p.Title, p.Authors, p.Categories, p.Published, p.Abstract)
	if err != nil {
		return paper.Paper{}, err
	}
	if !p.Updated.IsZero() {
		dp = paper.Reconstruct(p.ID, p.Title, p.Authors, p.Categories, p.Published, p.Updated, p.Abstract)
	}
	return dp, nil
}
