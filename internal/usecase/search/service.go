package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/citeworthy/paperdex/internal/domain"
	"github.com/citeworthy/paperdex/internal/domain/search/filter"
	"github.com/citeworthy/paperdex/internal/domain/search/result"
	"github.com/citeworthy/paperdex/internal/domain/search/window"
	"github.com/citeworthy/paperdex/internal/metrics"
)

// Config holds search policy knobs, passed explicitly at construction.
type Config struct {
	// KeywordWindow is the default time window for keyword search (all-time).
	KeywordWindow window.Window
	// SimilarWindow is the default time window for similarity search (last week).
	SimilarWindow window.Window
	// FanoutConcurrency bounds parallel member queries during tag search.
	FanoutConcurrency int
	// MemberTimeout cuts off a single member query; a timed-out member is
	// treated like a failed one (skipped).
	MemberTimeout time.Duration
	// OverProvision is added to limit/|members| when sizing per-member
	// fetches, to tolerate filtered-out and deduplicated candidates.
	OverProvision int
	// DefaultLimit and MaxLimit normalize the requested result size.
	DefaultLimit int
	MaxLimit     int
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.KeywordWindow == "" {
		c.KeywordWindow = window.AllTime
	}
	if c.SimilarWindow == "" {
		c.SimilarWindow = window.LastWeek
	}
	if c.FanoutConcurrency <= 0 {
		c.FanoutConcurrency = 8
	}
	if c.MemberTimeout <= 0 {
		c.MemberTimeout = 2 * time.Second
	}
	if c.OverProvision <= 0 {
		c.OverProvision = 3
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 20
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 100
	}
}

// Service answers the four query shapes over a stateless read-only core:
// keyword lookup, single-paper similarity, tag-collection similarity, and
// free-text similarity.
type Service struct {
	vectors VectorIndex
	papers  PaperReader
	tags    TagReader
	embed   domain.Embedder // nil disables free-text similarity
	pool    *ants.Pool
	cfg     Config
	logger  *zap.Logger
}

// New creates a search service. The worker pool bounding tag fan-out is
// owned by the service; call Close to release it.
func New(
	vectors VectorIndex,
	papers PaperReader,
	tags TagReader,
	embed domain.Embedder,
	cfg Config,
	logger *zap.Logger,
) (*Service, error) {
	cfg.ApplyDefaults()

	pool, err := ants.NewPool(cfg.FanoutConcurrency)
	if err != nil {
		return nil, fmt.Errorf("create fan-out pool: %w", err)
	}

	return &Service{
		vectors: vectors,
		papers:  papers,
		tags:    tags,
		embed:   embed,
		pool:    pool,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Close releases the fan-out worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Keyword returns papers whose title matches the term, ordered by
// publication date descending. An empty term yields an empty list.
func (s *Service) Keyword(
	ctx context.Context, term string, f filter.Filter, limit int,
) ([]result.Entry, error) {
	defer metrics.ObserveSearch("keyword", time.Now())

	term = strings.TrimSpace(term)
	if term == "" {
		return []result.Entry{}, nil
	}

	limit = s.normalizeLimit(limit)
	f = f.WithDefaultWindow(s.cfg.KeywordWindow)

	papers, err := s.papers.FindByTitle(ctx, term, f, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search %q: %w", term, err)
	}

	entries := make([]result.Entry, 0, len(papers))
	for _, p := range papers {
		entries = append(entries, result.New(p, 0))
	}
	return entries, nil
}

// SimilarToPaper returns the nearest neighbors of a paper's embedding,
// ordered by ascending distance. The source paper never appears in its own
// result list, regardless of filter.
func (s *Service) SimilarToPaper(
	ctx context.Context, paperID string, f filter.Filter, limit int,
) ([]result.Entry, error) {
	defer metrics.ObserveSearch("paper", time.Now())

	limit = s.normalizeLimit(limit)
	f = f.WithDefaultWindow(s.cfg.SimilarWindow)

	entries, err := s.similarTo(ctx, paperID, f, []string{paperID}, limit)
	if err != nil {
		return nil, fmt.Errorf("similar to paper %s: %w", paperID, err)
	}
	return entries, nil
}

// SimilarToTag fans out one similarity query per tag member and merges the
// independently ranked lists round-robin. No member of the tag ever appears
// in the result: those papers are already known to the user.
func (s *Service) SimilarToTag(
	ctx context.Context, tagID string, f filter.Filter, limit int,
) ([]result.Entry, error) {
	defer metrics.ObserveSearch("tag", time.Now())

	limit = s.normalizeLimit(limit)
	f = f.WithDefaultWindow(s.cfg.SimilarWindow)

	members, err := s.tags.Members(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("similar to tag %s: %w", tagID, err)
	}
	if len(members) == 0 {
		return []result.Entry{}, nil
	}

	perMember := limit/len(members) + s.cfg.OverProvision
	if perMember > limit {
		perMember = limit
	}

	lists, failures := s.fanOut(ctx, tagID, members, f, perMember)
	if failures == len(members) {
		return nil, fmt.Errorf("tag %s: %w", tagID, domain.ErrAllMembersUnavailable)
	}

	return interleave(lists, limit), nil
}

// SimilarToText embeds the query text and returns its nearest neighbors.
func (s *Service) SimilarToText(
	ctx context.Context, text string, f filter.Filter, limit int,
) ([]result.Entry, error) {
	defer metrics.ObserveSearch("text", time.Now())

	if s.embed == nil {
		return nil, domain.ErrTextSearchNotSupported
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return []result.Entry{}, nil
	}

	limit = s.normalizeLimit(limit)
	f = f.WithDefaultWindow(s.cfg.SimilarWindow)

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	entries, err := s.vectors.Nearest(ctx, emb.Embedding, f, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("similar to text: %w", err)
	}
	return entries, nil
}

// similarTo runs one nearest-neighbor query seeded by a paper's embedding.
// Every id in exclude is kept out of the result, the source included.
func (s *Service) similarTo(
	ctx context.Context, sourceID string, f filter.Filter, exclude []string, limit int,
) ([]result.Entry, error) {
	vec, err := s.vectors.FetchEmbedding(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	entries, err := s.vectors.Nearest(ctx, vec, f, exclude, limit)
	if err != nil {
		return nil, err
	}

	// The adapter pre-filter already excludes these ids; the invariant holds
	// even against a backend that ignores exclusions.
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	kept := entries[:0]
	for _, e := range entries {
		if _, skip := excluded[e.ID()]; skip {
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}

// fanOut runs one member query per tag member on the bounded worker pool
// and buffers each completed ranked list before any merging happens. The
// returned lists are positionally aligned with members, nil where the
// member query failed.
func (s *Service) fanOut(
	ctx context.Context, tagID string, members []string, f filter.Filter, perMember int,
) ([][]result.Entry, int) {
	lists := make([][]result.Entry, len(members))
	errs := make([]error, len(members))

	var wg sync.WaitGroup
	for i, memberID := range members {
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()

			mctx, cancel := context.WithTimeout(ctx, s.cfg.MemberTimeout)
			defer cancel()

			entries, err := s.similarTo(mctx, memberID, f, members, perMember)
			if err != nil {
				errs[i] = err
				return
			}
			lists[i] = entries
		})
		if submitErr != nil {
			errs[i] = fmt.Errorf("submit member query: %w", submitErr)
			wg.Done()
		}
	}
	wg.Wait()

	failures := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failures++
		metrics.TagMemberFailuresTotal.Inc()
		s.logger.Warn("tag member query failed",
			zap.String("tag_id", tagID),
			zap.String("paper_id", members[i]),
			zap.Error(err),
		)
	}
	return lists, failures
}

func (s *Service) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}
