// Package paperdex is an embeddable retrieval core for a personal library
// of research papers: keyword lookup plus nearest-neighbor similarity over
// stored paper embeddings, seeded by a single paper, a tag collection, or
// free text.
package paperdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/citeworthy/paperdex/internal/db"
	dbMemory "github.com/citeworthy/paperdex/internal/db/memory"
	dbRedis "github.com/citeworthy/paperdex/internal/db/redis"
	"github.com/citeworthy/paperdex/internal/domain"
	"github.com/citeworthy/paperdex/internal/domain/search/window"
	papersrepo "github.com/citeworthy/paperdex/internal/repository/papers"
	tagsrepo "github.com/citeworthy/paperdex/internal/repository/tags"
	vectorsrepo "github.com/citeworthy/paperdex/internal/repository/vectors"
	papersuc "github.com/citeworthy/paperdex/internal/usecase/papers"
	searchuc "github.com/citeworthy/paperdex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Embedder vectorizes free text. Implement it to enable text search.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is a computed embedding plus token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Client is the paperdex SDK entry point.
type Client struct {
	store     db.Store
	papers    *papersrepo.Repo
	tags      *tagsrepo.Repo
	searchSvc *searchuc.Service
	detailSvc *papersuc.Service
}

// New creates a paperdex Client and connects to the store.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:        "paperdex:",
		vectorDimensions: domain.DefaultVectorConfig().Dimensions,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("paperdex: store not ready: %w", err)
	}

	return wireClient(store, cfg)
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("paperdex: create redis store: %w", err)
		}
		return s, nil
	case "memory":
		return dbMemory.NewStore(), nil
	case "":
		return nil, errors.New("paperdex: store required (use WithRedis or WithMemory)")
	default:
		return nil, fmt.Errorf("paperdex: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var metric domain.Metric
	switch cfg.metric {
	case "", "cosine":
		metric = domain.MetricCosine
	case "l2":
		metric = domain.MetricL2
	default:
		store.Close()
		return nil, fmt.Errorf("paperdex: unknown metric %q", cfg.metric)
	}

	vectorCfg := domain.VectorConfig{
		Dimensions: cfg.vectorDimensions,
		Metric:     metric,
	}

	papersRepo := papersrepo.New(store, cfg.keyPrefix, vectorCfg)
	if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
		papersRepo = papersRepo.WithHNSW(papersrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	}
	vectorsRepo := vectorsrepo.New(store, cfg.keyPrefix, cfg.vectorDimensions)
	tagsRepo := tagsrepo.New(store, cfg.keyPrefix)

	var domEmb domain.Embedder
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}

	searchSvc, err := searchuc.New(vectorsRepo, papersRepo, tagsRepo, domEmb, searchuc.Config{
		KeywordWindow:     window.Window(cfg.keywordWindow),
		SimilarWindow:     window.Window(cfg.similarWindow),
		FanoutConcurrency: cfg.fanoutConcurrency,
		MemberTimeout:     cfg.memberTimeout,
		OverProvision:     cfg.overProvision,
		DefaultLimit:      cfg.defaultLimit,
		MaxLimit:          cfg.maxLimit,
	}, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("paperdex: wire search service: %w", err)
	}

	return &Client{
		store:     store,
		papers:    papersRepo,
		tags:      tagsRepo,
		searchSvc: searchSvc,
		detailSvc: papersuc.New(papersRepo),
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.searchSvc != nil {
		c.searchSvc.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndex creates the paper search index if it does not exist (idempotent).
func (c *Client) EnsureIndex(ctx context.Context) error {
	if err := c.papers.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	return nil
}

// Search returns the query service.
func (c *Client) Search() *SearchService {
	return &SearchService{svc: c.searchSvc}
}

// Papers returns the paper store service.
func (c *Client) Papers() *PaperService {
	return &PaperService{repo: c.papers, detail: c.detailSvc}
}

// Tags returns the tag store service.
func (c *Client) Tags() *TagService {
	return &TagService{repo: c.tags}
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
