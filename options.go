package paperdex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "redis" or "memory"
	addrs    []string
	password string

	embedder Embedder

	keyPrefix        string
	vectorDimensions int
	metric           string // "cosine" or "l2"
	hnswM            int
	hnswEFConstruct  int

	keywordWindow     string
	similarWindow     string
	fanoutConcurrency int
	memberTimeout     time.Duration
	overProvision     int
	defaultLimit      int
	maxLimit          int

	logger *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance with the
// RediSearch module loaded.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemory configures the client to use the in-process store. Useful for
// tests and small libraries; exact brute-force scan instead of HNSW.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithEmbedder sets the free-text embedding provider.
// Without it, text search returns an error; paper and tag similarity keep
// working off stored vectors.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithKeyPrefix sets the key namespace. Default: "paperdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithVectorDimensions sets the embedding dimension. Default: 1536.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithMetric sets the vector distance metric, "cosine" or "l2".
// Default: "cosine". Must match the metric the stored embeddings were
// produced for.
func WithMetric(metric string) Option {
	return optionFunc(func(c *clientConfig) {
		c.metric = metric
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=32, EFConstruct=400.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithDefaultWindows sets the default time windows applied when a query
// carries none: keyword browsing and similarity respectively.
// Defaults: "all" and "1week".
func WithDefaultWindows(keyword, similar string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keywordWindow = keyword
		c.similarWindow = similar
	})
}

// WithFanout configures tag similarity fan-out: worker pool size and the
// per-member query timeout. Defaults: 8 workers, 2s.
func WithFanout(concurrency int, memberTimeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.fanoutConcurrency = concurrency
		c.memberTimeout = memberTimeout
	})
}

// WithOverProvision sets the extra results fetched per tag member beyond
// the fair share, to tolerate dedupe and filtering. Default: 3.
func WithOverProvision(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.overProvision = n
	})
}

// WithLimits sets the default and maximum result list sizes.
// Defaults: 20 and 100.
func WithLimits(defaultLimit, maxLimit int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultLimit = defaultLimit
		c.maxLimit = maxLimit
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
