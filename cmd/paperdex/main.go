package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/citeworthy/paperdex/internal/config"
	"github.com/citeworthy/paperdex/internal/db"
	dbMemory "github.com/citeworthy/paperdex/internal/db/memory"
	dbRedis "github.com/citeworthy/paperdex/internal/db/redis"
	"github.com/citeworthy/paperdex/internal/domain"
	"github.com/citeworthy/paperdex/internal/domain/search/window"
	logpkg "github.com/citeworthy/paperdex/internal/logger"
	"github.com/citeworthy/paperdex/internal/metrics"
	"github.com/citeworthy/paperdex/internal/repository/embcache"
	papersrepo "github.com/citeworthy/paperdex/internal/repository/papers"
	tagsrepo "github.com/citeworthy/paperdex/internal/repository/tags"
	vectorsrepo "github.com/citeworthy/paperdex/internal/repository/vectors"
	chiTransport "github.com/citeworthy/paperdex/internal/transport/chi"
	openaiEmb "github.com/citeworthy/paperdex/internal/transport/openai"
	healthuc "github.com/citeworthy/paperdex/internal/usecase/health"
	papersuc "github.com/citeworthy/paperdex/internal/usecase/papers"
	searchuc "github.com/citeworthy/paperdex/internal/usecase/search"
	"github.com/citeworthy/paperdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting paperdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	case "memory":
		store = dbMemory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer store.Close()

	// Wait for store to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Store not ready", zap.Error(err))
	}
	logger.Info("Connected to store")

	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterEmbeddingMetrics()

	// Repositories
	vectorCfg := domain.VectorConfig{
		Dimensions: cfg.Embedding.Dimensions,
		Metric:     domain.Metric(cfg.Search.Metric),
	}
	papersRepo := papersrepo.New(store, cfg.Storage.KeyPrefix, vectorCfg).
		WithHNSW(papersrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		}).
		WithMaxBatch(cfg.Index.MaxBatchSize)
	vectorsRepo := vectorsrepo.New(store, cfg.Storage.KeyPrefix, cfg.Embedding.Dimensions)
	tagsRepo := tagsrepo.New(store, cfg.Storage.KeyPrefix)

	if err := papersRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure paper index", zap.Error(err))
	}

	// Embedder chain: OpenAI -> Cached. Only wired when an API key is
	// configured; without it free-text search returns 501 and everything
	// else keeps working off stored vectors.
	var queryEmbedder domain.Embedder
	if cfg.Embedding.APIKey != "" {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})
		queryEmbedder = embcache.New(base, store, cfg.Storage.KeyPrefix, metrics.EmbeddingCacheTotal, logger).
			WithTTL(time.Duration(cfg.Embedding.CacheTTL) * time.Second)
		logger.Info("Query embedder created",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	} else {
		logger.Info("No embedding API key configured, free-text search disabled")
	}

	// Use case services
	searchSvc, err := searchuc.New(vectorsRepo, papersRepo, tagsRepo, queryEmbedder, searchuc.Config{
		KeywordWindow:     window.Window(cfg.Search.KeywordWindow),
		SimilarWindow:     window.Window(cfg.Search.SimilarWindow),
		FanoutConcurrency: cfg.Search.FanoutConcurrency,
		MemberTimeout:     time.Duration(cfg.Search.MemberTimeoutSec) * time.Second,
		OverProvision:     cfg.Search.OverProvision,
		DefaultLimit:      cfg.Search.DefaultLimit,
		MaxLimit:          cfg.Search.MaxLimit,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create search service", zap.Error(err))
	}
	defer searchSvc.Close()

	detailSvc := papersuc.New(papersRepo)

	var embChecker healthuc.EmbeddingChecker
	if hc, ok := queryEmbedder.(domain.HealthChecker); ok {
		embChecker = hc
	}
	healthSvc := healthuc.New(store, store, papersRepo.IndexName(), embChecker)

	// Chi server
	server := chiTransport.NewServer(searchSvc, detailSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
