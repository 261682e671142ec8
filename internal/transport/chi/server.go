package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/citeworthy/paperdex/internal/domain"
	"github.com/citeworthy/paperdex/internal/domain/search/filter"
	"github.com/citeworthy/paperdex/internal/domain/search/window"
	healthuc "github.com/citeworthy/paperdex/internal/usecase/health"
	papersuc "github.com/citeworthy/paperdex/internal/usecase/papers"
	searchuc "github.com/citeworthy/paperdex/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search core over HTTP.
type Server struct {
	search        *searchuc.Service
	papers        *papersuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	papers *papersuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search: search,
		papers: papers,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrPaperNotFound, http.StatusNotFound, CodePaperNotFound),
		sentinelHandler(domain.ErrTagNotFound, http.StatusNotFound, CodeTagNotFound),
		sentinelHandler(domain.ErrNotEmbedded, http.StatusConflict, CodeNotIndexed),
		sentinelHandler(domain.ErrAllMembersUnavailable, http.StatusServiceUnavailable, CodeMembersUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrTextSearchNotSupported, http.StatusNotImplemented, CodeTextSearchUnavailable),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.Health)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/search/keyword", s.SearchKeyword)
		r.Get("/search/text", s.SearchText)
		r.Get("/search/papers/{paperID}/similar", s.SearchSimilarToPaper)
		r.Get("/search/tags/{tagID}/similar", s.SearchSimilarToTag)
		r.Get("/papers/{paperID}", s.GetPaper)
	})
}

// SearchKeyword handles GET /v1/search/keyword.
func (s *Server) SearchKeyword(w http.ResponseWriter, r *http.Request) {
	f, limit, ok := parseSearchParams(w, r)
	if !ok {
		return
	}

	entries, err := s.search.Keyword(r.Context(), r.URL.Query().Get("q"), f, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entriesToResponse(entries, false))
}

// SearchText handles GET /v1/search/text.
func (s *Server) SearchText(w http.ResponseWriter, r *http.Request) {
	f, limit, ok := parseSearchParams(w, r)
	if !ok {
		return
	}

	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "query parameter q is required")
		return
	}

	entries, err := s.search.SimilarToText(r.Context(), q, f, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entriesToResponse(entries, true))
}

// SearchSimilarToPaper handles GET /v1/search/papers/{paperID}/similar.
func (s *Server) SearchSimilarToPaper(w http.ResponseWriter, r *http.Request) {
	f, limit, ok := parseSearchParams(w, r)
	if !ok {
		return
	}

	paperID := chi.URLParam(r, "paperID")
	entries, err := s.search.SimilarToPaper(r.Context(), paperID, f, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entriesToResponse(entries, true))
}

// SearchSimilarToTag handles GET /v1/search/tags/{tagID}/similar.
func (s *Server) SearchSimilarToTag(w http.ResponseWriter, r *http.Request) {
	f, limit, ok := parseSearchParams(w, r)
	if !ok {
		return
	}

	tagID := chi.URLParam(r, "tagID")
	entries, err := s.search.SimilarToTag(r.Context(), tagID, f, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entriesToResponse(entries, true))
}

// GetPaper handles GET /v1/papers/{paperID}.
func (s *Server) GetPaper(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")

	detail, err := s.papers.Get(r.Context(), paperID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detailToResponse(detail))
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	rep := s.health.Check(r.Context())

	status := http.StatusOK
	if rep.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthToResponse(rep))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// parseSearchParams reads window, category and limit query parameters.
// Writes a 400 response and returns ok=false on invalid input.
func parseSearchParams(w http.ResponseWriter, r *http.Request) (filter.Filter, int, bool) {
	q := r.URL.Query()

	win := window.Window(q.Get("window"))
	if win != "" && !win.IsValid() {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "unknown time window "+strconv.Quote(string(win)))
		return filter.Filter{}, 0, false
	}

	f, err := filter.New(win, q["category"])
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return filter.Filter{}, 0, false
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "limit must be a positive integer")
			return filter.Filter{}, 0, false
		}
	}

	return f, limit, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrPaperNotFound,
		domain.ErrTagNotFound,
		domain.ErrNotEmbedded,
		domain.ErrAllMembersUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrTextSearchNotSupported,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
