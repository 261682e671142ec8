package chi

import (
	"time"

	"github.com/citeworthy/paperdex/internal/domain/paper"
	"github.com/citeworthy/paperdex/internal/domain/search/result"
	"github.com/citeworthy/paperdex/internal/usecase/health"
	papersuc "github.com/citeworthy/paperdex/internal/usecase/papers"
)

// ErrorCode identifies the error class for API clients.
type ErrorCode string

const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodePaperNotFound          ErrorCode = "paper_not_found"
	CodeTagNotFound            ErrorCode = "tag_not_found"
	CodeNotIndexed             ErrorCode = "paper_not_indexed"
	CodeMembersUnavailable     ErrorCode = "tag_members_unavailable"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeTextSearchUnavailable  ErrorCode = "text_search_unavailable"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// PaperResponse is the JSON shape of a paper.
type PaperResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Authors    []string  `json:"authors,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Published  time.Time `json:"published"`
	Updated    time.Time `json:"updated,omitempty"`
	Abstract   string    `json:"abstract,omitempty"`
	Indexed    *bool     `json:"indexed,omitempty"`
}

// SearchResultItem is one ranked hit. Distance is present for similarity
// modes only; keyword results are ordered by publication date.
type SearchResultItem struct {
	Paper    PaperResponse `json:"paper"`
	Distance *float64      `json:"distance,omitempty"`
}

// SearchResponse is the JSON shape of a search result list.
type SearchResponse struct {
	Items []SearchResultItem `json:"items"`
	Total int                `json:"total"`
}

// HealthResponse is the JSON shape of the health report.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func paperToResponse(p paper.Paper) PaperResponse {
	resp := PaperResponse{
		ID:         p.ID(),
		Title:      p.Title(),
		Authors:    p.Authors(),
		Categories: p.Categories(),
		Published:  p.Published().UTC(),
		Abstract:   p.Abstract(),
	}
	if !p.Updated().IsZero() {
		resp.Updated = p.Updated().UTC()
	}
	return resp
}

func detailToResponse(d papersuc.Detail) PaperResponse {
	resp := paperToResponse(d.Paper)
	resp.Indexed = &d.Indexed
	return resp
}

func entriesToResponse(entries []result.Entry, withDistance bool) SearchResponse {
	items := make([]SearchResultItem, len(entries))
	for i := range entries {
		items[i] = SearchResultItem{Paper: paperToResponse(entries[i].Paper())}
		if withDistance {
			d := entries[i].Score()
			items[i].Distance = &d
		}
	}
	return SearchResponse{Items: items, Total: len(items)}
}

func healthToResponse(rep health.Report) HealthResponse {
	checks := make(map[string]string, len(rep.Checks))
	for name, res := range rep.Checks {
		checks[name] = string(res)
	}
	return HealthResponse{Status: string(rep.Status), Checks: checks}
}
