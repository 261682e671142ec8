package domain

import "errors"

var (
	// ErrPaperNotFound signals an unknown paper identifier.
	ErrPaperNotFound = errors.New("paper not found")
	// ErrTagNotFound signals an unknown tag identifier.
	ErrTagNotFound = errors.New("tag not found")
	// ErrNotEmbedded signals a paper that exists but has no embedding yet.
	// User-visible "still processing" state, not a system fault.
	ErrNotEmbedded = errors.New("paper not yet indexed")
	// ErrAllMembersUnavailable signals that every member query of a
	// tag-similarity search failed.
	ErrAllMembersUnavailable = errors.New("all tag members unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrTextSearchNotSupported signals that no query embedder is configured.
	ErrTextSearchNotSupported = errors.New("free-text similarity search not configured")
)
