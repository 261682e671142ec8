package db

import "time"

// KNNQuery is the input for filtered vector similarity search. Cutoff,
// Categories, and ExcludeIDs are applied as a pre-filter before distance
// ranking.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	Cutoff       time.Time // inclusive published lower bound; zero = unrestricted
	Categories   []string  // any-of; empty = unrestricted
	ExcludeIDs   []string
	ReturnFields []string
}

// TextQuery is the input for keyword search over the title field.
// Results are ordered by published date descending.
type TextQuery struct {
	IndexName    string
	Term         string
	Cutoff       time.Time
	Categories   []string
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Distance is the raw vector distance for KNN
// queries (lower = more similar) and zero for text queries.
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}
