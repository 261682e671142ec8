package paper

import (
	"fmt"
	"time"
)

// Paper is an immutable research-paper record. The retrieval core only reads
// papers; ingestion and corrective edits belong to external collaborators.
type Paper struct {
	id         string
	title      string
	authors    []string
	categories []string
	published  time.Time
	updated    time.Time
	abstract   string
}

// New validates and creates a Paper.
func New(
	id, title string,
	authors, categories []string,
	published time.Time,
	abstract string,
) (Paper, error) {
	if id == "" {
		return Paper{}, fmt.Errorf("paper id is required")
	}
	if title == "" {
		return Paper{}, fmt.Errorf("paper %s: title is required", id)
	}
	if published.IsZero() {
		return Paper{}, fmt.Errorf("paper %s: published date is required", id)
	}
	return Paper{
		id:         id,
		title:      title,
		authors:    authors,
		categories: categories,
		published:  published,
		abstract:   abstract,
	}, nil
}

// Reconstruct restores a Paper from storage without validation.
func Reconstruct(
	id, title string,
	authors, categories []string,
	published, updated time.Time,
	abstract string,
) Paper {
	return Paper{
		id:         id,
		title:      title,
		authors:    authors,
		categories: categories,
		published:  published,
		updated:    updated,
		abstract:   abstract,
	}
}

// ID returns the stable paper identifier (arXiv-style).
func (p *Paper) ID() string { return p.id }

// Title returns the paper title.
func (p *Paper) Title() string { return p.title }

// Authors returns the ordered author list.
func (p *Paper) Authors() []string { return p.authors }

// Categories returns the category set (controlled vocabulary, e.g. "cs.LG").
func (p *Paper) Categories() []string { return p.categories }

// Published returns the publication date.
func (p *Paper) Published() time.Time { return p.published }

// Updated returns the last revision date (zero if never revised).
func (p *Paper) Updated() time.Time { return p.updated }

// Abstract returns the abstract text.
func (p *Paper) Abstract() string { return p.abstract }

// HasCategory reports whether the paper carries the given category.
func (p *Paper) HasCategory(category string) bool {
	for _, c := range p.categories {
		if c == category {
			return true
		}
	}
	return false
}
