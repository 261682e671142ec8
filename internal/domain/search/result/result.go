package result

import "github.com/citeworthy/paperdex/internal/domain/paper"

// Entry is a single ranked search hit: a paper plus its score. For
// similarity modes the score is a distance (lower = more similar); for
// keyword mode, which orders by publication date, the score is zero.
type Entry struct {
	paper paper.Paper
	score float64
}

// New creates a ranked entry.
func New(p paper.Paper, score float64) Entry {
	return Entry{paper: p, score: score}
}

// Paper returns the matched paper.
func (e *Entry) Paper() paper.Paper { return e.paper }

// ID returns the matched paper's identifier.
func (e *Entry) ID() string { return e.paper.ID() }

// Score returns the ranking score.
func (e *Entry) Score() float64 { return e.score }
