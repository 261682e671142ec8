package papers

import (
	"context"
	"fmt"

	"github.com/citeworthy/paperdex/internal/domain/paper"
)

// Detail is a paper plus its index state.
type Detail struct {
	Paper   paper.Paper
	Indexed bool
}

// Service serves paper detail lookups.
type Service struct {
	papers Reader
}

// New creates a Service.
func New(papers Reader) *Service {
	return &Service{papers: papers}
}

// Get returns a paper with an indexed flag reporting whether its embedding
// is stored. A paper without an embedding is still readable; it just cannot
// seed similarity queries yet.
func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	p, err := s.papers.Get(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("get paper %s: %w", id, err)
	}

	indexed, err := s.papers.IsIndexed(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("check paper %s index state: %w", id, err)
	}

	return Detail{Paper: p, Indexed: indexed}, nil
}
